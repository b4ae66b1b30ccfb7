package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/observability"
)

const (
	fieldEntries = "entries"
	fieldData    = "data"
)

// setIfNewer writes the balance hash unless the stored one has more entries.
// KEYS[1] balance key; ARGV entries, encoded balance, ttl in milliseconds.
var setIfNewer = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'entries')
if current and tonumber(current) > tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'entries', ARGV[1], 'data', ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[3])
end
return 1
`)

// BalanceCache implements domain.BalanceCache. Each balance is a hash holding
// its entry count next to the JSON value so writes can be ordered in Redis.
type BalanceCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewBalanceCache creates a balance cache. A zero ttl keeps values until the
// next invalidation.
func NewBalanceCache(client *redis.Client, prefix string, ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *BalanceCache) key(userID string) string {
	return c.prefix + "balance:" + userID
}

// Get returns domain.ErrCacheMiss when nothing is cached for userID.
func (c *BalanceCache) Get(ctx context.Context, userID string) (domain.Balance, error) {
	data, err := c.client.HGet(ctx, c.key(userID), fieldData).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Balance{}, domain.ErrCacheMiss
		}
		return domain.Balance{}, fmt.Errorf("failed to get cached balance: %w", err)
	}

	var balance domain.Balance
	if err := json.Unmarshal(data, &balance); err != nil {
		observability.FromContext(ctx).Warn("dropping undecodable cached balance",
			observability.String("key", c.key(userID)),
			observability.Error(err))
		_ = c.client.Del(ctx, c.key(userID)).Err()
		return domain.Balance{}, domain.ErrCacheMiss
	}

	return balance, nil
}

// Set stores balance unless a balance with more entries is already cached.
func (c *BalanceCache) Set(ctx context.Context, balance domain.Balance) error {
	data, err := json.Marshal(balance)
	if err != nil {
		return fmt.Errorf("failed to encode balance: %w", err)
	}

	stored, err := setIfNewer.Run(ctx, c.client,
		[]string{c.key(balance.UserID)},
		balance.Entries, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to cache balance: %w", err)
	}
	if stored == 0 {
		observability.FromContext(ctx).Debug("kept newer cached balance",
			observability.String("user_id", balance.UserID),
			observability.Int64("entries", balance.Entries))
	}

	return nil
}

// Invalidate removes the cached balance for userID.
func (c *BalanceCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.key(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate balance: %w", err)
	}
	return nil
}
