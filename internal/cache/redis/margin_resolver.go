package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/observability"
)

// ErrRateNotPublished indicates the rate hash has no field for a model.
var ErrRateNotPublished = errors.New("margin rate not published")

// MarginResolver reads live margin rates from a Redis hash whose fields are
// "vendor/model" (or "vendor/*") and whose values are decimal rates such as
// "0.25".
type MarginResolver struct {
	client *redis.Client
	key    string
}

// NewMarginResolver creates a resolver over the hash at key.
func NewMarginResolver(client *redis.Client, key string) *MarginResolver {
	return &MarginResolver{
		client: client,
		key:    key,
	}
}

// ResolveRate implements domain.MarginResolver.
func (r *MarginResolver) ResolveRate(ctx context.Context, vendor, model string) (money.RatePPM, error) {
	vendor = strings.ToLower(vendor)
	fields := []string{vendor + "/" + strings.ToLower(model), vendor + "/*"}

	values, err := r.client.HMGet(ctx, r.key, fields...).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read margin rates: %w", err)
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		rate, parseErr := money.ParseRate(raw)
		if parseErr != nil {
			return 0, fmt.Errorf("invalid margin rate %q for %s: %w", raw, fields[i], parseErr)
		}
		observability.FromContext(ctx).Debug("resolved dynamic margin",
			observability.String("field", fields[i]),
			observability.Stringer("rate", rate))
		return rate, nil
	}

	return 0, fmt.Errorf("%w: %s/%s", ErrRateNotPublished, vendor, model)
}

// Publish sets the live rate for vendor/model. Operators and tests use it to
// feed the hash.
func (r *MarginResolver) Publish(ctx context.Context, vendor, model string, rate money.RatePPM) error {
	field := strings.ToLower(vendor) + "/" + strings.ToLower(model)
	if err := r.client.HSet(ctx, r.key, field, rate.String()).Err(); err != nil {
		return fmt.Errorf("failed to publish margin rate: %w", err)
	}
	return nil
}
