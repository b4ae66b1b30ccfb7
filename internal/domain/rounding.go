package domain

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/observability"
)

// Increment is the smallest step between representable credit values,
// expressed in hundredths of a credit.
type Increment money.Centi

// Allowed rounding increments.
const (
	IncrementHundredth Increment = 1   // 0.01 credits
	IncrementTenth     Increment = 10  // 0.1 credits
	IncrementWhole     Increment = 100 // 1.0 credits
)

// ParseIncrement parses "0.01", "0.1" or "1.0". Any other value, including one
// that would round to an allowed value, is rejected with ErrInvalidIncrement.
func ParseIncrement(raw string) (Increment, error) {
	centi, err := money.ParseCenti(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidIncrement, raw, err)
	}
	inc := Increment(centi)
	if err := inc.Validate(); err != nil {
		return 0, err
	}
	return inc, nil
}

// Validate reports ErrInvalidIncrement unless i is one of the allowed values.
func (i Increment) Validate() error {
	switch i {
	case IncrementHundredth, IncrementTenth, IncrementWhole:
		return nil
	default:
		return fmt.Errorf("%w: %s is not one of 0.01, 0.1, 1.0", ErrInvalidIncrement, money.Centi(i).Decimal().String())
	}
}

// Centi returns the increment as a credit amount.
func (i Increment) Centi() money.Centi {
	return money.Centi(i)
}

func (i Increment) String() string {
	return money.Centi(i).Decimal().String()
}

// MarshalJSON renders the increment as a JSON number.
func (i Increment) MarshalJSON() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalJSON parses and validates the increment.
func (i *Increment) UnmarshalJSON(data []byte) error {
	parsed, err := ParseIncrement(string(trimQuotes(data)))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func trimQuotes(data []byte) []byte {
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		return data[1 : len(data)-1]
	}
	return data
}

// RoundingPolicy is the process-wide credit granularity.
type RoundingPolicy struct {
	Increment      Increment `json:"increment"`
	EffectiveSince time.Time `json:"effective_since"`
}

// PolicyCache serves the current rounding policy without touching storage.
// Readers load an atomic pointer; a reload validates first and then publishes
// the new policy with a single store, so readers see the old or the new policy
// in full and never wait on a writer.
type PolicyCache struct {
	current atomic.Pointer[RoundingPolicy]
	now     func() time.Time
}

// NewPolicyCache creates an uninitialized cache.
func NewPolicyCache() *PolicyCache {
	return &PolicyCache{now: time.Now}
}

// Current returns the last successfully loaded policy, or
// ErrCacheUninitialized before the first load.
func (c *PolicyCache) Current() (RoundingPolicy, error) {
	p := c.current.Load()
	if p == nil {
		return RoundingPolicy{}, ErrCacheUninitialized
	}
	return *p, nil
}

// Reload validates policy and, only if valid, makes it the current policy.
func (c *PolicyCache) Reload(policy RoundingPolicy) error {
	if err := policy.Increment.Validate(); err != nil {
		return err
	}
	if policy.EffectiveSince.IsZero() {
		policy.EffectiveSince = c.now().UTC()
	}

	c.current.Store(&policy)
	observability.RoundingIncrement.Set(policy.Increment.Centi().Decimal().InexactFloat64())
	return nil
}

// Initialize loads the persisted policy. When nothing was persisted yet and
// seed is a valid increment, the seed is persisted and used. Startup must not
// serve conversions until this returns nil.
func (c *PolicyCache) Initialize(ctx context.Context, store PolicyStore, seed Increment) error {
	policy, err := store.LoadRoundingPolicy(ctx)
	if errors.Is(err, ErrPolicyNotFound) {
		if seedErr := seed.Validate(); seedErr != nil {
			return fmt.Errorf("no persisted rounding policy and invalid seed: %w", seedErr)
		}
		policy = RoundingPolicy{Increment: seed, EffectiveSince: c.now().UTC()}
		if err := store.SaveRoundingPolicy(ctx, policy); err != nil {
			return fmt.Errorf("failed to persist seed rounding policy: %w", err)
		}
		observability.FromContext(ctx).Info("seeded rounding policy",
			observability.Stringer("increment", policy.Increment))
	} else if err != nil {
		return fmt.Errorf("failed to load rounding policy: %w", err)
	}

	return c.Reload(policy)
}

// Refresh reloads the persisted policy into the cache. A failed read keeps
// the current policy.
func (c *PolicyCache) Refresh(ctx context.Context, store PolicyStore) error {
	policy, err := store.LoadRoundingPolicy(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh rounding policy: %w", err)
	}

	if prev, prevErr := c.Current(); prevErr == nil && prev.Increment == policy.Increment &&
		prev.EffectiveSince.Equal(policy.EffectiveSince) {
		return nil
	}
	if err := c.Reload(policy); err != nil {
		return err
	}

	observability.FromContext(ctx).Info("rounding policy refreshed from store",
		observability.Stringer("increment", policy.Increment))
	return nil
}

// Watch refreshes the cache every interval until ctx is done, so replicas
// converge on a policy changed through another instance.
func (c *PolicyCache) Watch(ctx context.Context, store PolicyStore, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(ctx, store); err != nil {
				observability.FromContext(ctx).Warn("rounding policy refresh failed", observability.Error(err))
			}
		}
	}
}
