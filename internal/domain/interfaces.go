package domain

import (
	"context"
	"time"

	"github.com/davidbz/creditmeter/internal/money"
)

// LedgerStore persists the append-only ledger and its balance projection.
type LedgerStore interface {
	// Append commits entry and the matching balance change atomically and
	// returns the resulting balance. Transient contention is reported as
	// ErrLedgerWriteConflict with no state change.
	Append(ctx context.Context, entry LedgerEntry) (Balance, error)

	// Balance returns the user's balance; unknown users have a zero balance.
	Balance(ctx context.Context, userID string) (Balance, error)

	// Entries returns the user's most recent entries, newest first.
	Entries(ctx context.Context, userID string, limit int) ([]LedgerEntry, error)

	// PeriodTokens sums metered tokens for the user since the given instant.
	PeriodTokens(ctx context.Context, userID string, since time.Time) (int64, error)

	// Reconcile compares the balance projection against the ledger sum.
	Reconcile(ctx context.Context, userID string) (Reconciliation, error)
}

// PolicyStore persists the single current rounding policy record.
type PolicyStore interface {
	// LoadRoundingPolicy returns ErrPolicyNotFound when nothing was saved.
	LoadRoundingPolicy(ctx context.Context) (RoundingPolicy, error)

	// SaveRoundingPolicy replaces the persisted policy.
	SaveRoundingPolicy(ctx context.Context, policy RoundingPolicy) error
}

// BalanceCache is a read-through projection of ledger balances.
type BalanceCache interface {
	// Get returns ErrCacheMiss when no balance is cached.
	Get(ctx context.Context, userID string) (Balance, error)

	// Set stores balance unless the cache already holds one for the same user
	// with more entries. A read that raced a ledger write therefore never
	// replaces the balance that write committed.
	Set(ctx context.Context, balance Balance) error

	// Invalidate drops the cached balance when a committed balance could not
	// be stored.
	Invalidate(ctx context.Context, userID string) error
}

// MarginResolver provides live margin rates for dynamic margin policies.
type MarginResolver interface {
	// ResolveRate returns the current margin rate for a vendor/model.
	ResolveRate(ctx context.Context, vendor, model string) (money.RatePPM, error)
}

// PriceSource produces complete price sheets for the pricing table.
type PriceSource interface {
	// Load reads a full price sheet.
	Load(ctx context.Context) (PriceSheet, error)

	// Name identifies the source in logs.
	Name() string
}

// EventPublisher publishes events for observability.
type EventPublisher interface {
	// Publish publishes an event with the given type and data.
	Publish(ctx context.Context, eventType string, data map[string]interface{})
}
