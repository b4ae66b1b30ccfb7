package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/davidbz/creditmeter/internal/observability"
)

const (
	defaultWriteAttempts  = 4
	defaultWriteBaseDelay = 20 * time.Millisecond
	maxWriteDelay         = 500 * time.Millisecond
	cacheUpdateTimeout    = 2 * time.Second
)

// LedgerWriterConfig bounds ledger writes.
type LedgerWriterConfig struct {
	// Timeout caps one append including retries. Zero keeps the caller's deadline.
	Timeout time.Duration

	// MaxAttempts is the total number of tries on ErrLedgerWriteConflict.
	MaxAttempts uint

	// BaseDelay is the first retry delay; later delays grow exponentially.
	BaseDelay time.Duration
}

// LedgerWriter appends entries through a LedgerStore with bounded retry and
// pushes each committed balance into the balance cache.
type LedgerWriter struct {
	store LedgerStore
	cache BalanceCache
	cfg   LedgerWriterConfig
	now   func() time.Time
}

// NewLedgerWriter creates a ledger writer. cache may be nil.
func NewLedgerWriter(store LedgerStore, cache BalanceCache, cfg LedgerWriterConfig) *LedgerWriter {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaultWriteAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultWriteBaseDelay
	}

	return &LedgerWriter{
		store: store,
		cache: cache,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Append validates and commits entry. The returned entry carries its assigned
// id and timestamp. On any error nothing was committed.
func (w *LedgerWriter) Append(ctx context.Context, entry LedgerEntry) (LedgerEntry, Balance, error) {
	if err := validateEntry(entry); err != nil {
		return LedgerEntry{}, Balance{}, err
	}

	if entry.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return LedgerEntry{}, Balance{}, fmt.Errorf("failed to generate entry id: %w", err)
		}
		entry.ID = id.String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = w.now().UTC()
	}

	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	logger := observability.FromContext(ctx)
	started := time.Now()
	attempt := 0

	balance, err := backoff.Retry(ctx, func() (Balance, error) {
		attempt++
		bal, appendErr := w.store.Append(ctx, entry)
		if appendErr == nil {
			return bal, nil
		}
		if errors.Is(appendErr, ErrLedgerWriteConflict) {
			observability.LedgerWriteConflictsTotal.Inc()
			logger.Warn("ledger write conflict",
				observability.String("entry_id", entry.ID),
				observability.Int("attempt", attempt),
				observability.Error(appendErr))
			return Balance{}, appendErr
		}
		return Balance{}, backoff.Permanent(appendErr)
	},
		backoff.WithBackOff(w.newBackOff()),
		backoff.WithMaxTries(w.cfg.MaxAttempts),
	)
	observability.LedgerWriteDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return LedgerEntry{}, Balance{}, fmt.Errorf("failed to append ledger entry after %d attempt(s): %w", attempt, err)
	}

	observability.LedgerEntriesTotal.WithLabelValues(string(entry.Kind)).Inc()

	if w.cache != nil {
		balance.UserID = entry.UserID
		w.updateCache(ctx, balance)
	}

	logger.Info("ledger entry committed",
		observability.String("entry_id", entry.ID),
		observability.String("kind", string(entry.Kind)),
		observability.Stringer("delta_credits", entry.DeltaCredits),
		observability.Stringer("balance", balance.Credits))

	return entry, balance, nil
}

// updateCache stores the committed balance. The entry is already durable, so
// the update gets its own deadline instead of whatever is left of the
// append's. If the balance cannot be stored the cached value is dropped.
func (w *LedgerWriter) updateCache(ctx context.Context, balance Balance) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheUpdateTimeout)
	defer cancel()

	logger := observability.FromContext(ctx)

	err := w.cache.Set(ctx, balance)
	if err == nil {
		return
	}
	logger.Warn("failed to cache committed balance",
		observability.String("user_id", balance.UserID),
		observability.Error(err))

	if err := w.cache.Invalidate(ctx, balance.UserID); err != nil {
		logger.Error("failed to invalidate cached balance",
			observability.String("user_id", balance.UserID),
			observability.Error(err))
	}
}

func (w *LedgerWriter) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.cfg.BaseDelay
	b.MaxInterval = maxWriteDelay
	return b
}

func validateEntry(entry LedgerEntry) error {
	switch {
	case entry.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	case !entry.Kind.Valid():
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEntry, entry.Kind)
	}
	if err := entry.Increment.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntry, err)
	}
	if int64(entry.DeltaCredits)%int64(entry.Increment) != 0 {
		return fmt.Errorf("%w: delta %s is not a multiple of increment %s",
			ErrInvalidEntry, entry.DeltaCredits, entry.Increment)
	}
	return nil
}
