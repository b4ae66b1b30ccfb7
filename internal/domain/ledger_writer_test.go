package domain_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/mocks"
	"github.com/davidbz/creditmeter/internal/storage/memory"
)

func fastWriterConfig() domain.LedgerWriterConfig {
	return domain.LedgerWriterConfig{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func usageEntry(user string, delta int64) domain.LedgerEntry {
	return domain.LedgerEntry{
		UserID:       user,
		DeltaCredits: -moneyCenti(delta),
		Kind:         domain.EntryKindUsageDeduction,
		Increment:    domain.IncrementHundredth,
	}
}

// slowCommitStore commits and then holds the call until the caller's deadline
// has passed.
type slowCommitStore struct {
	*memory.LedgerStore
}

func (s *slowCommitStore) Append(ctx context.Context, entry domain.LedgerEntry) (domain.Balance, error) {
	balance, err := s.LedgerStore.Append(ctx, entry)
	if err != nil {
		return domain.Balance{}, err
	}
	<-ctx.Done()
	return balance, nil
}

func TestLedgerWriter_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("should assign id and timestamp and cache the committed balance", func(t *testing.T) {
		cache := mocks.NewMockBalanceCache(t)
		cache.EXPECT().Set(mock.Anything, mock.MatchedBy(func(b domain.Balance) bool {
			return b.UserID == "user-1" && b.Credits == -70 && b.Entries == 1
		})).Return(nil).Once()

		writer := domain.NewLedgerWriter(memory.NewLedgerStore(), cache, fastWriterConfig())
		entry, balance, err := writer.Append(ctx, usageEntry("user-1", 70))
		require.NoError(t, err)
		require.NotEmpty(t, entry.ID)
		require.False(t, entry.CreatedAt.IsZero())
		require.Equal(t, moneyCenti(-70), balance.Credits)
		require.Equal(t, int64(1), balance.Entries)
	})

	t.Run("should retry write conflicts and then succeed", func(t *testing.T) {
		store := mocks.NewMockLedgerStore(t)
		store.EXPECT().Append(mock.Anything, mock.Anything).
			Return(domain.Balance{}, domain.ErrLedgerWriteConflict).Twice()
		store.EXPECT().Append(mock.Anything, mock.Anything).
			Return(domain.Balance{UserID: "user-1", Credits: -70, Entries: 1}, nil).Once()

		writer := domain.NewLedgerWriter(store, nil, fastWriterConfig())
		_, balance, err := writer.Append(ctx, usageEntry("user-1", 70))
		require.NoError(t, err)
		require.Equal(t, moneyCenti(-70), balance.Credits)
	})

	t.Run("should keep the same entry id across retries", func(t *testing.T) {
		var ids []string
		store := mocks.NewMockLedgerStore(t)
		store.EXPECT().Append(mock.Anything, mock.Anything).
			Run(func(_ context.Context, entry domain.LedgerEntry) { ids = append(ids, entry.ID) }).
			Return(domain.Balance{}, domain.ErrLedgerWriteConflict).Once()
		store.EXPECT().Append(mock.Anything, mock.Anything).
			Run(func(_ context.Context, entry domain.LedgerEntry) { ids = append(ids, entry.ID) }).
			Return(domain.Balance{}, nil).Once()

		writer := domain.NewLedgerWriter(store, nil, fastWriterConfig())
		_, _, err := writer.Append(ctx, usageEntry("user-1", 10))
		require.NoError(t, err)
		require.Len(t, ids, 2)
		require.Equal(t, ids[0], ids[1])
	})

	t.Run("should surface conflicts after the retry bound", func(t *testing.T) {
		store := mocks.NewMockLedgerStore(t)
		store.EXPECT().Append(mock.Anything, mock.Anything).
			Return(domain.Balance{}, domain.ErrLedgerWriteConflict).Times(3)

		writer := domain.NewLedgerWriter(store, nil, fastWriterConfig())
		_, _, err := writer.Append(ctx, usageEntry("user-1", 70))
		require.ErrorIs(t, err, domain.ErrLedgerWriteConflict)
	})

	t.Run("should not retry other storage errors", func(t *testing.T) {
		store := mocks.NewMockLedgerStore(t)
		store.EXPECT().Append(mock.Anything, mock.Anything).
			Return(domain.Balance{}, errors.New("disk full")).Once()

		writer := domain.NewLedgerWriter(store, nil, fastWriterConfig())
		_, _, err := writer.Append(ctx, usageEntry("user-1", 70))
		require.Error(t, err)
		require.Contains(t, err.Error(), "disk full")
	})

	t.Run("should reject deltas that are not a multiple of the increment", func(t *testing.T) {
		writer := domain.NewLedgerWriter(mocks.NewMockLedgerStore(t), nil, fastWriterConfig())

		entry := usageEntry("user-1", 75)
		entry.Increment = domain.IncrementTenth
		_, _, err := writer.Append(ctx, entry)
		require.ErrorIs(t, err, domain.ErrInvalidEntry)
	})

	t.Run("should reject unknown kinds", func(t *testing.T) {
		writer := domain.NewLedgerWriter(mocks.NewMockLedgerStore(t), nil, fastWriterConfig())

		entry := usageEntry("user-1", 1)
		entry.Kind = "gift"
		_, _, err := writer.Append(ctx, entry)
		require.ErrorIs(t, err, domain.ErrInvalidEntry)
	})

	t.Run("should leave no entry when the caller has already timed out", func(t *testing.T) {
		store := memory.NewLedgerStore()
		writer := domain.NewLedgerWriter(store, nil, fastWriterConfig())

		expired, cancel := context.WithCancel(ctx)
		cancel()

		_, _, err := writer.Append(expired, usageEntry("user-1", 70))
		require.Error(t, err)

		balance, err := store.Balance(ctx, "user-1")
		require.NoError(t, err)
		require.Zero(t, balance.Entries)
		require.Zero(t, balance.Credits)
	})

	t.Run("should drop the cached balance when the committed one cannot be stored", func(t *testing.T) {
		cache := mocks.NewMockBalanceCache(t)
		cache.EXPECT().Set(mock.Anything, mock.Anything).Return(errors.New("OOM command not allowed")).Once()
		cache.EXPECT().Invalidate(mock.Anything, "user-1").Return(nil).Once()

		writer := domain.NewLedgerWriter(memory.NewLedgerStore(), cache, fastWriterConfig())
		_, _, err := writer.Append(ctx, usageEntry("user-1", 5))
		require.NoError(t, err)
	})

	t.Run("should update the cache after the append deadline has passed", func(t *testing.T) {
		store := &slowCommitStore{LedgerStore: memory.NewLedgerStore()}
		cache := mocks.NewMockBalanceCache(t)
		cache.EXPECT().Set(mock.Anything, mock.Anything).
			RunAndReturn(func(ctx context.Context, _ domain.Balance) error { return ctx.Err() }).Once()

		cfg := fastWriterConfig()
		cfg.Timeout = 10 * time.Millisecond
		writer := domain.NewLedgerWriter(store, cache, cfg)

		_, balance, err := writer.Append(ctx, usageEntry("user-1", 70))
		require.NoError(t, err)
		require.Equal(t, int64(1), balance.Entries)
	})

	t.Run("should log and continue when the cache is unreachable", func(t *testing.T) {
		cache := mocks.NewMockBalanceCache(t)
		cache.EXPECT().Set(mock.Anything, mock.Anything).Return(errors.New("redis down"))
		cache.EXPECT().Invalidate(mock.Anything, "user-1").Return(errors.New("redis down"))

		writer := domain.NewLedgerWriter(memory.NewLedgerStore(), cache, fastWriterConfig())
		_, balance, err := writer.Append(ctx, usageEntry("user-1", 5))
		require.NoError(t, err)
		require.Equal(t, moneyCenti(-5), balance.Credits)
	})
}
