package memory_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/storage/memory"
)

func entry(id, user string, delta money.Centi, tokens int64, at time.Time) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:           id,
		UserID:       user,
		DeltaCredits: delta,
		Kind:         domain.EntryKindUsageDeduction,
		Increment:    domain.IncrementHundredth,
		InputTokens:  tokens,
		CreatedAt:    at,
	}
}

func TestLedgerStore_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the running balance", func(t *testing.T) {
		store := memory.NewLedgerStore()
		now := time.Now().UTC()

		balance, err := store.Append(ctx, entry("e1", "user-1", -70, 10, now))
		require.NoError(t, err)
		require.Equal(t, money.Centi(-70), balance.Credits)

		balance, err = store.Append(ctx, entry("e2", "user-1", 500, 0, now))
		require.NoError(t, err)
		require.Equal(t, money.Centi(430), balance.Credits)
		require.Equal(t, int64(2), balance.Entries)
		require.Equal(t, "user-1", balance.UserID)
	})

	t.Run("should reject duplicate entry ids", func(t *testing.T) {
		store := memory.NewLedgerStore()
		now := time.Now()

		_, err := store.Append(ctx, entry("e1", "user-1", -70, 10, now))
		require.NoError(t, err)
		_, err = store.Append(ctx, entry("e1", "user-1", -70, 10, now))
		require.ErrorIs(t, err, domain.ErrInvalidEntry)

		balance, err := store.Balance(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, money.Centi(-70), balance.Credits)
	})

	t.Run("should not commit for a cancelled context", func(t *testing.T) {
		store := memory.NewLedgerStore()
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := store.Append(cancelled, entry("e1", "user-1", -70, 10, time.Now()))
		require.ErrorIs(t, err, context.Canceled)

		entries, err := store.Entries(ctx, "user-1", 10)
		require.NoError(t, err)
		require.Empty(t, entries)
	})
}

func TestLedgerStore_Reads(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLedgerStore()

	monthStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	_, err := store.Append(ctx, entry("e1", "user-1", -10, 100, monthStart.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = store.Append(ctx, entry("e2", "user-1", -20, 200, monthStart))
	require.NoError(t, err)
	_, err = store.Append(ctx, entry("e3", "user-1", -30, 300, monthStart.Add(time.Hour)))
	require.NoError(t, err)
	adjustment := entry("e4", "user-1", 1000, 0, monthStart.Add(2*time.Hour))
	adjustment.Kind = domain.EntryKindManualAdjustment
	_, err = store.Append(ctx, adjustment)
	require.NoError(t, err)

	t.Run("should list newest first", func(t *testing.T) {
		entries, err := store.Entries(ctx, "user-1", 2)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, "e4", entries[0].ID)
		require.Equal(t, "e3", entries[1].ID)
	})

	t.Run("should sum usage tokens since the period start", func(t *testing.T) {
		tokens, err := store.PeriodTokens(ctx, "user-1", monthStart)
		require.NoError(t, err)
		require.Equal(t, int64(500), tokens)
	})

	t.Run("should report unknown users as empty", func(t *testing.T) {
		balance, err := store.Balance(ctx, "nobody")
		require.NoError(t, err)
		require.Equal(t, "nobody", balance.UserID)
		require.Zero(t, balance.Credits)

		tokens, err := store.PeriodTokens(ctx, "nobody", monthStart)
		require.NoError(t, err)
		require.Zero(t, tokens)
	})

	t.Run("should reconcile", func(t *testing.T) {
		rec, err := store.Reconcile(ctx, "user-1")
		require.NoError(t, err)
		require.True(t, rec.Consistent)
		require.Equal(t, money.Centi(940), rec.LedgerSum)
		require.Equal(t, int64(4), rec.Entries)
	})
}

func TestLedgerStore_ConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := memory.NewLedgerStore()

	const perUser = 100
	users := []string{"a", "b", "c"}

	var wg sync.WaitGroup
	for _, user := range users {
		for i := 0; i < perUser; i++ {
			wg.Add(1)
			go func(user string, i int) {
				defer wg.Done()
				_, err := store.Append(ctx, entry(user+"-"+strconv.Itoa(i), user, -1, 1, time.Now()))
				if err != nil {
					t.Errorf("append failed: %v", err)
				}
			}(user, i)
		}
	}
	wg.Wait()

	for _, user := range users {
		rec, err := store.Reconcile(ctx, user)
		require.NoError(t, err)
		require.True(t, rec.Consistent)
		require.Equal(t, money.Centi(-perUser), rec.Stored)
		require.Equal(t, int64(perUser), rec.Entries)
	}
}

func TestPolicyStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPolicyStore()

	_, err := store.LoadRoundingPolicy(ctx)
	require.ErrorIs(t, err, domain.ErrPolicyNotFound)

	require.ErrorIs(t, store.SaveRoundingPolicy(ctx, domain.RoundingPolicy{Increment: 7}), domain.ErrInvalidIncrement)

	require.NoError(t, store.SaveRoundingPolicy(ctx, domain.RoundingPolicy{Increment: domain.IncrementTenth}))
	policy, err := store.LoadRoundingPolicy(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.IncrementTenth, policy.Increment)
}
