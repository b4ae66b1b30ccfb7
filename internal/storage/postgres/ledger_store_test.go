package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
	"github.com/davidbz/creditmeter/internal/storage/postgres"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

const entryArgCount = 13

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func sampleEntry() domain.LedgerEntry {
	cost := money.MustMicros("0.007")
	return domain.LedgerEntry{
		ID:            "0192d5a4-7c1e-7b3a-9f00-000000000001",
		UserID:        "user-1",
		DeltaCredits:  -70,
		Kind:          domain.EntryKindUsageDeduction,
		SourceCostUSD: &cost,
		VendorCostUSD: &cost,
		Increment:     domain.IncrementTenth,
		Vendor:        "openai",
		Model:         "gpt-4o",
		InputTokens:   250,
		OutputTokens:  150,
		Reference:     "req-1",
		CreatedAt:     time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}
}

func TestLedgerStore_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("should insert the entry and update the balance in one transaction", func(t *testing.T) {
		mock := newMock(t)
		entry := sampleEntry()

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(pgxmock.NewResult("SET", 0))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(entry.ID, "user-1", int64(-70), "usage_deduction",
				pgxmock.AnyArg(), pgxmock.AnyArg(), int16(10), "openai", "gpt-4o",
				int64(250), int64(150), "req-1", entry.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("INSERT INTO credit_balances").
			WithArgs("user-1", int64(-70), entry.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"balance_centi", "entries", "updated_at"}).
				AddRow(int64(930), int64(4), entry.CreatedAt))
		mock.ExpectCommit()

		store := postgres.NewLedgerStore(mock, 2*time.Second)
		balance, err := store.Append(ctx, entry)
		require.NoError(t, err)
		require.Equal(t, money.Centi(930), balance.Credits)
		require.Equal(t, int64(4), balance.Entries)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should report serialization failures as write conflicts", func(t *testing.T) {
		mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(anyArgs(entryArgCount)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery("INSERT INTO credit_balances").
			WithArgs("user-1", int64(-70), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
		mock.ExpectRollback()

		store := postgres.NewLedgerStore(mock, 0)
		_, err := store.Append(ctx, sampleEntry())
		require.ErrorIs(t, err, domain.ErrLedgerWriteConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should report lock timeouts as write conflicts", func(t *testing.T) {
		mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec("SET LOCAL lock_timeout").WillReturnResult(pgxmock.NewResult("SET", 0))
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(anyArgs(entryArgCount)...).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
		mock.ExpectRollback()

		store := postgres.NewLedgerStore(mock, time.Second)
		_, err := store.Append(ctx, sampleEntry())
		require.ErrorIs(t, err, domain.ErrLedgerWriteConflict)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should reject duplicate ids", func(t *testing.T) {
		mock := newMock(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs(anyArgs(entryArgCount)...).
			WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})
		mock.ExpectRollback()

		store := postgres.NewLedgerStore(mock, 0)
		_, err := store.Append(ctx, sampleEntry())
		require.ErrorIs(t, err, domain.ErrInvalidEntry)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerStore_Balance(t *testing.T) {
	ctx := context.Background()

	t.Run("should return the stored balance", func(t *testing.T) {
		mock := newMock(t)
		updated := time.Now().UTC()
		mock.ExpectQuery("FROM credit_balances").WithArgs("user-1").
			WillReturnRows(pgxmock.NewRows([]string{"balance_centi", "entries", "updated_at"}).
				AddRow(int64(-560), int64(2), updated))

		balance, err := postgres.NewLedgerStore(mock, 0).Balance(ctx, "user-1")
		require.NoError(t, err)
		require.Equal(t, money.Centi(-560), balance.Credits)
		require.Equal(t, "user-1", balance.UserID)
	})

	t.Run("should return zero for unknown users", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("FROM credit_balances").WithArgs("nobody").
			WillReturnRows(pgxmock.NewRows([]string{"balance_centi", "entries", "updated_at"}))

		balance, err := postgres.NewLedgerStore(mock, 0).Balance(ctx, "nobody")
		require.NoError(t, err)
		require.Zero(t, balance.Credits)
		require.Equal(t, "nobody", balance.UserID)
	})
}

func TestLedgerStore_Entries(t *testing.T) {
	mock := newMock(t)
	entry := sampleEntry()
	source := int64(7000)

	mock.ExpectQuery("FROM ledger_entries").WithArgs("user-1", 10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "delta_centi", "kind", "source_cost_micros", "vendor_cost_micros",
			"increment_centi", "vendor", "model", "input_tokens", "output_tokens", "reference", "created_at",
		}).
			AddRow(entry.ID, "user-1", int64(-70), "usage_deduction", &source, &source,
				int16(10), "openai", "gpt-4o", int64(250), int64(150), "req-1", entry.CreatedAt).
			AddRow("0192d5a4-7c1e-7b3a-9f00-000000000000", "user-1", int64(500), "manual_adjustment", nil, nil,
				int16(10), "", "", int64(0), int64(0), "top-up", entry.CreatedAt.Add(-time.Hour)))

	entries, err := postgres.NewLedgerStore(mock, 0).Entries(context.Background(), "user-1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry, entries[0])
	require.Nil(t, entries[1].SourceCostUSD)
	require.Equal(t, domain.EntryKindManualAdjustment, entries[1].Kind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerStore_PeriodTokens(t *testing.T) {
	mock := newMock(t)
	since := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SUM\\(input_tokens \\+ output_tokens\\)").
		WithArgs("user-1", "usage_deduction", since).
		WillReturnRows(pgxmock.NewRows([]string{"sum"}).AddRow(int64(12_345)))

	tokens, err := postgres.NewLedgerStore(mock, 0).PeriodTokens(context.Background(), "user-1", since)
	require.NoError(t, err)
	require.Equal(t, int64(12_345), tokens)
}

func TestLedgerStore_Reconcile(t *testing.T) {
	mock := newMock(t)

	mock.ExpectQuery("FROM credit_balances").WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"balance_centi", "entries", "updated_at"}).
			AddRow(int64(430), int64(2), time.Now()))
	mock.ExpectQuery("SUM\\(delta_centi\\)").WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"sum", "count"}).AddRow(int64(430), int64(2)))

	rec, err := postgres.NewLedgerStore(mock, 0).Reconcile(context.Background(), "user-1")
	require.NoError(t, err)
	require.True(t, rec.Consistent)
	require.Equal(t, money.Centi(430), rec.LedgerSum)
}
