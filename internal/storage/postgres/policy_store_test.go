package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/storage/postgres"
)

func TestPolicyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("should report a missing policy", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery("FROM rounding_policy").
			WillReturnRows(pgxmock.NewRows([]string{"increment_centi", "effective_since"}))

		_, err := postgres.NewPolicyStore(mock).LoadRoundingPolicy(ctx)
		require.ErrorIs(t, err, domain.ErrPolicyNotFound)
	})

	t.Run("should load the stored policy", func(t *testing.T) {
		mock := newMock(t)
		since := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery("FROM rounding_policy").
			WillReturnRows(pgxmock.NewRows([]string{"increment_centi", "effective_since"}).AddRow(int16(100), since))

		policy, err := postgres.NewPolicyStore(mock).LoadRoundingPolicy(ctx)
		require.NoError(t, err)
		require.Equal(t, domain.IncrementWhole, policy.Increment)
		require.Equal(t, since, policy.EffectiveSince)
	})

	t.Run("should upsert the policy", func(t *testing.T) {
		mock := newMock(t)
		since := time.Now().UTC()
		mock.ExpectExec("INSERT INTO rounding_policy").WithArgs(int16(10), since).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := postgres.NewPolicyStore(mock).SaveRoundingPolicy(ctx, domain.RoundingPolicy{
			Increment: domain.IncrementTenth, EffectiveSince: since,
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should not write invalid increments", func(t *testing.T) {
		mock := newMock(t)

		err := postgres.NewPolicyStore(mock).SaveRoundingPolicy(ctx, domain.RoundingPolicy{Increment: 3})
		require.ErrorIs(t, err, domain.ErrInvalidIncrement)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMigrate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ledger_entries").WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, postgres.Migrate(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}
