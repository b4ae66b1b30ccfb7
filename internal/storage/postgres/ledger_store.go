package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
)

const entryColumns = `id, user_id, delta_centi, kind, source_cost_micros, vendor_cost_micros,
	increment_centi, vendor, model, input_tokens, output_tokens, reference, created_at`

// LedgerStore implements domain.LedgerStore on PostgreSQL. The entry insert
// and the balance upsert share one transaction; the upsert's row lock
// serializes concurrent appends for the same user.
type LedgerStore struct {
	db          DB
	lockTimeout time.Duration
}

// NewLedgerStore creates a ledger store. A positive lockTimeout bounds how
// long an append waits for the user's balance row.
func NewLedgerStore(db DB, lockTimeout time.Duration) *LedgerStore {
	return &LedgerStore{db: db, lockTimeout: lockTimeout}
}

// Append inserts entry and applies its delta to the user's balance.
func (s *LedgerStore) Append(ctx context.Context, entry domain.LedgerEntry) (domain.Balance, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return domain.Balance{}, mapError("begin append", err)
	}

	balance, err := s.appendTx(ctx, tx, entry)
	if err != nil {
		_ = tx.Rollback(ctx)
		return domain.Balance{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Balance{}, mapError("commit append", err)
	}
	return balance, nil
}

func (s *LedgerStore) appendTx(ctx context.Context, tx pgx.Tx, entry domain.LedgerEntry) (domain.Balance, error) {
	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return domain.Balance{}, mapError("set lock timeout", err)
		}
	}

	insert := `
		INSERT INTO ledger_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := tx.Exec(ctx, insert,
		entry.ID, entry.UserID, int64(entry.DeltaCredits), string(entry.Kind),
		microsArg(entry.SourceCostUSD), microsArg(entry.VendorCostUSD),
		int16(entry.Increment), entry.Vendor, entry.Model,
		entry.InputTokens, entry.OutputTokens, entry.Reference, entry.CreatedAt,
	)
	if err != nil {
		return domain.Balance{}, mapError("insert ledger entry", err)
	}

	upsert := `
		INSERT INTO credit_balances (user_id, balance_centi, entries, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET balance_centi = credit_balances.balance_centi + EXCLUDED.balance_centi,
		    entries = credit_balances.entries + 1,
		    updated_at = EXCLUDED.updated_at
		RETURNING balance_centi, entries, updated_at
	`
	balance := domain.Balance{UserID: entry.UserID}
	var credits int64
	err = tx.QueryRow(ctx, upsert, entry.UserID, int64(entry.DeltaCredits), entry.CreatedAt).
		Scan(&credits, &balance.Entries, &balance.UpdatedAt)
	if err != nil {
		return domain.Balance{}, mapError("update balance", err)
	}
	balance.Credits = money.Centi(credits)

	return balance, nil
}

// Balance returns the projected balance; unknown users have zero credits.
func (s *LedgerStore) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	query := `
		SELECT balance_centi, entries, updated_at
		FROM credit_balances
		WHERE user_id = $1
	`
	balance := domain.Balance{UserID: userID}
	var credits int64
	err := s.db.QueryRow(ctx, query, userID).Scan(&credits, &balance.Entries, &balance.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return balance, nil
		}
		return domain.Balance{}, fmt.Errorf("failed to get balance: %w", err)
	}
	balance.Credits = money.Centi(credits)

	return balance, nil
}

// Entries returns the user's most recent entries, newest first.
func (s *LedgerStore) Entries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		var (
			e                  domain.LedgerEntry
			delta              int64
			kind               string
			source, vendorCost *int64
			increment          int16
		)
		err := rows.Scan(
			&e.ID, &e.UserID, &delta, &kind, &source, &vendorCost,
			&increment, &e.Vendor, &e.Model, &e.InputTokens, &e.OutputTokens, &e.Reference, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.DeltaCredits = money.Centi(delta)
		e.Kind = domain.EntryKind(kind)
		e.SourceCostUSD = microsValue(source)
		e.VendorCostUSD = microsValue(vendorCost)
		e.Increment = domain.Increment(increment)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}

	return entries, nil
}

// PeriodTokens sums metered tokens recorded at or after since.
func (s *LedgerStore) PeriodTokens(ctx context.Context, userID string, since time.Time) (int64, error) {
	query := `
		SELECT COALESCE(SUM(input_tokens + output_tokens), 0)
		FROM ledger_entries
		WHERE user_id = $1 AND kind = $2 AND created_at >= $3
	`
	var total int64
	err := s.db.QueryRow(ctx, query, userID, string(domain.EntryKindUsageDeduction), since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum period tokens: %w", err)
	}

	return total, nil
}

// Reconcile compares credit_balances with the sum of ledger_entries.
func (s *LedgerStore) Reconcile(ctx context.Context, userID string) (domain.Reconciliation, error) {
	balance, err := s.Balance(ctx, userID)
	if err != nil {
		return domain.Reconciliation{}, err
	}

	query := `
		SELECT COALESCE(SUM(delta_centi), 0), COUNT(*)
		FROM ledger_entries
		WHERE user_id = $1
	`
	var sum, count int64
	if err := s.db.QueryRow(ctx, query, userID).Scan(&sum, &count); err != nil {
		return domain.Reconciliation{}, fmt.Errorf("failed to sum ledger entries: %w", err)
	}

	return domain.Reconciliation{
		UserID:     userID,
		Stored:     balance.Credits,
		LedgerSum:  money.Centi(sum),
		Entries:    count,
		Consistent: money.Centi(sum) == balance.Credits && count == balance.Entries,
	}, nil
}

func microsArg(m *money.Micros) *int64 {
	if m == nil {
		return nil
	}
	v := int64(*m)
	return &v
}

func microsValue(v *int64) *money.Micros {
	if v == nil {
		return nil
	}
	m := money.Micros(*v)
	return &m
}
