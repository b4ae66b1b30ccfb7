package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/davidbz/creditmeter/internal/domain"
	"github.com/davidbz/creditmeter/internal/money"
)

type account struct {
	mu      sync.Mutex
	balance domain.Balance
	entries []domain.LedgerEntry
}

// LedgerStore implements domain.LedgerStore in process memory.
// Appends for one user are serialized by that user's lock; different users
// never contend.
type LedgerStore struct {
	mu       sync.RWMutex
	accounts map[string]*account
}

// NewLedgerStore creates an empty in-memory ledger.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{
		mu:       sync.RWMutex{},
		accounts: make(map[string]*account),
	}
}

func (s *LedgerStore) account(userID string, create bool) *account {
	s.mu.RLock()
	acct, exists := s.accounts[userID]
	s.mu.RUnlock()
	if exists || !create {
		return acct
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if acct, exists = s.accounts[userID]; exists {
		return acct
	}
	acct = &account{balance: domain.Balance{UserID: userID}}
	s.accounts[userID] = acct
	return acct
}

// Append commits entry and its balance change together.
func (s *LedgerStore) Append(ctx context.Context, entry domain.LedgerEntry) (domain.Balance, error) {
	if entry.UserID == "" {
		return domain.Balance{}, errors.New("user id cannot be empty")
	}

	acct := s.account(entry.UserID, true)

	acct.mu.Lock()
	defer acct.mu.Unlock()

	// A caller that gave up while waiting for the lock must not commit.
	if err := ctx.Err(); err != nil {
		return domain.Balance{}, err
	}

	for _, existing := range acct.entries {
		if existing.ID == entry.ID {
			return domain.Balance{}, fmt.Errorf("%w: duplicate entry id %s", domain.ErrInvalidEntry, entry.ID)
		}
	}

	credits, err := money.Add(int64(acct.balance.Credits), int64(entry.DeltaCredits))
	if err != nil {
		return domain.Balance{}, fmt.Errorf("%w: %w", domain.ErrAmountOverflow, err)
	}

	acct.entries = append(acct.entries, entry)
	acct.balance.Credits = money.Centi(credits)
	acct.balance.Entries++
	acct.balance.UpdatedAt = entry.CreatedAt

	return acct.balance, nil
}

// Balance returns the user's balance; unknown users have zero credits.
func (s *LedgerStore) Balance(ctx context.Context, userID string) (domain.Balance, error) {
	if err := ctx.Err(); err != nil {
		return domain.Balance{}, err
	}

	acct := s.account(userID, false)
	if acct == nil {
		return domain.Balance{UserID: userID}, nil
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	return acct.balance, nil
}

// Entries returns up to limit entries, newest first.
func (s *LedgerStore) Entries(ctx context.Context, userID string, limit int) ([]domain.LedgerEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	acct := s.account(userID, false)
	if acct == nil {
		return []domain.LedgerEntry{}, nil
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	n := len(acct.entries)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.LedgerEntry, 0, n)
	for i := len(acct.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, acct.entries[i])
	}
	return out, nil
}

// PeriodTokens sums usage tokens recorded at or after since.
func (s *LedgerStore) PeriodTokens(ctx context.Context, userID string, since time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	acct := s.account(userID, false)
	if acct == nil {
		return 0, nil
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	var total int64
	for _, entry := range acct.entries {
		if entry.Kind != domain.EntryKindUsageDeduction || entry.CreatedAt.Before(since) {
			continue
		}
		total += entry.InputTokens + entry.OutputTokens
	}
	return total, nil
}

// Reconcile compares the running balance with the sum of all entries.
func (s *LedgerStore) Reconcile(ctx context.Context, userID string) (domain.Reconciliation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reconciliation{}, err
	}

	rec := domain.Reconciliation{UserID: userID, Consistent: true}

	acct := s.account(userID, false)
	if acct == nil {
		return rec, nil
	}

	acct.mu.Lock()
	defer acct.mu.Unlock()

	var sum money.Centi
	for _, entry := range acct.entries {
		sum += entry.DeltaCredits
	}

	rec.Stored = acct.balance.Credits
	rec.LedgerSum = sum
	rec.Entries = int64(len(acct.entries))
	rec.Consistent = sum == acct.balance.Credits && rec.Entries == acct.balance.Entries
	return rec, nil
}
