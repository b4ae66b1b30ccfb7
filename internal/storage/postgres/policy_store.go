package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/davidbz/creditmeter/internal/domain"
)

// PolicyStore implements domain.PolicyStore on a single-row table.
type PolicyStore struct {
	db DB
}

// NewPolicyStore creates a policy store.
func NewPolicyStore(db DB) *PolicyStore {
	return &PolicyStore{db: db}
}

// LoadRoundingPolicy returns domain.ErrPolicyNotFound when no row exists.
func (s *PolicyStore) LoadRoundingPolicy(ctx context.Context) (domain.RoundingPolicy, error) {
	query := `
		SELECT increment_centi, effective_since
		FROM rounding_policy
		WHERE id = 1
	`
	var (
		policy    domain.RoundingPolicy
		increment int16
	)
	err := s.db.QueryRow(ctx, query).Scan(&increment, &policy.EffectiveSince)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RoundingPolicy{}, domain.ErrPolicyNotFound
		}
		return domain.RoundingPolicy{}, fmt.Errorf("failed to load rounding policy: %w", err)
	}
	policy.Increment = domain.Increment(increment)

	return policy, nil
}

// SaveRoundingPolicy upserts the policy row.
func (s *PolicyStore) SaveRoundingPolicy(ctx context.Context, policy domain.RoundingPolicy) error {
	if err := policy.Increment.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO rounding_policy (id, increment_centi, effective_since)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE
		SET increment_centi = EXCLUDED.increment_centi,
		    effective_since = EXCLUDED.effective_since
	`
	if _, err := s.db.Exec(ctx, query, int16(policy.Increment), policy.EffectiveSince); err != nil {
		return fmt.Errorf("failed to save rounding policy: %w", err)
	}

	return nil
}
