package memory

import (
	"context"
	"sync"

	"github.com/davidbz/creditmeter/internal/domain"
)

// PolicyStore implements domain.PolicyStore in process memory.
type PolicyStore struct {
	mu     sync.RWMutex
	policy *domain.RoundingPolicy
}

// NewPolicyStore creates an empty policy store.
func NewPolicyStore() *PolicyStore {
	return &PolicyStore{}
}

// LoadRoundingPolicy returns domain.ErrPolicyNotFound until a policy is saved.
func (s *PolicyStore) LoadRoundingPolicy(ctx context.Context) (domain.RoundingPolicy, error) {
	if err := ctx.Err(); err != nil {
		return domain.RoundingPolicy{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.policy == nil {
		return domain.RoundingPolicy{}, domain.ErrPolicyNotFound
	}
	return *s.policy, nil
}

// SaveRoundingPolicy replaces the stored policy.
func (s *PolicyStore) SaveRoundingPolicy(ctx context.Context, policy domain.RoundingPolicy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := policy.Increment.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.policy = &policy
	return nil
}
