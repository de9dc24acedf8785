package storage

import (
	"sync"
	"time"

	"equipment-risk-gateway/internal/risk"
)

// PolicyStore holds the current threshold policy. It is bootstrapped once
// at startup with an explicit value; after that, reads are pure and every
// change goes through Update.
type PolicyStore struct {
	mu        sync.RWMutex
	policy    risk.ThresholdPolicy
	updatedAt time.Time
}

func NewPolicyStore(initial risk.ThresholdPolicy) *PolicyStore {
	return &PolicyStore{policy: initial, updatedAt: time.Now()}
}

func (s *PolicyStore) Get() risk.ThresholdPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

func (s *PolicyStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Update replaces the policy after validating it. Invalid policies are
// rejected and the stored value is left untouched.
func (s *PolicyStore) Update(p risk.ThresholdPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
	s.updatedAt = time.Now()
	return nil
}
