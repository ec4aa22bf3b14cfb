package billingapi

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/verdantlab/sprout/pkg/auditlog"
	"github.com/verdantlab/sprout/pkg/billing"
)

// MemSubscriptionStore is an in-memory billing.Store for tests and local
// development. Records are copied on the way in and out so callers cannot
// mutate internal state.
type MemSubscriptionStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]billing.Subscription
}

// NewMemSubscriptionStore returns an empty in-memory store.
func NewMemSubscriptionStore() *MemSubscriptionStore {
	return &MemSubscriptionStore{subs: make(map[uuid.UUID]billing.Subscription)}
}

func (s *MemSubscriptionStore) Get(_ context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, billing.ErrSubscriptionNotFound
	}
	if sub.CancelledAt != nil {
		cancelled := *sub.CancelledAt
		sub.CancelledAt = &cancelled
	}
	return &sub, nil
}

func (s *MemSubscriptionStore) Save(_ context.Context, sub *billing.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sub
	if sub.CancelledAt != nil {
		cancelled := *sub.CancelledAt
		stored.CancelledAt = &cancelled
	}
	s.subs[sub.UserID] = stored
	return nil
}

// MemAuditStore is an in-memory AuditStore, newest entries first.
type MemAuditStore struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]auditlog.Entry
}

// NewMemAuditStore returns an empty in-memory audit store.
func NewMemAuditStore() *MemAuditStore {
	return &MemAuditStore{entries: make(map[uuid.UUID][]auditlog.Entry)}
}

func (s *MemAuditStore) Insert(_ context.Context, ownerID uuid.UUID, entry auditlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[ownerID] = append([]auditlog.Entry{entry}, s.entries[ownerID]...)
	return nil
}

func (s *MemAuditStore) ListRecent(_ context.Context, ownerID uuid.UUID, limit int) ([]auditlog.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = auditlog.DefaultRingSize
	}
	entries := s.entries[ownerID]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return slices.Clone(entries), nil
}
