package auditlog

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Hub is an in-process Feed and Publisher fanning entries out to the
// subscribers of each owner. Slow consumers have entries dropped rather
// than blocking Publish. All methods are safe for concurrent use.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[*hubSubscription]struct{}
	bufferSize  int
	closed      bool
	cleanupWg   sync.WaitGroup
}

// NewHub creates an in-process hub. bufferSize is the per-subscriber
// channel buffer; a minimum of 1 is enforced so sends stay non-blocking.
func NewHub(bufferSize int) *Hub {
	return &Hub{
		subscribers: make(map[uuid.UUID]map[*hubSubscription]struct{}),
		bufferSize:  max(bufferSize, 1),
	}
}

// Subscribe opens a subscription for ownerID. The subscription is cleaned
// up when ctx is cancelled or Close is called on it.
func (h *Hub) Subscribe(ctx context.Context, ownerID uuid.UUID) (Subscription, error) {
	if ownerID == uuid.Nil {
		return nil, ErrMissingOwner
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrFeedClosed
	}

	sub := &hubSubscription{
		owner: ownerID,
		ch:    make(chan Entry, h.bufferSize),
		hub:   h,
	}
	owners, ok := h.subscribers[ownerID]
	if !ok {
		owners = make(map[*hubSubscription]struct{})
		h.subscribers[ownerID] = owners
	}
	owners[sub] = struct{}{}

	if ctx.Done() != nil {
		h.cleanupWg.Add(1)
		go func() {
			defer h.cleanupWg.Done()
			<-ctx.Done()
			h.remove(sub)
		}()
	}

	return sub, nil
}

// Publish delivers e to every subscriber of ownerID. Entries are dropped
// for subscribers whose buffer is full.
func (h *Hub) Publish(_ context.Context, ownerID uuid.UUID, e Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrFeedClosed
	}

	for sub := range h.subscribers[ownerID] {
		sub.send(e)
	}
	return nil
}

// Close shuts the hub down and closes every subscription. Idempotent.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	for _, owners := range h.subscribers {
		for sub := range owners {
			sub.closeChan()
		}
	}
	clear(h.subscribers)
	h.mu.Unlock()

	h.cleanupWg.Wait()
	return nil
}

func (h *Hub) remove(sub *hubSubscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if owners, ok := h.subscribers[sub.owner]; ok {
		delete(owners, sub)
		if len(owners) == 0 {
			delete(h.subscribers, sub.owner)
		}
	}
	sub.closeChan()
}

type hubSubscription struct {
	owner  uuid.UUID
	ch     chan Entry
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (s *hubSubscription) Events() <-chan Entry {
	return s.ch
}

func (s *hubSubscription) Close() error {
	s.hub.remove(s)
	return nil
}

func (s *hubSubscription) closeChan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		close(s.ch)
		s.closed = true
	}
}

func (s *hubSubscription) send(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- e:
	default:
	}
}
