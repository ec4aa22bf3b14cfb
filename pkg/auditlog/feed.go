package auditlog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrFeedClosed is returned when subscribing to a closed feed.
	ErrFeedClosed = errors.New("auditlog: feed is closed")
	// ErrMissingOwner is returned when a subscription has no owner scope.
	ErrMissingOwner = errors.New("auditlog: owner id is required")
)

// Feed delivers insert notifications for the audit stream of a single owner.
type Feed interface {
	// Subscribe opens a subscription scoped to ownerID. The subscription
	// lives until Close is called or ctx is cancelled.
	Subscribe(ctx context.Context, ownerID uuid.UUID) (Subscription, error)
}

// Subscription is a live, single-owner audit feed.
type Subscription interface {
	// Events returns the channel of delivered entries. The channel is
	// closed when the subscription ends.
	Events() <-chan Entry

	// Close tears the subscription down. Idempotent.
	Close() error
}

// Publisher pushes new entries into a feed. Implemented by the in-process
// and Redis hubs; the serving side publishes through it after persisting
// an entry.
type Publisher interface {
	Publish(ctx context.Context, ownerID uuid.UUID, e Entry) error
}
