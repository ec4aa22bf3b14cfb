package billing

import (
	"context"

	"github.com/google/uuid"
)

// Store persists subscription records. Each user has at most one, so
// UserID is the primary key.
type Store interface {
	// Get retrieves a user's subscription.
	// Returns ErrSubscriptionNotFound when none exists.
	Get(ctx context.Context, userID uuid.UUID) (*Subscription, error)

	// Save creates or updates a subscription keyed by UserID.
	Save(ctx context.Context, sub *Subscription) error
}
