package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/verdantlab/sprout/pkg/entitlement"
)

// Status is the provider-reported state of a subscription.
type Status string

const (
	StatusTrialing  Status = "trialing"
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Subscription is a user's billing record. Each user has at most one.
type Subscription struct {
	UserID             uuid.UUID // primary key - one subscription per user
	Tier               entitlement.Tier
	Status             Status
	ProviderSubID      string // provider's subscription ID
	ProviderCustomerID string // provider's customer ID (ctm_xxx, cus_xxx, etc)
	CurrentPeriodEnd   time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time // set when the subscription is cancelled
}

func (s *Subscription) IsActive() bool {
	return s.Status == StatusActive || s.Status == StatusTrialing
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == StatusCancelled
}

// Entitled reports whether the record grants a paid entitlement at the
// given time: an active or trialing status whose billing period has not
// lapsed.
func (s *Subscription) Entitled(now time.Time) bool {
	return s.IsActive() && s.CurrentPeriodEnd.After(now)
}

// Snapshot derives the entitlement snapshot for this record at the given
// time. A record that no longer grants entitlement collapses to the
// unsubscribed snapshot, never to a partially populated one.
func (s *Subscription) Snapshot(now time.Time) entitlement.Snapshot {
	if s == nil || !s.Entitled(now) {
		return entitlement.Unsubscribed()
	}
	return entitlement.NewSnapshot(s.Tier, s.CurrentPeriodEnd)
}
