package entitlement

import (
	"fmt"
	"time"
)

// Tier is a paid subscription level.
type Tier string

const (
	TierBasic   Tier = "basic"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

// ParseTier maps a wire value to a Tier. Unknown values are rejected so a
// malformed payload surfaces as a validation failure instead of a silently
// coerced tier.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierBasic, TierPremium, TierPro:
		return Tier(s), nil
	default:
		return "", fmt.Errorf("unknown subscription tier %q", s)
	}
}

// ExpiringSoonWindow is how far ahead of the period end a subscription is
// reported as expiring soon.
const ExpiringSoonWindow = 7 * 24 * time.Hour

// Snapshot summarizes a user's entitlement at a point in time. It is a
// value type and is always replaced as a whole: Tier is set if and only if
// Subscribed is true, and likewise ExpiresAt. Construct snapshots with
// NewSnapshot or Unsubscribed so the invariant cannot be violated.
type Snapshot struct {
	Subscribed bool
	Tier       Tier
	ExpiresAt  *time.Time
}

// Unsubscribed returns the snapshot for a user with no paid subscription.
// Also the default cache value on client construction.
func Unsubscribed() Snapshot {
	return Snapshot{}
}

// NewSnapshot builds a subscribed snapshot for the given tier and period end.
func NewSnapshot(tier Tier, expiresAt time.Time) Snapshot {
	e := expiresAt
	return Snapshot{
		Subscribed: true,
		Tier:       tier,
		ExpiresAt:  &e,
	}
}

// IsBasic reports whether the snapshot carries the basic tier.
func (s Snapshot) IsBasic() bool {
	return s.Subscribed && s.Tier == TierBasic
}

// IsPremium reports whether the snapshot carries the premium tier.
func (s Snapshot) IsPremium() bool {
	return s.Subscribed && s.Tier == TierPremium
}

// IsPro reports whether the snapshot carries the pro tier.
func (s Snapshot) IsPro() bool {
	return s.Subscribed && s.Tier == TierPro
}

// ExpiringSoon reports whether the subscription ends within
// ExpiringSoonWindow of now. Always false for unsubscribed snapshots,
// regardless of any stale period end.
func (s Snapshot) ExpiringSoon(now time.Time) bool {
	if !s.Subscribed || s.ExpiresAt == nil {
		return false
	}
	return s.ExpiresAt.Sub(now) < ExpiringSoonWindow
}
