package billing_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/sprout/pkg/billing"
	"github.com/verdantlab/sprout/pkg/entitlement"
)

func TestSubscription_Entitled(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		status  billing.Status
		end     time.Time
		entitle bool
	}{
		{"active within period", billing.StatusActive, now.Add(30 * 24 * time.Hour), true},
		{"trialing within period", billing.StatusTrialing, now.Add(7 * 24 * time.Hour), true},
		{"active but lapsed", billing.StatusActive, now.Add(-time.Hour), false},
		{"past due", billing.StatusPastDue, now.Add(time.Hour), false},
		{"cancelled", billing.StatusCancelled, now.Add(time.Hour), false},
		{"expired", billing.StatusExpired, now.Add(time.Hour), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			sub := &billing.Subscription{
				UserID:           uuid.New(),
				Tier:             entitlement.TierPremium,
				Status:           tc.status,
				CurrentPeriodEnd: tc.end,
			}
			assert.Equal(t, tc.entitle, sub.Entitled(now))
		})
	}
}

func TestSubscription_Snapshot(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := now.Add(30 * 24 * time.Hour)

	entitled := &billing.Subscription{
		UserID:           uuid.New(),
		Tier:             entitlement.TierPro,
		Status:           billing.StatusActive,
		CurrentPeriodEnd: end,
	}
	snap := entitled.Snapshot(now)
	assert.True(t, snap.IsPro())
	require.NotNil(t, snap.ExpiresAt)
	assert.Equal(t, end, *snap.ExpiresAt)

	// A lapsed record collapses to the unsubscribed snapshot as a whole,
	// never to subscribed-without-tier or tier-without-subscribed.
	lapsed := &billing.Subscription{
		UserID:           uuid.New(),
		Tier:             entitlement.TierPro,
		Status:           billing.StatusCancelled,
		CurrentPeriodEnd: end,
	}
	assert.Equal(t, entitlement.Unsubscribed(), lapsed.Snapshot(now))

	var missing *billing.Subscription
	assert.Equal(t, entitlement.Unsubscribed(), missing.Snapshot(now))
}
