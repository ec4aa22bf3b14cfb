package auditlog

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is a single audit log record. Entries are produced exclusively by
// the serving side and are immutable once created.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	ActionType    string          `json:"action_type"`
	MaskedEmail   string          `json:"masked_email"`
	ChangeDetails json.RawMessage `json:"change_details,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Common action types recorded by the billing service.
const (
	ActionSubscriptionCreated   = "subscription_created"
	ActionSubscriptionUpdated   = "subscription_updated"
	ActionSubscriptionCancelled = "subscription_cancelled"
	ActionPaymentFailed         = "payment_failed"
	ActionCheckoutStarted       = "checkout_started"
	ActionPortalOpened          = "portal_opened"
)

// MaskEmail redacts the local part of an email address for audit display,
// keeping the first character and the full domain: "gardener@example.com"
// becomes "g***@example.com". Values without an "@" are masked entirely.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}
