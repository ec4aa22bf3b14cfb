package billing

import (
	"context"
	"time"
)

// Provider is the minimal payment vendor interface. All payment complexity
// stays behind hosted checkouts and customer portals; no card data ever
// touches this codebase.
type Provider interface {
	// CreateCheckoutLink creates a hosted checkout session.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// GetCustomerPortalLink returns a pre-authenticated link to the customer
	// portal where users manage payment methods and cancellation.
	GetCustomerPortalLink(ctx context.Context, sub *Subscription) (*PortalLink, error)

	// ParseWebhook validates the signature and normalizes the event.
	// Must reject unverifiable payloads to prevent webhook spoofing.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CheckoutRequest carries what the provider needs to start a checkout.
type CheckoutRequest struct {
	PriceID    string // provider's price identifier
	UserID     string // internal user ID, echoed back in webhooks
	Email      string // optional billing email
	SuccessURL string // redirect after successful payment
	CancelURL  string // redirect if the customer backs out
}

// CheckoutLink is a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// PortalLink is a customer portal session.
type PortalLink struct {
	URL       string
	CancelURL string // direct link to the cancellation flow, when available
	ExpiresAt time.Time
}

// EventType is the normalized billing event kind. Provider implementations
// map their vendor-specific events onto these.
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription_created"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventPaymentFailed         EventType = "payment_failed"
)

// WebhookEvent is a normalized provider notification.
type WebhookEvent struct {
	Type           EventType
	ProviderEvent  string // original vendor event name
	SubscriptionID string
	CustomerID     string // provider's customer ID
	UserID         string // internal user ID from custom data
	Status         string
	PriceID        string
	PeriodEnd      *time.Time // end of the current billing period, when present
	Raw            map[string]any
}
