package billing

import "errors"

var (
	ErrSubscriptionNotFound  = errors.New("billing: subscription not found")
	ErrNoBillingRelationship = errors.New("billing: user has no billing relationship")

	ErrMissingAPIKey             = errors.New("billing: provider API key is required")
	ErrMissingWebhookSecret      = errors.New("billing: provider webhook secret is required")
	ErrInvalidEnvironment        = errors.New("billing: invalid provider environment")
	ErrWebhookVerificationFailed = errors.New("billing: webhook signature verification failed")
	ErrNoCheckoutURL             = errors.New("billing: no checkout URL returned from provider")
	ErrNoPortalURL               = errors.New("billing: no portal URL returned from provider")
	ErrMissingUserID             = errors.New("billing: user ID is required")
	ErrMissingPriceID            = errors.New("billing: price ID is required")

	ErrFailedToLoadCatalog = errors.New("billing: failed to load price catalog")
	ErrInvalidCatalog      = errors.New("billing: invalid price catalog")
	ErrUnknownPrice        = errors.New("billing: no catalog entry for price")
)
