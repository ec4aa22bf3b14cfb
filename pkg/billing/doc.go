// Package billing integrates the external payment provider and persists the
// authoritative subscription state that entitlement verification reads.
//
// The Provider interface abstracts the payment vendor behind three
// operations: hosted checkout creation, customer portal sessions, and
// webhook parsing. The Paddle implementation uses the official SDK and
// verifies webhook signatures before trusting any payload.
//
// The Store interface persists one subscription per user; a pgx-backed
// implementation lives in svc/entitlement. The Catalog maps the app's
// paid tiers to provider price IDs and amounts, loaded from a YAML file so
// price changes do not require a rebuild.
package billing
