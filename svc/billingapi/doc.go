// Package billingapi is the serving side of entitlement verification: the
// authoritative verify endpoint, the caller-scoped subscription rows read,
// checkout and portal session creation, the Paddle webhook receiver, and
// the realtime audit feed websocket.
//
// The package wires pkg/billing (provider, store, catalog) and pkg/auditlog
// (entries, feed hub) behind a chi router. Identity stays external: the
// router takes an AuthFunc that introspects bearer tokens and returns the
// principal, so any session provider can sit in front.
package billingapi
