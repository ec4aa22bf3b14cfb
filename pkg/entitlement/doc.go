// Package entitlement determines whether the current user holds a paid
// subscription and keeps that answer consistent under concurrent triggers.
//
// The cached entitlement Snapshot is reconciled from two sources: a primary
// verifier backed by the authoritative billing endpoint, and a fallback
// verifier backed by a caller-scoped read path that is consulted only when
// the primary is unreachable. An audit feed subscription invalidates the
// cache in real time, and two session factories produce redirect URLs for
// the external billing system (checkout and customer portal).
//
// The Client is the single entry point for UI-facing code:
//
//	client := entitlement.New(primary, fallback, checkout, portal,
//		entitlement.WithFeed(feed),
//		entitlement.WithLogger(log),
//	)
//	defer client.Close()
//
//	client.SetPrincipal(ctx, principal.Principal{ID: userID, Token: token})
//
//	if client.IsPremium() { ... }
//	url, err := client.CreateCheckout(ctx, 799)
//
// Consistency model: every refresh is tagged with the principal and a
// monotonically increasing sequence number at issue time. A result is
// applied only when that principal is still current, the sequence number is
// the highest that has produced an outcome, and the client has not been
// closed. When both verifiers fail, the previously confirmed snapshot is
// retained and the failure is surfaced alongside it; a transient network
// blip never erases a confirmed entitlement.
package entitlement
