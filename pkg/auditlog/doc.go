// Package auditlog models the append-only stream of entitlement-affecting
// events and the plumbing that delivers it to interested clients.
//
// The remote side inserts an Entry whenever something happens that may change
// a user's entitlement (subscription created, plan changed, payment failed).
// Clients subscribe to the per-owner feed and keep the most recent entries in
// a fixed-size, newest-first Ring.
//
// Three Feed implementations are provided:
//
//   - Hub: in-process fan-out, used on the serving side and in tests
//   - RedisHub: Redis pub/sub backed fan-out for multi-instance deployments
//   - WebsocketFeed: client-side subscription over a websocket endpoint
//
// A subscription delivers insert notifications only and is scoped to a single
// owner. It is explicitly closed by the consumer; there is no automatic
// reconnection.
package auditlog
