package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/verdantlab/sprout/pkg/auditlog"
	"github.com/verdantlab/sprout/pkg/principal"
)

// State is the client's cache lifecycle state.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateLoading       State = "loading"
	StateReady         State = "ready"
	StateError         State = "error"
)

// Client owns the cached entitlement snapshot and orchestrates the
// verifiers, the audit feed, and the session factories. All methods are
// safe for concurrent use.
//
// The principal is injected explicitly: SetPrincipal on login or identity
// change, ClearPrincipal on logout, Close on disposal. Each refresh carries
// the principal and a sequence number captured at issue time; results for a
// superseded principal or sequence are discarded rather than applied.
type Client struct {
	primary  Verifier
	fallback Verifier
	checkout CheckoutSessionFactory
	portal   PortalSessionFactory
	feed     auditlog.Feed
	log      *slog.Logger
	now      func() time.Time
	ringSize int

	mu         sync.Mutex
	principal  principal.Principal
	snapshot   Snapshot
	state      State
	lastErr    error
	issuedSeq  uint64
	outcomeSeq uint64
	ring       *auditlog.Ring
	feedSub    auditlog.Subscription
	closed     bool
}

// New creates a Client. Panics when a required dependency is nil to fail
// fast during initialization; the audit feed is optional and wired with
// WithFeed.
func New(primary, fallback Verifier, checkout CheckoutSessionFactory, portal PortalSessionFactory, opts ...Option) *Client {
	if primary == nil {
		panic("entitlement: primary verifier is required")
	}
	if fallback == nil {
		panic("entitlement: fallback verifier is required")
	}
	if checkout == nil {
		panic("entitlement: checkout session factory is required")
	}
	if portal == nil {
		panic("entitlement: portal session factory is required")
	}

	c := &Client{
		primary:  primary,
		fallback: fallback,
		checkout: checkout,
		portal:   portal,
		log:      slog.New(slog.DiscardHandler),
		now:      time.Now,
		ringSize: auditlog.DefaultRingSize,
		snapshot: Unsubscribed(),
		state:    StateUninitialized,
		ring:     auditlog.NewRing(auditlog.DefaultRingSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.ring = auditlog.NewRing(c.ringSize)
	return c
}

// SetPrincipal installs the active principal, opens the audit feed
// subscription for it, and kicks an initial verification in the background.
// Any previous subscription and audit trail are torn down first, so exactly
// one subscription is live per client. On an identity change the cached
// snapshot is discarded as well; the new principal starts from the
// unsubscribed default. ctx bounds the subscription and the background
// refresh.
func (c *Client) SetPrincipal(ctx context.Context, p principal.Principal) {
	if p.IsZero() {
		c.ClearPrincipal()
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.teardownFeedLocked()
	if !c.principal.Equal(p) {
		// A snapshot computed for another identity must never be
		// served as this one's cached value.
		c.snapshot = Unsubscribed()
	}
	c.principal = p
	c.ring = auditlog.NewRing(c.ringSize)
	c.state = StateLoading
	c.lastErr = nil
	c.mu.Unlock()

	if c.feed != nil {
		sub, err := c.feed.Subscribe(ctx, p.ID)
		if err != nil {
			// Degraded mode: verification still works, realtime
			// invalidation does not.
			c.log.ErrorContext(ctx, "failed to open audit feed",
				slog.Any("user_id", p.ID), slog.Any("error", err))
		} else {
			c.mu.Lock()
			if c.closed || !c.principal.Equal(p) {
				c.mu.Unlock()
				_ = sub.Close()
			} else {
				c.feedSub = sub
				c.mu.Unlock()
				go c.consumeFeed(ctx, p, sub)
			}
		}
	}

	go func() {
		if _, err := c.Refresh(ctx); err != nil {
			c.log.ErrorContext(ctx, "initial entitlement verification failed",
				slog.Any("user_id", p.ID), slog.Any("error", err))
		}
	}()
}

// ClearPrincipal reacts to logout: the feed subscription is torn down, the
// audit trail and cached snapshot are discarded, and the client returns to
// its uninitialized state.
func (c *Client) ClearPrincipal() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownFeedLocked()
	c.principal = principal.Principal{}
	c.snapshot = Unsubscribed()
	c.state = StateUninitialized
	c.lastErr = nil
	c.ring = auditlog.NewRing(c.ringSize)
}

// Close disposes the client. In-flight verification results resolving after
// Close are discarded rather than applied.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.teardownFeedLocked()
	return nil
}

// Refresh reconciles the cached snapshot from the remote sources: the
// primary verifier first, the fallback only when the primary is unreachable.
// An authoritative negative from the primary is applied as-is and never
// second-guessed by the fallback. When both sources fail the cache is left
// untouched and the failure is returned alongside the retained snapshot.
func (c *Client) Refresh(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Unsubscribed(), ErrClientClosed
	}
	p := c.principal
	if p.IsZero() {
		c.mu.Unlock()
		return Unsubscribed(), ErrUnauthenticated
	}
	c.issuedSeq++
	seq := c.issuedSeq
	c.state = StateLoading
	c.mu.Unlock()

	snap, err := c.primary.Verify(ctx, p)
	if err != nil && errors.Is(err, ErrUnavailable) {
		c.log.WarnContext(ctx, "primary verifier unreachable, falling back",
			slog.Any("user_id", p.ID), slog.Any("error", err))
		fallbackSnap, fallbackErr := c.fallback.Verify(ctx, p)
		if fallbackErr != nil {
			err = errors.Join(err, fallbackErr)
		} else {
			snap, err = fallbackSnap, nil
		}
	}

	if err != nil {
		return c.recordFailure(p, seq, err), err
	}
	return c.apply(p, seq, snap), nil
}

// apply installs the snapshot under the replace-if-still-current rule.
// Returns the resulting cached snapshot either way.
func (c *Client) apply(p principal.Principal, seq uint64, snap Snapshot) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.principal.Equal(p) || seq <= c.outcomeSeq {
		return c.snapshot
	}
	c.outcomeSeq = seq
	c.snapshot = snap
	c.state = StateReady
	c.lastErr = nil
	return c.snapshot
}

// recordFailure surfaces a verification failure without clobbering the last
// good snapshot. Stale failures are ignored entirely.
func (c *Client) recordFailure(p principal.Principal, seq uint64, err error) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.principal.Equal(p) || seq <= c.outcomeSeq {
		return c.snapshot
	}
	c.outcomeSeq = seq
	c.state = StateError
	c.lastErr = err
	return c.snapshot
}

// consumeFeed is the single consumer of a feed subscription: each delivered
// entry lands in the ring buffer and triggers a refresh, because an audit
// event means the cached entitlement can no longer be trusted.
func (c *Client) consumeFeed(ctx context.Context, p principal.Principal, sub auditlog.Subscription) {
	for entry := range sub.Events() {
		c.mu.Lock()
		if c.closed || !c.principal.Equal(p) || c.feedSub != sub {
			c.mu.Unlock()
			return
		}
		ring := c.ring
		c.mu.Unlock()

		ring.Push(entry)
		if _, err := c.Refresh(ctx); err != nil {
			c.log.ErrorContext(ctx, "audit-triggered verification failed",
				slog.Any("user_id", p.ID),
				slog.String("action_type", entry.ActionType),
				slog.Any("error", err))
		}
	}
}

// CreateCheckout starts a hosted checkout for priceAmount (minor currency
// units) and returns the redirect URL. Requires an authenticated principal;
// fails with ErrUnauthenticated before any network attempt otherwise. Does
// not touch the cached snapshot.
func (c *Client) CreateCheckout(ctx context.Context, priceAmount int64) (string, error) {
	p, err := c.currentPrincipal()
	if err != nil {
		return "", err
	}
	return c.checkout.Create(ctx, p, priceAmount)
}

// OpenPortal opens a billing portal session and returns the redirect URL.
// Same authentication contract as CreateCheckout.
func (c *Client) OpenPortal(ctx context.Context) (string, error) {
	p, err := c.currentPrincipal()
	if err != nil {
		return "", err
	}
	return c.portal.Create(ctx, p)
}

// Snapshot returns the cached entitlement snapshot.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// State returns the cache lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the failure from the most recent refresh whose both sources
// failed, or nil. The cached snapshot stays valid alongside it.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// AuditEntries returns the retained audit trail, newest first.
func (c *Client) AuditEntries() []auditlog.Entry {
	c.mu.Lock()
	ring := c.ring
	c.mu.Unlock()
	return ring.Entries()
}

// IsBasic reports whether the cached snapshot carries the basic tier.
func (c *Client) IsBasic() bool { return c.Snapshot().IsBasic() }

// IsPremium reports whether the cached snapshot carries the premium tier.
func (c *Client) IsPremium() bool { return c.Snapshot().IsPremium() }

// IsPro reports whether the cached snapshot carries the pro tier.
func (c *Client) IsPro() bool { return c.Snapshot().IsPro() }

// IsExpiringSoon reports whether the cached subscription ends within
// ExpiringSoonWindow. Always false when unsubscribed.
func (c *Client) IsExpiringSoon() bool {
	return c.Snapshot().ExpiringSoon(c.now())
}

func (c *Client) currentPrincipal() (principal.Principal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return principal.Principal{}, ErrClientClosed
	}
	if c.principal.IsZero() {
		return principal.Principal{}, ErrUnauthenticated
	}
	return c.principal, nil
}

// teardownFeedLocked releases the live feed subscription, if any.
// Caller holds c.mu.
func (c *Client) teardownFeedLocked() {
	if c.feedSub != nil {
		_ = c.feedSub.Close()
		c.feedSub = nil
	}
}
