package entitlement

import (
	"log/slog"
	"time"

	"github.com/verdantlab/sprout/pkg/auditlog"
)

// Option configures a Client.
type Option func(*Client)

// WithFeed wires the realtime audit feed. Without it the client still
// verifies on demand but is not invalidated by remote changes.
func WithFeed(feed auditlog.Feed) Option {
	return func(c *Client) {
		if feed != nil {
			c.feed = feed
		}
	}
}

// WithLogger sets the structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithClock overrides the time source used by IsExpiringSoon. Intended for
// tests with fixed time values.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRingSize sets the audit trail capacity. Values below 1 keep the
// default.
func WithRingSize(size int) Option {
	return func(c *Client) {
		if size >= 1 {
			c.ringSize = size
		}
	}
}
