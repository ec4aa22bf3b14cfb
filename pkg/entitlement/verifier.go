package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/verdantlab/sprout/pkg/principal"
)

// Verifier resolves the current entitlement snapshot for a principal.
// Implementations make exactly one attempt per call; retry policy, if any,
// belongs to the caller.
type Verifier interface {
	Verify(ctx context.Context, p principal.Principal) (Snapshot, error)
}

// snapshotPayload is the wire shape shared by the primary verify endpoint
// and the fallback rows read.
type snapshotPayload struct {
	Subscribed       bool    `json:"subscribed"`
	SubscriptionTier *string `json:"subscription_tier"`
	SubscriptionEnd  *string `json:"subscription_end"`
	Error            string  `json:"error,omitempty"`
}

// toSnapshot validates the payload strictly at the boundary. Shape
// violations become a BusinessError rather than being coerced into an
// inconsistent snapshot.
func (p snapshotPayload) toSnapshot() (Snapshot, error) {
	if p.Error != "" {
		return Snapshot{}, &BusinessError{Message: p.Error}
	}

	if !p.Subscribed {
		if p.SubscriptionTier != nil || p.SubscriptionEnd != nil {
			return Snapshot{}, &BusinessError{Message: "tier or period end present on unsubscribed payload"}
		}
		return Unsubscribed(), nil
	}

	if p.SubscriptionTier == nil || p.SubscriptionEnd == nil {
		return Snapshot{}, &BusinessError{Message: "subscribed payload missing tier or period end"}
	}

	tier, err := ParseTier(*p.SubscriptionTier)
	if err != nil {
		return Snapshot{}, &BusinessError{Message: err.Error()}
	}

	end, err := time.Parse(time.RFC3339, *p.SubscriptionEnd)
	if err != nil {
		return Snapshot{}, &BusinessError{Message: "invalid subscription end timestamp: " + *p.SubscriptionEnd}
	}

	return NewSnapshot(tier, end.UTC()), nil
}

// statusError maps a non-2xx response to the package failure taxonomy.
func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case status == http.StatusForbidden:
		return ErrUnauthorized
	case status >= http.StatusInternalServerError:
		return ErrUnavailable
	default:
		msg := http.StatusText(status)
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
			msg = payload.Error
		}
		return &BusinessError{Message: msg}
	}
}

// doJSON issues the request and reads the body, translating transport
// failures to ErrUnavailable.
func doJSON(client *http.Client, req *http.Request) (int, []byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, errors.Join(ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, errors.Join(ErrUnavailable, err)
	}
	return resp.StatusCode, body, nil
}
