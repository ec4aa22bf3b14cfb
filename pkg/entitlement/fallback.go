package entitlement

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/verdantlab/sprout/pkg/principal"
)

// RowsVerifier is the degraded fallback verifier. It reads the restricted,
// caller-scoped subscription row: scoping is implicit in the credential, no
// identifier from the caller is trusted. The result is less timely than the
// primary path and is consulted only when the primary is unreachable.
type RowsVerifier struct {
	endpoint string
	client   *http.Client
}

// RowsVerifierOption configures a RowsVerifier.
type RowsVerifierOption func(*RowsVerifier)

// WithRowsHTTPClient overrides the HTTP client used for the rows read.
// Nil clients are ignored.
func WithRowsHTTPClient(c *http.Client) RowsVerifierOption {
	return func(v *RowsVerifier) {
		if c != nil {
			v.client = c
		}
	}
}

// NewRowsVerifier creates the fallback verifier for the given endpoint.
func NewRowsVerifier(endpoint string, opts ...RowsVerifierOption) *RowsVerifier {
	if endpoint == "" {
		panic("entitlement: rows endpoint is required")
	}
	v := &RowsVerifier{
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify reads the caller's subscription row. Zero rows mean no
// subscription; more than one row is a shape violation.
func (v *RowsVerifier) Verify(ctx context.Context, p principal.Principal) (Snapshot, error) {
	if p.IsZero() || p.Token == "" {
		return Snapshot{}, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.endpoint, nil)
	if err != nil {
		return Snapshot{}, err
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Accept", "application/json")

	status, body, err := doJSON(v.client, req)
	if err != nil {
		return Snapshot{}, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return Snapshot{}, statusError(status, body)
	}

	var rows []snapshotPayload
	if err := json.Unmarshal(body, &rows); err != nil {
		return Snapshot{}, &BusinessError{Message: "malformed subscription rows payload"}
	}

	switch len(rows) {
	case 0:
		return Unsubscribed(), nil
	case 1:
		return rows[0].toSnapshot()
	default:
		return Snapshot{}, &BusinessError{Message: "unexpected subscription row count"}
	}
}
