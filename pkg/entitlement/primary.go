package entitlement

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/verdantlab/sprout/pkg/principal"
)

// HTTPVerifier is the primary, authoritative verifier. It calls the verify
// endpoint with the principal's bearer credential and decodes the response
// strictly. Exactly one attempt per call.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

// HTTPVerifierOption configures an HTTPVerifier.
type HTTPVerifierOption func(*HTTPVerifier)

// WithVerifierHTTPClient overrides the HTTP client used for verification
// calls. Nil clients are ignored.
func WithVerifierHTTPClient(c *http.Client) HTTPVerifierOption {
	return func(v *HTTPVerifier) {
		if c != nil {
			v.client = c
		}
	}
}

// NewHTTPVerifier creates the primary verifier for the given endpoint.
func NewHTTPVerifier(endpoint string, opts ...HTTPVerifierOption) *HTTPVerifier {
	if endpoint == "" {
		panic("entitlement: verify endpoint is required")
	}
	v := &HTTPVerifier{
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify performs the authoritative entitlement check.
func (v *HTTPVerifier) Verify(ctx context.Context, p principal.Principal) (Snapshot, error) {
	if p.IsZero() || p.Token == "" {
		return Snapshot{}, ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, nil)
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

	var payload snapshotPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Snapshot{}, &BusinessError{Message: "malformed verification payload"}
	}
	return payload.toSnapshot()
}
