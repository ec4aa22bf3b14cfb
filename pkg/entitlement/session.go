package entitlement

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/verdantlab/sprout/pkg/principal"
)

// CheckoutSessionFactory starts a hosted checkout for the given price and
// returns the redirect URL. The URL is ephemeral and never cached.
type CheckoutSessionFactory interface {
	Create(ctx context.Context, p principal.Principal, priceAmount int64) (string, error)
}

// PortalSessionFactory opens a billing portal session and returns the
// redirect URL.
type PortalSessionFactory interface {
	Create(ctx context.Context, p principal.Principal) (string, error)
}

// sessionPayload is the wire shape of both session endpoints.
type sessionPayload struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// HTTPCheckoutFactory calls the checkout session endpoint.
type HTTPCheckoutFactory struct {
	endpoint string
	client   *http.Client
}

// NewHTTPCheckoutFactory creates a checkout factory for the given endpoint.
func NewHTTPCheckoutFactory(endpoint string, client *http.Client) *HTTPCheckoutFactory {
	if endpoint == "" {
		panic("entitlement: checkout endpoint is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPCheckoutFactory{endpoint: endpoint, client: client}
}

// Create starts a checkout session for priceAmount, expressed in minor
// currency units.
func (f *HTTPCheckoutFactory) Create(ctx context.Context, p principal.Principal, priceAmount int64) (string, error) {
	body, err := json.Marshal(map[string]int64{"priceAmount": priceAmount})
	if err != nil {
		return "", err
	}
	return createSession(ctx, f.client, f.endpoint, p, bytes.NewReader(body))
}

// HTTPPortalFactory calls the billing portal session endpoint.
type HTTPPortalFactory struct {
	endpoint string
	client   *http.Client
}

// NewHTTPPortalFactory creates a portal factory for the given endpoint.
func NewHTTPPortalFactory(endpoint string, client *http.Client) *HTTPPortalFactory {
	if endpoint == "" {
		panic("entitlement: portal endpoint is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPPortalFactory{endpoint: endpoint, client: client}
}

// Create opens a portal session. Fails with ErrUnauthorized when the user
// has no billing relationship to manage.
func (f *HTTPPortalFactory) Create(ctx context.Context, p principal.Principal) (string, error) {
	return createSession(ctx, f.client, f.endpoint, p, nil)
}

func createSession(ctx context.Context, client *http.Client, endpoint string, p principal.Principal, body *bytes.Reader) (string, error) {
	if p.IsZero() || p.Token == "" {
		return "", ErrUnauthenticated
	}

	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	}
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.Token)
	req.Header.Set("Content-Type", "application/json")

	status, respBody, err := doJSON(client, req)
	if err != nil {
		return "", err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return "", statusError(status, respBody)
	}

	var payload sessionPayload
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", &BusinessError{Message: "malformed session payload"}
	}
	if payload.Error != "" {
		return "", &BusinessError{Message: payload.Error}
	}
	if payload.URL == "" {
		return "", &BusinessError{Message: "no redirect URL returned"}
	}
	return payload.URL, nil
}
