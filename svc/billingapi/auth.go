package billingapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/verdantlab/sprout/pkg/principal"
)

// ErrTokenRejected is returned when the identity provider does not
// recognize a bearer token.
var ErrTokenRejected = errors.New("billingapi: token rejected by identity provider")

// NewIntrospectionAuthFunc returns an AuthFunc that resolves bearer tokens
// against an identity provider's introspection endpoint. The endpoint is
// expected to answer POST requests carrying the token as a bearer header
// with {"user_id": "<uuid>"} for valid tokens and a non-2xx status
// otherwise.
func NewIntrospectionAuthFunc(endpoint string, client *http.Client) AuthFunc {
	if endpoint == "" {
		panic("billingapi: introspection endpoint is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, token string) (principal.Principal, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
		if err != nil {
			return principal.Principal{}, err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := client.Do(req)
		if err != nil {
			return principal.Principal{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return principal.Principal{}, fmt.Errorf("%w: status %d", ErrTokenRejected, resp.StatusCode)
		}

		var payload struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
			return principal.Principal{}, err
		}
		userID, err := uuid.Parse(payload.UserID)
		if err != nil {
			return principal.Principal{}, errors.Join(ErrTokenRejected, err)
		}
		return principal.Principal{ID: userID, Token: token}, nil
	}
}
