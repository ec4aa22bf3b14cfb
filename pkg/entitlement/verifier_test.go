package entitlement_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlab/sprout/pkg/entitlement"
	"github.com/verdantlab/sprout/pkg/principal"
)

func testPrincipal() principal.Principal {
	return principal.Principal{ID: uuid.New(), Token: "tok-abc"}
}

func verifyServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestHTTPVerifier_Subscribed(t *testing.T) {
	t.Parallel()

	srv := verifyServer(t, http.StatusOK,
		`{"subscribed":true,"subscription_tier":"premium","subscription_end":"2025-06-01T00:00:00Z"}`)
	defer srv.Close()

	v := entitlement.NewHTTPVerifier(srv.URL)
	snap, err := v.Verify(context.Background(), testPrincipal())
	require.NoError(t, err)

	assert.True(t, snap.Subscribed)
	assert.Equal(t, entitlement.TierPremium, snap.Tier)
	require.NotNil(t, snap.ExpiresAt)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), *snap.ExpiresAt)
}

func TestHTTPVerifier_AuthoritativeNegative(t *testing.T) {
	t.Parallel()

	srv := verifyServer(t, http.StatusOK,
		`{"subscribed":false,"subscription_tier":null,"subscription_end":null}`)
	defer srv.Close()

	v := entitlement.NewHTTPVerifier(srv.URL)
	snap, err := v.Verify(context.Background(), testPrincipal())
	require.NoError(t, err)
	assert.Equal(t, entitlement.Unsubscribed(), snap)
}

func TestHTTPVerifier_MissingCredential(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	v := entitlement.NewHTTPVerifier(srv.URL)

	_, err := v.Verify(context.Background(), principal.Principal{})
	assert.ErrorIs(t, err, entitlement.ErrUnauthenticated)

	_, err = v.Verify(context.Background(), principal.Principal{ID: uuid.New()})
	assert.ErrorIs(t, err, entitlement.ErrUnauthenticated)

	assert.Zero(t, calls.Load(), "no network attempt without a credential")
}

func TestHTTPVerifier_FailureTaxonomy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "expired credential",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, entitlement.ErrUnauthenticated)
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, entitlement.ErrUnauthorized)
			},
		},
		{
			name:   "server failure",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, entitlement.ErrUnavailable)
			},
		},
		{
			name:   "explicit processing error",
			status: http.StatusOK,
			body:   `{"subscribed":false,"error":"billing lookup failed"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, entitlement.IsBusinessError(err))
				assert.Contains(t, err.Error(), "billing lookup failed")
			},
		},
		{
			name:   "malformed payload",
			status: http.StatusOK,
			body:   `{not json`,
			check: func(t *testing.T, err error) {
				assert.True(t, entitlement.IsBusinessError(err))
			},
		},
		{
			name:   "unknown tier",
			status: http.StatusOK,
			body:   `{"subscribed":true,"subscription_tier":"diamond","subscription_end":"2025-06-01T00:00:00Z"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, entitlement.IsBusinessError(err))
			},
		},
		{
			name:   "subscribed without tier",
			status: http.StatusOK,
			body:   `{"subscribed":true,"subscription_end":"2025-06-01T00:00:00Z"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, entitlement.IsBusinessError(err))
			},
		},
		{
			name:   "unsubscribed with stale tier",
			status: http.StatusOK,
			body:   `{"subscribed":false,"subscription_tier":"premium","subscription_end":null}`,
			check: func(t *testing.T, err error) {
				assert.True(t, entitlement.IsBusinessError(err))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := verifyServer(t, tc.status, tc.body)
			defer srv.Close()

			v := entitlement.NewHTTPVerifier(srv.URL)
			_, err := v.Verify(context.Background(), testPrincipal())
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestHTTPVerifier_TransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	v := entitlement.NewHTTPVerifier(srv.URL)
	_, err := v.Verify(context.Background(), testPrincipal())
	assert.ErrorIs(t, err, entitlement.ErrUnavailable)
}

func TestRowsVerifier_SingleRow(t *testing.T) {
	t.Parallel()

	srv := verifyServer(t, http.StatusOK,
		`[{"subscribed":true,"subscription_tier":"pro","subscription_end":"2026-01-01T00:00:00Z"}]`)
	defer srv.Close()

	v := entitlement.NewRowsVerifier(srv.URL)
	snap, err := v.Verify(context.Background(), testPrincipal())
	require.NoError(t, err)
	assert.True(t, snap.IsPro())
}

func TestRowsVerifier_NoRows(t *testing.T) {
	t.Parallel()

	srv := verifyServer(t, http.StatusOK, `[]`)
	defer srv.Close()

	v := entitlement.NewRowsVerifier(srv.URL)
	snap, err := v.Verify(context.Background(), testPrincipal())
	require.NoError(t, err)
	assert.Equal(t, entitlement.Unsubscribed(), snap)
}

func TestRowsVerifier_TooManyRows(t *testing.T) {
	t.Parallel()

	srv := verifyServer(t, http.StatusOK,
		`[{"subscribed":false},{"subscribed":false}]`)
	defer srv.Close()

	v := entitlement.NewRowsVerifier(srv.URL)
	_, err := v.Verify(context.Background(), testPrincipal())
	assert.True(t, entitlement.IsBusinessError(err))
}
