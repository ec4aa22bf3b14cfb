package billingapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/verdantlab/sprout/pkg/auditlog"
	"github.com/verdantlab/sprout/pkg/billing"
	"github.com/verdantlab/sprout/pkg/principal"
	"github.com/verdantlab/sprout/pkg/requestid"
)

// AuthFunc introspects a bearer token and returns the principal it belongs
// to. Implementations return an error for unknown or expired tokens.
type AuthFunc func(ctx context.Context, token string) (principal.Principal, error)

const maxBodyBytes = 1 << 20

// RouterConfig wires the HTTP surface. Service and Authn are required;
// Feed enables the websocket audit feed endpoint when set. Health is the
// unauthenticated probe handler served at GET /health, typically built
// with httpserver.HealthCheckHandler.
type RouterConfig struct {
	Service *Service
	Authn   AuthFunc
	Feed    auditlog.Feed
	Health  http.HandlerFunc
	Log     *slog.Logger
}

// NewRouter builds the versioned API router. Panics if Service or Authn is
// missing.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Service == nil {
		panic("billingapi: service is required")
	}
	if cfg.Authn == nil {
		panic("billingapi: authn is required")
	}
	log := cfg.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	h := &handlers{svc: cfg.Service, feed: cfg.Feed, log: log}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(middleware.Recoverer)

	if cfg.Health != nil {
		r.Get("/health", cfg.Health)
	}

	// Webhooks authenticate via provider signature, not bearer tokens.
	r.Post("/v1/webhooks/paddle", h.paddleWebhook)

	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(cfg.Authn, log))
		r.Post("/v1/entitlement/verify", h.verify)
		r.Get("/v1/entitlement/rows", h.rows)
		r.Post("/v1/billing/checkout", h.checkout)
		r.Post("/v1/billing/portal", h.portal)
		if cfg.Feed != nil {
			r.Get("/v1/audit/feed", h.auditFeed)
		}
	})
	return r
}

type handlers struct {
	svc  *Service
	feed auditlog.Feed
	log  *slog.Logger
}

// bearerAuth resolves the Authorization header into a principal and stores
// it on the request context. Requests without a valid token never reach
// the handlers.
func bearerAuth(authn AuthFunc, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			p, err := authn(r.Context(), token)
			if err != nil || p.IsZero() {
				log.DebugContext(r.Context(), "rejected bearer token", "error", err)
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}
			next.ServeHTTP(w, r.WithContext(principal.WithContext(r.Context(), p)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// snapshotRow is the wire shape of an entitlement snapshot. Tier and end
// are present only for subscribed rows.
type snapshotRow struct {
	Subscribed       bool    `json:"subscribed"`
	SubscriptionTier *string `json:"subscription_tier,omitempty"`
	SubscriptionEnd  *string `json:"subscription_end,omitempty"`
}

func (h *handlers) verify(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}
	snap, err := h.svc.VerifySubscription(r.Context(), p.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to verify subscription", "error", err, "user_id", p.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	row := snapshotRow{Subscribed: snap.Subscribed}
	if snap.Subscribed {
		tier := string(snap.Tier)
		end := snap.ExpiresAt.UTC().Format(time.RFC3339)
		row.SubscriptionTier = &tier
		row.SubscriptionEnd = &end
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *handlers) rows(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}
	sub, err := h.svc.SubscriptionRow(r.Context(), p.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to read subscription row", "error", err, "user_id", p.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	rows := []snapshotRow{}
	if sub != nil {
		tier := string(sub.Tier)
		end := sub.CurrentPeriodEnd.UTC().Format(time.RFC3339)
		rows = append(rows, snapshotRow{
			Subscribed:       sub.Entitled(h.svc.now()),
			SubscriptionTier: &tier,
			SubscriptionEnd:  &end,
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handlers) checkout(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}
	var req struct {
		PriceAmount int64  `json:"priceAmount"`
		Email       string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	url, err := h.svc.CreateCheckout(r.Context(), p, req.Email, req.PriceAmount)
	if errors.Is(err, billing.ErrUnknownPrice) {
		writeError(w, http.StatusUnprocessableEntity, "unknown price amount")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to create checkout", "error", err, "user_id", p.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *handlers) portal(w http.ResponseWriter, r *http.Request) {
	p, ok := principal.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing principal")
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	url, err := h.svc.OpenPortal(r.Context(), p, req.Email)
	if errors.Is(err, billing.ErrNoBillingRelationship) {
		writeError(w, http.StatusForbidden, "no billing relationship")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to open portal", "error", err, "user_id", p.ID)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *handlers) paddleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	signature := r.Header.Get("Paddle-Signature")
	if err := h.svc.HandleWebhook(r.Context(), payload, signature); err != nil {
		if errors.Is(err, billing.ErrWebhookVerificationFailed) {
			writeError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		h.log.ErrorContext(r.Context(), "failed to handle webhook", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
