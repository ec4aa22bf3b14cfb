package billingapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verdantlab/sprout/pkg/auditlog"
	"github.com/verdantlab/sprout/pkg/billing"
	"github.com/verdantlab/sprout/pkg/entitlement"
	"github.com/verdantlab/sprout/pkg/principal"
)

// AuditStore persists audit entries per owning user and serves the
// most-recent reads backing new feed subscribers.
type AuditStore interface {
	Insert(ctx context.Context, ownerID uuid.UUID, entry auditlog.Entry) error
	ListRecent(ctx context.Context, ownerID uuid.UUID, limit int) ([]auditlog.Entry, error)
}

// Service implements the billing operations exposed over HTTP: snapshot
// verification, subscription row reads, checkout and portal session
// creation, and webhook ingestion.
type Service struct {
	store    billing.Store
	audit    AuditStore
	provider billing.Provider
	catalog  *billing.Catalog
	feed     auditlog.Publisher
	log      *slog.Logger
	now      func() time.Time

	successURL string
	cancelURL  string
}

// ServiceOption configures optional Service collaborators.
type ServiceOption func(*Service)

// WithFeedPublisher publishes every recorded audit entry to the given
// publisher so connected feed clients observe it. Without a publisher
// entries are persisted only.
func WithFeedPublisher(p auditlog.Publisher) ServiceOption {
	return func(s *Service) { s.feed = p }
}

// WithServiceLogger sets the logger. Defaults to a discard logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithServiceClock overrides the time source. Intended for tests.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCheckoutURLs sets the redirect targets embedded in checkout links.
func WithCheckoutURLs(success, cancel string) ServiceOption {
	return func(s *Service) {
		s.successURL = success
		s.cancelURL = cancel
	}
}

// NewService creates the billing service. Panics if store, audit, provider
// or catalog is nil since the service cannot operate without them.
func NewService(store billing.Store, audit AuditStore, provider billing.Provider, catalog *billing.Catalog, opts ...ServiceOption) *Service {
	if store == nil {
		panic("billingapi: store is required")
	}
	if audit == nil {
		panic("billingapi: audit store is required")
	}
	if provider == nil {
		panic("billingapi: provider is required")
	}
	if catalog == nil {
		panic("billingapi: catalog is required")
	}
	s := &Service{
		store:    store,
		audit:    audit,
		provider: provider,
		catalog:  catalog,
		log:      slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// VerifySubscription returns the authoritative entitlement snapshot for the
// user. A user without a subscription record is a valid unsubscribed
// answer, not an error.
func (s *Service) VerifySubscription(ctx context.Context, userID uuid.UUID) (entitlement.Snapshot, error) {
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return entitlement.Unsubscribed(), nil
	}
	if err != nil {
		return entitlement.Snapshot{}, err
	}
	return sub.Snapshot(s.now()), nil
}

// SubscriptionRow returns the caller's subscription record, or nil when the
// user has never subscribed.
func (s *Service) SubscriptionRow(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// CreateCheckout resolves the price by amount, asks the provider for a
// hosted checkout link and records a checkout_started audit entry.
func (s *Service) CreateCheckout(ctx context.Context, p principal.Principal, email string, priceAmount int64) (string, error) {
	price, err := s.catalog.ByAmount(priceAmount)
	if err != nil {
		return "", err
	}
	link, err := s.provider.CreateCheckoutLink(ctx, billing.CheckoutRequest{
		PriceID:    price.PriceID,
		UserID:     p.ID.String(),
		Email:      email,
		SuccessURL: s.successURL,
		CancelURL:  s.cancelURL,
	})
	if err != nil {
		return "", err
	}
	s.recordAudit(ctx, p.ID, auditlog.ActionCheckoutStarted, email, map[string]any{
		"price_id": price.PriceID,
		"amount":   price.Amount,
		"tier":     string(price.Tier),
	})
	return link.URL, nil
}

// OpenPortal asks the provider for a customer portal link. A user without a
// provider-side billing relationship cannot open the portal.
func (s *Service) OpenPortal(ctx context.Context, p principal.Principal, email string) (string, error) {
	sub, err := s.store.Get(ctx, p.ID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return "", billing.ErrNoBillingRelationship
	}
	if err != nil {
		return "", err
	}
	link, err := s.provider.GetCustomerPortalLink(ctx, sub)
	if err != nil {
		return "", err
	}
	s.recordAudit(ctx, p.ID, auditlog.ActionPortalOpened, email, nil)
	return link.URL, nil
}

// HandleWebhook verifies and ingests a provider webhook, updating the
// subscription record and recording the matching audit entry. Events the
// service does not track are acknowledged without effect.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		return err
	}
	if event.Type == "" {
		s.log.DebugContext(ctx, "ignoring unmapped webhook event", "provider_event", event.ProviderEvent)
		return nil
	}
	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		return errors.Join(billing.ErrMissingUserID, err)
	}

	switch event.Type {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		if err := s.upsertSubscription(ctx, userID, event); err != nil {
			return err
		}
	case billing.EventSubscriptionCancelled:
		if err := s.cancelSubscription(ctx, userID, event); err != nil {
			return err
		}
	case billing.EventPaymentFailed:
		if err := s.markPastDue(ctx, userID, event); err != nil {
			return err
		}
	}

	action := actionForEvent(event.Type)
	details := map[string]any{
		"provider_event":  event.ProviderEvent,
		"subscription_id": event.SubscriptionID,
		"status":          event.Status,
	}
	entry := auditlog.Entry{
		ID:            uuid.New(),
		ActionType:    action,
		MaskedEmail:   auditlog.MaskEmail(webhookEmail(event)),
		ChangeDetails: mustDetails(details),
		CreatedAt:     s.now(),
	}
	if err := s.audit.Insert(ctx, userID, entry); err != nil {
		return err
	}
	if s.feed != nil {
		if err := s.feed.Publish(ctx, userID, entry); err != nil {
			s.log.ErrorContext(ctx, "failed to publish audit entry", "error", err, "owner_id", userID)
		}
	}
	return nil
}

func (s *Service) upsertSubscription(ctx context.Context, userID uuid.UUID, event *billing.WebhookEvent) error {
	now := s.now()
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		sub = &billing.Subscription{UserID: userID, CreatedAt: now}
	} else if err != nil {
		return err
	}
	if event.PriceID != "" {
		tier, terr := s.catalog.TierFor(event.PriceID)
		if terr != nil {
			return terr
		}
		sub.Tier = tier
	}
	if event.Status != "" {
		sub.Status = billing.Status(event.Status)
	}
	if event.SubscriptionID != "" {
		sub.ProviderSubID = event.SubscriptionID
	}
	if event.CustomerID != "" {
		sub.ProviderCustomerID = event.CustomerID
	}
	if event.PeriodEnd != nil {
		sub.CurrentPeriodEnd = *event.PeriodEnd
	}
	sub.CancelledAt = nil
	sub.UpdatedAt = now
	return s.store.Save(ctx, sub)
}

func (s *Service) cancelSubscription(ctx context.Context, userID uuid.UUID, event *billing.WebhookEvent) error {
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		// Cancellation for a record we never saw; nothing to update.
		return nil
	}
	if err != nil {
		return err
	}
	now := s.now()
	sub.Status = billing.StatusCancelled
	sub.CancelledAt = &now
	if event.PeriodEnd != nil {
		sub.CurrentPeriodEnd = *event.PeriodEnd
	}
	sub.UpdatedAt = now
	return s.store.Save(ctx, sub)
}

func (s *Service) markPastDue(ctx context.Context, userID uuid.UUID, _ *billing.WebhookEvent) error {
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	sub.Status = billing.StatusPastDue
	sub.UpdatedAt = s.now()
	return s.store.Save(ctx, sub)
}

// recordAudit persists and publishes an audit entry. Failures are logged
// rather than surfaced because the primary operation already succeeded.
func (s *Service) recordAudit(ctx context.Context, ownerID uuid.UUID, action, email string, details map[string]any) {
	entry := auditlog.Entry{
		ID:            uuid.New(),
		ActionType:    action,
		MaskedEmail:   auditlog.MaskEmail(email),
		ChangeDetails: mustDetails(details),
		CreatedAt:     s.now(),
	}
	if err := s.audit.Insert(ctx, ownerID, entry); err != nil {
		s.log.ErrorContext(ctx, "failed to record audit entry", "error", err, "owner_id", ownerID, "action", action)
		return
	}
	if s.feed != nil {
		if err := s.feed.Publish(ctx, ownerID, entry); err != nil {
			s.log.ErrorContext(ctx, "failed to publish audit entry", "error", err, "owner_id", ownerID, "action", action)
		}
	}
}

func actionForEvent(t billing.EventType) string {
	switch t {
	case billing.EventSubscriptionCreated:
		return auditlog.ActionSubscriptionCreated
	case billing.EventSubscriptionUpdated:
		return auditlog.ActionSubscriptionUpdated
	case billing.EventSubscriptionCancelled:
		return auditlog.ActionSubscriptionCancelled
	case billing.EventPaymentFailed:
		return auditlog.ActionPaymentFailed
	default:
		return string(t)
	}
}

func webhookEmail(event *billing.WebhookEvent) string {
	customData, ok := event.Raw["custom_data"].(map[string]any)
	if !ok {
		return ""
	}
	email, _ := customData["email"].(string)
	return email
}

func mustDetails(details map[string]any) json.RawMessage {
	if len(details) == 0 {
		return nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil
	}
	return raw
}
