package billingapi

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/verdantlab/sprout/pkg/auditlog"
	"github.com/verdantlab/sprout/pkg/billing"
	"github.com/verdantlab/sprout/pkg/pg"
)

// DB is the subset of pgxpool.Pool the stores need. Declared locally so
// the stores also work inside a transaction.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgSubscriptionStore implements billing.Store on Postgres. One row per
// user, keyed by user_id.
type PgSubscriptionStore struct {
	db DB
}

// NewPgSubscriptionStore creates the store. Panics on nil db.
func NewPgSubscriptionStore(db DB) *PgSubscriptionStore {
	if db == nil {
		panic("billingapi: db is required")
	}
	return &PgSubscriptionStore{db: db}
}

func (s *PgSubscriptionStore) Get(ctx context.Context, userID uuid.UUID) (*billing.Subscription, error) {
	const query = `
		SELECT user_id, tier, status, provider_sub_id, provider_customer_id,
		       current_period_end, created_at, updated_at, cancelled_at
		FROM subscriptions
		WHERE user_id = $1`

	var sub billing.Subscription
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&sub.UserID,
		&sub.Tier,
		&sub.Status,
		&sub.ProviderSubID,
		&sub.ProviderCustomerID,
		&sub.CurrentPeriodEnd,
		&sub.CreatedAt,
		&sub.UpdatedAt,
		&sub.CancelledAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, billing.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return &sub, nil
}

func (s *PgSubscriptionStore) Save(ctx context.Context, sub *billing.Subscription) error {
	const query = `
		INSERT INTO subscriptions (user_id, tier, status, provider_sub_id, provider_customer_id,
		                           current_period_end, created_at, updated_at, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			tier = EXCLUDED.tier,
			status = EXCLUDED.status,
			provider_sub_id = EXCLUDED.provider_sub_id,
			provider_customer_id = EXCLUDED.provider_customer_id,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at,
			cancelled_at = EXCLUDED.cancelled_at`

	_, err := s.db.Exec(ctx, query,
		sub.UserID,
		sub.Tier,
		sub.Status,
		sub.ProviderSubID,
		sub.ProviderCustomerID,
		sub.CurrentPeriodEnd,
		sub.CreatedAt,
		sub.UpdatedAt,
		sub.CancelledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// PgAuditStore implements AuditStore on Postgres.
type PgAuditStore struct {
	db DB
}

// NewPgAuditStore creates the store. Panics on nil db.
func NewPgAuditStore(db DB) *PgAuditStore {
	if db == nil {
		panic("billingapi: db is required")
	}
	return &PgAuditStore{db: db}
}

func (s *PgAuditStore) Insert(ctx context.Context, ownerID uuid.UUID, entry auditlog.Entry) error {
	const query = `
		INSERT INTO audit_log (id, owner_id, action_type, masked_email, change_details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.Exec(ctx, query,
		entry.ID,
		ownerID,
		entry.ActionType,
		entry.MaskedEmail,
		entry.ChangeDetails,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (s *PgAuditStore) ListRecent(ctx context.Context, ownerID uuid.UUID, limit int) ([]auditlog.Entry, error) {
	if limit <= 0 {
		limit = auditlog.DefaultRingSize
	}
	const query = `
		SELECT id, action_type, masked_email, change_details, created_at
		FROM audit_log
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.Query(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []auditlog.Entry
	for rows.Next() {
		var entry auditlog.Entry
		if err := rows.Scan(&entry.ID, &entry.ActionType, &entry.MaskedEmail, &entry.ChangeDetails, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit entries: %w", err)
	}
	return entries, nil
}
