package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pipelinealfa/crm/pkg/models"
)

// PostgresSubscriptionStore holds the payment-platform subscription rows the
// webhook maintains and the oracle falls back to.
type PostgresSubscriptionStore struct {
	db *sql.DB
}

const subscriptionColumns = `id, email, status, subscription_status, hotmart_transaction_id,
	hotmart_subscriber_code, hotmart_plan_id, hotmart_plan_name, created_at, updated_at`

// FindActiveByEmail returns the active subscription row for the e-mail, or
// ErrNotFound when none exists.
func (s *PostgresSubscriptionStore) FindActiveByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM subscriptions WHERE email = $1 AND status = $2`,
		subscriptionColumns,
	)

	var sub models.Subscription
	err := s.db.QueryRowContext(ctx, query, email, models.SubscriptionActive).Scan(
		&sub.ID, &sub.Email, &sub.Status, &sub.SubscriptionStatus,
		&sub.HotmartTransactionID, &sub.HotmartSubscriberCode,
		&sub.HotmartPlanID, &sub.HotmartPlanName,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}
	return &sub, nil
}

// Upsert writes the subscription row for an e-mail, refreshing updated_at.
// Used by the webhook processor; conflict key is the e-mail.
func (s *PostgresSubscriptionStore) Upsert(ctx context.Context, sub *models.Subscription) (*models.Subscription, error) {
	query := fmt.Sprintf(`
		INSERT INTO subscriptions (email, status, subscription_status,
			hotmart_transaction_id, hotmart_subscriber_code, hotmart_plan_id, hotmart_plan_name, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (email)
		DO UPDATE SET
			status = EXCLUDED.status,
			subscription_status = EXCLUDED.subscription_status,
			hotmart_transaction_id = COALESCE(NULLIF(EXCLUDED.hotmart_transaction_id, ''), subscriptions.hotmart_transaction_id),
			hotmart_subscriber_code = COALESCE(NULLIF(EXCLUDED.hotmart_subscriber_code, ''), subscriptions.hotmart_subscriber_code),
			hotmart_plan_id = COALESCE(NULLIF(EXCLUDED.hotmart_plan_id, ''), subscriptions.hotmart_plan_id),
			hotmart_plan_name = COALESCE(NULLIF(EXCLUDED.hotmart_plan_name, ''), subscriptions.hotmart_plan_name),
			updated_at = NOW()
		RETURNING %s
	`, subscriptionColumns)

	var saved models.Subscription
	err := s.db.QueryRowContext(ctx, query,
		sub.Email, sub.Status, sub.SubscriptionStatus,
		sub.HotmartTransactionID, sub.HotmartSubscriberCode,
		sub.HotmartPlanID, sub.HotmartPlanName,
	).Scan(
		&saved.ID, &saved.Email, &saved.Status, &saved.SubscriptionStatus,
		&saved.HotmartTransactionID, &saved.HotmartSubscriberCode,
		&saved.HotmartPlanID, &saved.HotmartPlanName,
		&saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return &saved, nil
}

// MarkExpiredOlderThan flips active rows whose last update predates the
// cutoff to expired. Run by the nightly housekeeping job so the 30-day
// staleness rule eventually becomes durable instead of only computed.
func (s *PostgresSubscriptionStore) MarkExpiredOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1 WHERE status = $2 AND updated_at < $3`,
		models.SubscriptionExpired, models.SubscriptionActive, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale subscriptions: %w", err)
	}
	return result.RowsAffected()
}
