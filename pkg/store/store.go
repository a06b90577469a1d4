// Package store implements the persistence boundary over Postgres: two
// user-scoped collections (leads, tasks) plus the subscriptions table fed by
// payment-platform webhooks.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pipelinealfa/crm/pkg/models"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("store: not found")

// LeadStore is the remote persistence API for leads.
type LeadStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Lead, error)
	Create(ctx context.Context, lead *models.Lead) error
	Update(ctx context.Context, lead *models.Lead) error
	UpdateStatus(ctx context.Context, userID, leadID, status string) error
	UpdateInteractions(ctx context.Context, userID, leadID string, interactions []models.Interaction) error
	Delete(ctx context.Context, userID, leadID string) error
}

// TaskStore is the remote persistence API for tasks.
type TaskStore interface {
	ListByUser(ctx context.Context, userID string) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	SetCompleted(ctx context.Context, userID, taskID string, completed bool) error
	Delete(ctx context.Context, userID, taskID string) error
}

// SubscriptionStore is the direct-table side of the subscription oracle.
type SubscriptionStore interface {
	FindActiveByEmail(ctx context.Context, email string) (*models.Subscription, error)
	Upsert(ctx context.Context, sub *models.Subscription) (*models.Subscription, error)
	MarkExpiredOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Stores bundles the Postgres-backed implementations.
type Stores struct {
	Leads         *PostgresLeadStore
	Tasks         *PostgresTaskStore
	Subscriptions *PostgresSubscriptionStore
}

// New creates the store bundle on top of an open database handle.
func New(db *sql.DB) *Stores {
	return &Stores{
		Leads:         &PostgresLeadStore{db: db},
		Tasks:         &PostgresTaskStore{db: db},
		Subscriptions: &PostgresSubscriptionStore{db: db},
	}
}

// EnsureSchema creates the tables when they do not exist yet. Production
// deployments run real migrations; this keeps local development and tests
// self-contained.
func (s *Stores) EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS leads (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			neighborhood TEXT NOT NULL DEFAULT '',
			property_type TEXT NOT NULL DEFAULT '',
			potential_value NUMERIC NOT NULL DEFAULT 0,
			bedrooms INTEGER NOT NULL DEFAULT 0,
			observations TEXT NOT NULL DEFAULT '',
			origin TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			interactions JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			lead_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			due_date TIMESTAMPTZ NOT NULL,
			priority TEXT NOT NULL DEFAULT '',
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id SERIAL PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			subscription_status TEXT NOT NULL DEFAULT '',
			hotmart_transaction_id TEXT NOT NULL DEFAULT '',
			hotmart_subscriber_code TEXT NOT NULL DEFAULT '',
			hotmart_plan_id TEXT NOT NULL DEFAULT '',
			hotmart_plan_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_user_id ON leads (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_lead_id ON tasks (lead_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
