package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pipelinealfa/crm/pkg/models"
)

// PostgresLeadStore persists leads as single-row upserts scoped by user id.
// Interactions live in a JSONB column on the lead row, mirroring how the
// remote collection stores them.
type PostgresLeadStore struct {
	db *sql.DB
}

const leadColumns = `id, user_id, name, phone, email, neighborhood, property_type,
	potential_value, bedrooms, observations, origin, priority, status, interactions, created_at`

// ListByUser returns every lead owned by the user, newest first.
func (s *PostgresLeadStore) ListByUser(ctx context.Context, userID string) ([]models.Lead, error) {
	query := fmt.Sprintf(`SELECT %s FROM leads WHERE user_id = $1 ORDER BY created_at DESC`, leadColumns)

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *lead)
	}
	return leads, rows.Err()
}

// Create inserts a new lead row.
func (s *PostgresLeadStore) Create(ctx context.Context, lead *models.Lead) error {
	interactions, err := marshalInteractions(lead.Interactions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO leads (id, user_id, name, phone, email, neighborhood, property_type,
			potential_value, bedrooms, observations, origin, priority, status, interactions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`

	return s.db.QueryRowContext(ctx, query,
		lead.ID, lead.UserID, lead.Name, lead.Phone, lead.Email,
		lead.Neighborhood, lead.PropertyType, lead.PotentialValue, lead.Bedrooms,
		lead.Observations, lead.Origin, lead.Priority, lead.Status, interactions,
	).Scan(&lead.CreatedAt)
}

// Update rewrites the editable fields of a lead row.
func (s *PostgresLeadStore) Update(ctx context.Context, lead *models.Lead) error {
	query := `
		UPDATE leads SET name = $3, phone = $4, email = $5, neighborhood = $6,
			property_type = $7, potential_value = $8, bedrooms = $9,
			observations = $10, origin = $11, priority = $12, status = $13
		WHERE id = $1 AND user_id = $2
	`

	result, err := s.db.ExecContext(ctx, query,
		lead.ID, lead.UserID, lead.Name, lead.Phone, lead.Email,
		lead.Neighborhood, lead.PropertyType, lead.PotentialValue, lead.Bedrooms,
		lead.Observations, lead.Origin, lead.Priority, lead.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	return requireRow(result)
}

// UpdateStatus writes only the pipeline stage, scoped by lead id. Two
// concurrent moves of the same lead resolve last-writer-wins.
func (s *PostgresLeadStore) UpdateStatus(ctx context.Context, userID, leadID, status string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = $3 WHERE id = $1 AND user_id = $2`,
		leadID, userID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update lead status: %w", err)
	}
	return requireRow(result)
}

// UpdateInteractions replaces the interaction list. Callers only ever append.
func (s *PostgresLeadStore) UpdateInteractions(ctx context.Context, userID, leadID string, interactions []models.Interaction) error {
	payload, err := marshalInteractions(interactions)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE leads SET interactions = $3 WHERE id = $1 AND user_id = $2`,
		leadID, userID, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to update interactions: %w", err)
	}
	return requireRow(result)
}

// Delete removes the lead and its tasks. The two deletes are separate
// statements, not a transaction; a failure between them can leave tasks
// behind, matching the single-row-write model of the remote store.
func (s *PostgresLeadStore) Delete(ctx context.Context, userID, leadID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM leads WHERE id = $1 AND user_id = $2`, leadID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE lead_id = $1 AND user_id = $2`, leadID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete lead tasks: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var lead models.Lead
	var interactions []byte

	err := row.Scan(
		&lead.ID, &lead.UserID, &lead.Name, &lead.Phone, &lead.Email,
		&lead.Neighborhood, &lead.PropertyType, &lead.PotentialValue, &lead.Bedrooms,
		&lead.Observations, &lead.Origin, &lead.Priority, &lead.Status,
		&interactions, &lead.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan lead: %w", err)
	}

	if len(interactions) > 0 {
		if err := json.Unmarshal(interactions, &lead.Interactions); err != nil {
			return nil, fmt.Errorf("failed to decode interactions: %w", err)
		}
	}
	if lead.Interactions == nil {
		lead.Interactions = []models.Interaction{}
	}
	return &lead, nil
}

func marshalInteractions(interactions []models.Interaction) ([]byte, error) {
	if interactions == nil {
		interactions = []models.Interaction{}
	}
	payload, err := json.Marshal(interactions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode interactions: %w", err)
	}
	return payload, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
