// Package leads provides the minimal lead surface the call lifecycle touches:
// lookup, the per-lead call counter, and the append-only memory field used as
// conversational context for future calls.
package leads

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

// Lead is a call target.
type Lead struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	Name           string
	Phone          string
	Memory         string
	CallCount      int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Repository provides lead data access.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a lead.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, organization_id, name, phone, memory, call_count, created_at, updated_at
		FROM DH_leads
		WHERE id = $1 AND organization_id = $2
	`, id, orgID).Scan(
		&lead.ID,
		&lead.OrganizationID,
		&lead.Name,
		&lead.Phone,
		&lead.Memory,
		&lead.CallCount,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Create inserts a lead. Used by seeding and the import surface outside this core.
func (r *Repository) Create(ctx context.Context, orgID uuid.UUID, name, phone string) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO DH_leads (organization_id, name, phone)
		VALUES ($1, $2, $3)
		RETURNING id, organization_id, name, phone, memory, call_count, created_at, updated_at
	`, orgID, name, phone).Scan(
		&lead.ID,
		&lead.OrganizationID,
		&lead.Name,
		&lead.Phone,
		&lead.Memory,
		&lead.CallCount,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	return lead, err
}

// IncrementCallCount bumps the lead's call counter after a dispatch.
func (r *Repository) IncrementCallCount(ctx context.Context, id, orgID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE DH_leads
		SET call_count = call_count + 1, updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, id, orgID)
	return err
}

// AppendMemory appends a note block to the lead's memory field, separated
// from prior content by a blank line. The append happens inside a single
// UPDATE so concurrent completions for the same lead serialize on the row
// instead of losing writes.
func (r *Repository) AppendMemory(ctx context.Context, id, orgID uuid.UUID, note string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE DH_leads
		SET memory = CASE WHEN memory = '' THEN $3 ELSE memory || E'\n\n' || $3 END,
		    updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, id, orgID, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
