package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Counters is the per-organization usage for one billing period.
type Counters struct {
	OrganizationID uuid.UUID
	Period         string
	TotalCalls     int
	TotalMinutes   int
	LastCallAt     *time.Time
}

// Repository provides usage counter data access.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new usage repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordCall merges one completed call into the organization's counters for
// the given period. The increment happens at the storage layer, not as a
// read-modify-write in application code, so concurrent completions for the
// same organization cannot lose counts.
func (r *Repository) RecordCall(ctx context.Context, orgID uuid.UUID, period string, minutes int, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO DH_org_usage (organization_id, period, total_calls, total_minutes, last_call_at)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (organization_id, period) DO UPDATE
		SET total_calls = DH_org_usage.total_calls + 1,
		    total_minutes = DH_org_usage.total_minutes + EXCLUDED.total_minutes,
		    last_call_at = GREATEST(DH_org_usage.last_call_at, EXCLUDED.last_call_at)
	`, orgID, period, minutes, at)
	return err
}

// Get returns the counters for an organization and period. A period with no
// calls yet reads as zero counters.
func (r *Repository) Get(ctx context.Context, orgID uuid.UUID, period string) (Counters, error) {
	counters := Counters{OrganizationID: orgID, Period: period}
	err := r.pool.QueryRow(ctx, `
		SELECT total_calls, total_minutes, last_call_at
		FROM DH_org_usage
		WHERE organization_id = $1 AND period = $2
	`, orgID, period).Scan(&counters.TotalCalls, &counters.TotalMinutes, &counters.LastCallAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return counters, nil
	}
	return counters, err
}
