// Package repository provides data access for call records.
// The call table is the single source of truth for lifecycle state; every
// mutation past dispatch goes through a conditional update that refuses to
// touch rows already in a terminal status.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dialhub_backend/internal/calls/domain"
)

// ErrNotFound is returned when a call record does not exist.
var ErrNotFound = errors.New("call not found")

// Repository provides call record data access.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new calls repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RequestSnapshot is the immutable dispatch-time snapshot stored on the record.
type RequestSnapshot struct {
	PhoneNumber  string            `json:"phoneNumber"`
	ContactName  string            `json:"contactName"`
	CallConfigID uuid.UUID         `json:"callConfigId"`
	Context      map[string]string `json:"context,omitempty"`
}

// Call is one outbound call attempt.
type Call struct {
	ID              uuid.UUID
	OrganizationID  uuid.UUID
	LeadID          *uuid.UUID
	ExternalCallID  string
	Status          domain.Status
	Request         RequestSnapshot
	InitiatedAt     time.Time
	CompletedAt     *time.Time
	DurationSeconds int
	InterestLevel   int
	CompletionRate  int
	Summary         string
	Qualification   *domain.Qualification
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const callColumns = `
	id, organization_id, lead_id, external_call_id, status, request,
	initiated_at, completed_at, duration_seconds, interest_level,
	completion_rate, summary, qualification, created_at, updated_at
`

// CreateInitiatingParams are the inputs for a new call record.
type CreateInitiatingParams struct {
	OrganizationID uuid.UUID
	LeadID         *uuid.UUID
	Request        RequestSnapshot
}

// CreateInitiating persists a new call record in the initiating state.
// The record must exist before the provider is contacted so a crash or
// timeout mid-dispatch still leaves an auditable row.
func (r *Repository) CreateInitiating(ctx context.Context, params CreateInitiatingParams) (Call, error) {
	request, err := json.Marshal(params.Request)
	if err != nil {
		return Call{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO DH_calls (organization_id, lead_id, status, request)
		VALUES ($1, $2, 'initiating', $3)
		RETURNING `+callColumns,
		params.OrganizationID, params.LeadID, request)

	return scanCall(row)
}

// SetInProgress records the provider-assigned external call ID and moves the
// call to in-progress. Only an initiating call can make this transition.
func (r *Repository) SetInProgress(ctx context.Context, id, orgID uuid.UUID, externalCallID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE DH_calls
		SET external_call_id = $3, status = 'in-progress', updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status = 'initiating'
	`, id, orgID, externalCallID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkDispatchFailed moves an initiating call to failed after a dispatch error.
func (r *Repository) MarkDispatchFailed(ctx context.Context, id, orgID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE DH_calls
		SET status = 'failed', completed_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status = 'initiating'
	`, id, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID fetches a call by its internal ID.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (Call, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+callColumns+`
		FROM DH_calls
		WHERE id = $1 AND organization_id = $2
	`, id, orgID)

	call, err := scanCall(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	return call, err
}

// GetByExternalID fetches a call by (organization, external call identifier).
func (r *Repository) GetByExternalID(ctx context.Context, orgID uuid.UUID, externalCallID string) (Call, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+callColumns+`
		FROM DH_calls
		WHERE organization_id = $1 AND external_call_id = $2
	`, orgID, externalCallID)

	call, err := scanCall(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Call{}, ErrNotFound
	}
	return call, err
}

// ApplyCompletionParams carries the terminal outcome for a call.
type ApplyCompletionParams struct {
	OrganizationID  uuid.UUID
	ExternalCallID  string
	Status          domain.Status
	DurationSeconds int
	InterestLevel   int
	CompletionRate  int
	Summary         string
	Qualification   *domain.Qualification
	RawCompletion   []byte
	CompletedAt     time.Time
}

// ApplyCompletion transitions a call to its terminal state. The update is
// conditional on the row not already being terminal, so replayed or
// duplicate completion events are absorbed without effect. Returns whether
// the update was applied.
func (r *Repository) ApplyCompletion(ctx context.Context, params ApplyCompletionParams) (bool, error) {
	var qualification []byte
	if params.Qualification != nil {
		data, err := json.Marshal(params.Qualification)
		if err != nil {
			return false, err
		}
		qualification = data
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE DH_calls
		SET status = $3,
		    duration_seconds = $4,
		    interest_level = $5,
		    completion_rate = $6,
		    summary = $7,
		    qualification = $8,
		    raw_completion = $9,
		    completed_at = $10,
		    updated_at = now()
		WHERE organization_id = $1
		  AND external_call_id = $2
		  AND status NOT IN ('completed', 'failed', 'no-answer')
	`, params.OrganizationID, params.ExternalCallID, params.Status,
		params.DurationSeconds, params.InterestLevel, params.CompletionRate,
		params.Summary, qualification, params.RawCompletion, params.CompletedAt)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// ForceTerminal moves a call to the given terminal status unless it already
// is terminal. Used when an operator manually hangs up. Returns whether the
// transition was applied.
func (r *Repository) ForceTerminal(ctx context.Context, id, orgID uuid.UUID, status domain.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE DH_calls
		SET status = $3, completed_at = now(), updated_at = now()
		WHERE id = $1 AND organization_id = $2
		  AND status NOT IN ('completed', 'failed', 'no-answer')
	`, id, orgID, status)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListOpenExternalIDs returns the external identifiers of all calls in the
// organization that still await a completion event.
func (r *Repository) ListOpenExternalIDs(ctx context.Context, orgID uuid.UUID) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT external_call_id
		FROM DH_calls
		WHERE organization_id = $1
		  AND status IN ('initiating', 'in-progress')
		  AND external_call_id <> ''
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByOrganization returns the most recent calls for an organization.
func (r *Repository) ListByOrganization(ctx context.Context, orgID uuid.UUID, limit int) ([]Call, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+callColumns+`
		FROM DH_calls
		WHERE organization_id = $1
		ORDER BY initiated_at DESC
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	calls := make([]Call, 0)
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

func scanCall(row pgx.Row) (Call, error) {
	var (
		call          Call
		request       []byte
		qualification []byte
	)

	err := row.Scan(
		&call.ID,
		&call.OrganizationID,
		&call.LeadID,
		&call.ExternalCallID,
		&call.Status,
		&request,
		&call.InitiatedAt,
		&call.CompletedAt,
		&call.DurationSeconds,
		&call.InterestLevel,
		&call.CompletionRate,
		&call.Summary,
		&qualification,
		&call.CreatedAt,
		&call.UpdatedAt,
	)
	if err != nil {
		return Call{}, err
	}

	if len(request) > 0 {
		if err := json.Unmarshal(request, &call.Request); err != nil {
			return Call{}, err
		}
	}
	if len(qualification) > 0 {
		var q domain.Qualification
		if err := json.Unmarshal(qualification, &q); err != nil {
			return Call{}, err
		}
		call.Qualification = &q
	}

	return call, nil
}
