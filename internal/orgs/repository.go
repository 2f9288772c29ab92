// Package orgs provides the organization lookups the call lifecycle needs:
// webhook token verification for provider callbacks.
package orgs

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an organization does not exist.
var ErrNotFound = errors.New("organization not found")

// Repository provides organization data access.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new orgs repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetWebhookToken returns the organization's callback token, used when
// composing the callback URL handed to the provider at dispatch time.
func (r *Repository) GetWebhookToken(ctx context.Context, orgID uuid.UUID) (string, error) {
	var token string
	err := r.pool.QueryRow(ctx, `
		SELECT webhook_token FROM DH_orgs WHERE id = $1
	`, orgID).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return token, err
}

// VerifyWebhookToken checks the callback token the provider echoes back.
// Returns ErrNotFound for unknown organizations and false for a token
// mismatch.
func (r *Repository) VerifyWebhookToken(ctx context.Context, orgID uuid.UUID, token string) (bool, error) {
	var stored string
	err := r.pool.QueryRow(ctx, `
		SELECT webhook_token FROM DH_orgs WHERE id = $1
	`, orgID).Scan(&stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1, nil
}
