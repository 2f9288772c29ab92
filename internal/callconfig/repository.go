// Package callconfig manages calling configurations: the script, question
// list, objection responses, and optional feature payloads a dispatch
// resolves before contacting the provider.
package callconfig

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a calling configuration does not exist.
var ErrNotFound = errors.New("call config not found")

// CallConfig is one calling configuration.
type CallConfig struct {
	ID                 uuid.UUID
	OrganizationID     uuid.UUID
	Name               string
	ScriptPrompt       string
	Questions          []string
	ObjectionResponses map[string]string
	Persona            map[string]string
	PersonaEnabled     bool
	Product            map[string]string
	ProductEnabled     bool
	SocialProof        map[string]string
	SocialProofEnabled bool
	ContextDefaults    map[string]string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Repository provides calling configuration data access.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new call config repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const configColumns = `
	id, organization_id, name, script_prompt, questions, objection_responses,
	persona, persona_enabled, product, product_enabled,
	social_proof, social_proof_enabled, context_defaults, created_at, updated_at
`

// GetByID fetches a calling configuration.
func (r *Repository) GetByID(ctx context.Context, id, orgID uuid.UUID) (CallConfig, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+configColumns+`
		FROM DH_call_configs
		WHERE id = $1 AND organization_id = $2
	`, id, orgID)

	cfg, err := scanConfig(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return CallConfig{}, ErrNotFound
	}
	return cfg, err
}

// List returns all calling configurations for an organization.
func (r *Repository) List(ctx context.Context, orgID uuid.UUID) ([]CallConfig, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+configColumns+`
		FROM DH_call_configs
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	configs := make([]CallConfig, 0)
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// CreateParams are the inputs for a new calling configuration.
type CreateParams struct {
	OrganizationID     uuid.UUID
	Name               string
	ScriptPrompt       string
	Questions          []string
	ObjectionResponses map[string]string
	Persona            map[string]string
	PersonaEnabled     bool
	Product            map[string]string
	ProductEnabled     bool
	SocialProof        map[string]string
	SocialProofEnabled bool
	ContextDefaults    map[string]string
}

// Create inserts a new calling configuration.
func (r *Repository) Create(ctx context.Context, params CreateParams) (CallConfig, error) {
	questions, err := json.Marshal(orEmptySlice(params.Questions))
	if err != nil {
		return CallConfig{}, err
	}
	objections, err := json.Marshal(orEmptyMap(params.ObjectionResponses))
	if err != nil {
		return CallConfig{}, err
	}
	persona, err := marshalOptional(params.Persona)
	if err != nil {
		return CallConfig{}, err
	}
	product, err := marshalOptional(params.Product)
	if err != nil {
		return CallConfig{}, err
	}
	socialProof, err := marshalOptional(params.SocialProof)
	if err != nil {
		return CallConfig{}, err
	}
	contextDefaults, err := json.Marshal(orEmptyMap(params.ContextDefaults))
	if err != nil {
		return CallConfig{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO DH_call_configs (
			organization_id, name, script_prompt, questions, objection_responses,
			persona, persona_enabled, product, product_enabled,
			social_proof, social_proof_enabled, context_defaults
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+configColumns,
		params.OrganizationID, params.Name, params.ScriptPrompt, questions, objections,
		persona, params.PersonaEnabled, product, params.ProductEnabled,
		socialProof, params.SocialProofEnabled, contextDefaults)

	return scanConfig(row)
}

func scanConfig(row pgx.Row) (CallConfig, error) {
	var (
		cfg             CallConfig
		questions       []byte
		objections      []byte
		persona         []byte
		product         []byte
		socialProof     []byte
		contextDefaults []byte
	)

	err := row.Scan(
		&cfg.ID,
		&cfg.OrganizationID,
		&cfg.Name,
		&cfg.ScriptPrompt,
		&questions,
		&objections,
		&persona,
		&cfg.PersonaEnabled,
		&product,
		&cfg.ProductEnabled,
		&socialProof,
		&cfg.SocialProofEnabled,
		&contextDefaults,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return CallConfig{}, err
	}

	if err := unmarshalInto(questions, &cfg.Questions); err != nil {
		return CallConfig{}, err
	}
	if err := unmarshalInto(objections, &cfg.ObjectionResponses); err != nil {
		return CallConfig{}, err
	}
	if err := unmarshalInto(persona, &cfg.Persona); err != nil {
		return CallConfig{}, err
	}
	if err := unmarshalInto(product, &cfg.Product); err != nil {
		return CallConfig{}, err
	}
	if err := unmarshalInto(socialProof, &cfg.SocialProof); err != nil {
		return CallConfig{}, err
	}
	if err := unmarshalInto(contextDefaults, &cfg.ContextDefaults); err != nil {
		return CallConfig{}, err
	}

	return cfg, nil
}

func unmarshalInto(data []byte, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}

func marshalOptional(m map[string]string) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orEmptyMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
