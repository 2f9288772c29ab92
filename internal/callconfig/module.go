package callconfig

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "dialhub_backend/internal/http"
	"dialhub_backend/platform/validator"
)

// Module is the calling configuration bounded context implementing http.Module.
type Module struct {
	repo    *Repository
	handler *Handler
}

// NewModule creates the calling configuration module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := New(pool)
	return &Module{
		repo:    repo,
		handler: NewHandler(repo, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "callconfig"
}

// Repository returns the configuration repository for external use.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts calling configuration routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/call-configs"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
