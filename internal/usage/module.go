package usage

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "dialhub_backend/internal/http"
)

// Module is the usage metering bounded context implementing http.Module.
type Module struct {
	repo    *Repository
	handler *Handler
}

// NewModule creates the usage module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := New(pool)
	return &Module{
		repo:    repo,
		handler: NewHandler(repo),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "usage"
}

// Repository returns the usage repository for external use.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts usage routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/usage"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
