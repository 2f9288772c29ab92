// Package calls provides the call lifecycle bounded context module.
// This file defines the module that encapsulates all calls setup and route registration.
package calls

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"dialhub_backend/internal/calls/bulk"
	"dialhub_backend/internal/calls/dispatch"
	"dialhub_backend/internal/calls/eventstore"
	"dialhub_backend/internal/calls/handler"
	"dialhub_backend/internal/calls/provider"
	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/events"
	apphttp "dialhub_backend/internal/http"
	"dialhub_backend/internal/leads"
	"dialhub_backend/internal/orgs"
	"dialhub_backend/internal/reconcile"
	"dialhub_backend/internal/scheduler"
	"dialhub_backend/platform/config"
	"dialhub_backend/platform/logger"
	"dialhub_backend/platform/validator"
)

// ConfigStore resolves calling configurations for dispatch. Satisfied by the
// callconfig repository; declared here so wiring stays explicit.
type ConfigStore = dispatch.ConfigStore

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	webhook    *handler.WebhookHandler
	dispatcher *dispatch.Service
	reconciler *reconcile.Manager
	repo       *repository.Repository
}

// NewModule creates and initializes the calls module with all its dependencies.
// The reconciliation poller is subscribed to dispatch events here so every
// outbound call guarantees an active poller for its organization.
func NewModule(
	pool *pgxpool.Pool,
	redisClient redis.UniversalClient,
	enqueuer scheduler.CompletionEnqueuer,
	configs ConfigStore,
	eventBus events.Bus,
	val *validator.Validator,
	cfg *config.Config,
	log *logger.Logger,
) *Module {
	callsRepo := repository.New(pool)
	leadsRepo := leads.New(pool)
	orgsRepo := orgs.New(pool)

	providerClient := provider.New(cfg, log)
	dispatchSvc := dispatch.New(callsRepo, leadsRepo, configs, orgsRepo, providerClient, eventBus, cfg.GetWebhookBaseURL(), log)
	orchestrator := bulk.New(dispatchSvc, cfg.GetBulkConcurrency(), cfg.GetBulkCooldown(), log)

	outcomes := eventstore.New(redisClient)
	reconciler := reconcile.NewManager(callsRepo, outcomes, eventBus, cfg.GetReconcileInterval(), log)

	// The poller outlives the dispatching request, so it runs on a fresh
	// background context rather than the request's.
	eventBus.Subscribe(events.CallDispatched{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.CallDispatched)
		if !ok {
			return nil
		}
		reconciler.EnsureRunning(context.Background(), e.OrganizationID)
		return nil
	}))

	return &Module{
		handler:    handler.New(dispatchSvc, orchestrator, callsRepo, val),
		webhook:    handler.NewWebhookHandler(orgsRepo, enqueuer, log),
		dispatcher: dispatchSvc,
		reconciler: reconciler,
		repo:       callsRepo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// Dispatcher returns the dispatch service for external use.
func (m *Module) Dispatcher() *dispatch.Service {
	return m.dispatcher
}

// Repository returns the call record repository for external use.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts calls routes on the provided router context.
// Webhook routes are unauthenticated at the JWT layer; each delivery carries
// a per-organization token instead.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/calls"))
	m.webhook.RegisterRoutes(ctx.V1.Group("/webhook"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
