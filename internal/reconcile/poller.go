// Package reconcile bridges the gap between provider-side asynchronous
// completion and sessions that still consider a call open. A poller runs per
// organization only while at least one call is non-terminal; otherwise it
// idles out and consumes nothing.
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"dialhub_backend/internal/calls/eventstore"
	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/events"
	"dialhub_backend/platform/logger"
)

// CallStore is the call record access reconciliation needs.
type CallStore interface {
	ListOpenExternalIDs(ctx context.Context, orgID uuid.UUID) ([]string, error)
	GetByExternalID(ctx context.Context, orgID uuid.UUID, externalCallID string) (repository.Call, error)
	ApplyCompletion(ctx context.Context, params repository.ApplyCompletionParams) (bool, error)
}

// OutcomeSource is the completion-event store the poller queries. Reads are
// replayable and side-effect free; the poller applies its own idempotency
// checks.
type OutcomeSource interface {
	FetchPending(ctx context.Context, externalCallIDs []string) ([]eventstore.Outcome, error)
	MarkNotified(ctx context.Context, externalCallID string) (bool, error)
}

// Manager runs at most one poller per organization.
type Manager struct {
	calls    CallStore
	outcomes OutcomeSource
	bus      events.Bus
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	running map[uuid.UUID]bool
}

// NewManager creates a reconciliation manager.
func NewManager(calls CallStore, outcomes OutcomeSource, bus events.Bus, interval time.Duration, log *logger.Logger) *Manager {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Manager{
		calls:    calls,
		outcomes: outcomes,
		bus:      bus,
		interval: interval,
		log:      log,
		running:  make(map[uuid.UUID]bool),
	}
}

// EnsureRunning starts a poller for the organization unless one is already
// active. Called after every dispatch; the poller stops itself once the
// organization has no open calls left.
func (m *Manager) EnsureRunning(ctx context.Context, orgID uuid.UUID) {
	m.mu.Lock()
	if m.running[orgID] {
		m.mu.Unlock()
		return
	}
	m.running[orgID] = true
	m.mu.Unlock()

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.running, orgID)
			m.mu.Unlock()
		}()
		m.poll(ctx, orgID)
	}()
}

func (m *Manager) poll(ctx context.Context, orgID uuid.UUID) {
	log := m.log.WithOrgID(orgID.String())
	notified := make(map[string]struct{})

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		open, err := m.calls.ListOpenExternalIDs(ctx, orgID)
		if err != nil {
			log.Error("reconcile: failed to list open calls", "error", err)
			continue
		}
		if len(open) == 0 {
			log.Debug("reconcile: no open calls, poller idle")
			return
		}

		outcomes, err := m.outcomes.FetchPending(ctx, open)
		if err != nil {
			log.Error("reconcile: failed to fetch pending outcomes", "error", err)
			continue
		}

		for _, outcome := range outcomes {
			m.apply(ctx, orgID, outcome, notified, log)
		}
	}
}

// apply reconciles one stored outcome against the local call record. The
// conditional update absorbs outcomes already applied by ingestion; the
// notification dedup set makes sure a call is announced at most once per
// session even when the same outcome is observed on multiple ticks.
func (m *Manager) apply(ctx context.Context, orgID uuid.UUID, outcome eventstore.Outcome, notified map[string]struct{}, log *logger.Logger) {
	call, err := m.calls.GetByExternalID(ctx, orgID, outcome.ExternalCallID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("reconcile: failed to load call", "error", err, "externalCallId", outcome.ExternalCallID)
		}
		return
	}

	if !call.Status.IsTerminal() {
		if _, err := m.calls.ApplyCompletion(ctx, repository.ApplyCompletionParams{
			OrganizationID:  orgID,
			ExternalCallID:  outcome.ExternalCallID,
			Status:          outcome.Status,
			DurationSeconds: outcome.DurationSeconds,
			InterestLevel:   outcome.InterestLevel,
			CompletionRate:  outcome.CompletionRate,
			Summary:         outcome.Summary,
			CompletedAt:     outcome.CompletedAt,
		}); err != nil {
			log.Error("reconcile: failed to apply outcome", "error", err, "externalCallId", outcome.ExternalCallID)
			return
		}
	}

	if _, seen := notified[outcome.ExternalCallID]; seen {
		return
	}
	notified[outcome.ExternalCallID] = struct{}{}

	first, err := m.outcomes.MarkNotified(ctx, outcome.ExternalCallID)
	if err != nil {
		log.Error("reconcile: notification dedup check failed", "error", err, "externalCallId", outcome.ExternalCallID)
		return
	}
	if !first {
		return
	}

	m.bus.Publish(ctx, events.CallCompleted{
		BaseEvent:      events.NewBaseEvent(),
		CallID:         call.ID,
		OrganizationID: orgID,
		LeadID:         call.LeadID,
		ExternalCallID: outcome.ExternalCallID,
		Status:         outcome.Status,
		Summary:        outcome.Summary,
	})
}
