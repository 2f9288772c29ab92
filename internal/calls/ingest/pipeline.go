// Package ingest is the system-of-record update path for completion events.
// Each side effect is isolated: one failing step is logged and skipped, never
// allowed to block the others or the core call-outcome update.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"dialhub_backend/internal/calls/domain"
	"dialhub_backend/internal/calls/eventstore"
	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/internal/events"
	"dialhub_backend/internal/usage"
	"dialhub_backend/platform/logger"
)

// CallStore is the call record access ingestion needs.
type CallStore interface {
	GetByExternalID(ctx context.Context, orgID uuid.UUID, externalCallID string) (repository.Call, error)
	ApplyCompletion(ctx context.Context, params repository.ApplyCompletionParams) (bool, error)
}

// LeadStore appends call notes to lead memory.
type LeadStore interface {
	AppendMemory(ctx context.Context, id, orgID uuid.UUID, note string) error
}

// UsageStore merges completed calls into organization counters.
type UsageStore interface {
	RecordCall(ctx context.Context, orgID uuid.UUID, period string, minutes int, at time.Time) error
}

// OutcomeStore records processed outcomes for the reconciliation poller.
type OutcomeStore interface {
	Put(ctx context.Context, outcome eventstore.Outcome) error
}

// Qualifier scores call content. May be nil when no API key is configured.
type Qualifier interface {
	Qualify(ctx context.Context, event transport.CompletionEvent) (*domain.Qualification, error)
}

// Pipeline processes completion events pushed by the provider.
type Pipeline struct {
	calls     CallStore
	leads     LeadStore
	usageRepo UsageStore
	outcomes  OutcomeStore
	qualifier Qualifier
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a new completion ingestion pipeline.
func New(calls CallStore, leads LeadStore, usageRepo UsageStore, outcomes OutcomeStore, qualifier Qualifier, bus events.Bus, log *logger.Logger) *Pipeline {
	return &Pipeline{
		calls:     calls,
		leads:     leads,
		usageRepo: usageRepo,
		outcomes:  outcomes,
		qualifier: qualifier,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// Process applies one completion event. It returns an error only when the
// core call-outcome update fails on infrastructure, so an at-least-once
// delivery mechanism can retry; everything else is logged and absorbed.
func (p *Pipeline) Process(ctx context.Context, orgID uuid.UUID, event transport.CompletionEvent) error {
	log := p.log.WithOrgID(orgID.String())

	Normalize(&event)
	SanitizeTranscript(&event)

	status := DeriveStatus(event)
	completedAt := p.now()

	var qualification *domain.Qualification
	if status != domain.StatusNoAnswer && p.qualifier != nil && event.HasSubstantiveSignal() {
		result, err := p.qualifier.Qualify(ctx, event)
		if err != nil {
			log.Error("ingest: qualification failed", "error", err, "externalCallId", event.CallID)
		} else {
			qualification = result
		}
	}

	call, err := p.calls.GetByExternalID(ctx, orgID, event.CallID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("ingest: completion event could not be attributed", "externalCallId", event.CallID)
			return nil
		}
		return fmt.Errorf("ingest: lookup call: %w", err)
	}

	rawPayload, err := json.Marshal(event)
	if err != nil {
		log.Error("ingest: failed to marshal raw payload", "error", err, "externalCallId", event.CallID)
	}

	applied, err := p.calls.ApplyCompletion(ctx, repository.ApplyCompletionParams{
		OrganizationID:  orgID,
		ExternalCallID:  event.CallID,
		Status:          status,
		DurationSeconds: event.DurationSeconds,
		InterestLevel:   event.InterestLevel,
		CompletionRate:  event.CompletionRate,
		Summary:         event.Summary,
		Qualification:   qualification,
		RawCompletion:   rawPayload,
		CompletedAt:     completedAt,
	})
	if err != nil {
		return fmt.Errorf("ingest: persist call outcome: %w", err)
	}

	if err := p.outcomes.Put(ctx, eventstore.Outcome{
		ExternalCallID:  event.CallID,
		OrganizationID:  orgID.String(),
		Status:          status,
		DurationSeconds: event.DurationSeconds,
		InterestLevel:   event.InterestLevel,
		CompletionRate:  event.CompletionRate,
		Summary:         event.Summary,
		CompletedAt:     completedAt,
	}); err != nil {
		log.Error("ingest: failed to store outcome for reconciliation", "error", err, "externalCallId", event.CallID)
	}

	if !applied {
		// Duplicate delivery for a call that already ended; the terminal
		// state is absorbing, so the note and usage steps stay skipped too.
		log.Info("ingest: call already terminal, event ignored", "externalCallId", event.CallID)
		return nil
	}

	if status != domain.StatusNoAnswer && call.LeadID != nil {
		note := buildMemoryNote(event, qualification, completedAt)
		if err := p.leads.AppendMemory(ctx, *call.LeadID, orgID, note); err != nil {
			log.Error("ingest: failed to append lead memory note", "error", err, "leadId", *call.LeadID)
		}
	}

	minutes := usage.MinutesFromSeconds(event.DurationSeconds)
	if err := p.usageRepo.RecordCall(ctx, orgID, usage.PeriodOf(completedAt), minutes, completedAt); err != nil {
		log.Error("ingest: failed to record usage", "error", err, "externalCallId", event.CallID)
	}

	p.bus.Publish(ctx, events.CallCompleted{
		BaseEvent:      events.NewBaseEvent(),
		CallID:         call.ID,
		OrganizationID: orgID,
		LeadID:         call.LeadID,
		ExternalCallID: event.CallID,
		Status:         status,
		Summary:        event.Summary,
	})

	return nil
}

// buildMemoryNote renders the human-readable block appended to the lead's
// memory field. The field is an append-only log consumed as conversational
// context for future calls.
func buildMemoryNote(event transport.CompletionEvent, qualification *domain.Qualification, completedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] AI call, %s\n", completedAt.UTC().Format("2006-01-02"), formatDuration(event.DurationSeconds))

	if event.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", event.Summary)
	}

	if qualification != nil {
		fmt.Fprintf(&b, "Qualification: %s (%d%%), %s\n",
			qualification.Level, qualification.Confidence, qualification.Reasoning)
		if len(qualification.PainPoints) > 0 {
			fmt.Fprintf(&b, "Pain points: %s\n", strings.Join(qualification.PainPoints, "; "))
		}
		if qualification.RecommendedAction != "" {
			fmt.Fprintf(&b, "Recommended action: %s\n", qualification.RecommendedAction)
		}
	}

	fmt.Fprintf(&b, "Interest level: %d/10", event.InterestLevel)

	if len(event.TriggeredTags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s", strings.Join(event.TriggeredTags, ", "))
	}

	return b.String()
}

func formatDuration(seconds int) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}
