package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialhub_backend/internal/calls/domain"
	"dialhub_backend/internal/calls/eventstore"
	"dialhub_backend/internal/calls/repository"
	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/internal/events"
	"dialhub_backend/platform/logger"
)

type fakeCallStore struct {
	call         repository.Call
	lookupErr    error
	applied      bool
	appliedWith  *repository.ApplyCompletionParams
	applyErr     error
	applyCalled  bool
}

func (f *fakeCallStore) GetByExternalID(ctx context.Context, orgID uuid.UUID, externalCallID string) (repository.Call, error) {
	if f.lookupErr != nil {
		return repository.Call{}, f.lookupErr
	}
	return f.call, nil
}

func (f *fakeCallStore) ApplyCompletion(ctx context.Context, params repository.ApplyCompletionParams) (bool, error) {
	f.applyCalled = true
	f.appliedWith = &params
	if f.applyErr != nil {
		return false, f.applyErr
	}
	return f.applied, nil
}

type fakeLeadStore struct {
	notes []string
}

func (f *fakeLeadStore) AppendMemory(ctx context.Context, id, orgID uuid.UUID, note string) error {
	f.notes = append(f.notes, note)
	return nil
}

type fakeUsageStore struct {
	periods []string
	minutes []int
}

func (f *fakeUsageStore) RecordCall(ctx context.Context, orgID uuid.UUID, period string, minutes int, at time.Time) error {
	f.periods = append(f.periods, period)
	f.minutes = append(f.minutes, minutes)
	return nil
}

type fakeOutcomeStore struct {
	outcomes []eventstore.Outcome
}

func (f *fakeOutcomeStore) Put(ctx context.Context, outcome eventstore.Outcome) error {
	f.outcomes = append(f.outcomes, outcome)
	return nil
}

type fakeQualifier struct {
	result *domain.Qualification
	err    error
	called bool
}

func (f *fakeQualifier) Qualify(ctx context.Context, event transport.CompletionEvent) (*domain.Qualification, error) {
	f.called = true
	return f.result, f.err
}

type capturingBus struct {
	published []events.Event
}

func (b *capturingBus) Publish(ctx context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *capturingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *capturingBus) Subscribe(eventName string, handler events.Handler) {}

type pipelineFixture struct {
	calls     *fakeCallStore
	leads     *fakeLeadStore
	usageRepo *fakeUsageStore
	outcomes  *fakeOutcomeStore
	qualifier *fakeQualifier
	bus       *capturingBus
	pipeline  *Pipeline
}

func newFixture(applied bool) *pipelineFixture {
	leadID := uuid.New()
	f := &pipelineFixture{
		calls: &fakeCallStore{
			call: repository.Call{
				ID:             uuid.New(),
				LeadID:         &leadID,
				ExternalCallID: "abc123",
				Status:         domain.StatusInProgress,
			},
			applied: applied,
		},
		leads:     &fakeLeadStore{},
		usageRepo: &fakeUsageStore{},
		outcomes:  &fakeOutcomeStore{},
		qualifier: &fakeQualifier{result: &domain.Qualification{Level: domain.LevelHot, Confidence: 85, Reasoning: "asked for pricing"}},
		bus:       &capturingBus{},
	}
	f.pipeline = New(f.calls, f.leads, f.usageRepo, f.outcomes, f.qualifier, f.bus, logger.New("test"))
	f.pipeline.now = func() time.Time {
		return time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	}
	return f
}

func completedEvent() transport.CompletionEvent {
	return transport.CompletionEvent{
		CallID:          "abc123",
		DurationSeconds: 42,
		CompletionRate:  80,
		InterestLevel:   8,
		Summary:         "Asha [pause] wants a follow-up next week",
		Transcript:      "Agent: Hi Asha [3 second silence] how are you?",
		QAPairs: []transport.QAPair{
			{AgentSaid: "Are you the decision maker? [pause]", UserSaid: "Yes"},
		},
		TriggeredTags: []string{"pricing"},
	}
}

func TestProcessCompletedCallFullPath(t *testing.T) {
	f := newFixture(true)

	if err := f.pipeline.Process(context.Background(), uuid.New(), completedEvent()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	params := f.calls.appliedWith
	if params == nil {
		t.Fatal("expected outcome to be applied")
	}
	if params.Status != domain.StatusCompleted {
		t.Fatalf("status = %s, want completed", params.Status)
	}
	if params.DurationSeconds != 42 {
		t.Fatalf("duration = %d, want 42", params.DurationSeconds)
	}
	if strings.Contains(params.Summary, "[pause]") {
		t.Fatalf("summary not sanitized: %q", params.Summary)
	}
	if params.Qualification == nil || params.Qualification.Level != domain.LevelHot {
		t.Fatal("expected qualification attached to the outcome")
	}

	if len(f.leads.notes) != 1 {
		t.Fatalf("expected one memory note, got %d", len(f.leads.notes))
	}
	note := f.leads.notes[0]
	if !strings.Contains(note, "2026-09-01") || !strings.Contains(note, "42s") {
		t.Fatalf("note missing date or duration: %q", note)
	}
	if !strings.Contains(note, "HOT") {
		t.Fatalf("note missing qualification: %q", note)
	}

	if len(f.usageRepo.minutes) != 1 || f.usageRepo.minutes[0] != 1 {
		t.Fatalf("expected one billed minute for a 42s call, got %v", f.usageRepo.minutes)
	}
	if f.usageRepo.periods[0] != "2026-09" {
		t.Fatalf("period = %q, want 2026-09", f.usageRepo.periods[0])
	}

	if len(f.outcomes.outcomes) != 1 || f.outcomes.outcomes[0].ExternalCallID != "abc123" {
		t.Fatal("expected outcome recorded for reconciliation")
	}

	if len(f.bus.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(f.bus.published))
	}
	completed, ok := f.bus.published[0].(events.CallCompleted)
	if !ok {
		t.Fatalf("published event has wrong type %T", f.bus.published[0])
	}
	if completed.ExternalCallID != "abc123" || completed.Status != domain.StatusCompleted {
		t.Fatalf("unexpected event payload: %+v", completed)
	}
}

func TestProcessNoAnswerSkipsQualificationAndMemoryNote(t *testing.T) {
	f := newFixture(true)

	event := completedEvent()
	event.NoAnswer = true

	if err := f.pipeline.Process(context.Background(), uuid.New(), event); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if f.qualifier.called {
		t.Fatal("no-answer calls must not be qualified")
	}
	if f.calls.appliedWith.Status != domain.StatusNoAnswer {
		t.Fatalf("status = %s, want no-answer", f.calls.appliedWith.Status)
	}
	if len(f.leads.notes) != 0 {
		t.Fatal("no-answer calls must not append a memory note")
	}
	// The attempt still counts toward usage.
	if len(f.usageRepo.minutes) != 1 {
		t.Fatalf("expected usage recorded, got %v", f.usageRepo.minutes)
	}
}

func TestProcessUnattributedEventIsDroppedQuietly(t *testing.T) {
	f := newFixture(true)
	f.calls.lookupErr = repository.ErrNotFound

	if err := f.pipeline.Process(context.Background(), uuid.New(), completedEvent()); err != nil {
		t.Fatalf("unattributed events must not error, got %v", err)
	}

	if f.calls.applyCalled {
		t.Fatal("no outcome update for an unattributed event")
	}
	if len(f.leads.notes) != 0 || len(f.usageRepo.minutes) != 0 || len(f.bus.published) != 0 {
		t.Fatal("no side effects for an unattributed event")
	}
}

func TestProcessDuplicateDeliveryIsIdempotent(t *testing.T) {
	f := newFixture(false) // conditional update reports the row already terminal

	if err := f.pipeline.Process(context.Background(), uuid.New(), completedEvent()); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(f.leads.notes) != 0 {
		t.Fatal("duplicate delivery must not append a second memory note")
	}
	if len(f.usageRepo.minutes) != 0 {
		t.Fatal("duplicate delivery must not increment usage")
	}
	if len(f.bus.published) != 0 {
		t.Fatal("duplicate delivery must not publish a completion event")
	}
	// The outcome store is still refreshed so the poller can observe it.
	if len(f.outcomes.outcomes) != 1 {
		t.Fatal("expected outcome stored even for duplicates")
	}
}

func TestProcessQualifierFailureIsNotFatal(t *testing.T) {
	f := newFixture(true)
	f.qualifier.err = errors.New("model unavailable")
	f.qualifier.result = nil

	if err := f.pipeline.Process(context.Background(), uuid.New(), completedEvent()); err != nil {
		t.Fatalf("qualifier failure must not fail the pipeline, got %v", err)
	}

	if f.calls.appliedWith == nil {
		t.Fatal("outcome must still be applied")
	}
	if f.calls.appliedWith.Qualification != nil {
		t.Fatal("failed qualification must not attach a result")
	}
	if len(f.leads.notes) != 1 {
		t.Fatal("memory note still appended without qualification")
	}
}

func TestProcessInfrastructureErrorSurfacesForRetry(t *testing.T) {
	f := newFixture(true)
	f.calls.applyErr = errors.New("connection reset")

	if err := f.pipeline.Process(context.Background(), uuid.New(), completedEvent()); err == nil {
		t.Fatal("infrastructure failure on the outcome update must surface")
	}
}

func TestProcessSkipsQualifierWithoutSubstantiveSignal(t *testing.T) {
	f := newFixture(true)

	event := transport.CompletionEvent{CallID: "abc123", DurationSeconds: 5}
	if err := f.pipeline.Process(context.Background(), uuid.New(), event); err != nil {
		t.Fatalf("Process: %v", err)
	}

	if f.qualifier.called {
		t.Fatal("events with no transcript, pairs, or summary must not be qualified")
	}
}
