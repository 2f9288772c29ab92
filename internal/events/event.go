package events

import (
	"github.com/google/uuid"

	"dialhub_backend/internal/calls/domain"
	platformevents "dialhub_backend/platform/events"
)

// Event is a type alias to the platform Event interface.
type Event = platformevents.Event

// BaseEvent is a type alias to the platform BaseEvent.
type BaseEvent = platformevents.BaseEvent

// HandlerFunc is a type alias to the platform HandlerFunc.
type HandlerFunc = platformevents.HandlerFunc

// NewBaseEvent creates a new base event with the current timestamp.
func NewBaseEvent() BaseEvent {
	return platformevents.NewBaseEvent()
}

// CallDispatched fires when a call moves to in-progress.
type CallDispatched struct {
	BaseEvent
	CallID         uuid.UUID
	OrganizationID uuid.UUID
	LeadID         *uuid.UUID
	ExternalCallID string
}

// EventName returns the unique event identifier.
func (CallDispatched) EventName() string { return "calls.dispatched" }

// CallCompleted fires when a call reaches a terminal state through ingestion
// or reconciliation. Deduplicated per external call identifier by the poller.
type CallCompleted struct {
	BaseEvent
	CallID         uuid.UUID
	OrganizationID uuid.UUID
	LeadID         *uuid.UUID
	ExternalCallID string
	Status         domain.Status
	Summary        string
}

// EventName returns the unique event identifier.
func (CallCompleted) EventName() string { return "calls.completed" }
