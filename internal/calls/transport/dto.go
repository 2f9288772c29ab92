// Package transport defines the request/response DTOs for the calls module.
package transport

import (
	"time"

	"github.com/google/uuid"

	"dialhub_backend/internal/calls/domain"
)

// DispatchCallRequest starts a single outbound call.
type DispatchCallRequest struct {
	PhoneNumber  string            `json:"phoneNumber" validate:"required"`
	ContactName  string            `json:"contactName" validate:"required,min=1,max=200"`
	LeadID       *uuid.UUID        `json:"leadId,omitempty"`
	CallConfigID uuid.UUID         `json:"callConfigId" validate:"required"`
	Context      map[string]string `json:"context,omitempty"`
}

// CallResponse is the API representation of a call record.
type CallResponse struct {
	ID              uuid.UUID             `json:"id"`
	ExternalCallID  string                `json:"externalCallId,omitempty"`
	LeadID          *uuid.UUID            `json:"leadId,omitempty"`
	Status          domain.Status         `json:"status"`
	PhoneNumber     string                `json:"phoneNumber"`
	ContactName     string                `json:"contactName"`
	InitiatedAt     time.Time             `json:"initiatedAt"`
	CompletedAt     *time.Time            `json:"completedAt,omitempty"`
	DurationSeconds int                   `json:"durationSeconds"`
	InterestLevel   int                   `json:"interestLevel"`
	CompletionRate  int                   `json:"completionRate"`
	Summary         string                `json:"summary,omitempty"`
	Qualification   *domain.Qualification `json:"qualification,omitempty"`
}

// CallsResponse wraps a list of calls.
type CallsResponse struct {
	Items []CallResponse `json:"items"`
}

// BulkTarget is one lead in a bulk dispatch request.
type BulkTarget struct {
	LeadID      uuid.UUID         `json:"leadId" validate:"required"`
	PhoneNumber string            `json:"phoneNumber" validate:"required"`
	ContactName string            `json:"contactName" validate:"required"`
	Context     map[string]string `json:"context,omitempty"`
}

// BulkDispatchRequest starts a bulk dispatch job.
type BulkDispatchRequest struct {
	CallConfigID uuid.UUID    `json:"callConfigId" validate:"required"`
	Targets      []BulkTarget `json:"targets" validate:"required,min=1,max=500,dive"`
}

// BulkJobResponse is returned when a bulk job is started.
type BulkJobResponse struct {
	JobID uuid.UUID `json:"jobId"`
}

// BulkProgressResponse reports live progress for a bulk job.
type BulkProgressResponse struct {
	JobID     uuid.UUID            `json:"jobId"`
	Total     int                  `json:"total"`
	Completed int                  `json:"completed"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Percent   int                  `json:"percent"`
	Paused    bool                 `json:"paused"`
	Aborted   bool                 `json:"aborted"`
	Finished  bool                 `json:"finished"`
	Statuses  map[uuid.UUID]string `json:"statuses"`
}

// CancelCallResponse acknowledges a manual cancellation.
type CancelCallResponse struct {
	ID     uuid.UUID     `json:"id"`
	Status domain.Status `json:"status"`
}
