// Package domain holds the call lifecycle state machine and qualification
// value types shared by dispatch, ingestion, and reconciliation.
package domain

// Status is the lifecycle state of an outbound call.
type Status string

const (
	// StatusInitiating means the record exists but the provider has not
	// acknowledged the dispatch yet.
	StatusInitiating Status = "initiating"
	// StatusInProgress means the provider accepted the dispatch and owns the call.
	StatusInProgress Status = "in-progress"
	// StatusCompleted means the call ended and was answered.
	StatusCompleted Status = "completed"
	// StatusFailed means dispatch failed or the call was forced down.
	StatusFailed Status = "failed"
	// StatusNoAnswer means the call ended without being answered.
	StatusNoAnswer Status = "no-answer"
)

// IsTerminal reports whether no further transition is permitted from s.
// Terminal states are absorbing: ingestion and reconciliation both check
// this before applying an update, which makes duplicate provider delivery
// a no-op.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoAnswer:
		return true
	}
	return false
}

// IsOpen reports whether the call still awaits a completion event.
func (s Status) IsOpen() bool {
	return s == StatusInitiating || s == StatusInProgress
}

// CanTransition reports whether moving from s to next is a legal lifecycle
// step: initiating -> in-progress -> {completed, failed, no-answer}, or
// initiating -> failed directly on a dispatch error.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case StatusInitiating:
		return next == StatusInProgress || next == StatusFailed
	case StatusInProgress:
		return next.IsTerminal()
	}
	return false
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusInitiating, StatusInProgress, StatusCompleted, StatusFailed, StatusNoAnswer:
		return true
	}
	return false
}
