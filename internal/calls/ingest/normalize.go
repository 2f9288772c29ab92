package ingest

import (
	"dialhub_backend/internal/calls/domain"
	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/platform/sanitize"
)

// Normalize fills the gaps providers leave in completion events: a missing
// recording reference is synthesized from the external call identifier and
// absent lists default to empty so downstream steps never see nil.
func Normalize(event *transport.CompletionEvent) {
	if event.RecordingURL == "" {
		event.RecordingURL = "recordings/" + event.CallID
	}
	if event.QAPairs == nil {
		event.QAPairs = []transport.QAPair{}
	}
	if event.TranscriptEntries == nil {
		event.TranscriptEntries = []transport.TranscriptEntry{}
	}
	if event.Objections == nil {
		event.Objections = []string{}
	}
	if event.CollectedResponses == nil {
		event.CollectedResponses = map[string]string{}
	}
}

// SanitizeTranscript strips stage-direction artifacts from every transcript
// entry and from the agent side of every question/answer pair. Runs before
// any text is qualified, stored, or surfaced: the artifacts are generation
// noise, not content.
func SanitizeTranscript(event *transport.CompletionEvent) {
	event.Transcript = sanitize.StripStageDirections(event.Transcript)
	event.Summary = sanitize.StripStageDirections(event.Summary)

	for i := range event.TranscriptEntries {
		event.TranscriptEntries[i].Text = sanitize.StripStageDirections(event.TranscriptEntries[i].Text)
	}
	for i := range event.QAPairs {
		event.QAPairs[i].AgentSaid = sanitize.StripStageDirections(event.QAPairs[i].AgentSaid)
	}
}

// DeriveStatus maps a completion event to its terminal status. Shared with
// the reconciliation poller so both paths agree.
func DeriveStatus(event transport.CompletionEvent) domain.Status {
	if event.NoAnswer {
		return domain.StatusNoAnswer
	}
	return domain.StatusCompleted
}
