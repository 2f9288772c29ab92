package transport

// CompletionEvent is the payload the provider pushes to the callback URL when
// a call ends. Field names follow the provider's wire format.
type CompletionEvent struct {
	CallID             string              `json:"call_id"`
	CallerID           string              `json:"caller_id"`
	ContactID          string              `json:"contact_id"`
	OrganizationID     string              `json:"organization_id"`
	DurationSeconds    int                 `json:"duration_seconds"`
	NoAnswer           bool                `json:"no_answer"`
	CompletionRate     int                 `json:"completion_rate"`
	InterestLevel      int                 `json:"interest_level"`
	Summary            string              `json:"summary"`
	Objections         []string            `json:"objections"`
	CollectedResponses map[string]string   `json:"collected_responses"`
	QAPairs            []QAPair            `json:"qa_pairs"`
	Metrics            CallMetrics         `json:"metrics"`
	Transcript         string              `json:"transcript"`
	TranscriptEntries  []TranscriptEntry   `json:"transcript_entries"`
	RecordingURL       string              `json:"recording_url,omitempty"`
	TriggeredTags      []string            `json:"triggered_tags,omitempty"`
}

// QAPair is one scripted question with what was actually said on both sides.
type QAPair struct {
	AgentSaid string `json:"agent_said"`
	UserSaid  string `json:"user_said"`
	LatencyMs int    `json:"latency_ms"`
}

// TranscriptEntry is one structured line of the conversation.
type TranscriptEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// CallMetrics are aggregate latency and pacing metrics for the call.
type CallMetrics struct {
	AvgLatencyMs int `json:"avg_latency_ms"`
	MinLatencyMs int `json:"min_latency_ms"`
	MaxLatencyMs int `json:"max_latency_ms"`
	P90LatencyMs int `json:"p90_latency_ms"`
	NudgeCount   int `json:"nudge_count"`
}

// HasSubstantiveSignal reports whether the event carries anything worth
// qualifying: a transcript, question/answer pairs, or a summary.
func (e CompletionEvent) HasSubstantiveSignal() bool {
	return len(e.QAPairs) > 0 || e.Transcript != "" || e.Summary != ""
}
