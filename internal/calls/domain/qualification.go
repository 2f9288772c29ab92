package domain

import "strings"

// QualificationLevel grades how promising a lead is after a call.
type QualificationLevel string

const (
	LevelHot  QualificationLevel = "HOT"
	LevelWarm QualificationLevel = "WARM"
	LevelCold QualificationLevel = "COLD"
)

// ObjectionSeverity grades how strongly an objection was raised.
type ObjectionSeverity string

const (
	SeverityHigh   ObjectionSeverity = "high"
	SeverityMedium ObjectionSeverity = "medium"
	SeverityLow    ObjectionSeverity = "low"
)

// ObjectionAnalysis is one analyzed objection from the call.
type ObjectionAnalysis struct {
	Objection         string            `json:"objection"`
	Severity          ObjectionSeverity `json:"severity"`
	SuggestedResponse string            `json:"suggestedResponse"`
}

// Qualification is the scored assessment produced at most once per call.
// It is attached to the call record and never mutated afterwards.
type Qualification struct {
	Level             QualificationLevel  `json:"level"`
	Confidence        int                 `json:"confidence"`
	Reasoning         string              `json:"reasoning"`
	PainPoints        []string            `json:"painPoints"`
	KeyInsights       []string            `json:"keyInsights"`
	RecommendedAction string              `json:"recommendedAction"`
	ObjectionAnalysis []ObjectionAnalysis `json:"objectionAnalysis"`
}

// Normalize clamps confidence into [0,100] and coerces level and severities
// to the known enum values so model output cannot smuggle arbitrary strings
// into storage.
func (q *Qualification) Normalize() {
	if q.Confidence < 0 {
		q.Confidence = 0
	}
	if q.Confidence > 100 {
		q.Confidence = 100
	}

	switch QualificationLevel(strings.ToUpper(string(q.Level))) {
	case LevelHot:
		q.Level = LevelHot
	case LevelWarm:
		q.Level = LevelWarm
	default:
		q.Level = LevelCold
	}

	for i := range q.ObjectionAnalysis {
		switch ObjectionSeverity(strings.ToLower(string(q.ObjectionAnalysis[i].Severity))) {
		case SeverityHigh:
			q.ObjectionAnalysis[i].Severity = SeverityHigh
		case SeverityMedium:
			q.ObjectionAnalysis[i].Severity = SeverityMedium
		default:
			q.ObjectionAnalysis[i].Severity = SeverityLow
		}
	}
}
