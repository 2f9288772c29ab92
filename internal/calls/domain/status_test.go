package domain

import "testing"

func TestTerminalStatusesAreAbsorbing(t *testing.T) {
	terminals := []Status{StatusCompleted, StatusFailed, StatusNoAnswer}
	all := []Status{StatusInitiating, StatusInProgress, StatusCompleted, StatusFailed, StatusNoAnswer}

	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Fatalf("expected %s to be terminal", from)
		}
		for _, next := range all {
			if from.CanTransition(next) {
				t.Errorf("terminal status %s must not transition to %s", from, next)
			}
		}
	}
}

func TestLifecycleTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusInitiating, StatusInProgress, true},
		{StatusInitiating, StatusFailed, true},
		{StatusInitiating, StatusCompleted, false},
		{StatusInitiating, StatusNoAnswer, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusFailed, true},
		{StatusInProgress, StatusNoAnswer, true},
		{StatusInProgress, StatusInitiating, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.allowed {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestIsOpen(t *testing.T) {
	if !StatusInitiating.IsOpen() || !StatusInProgress.IsOpen() {
		t.Fatal("initiating and in-progress must be open")
	}
	for _, s := range []Status{StatusCompleted, StatusFailed, StatusNoAnswer} {
		if s.IsOpen() {
			t.Errorf("terminal status %s must not be open", s)
		}
	}
}

func TestQualificationNormalize(t *testing.T) {
	q := Qualification{
		Level:      "hot",
		Confidence: 140,
		ObjectionAnalysis: []ObjectionAnalysis{
			{Objection: "price", Severity: "HIGH"},
			{Objection: "timing", Severity: "whatever"},
		},
	}
	q.Normalize()

	if q.Level != LevelHot {
		t.Fatalf("expected level HOT, got %s", q.Level)
	}
	if q.Confidence != 100 {
		t.Fatalf("expected confidence clamped to 100, got %d", q.Confidence)
	}
	if q.ObjectionAnalysis[0].Severity != SeverityHigh {
		t.Fatalf("expected high severity, got %s", q.ObjectionAnalysis[0].Severity)
	}
	if q.ObjectionAnalysis[1].Severity != SeverityLow {
		t.Fatalf("expected unknown severity coerced to low, got %s", q.ObjectionAnalysis[1].Severity)
	}

	q2 := Qualification{Level: "somethingelse", Confidence: -5}
	q2.Normalize()
	if q2.Level != LevelCold {
		t.Fatalf("expected unknown level coerced to COLD, got %s", q2.Level)
	}
	if q2.Confidence != 0 {
		t.Fatalf("expected confidence clamped to 0, got %d", q2.Confidence)
	}
}
