package sanitize

import "testing"

func TestStripStageDirectionsRemovesBracketedArtifacts(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "simple pause",
			input: "Hello [pause] there",
			want:  "Hello there",
		},
		{
			name:  "free-form wording inside brackets",
			input: "Right. [3 second silence] Let me check that for you.",
			want:  "Right. Let me check that for you.",
		},
		{
			name:  "case insensitive",
			input: "Sure [PAUSES BRIEFLY] no problem",
			want:  "Sure no problem",
		},
		{
			name:  "multiple artifacts",
			input: "[clears throat] So [laughs nervously] where were we?",
			want:  "So where were we?",
		},
		{
			name:  "leading and trailing trimmed",
			input: "[sighs] done [waiting]",
			want:  "done",
		},
		{
			name:  "substantive brackets survive",
			input: "The price is [to be confirmed] next week",
			want:  "The price is [to be confirmed] next week",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := StripStageDirections(tc.input)
			if got != tc.want {
				t.Fatalf("StripStageDirections(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestStripStageDirectionsIsIdempotent(t *testing.T) {
	inputs := []string{
		"Hello [pause] there",
		"Already clean text",
		"[breath] [cough] messy [pause]  spaced",
	}

	for _, input := range inputs {
		once := StripStageDirections(input)
		twice := StripStageDirections(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestStripStageDirectionsPtr(t *testing.T) {
	if got := StripStageDirectionsPtr(nil); got != nil {
		t.Fatalf("expected nil for nil input, got %v", got)
	}

	input := "ok [pause] then"
	got := StripStageDirectionsPtr(&input)
	if got == nil || *got != "ok then" {
		t.Fatalf("expected cleaned pointer, got %v", got)
	}
}
