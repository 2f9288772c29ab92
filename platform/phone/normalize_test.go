package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"(415) 555-2671", "+14155552671"},
		{"+14155552671", "+14155552671"},
		{"  415-555-2671  ", "+14155552671"},
		{"not a number", "not a number"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeE164(tc.input); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestIsValid(t *testing.T) {
	valid := []string{"+14155552671", "(415) 555-2671"}
	for _, input := range valid {
		if !IsValid(input) {
			t.Errorf("expected %q to be valid", input)
		}
	}

	invalid := []string{"", "   ", "123", "not a number"}
	for _, input := range invalid {
		if IsValid(input) {
			t.Errorf("expected %q to be invalid", input)
		}
	}
}
