// Package sanitize provides text cleanup utilities for AI-generated call content.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// stageDirectionRegex matches bracketed non-speech directives emitted by the
	// voice model, e.g. "[pause]", "[3 second silence]", "[laughs nervously]".
	// The wording inside the brackets is free-form, so match on keywords.
	stageDirectionRegex = regexp.MustCompile(`(?i)\[[^\[\]]*(pause|silence|silent|breath|laugh|sigh|cough|clears throat|beat|waiting)[^\[\]]*\]`)

	// doubleSpaceRegex collapses runs of spaces left behind after stripping.
	doubleSpaceRegex = regexp.MustCompile(` {2,}`)
)

// StripStageDirections removes bracketed stage-direction artifacts from
// transcript text and collapses the double spaces stripping leaves behind.
// Applying it twice yields the same result as applying it once.
func StripStageDirections(s string) string {
	result := stageDirectionRegex.ReplaceAllString(s, "")
	result = doubleSpaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// StripStageDirectionsPtr is a helper for optional string pointers.
func StripStageDirectionsPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := StripStageDirections(*s)
	return &result
}
