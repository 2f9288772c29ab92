// Package qualify derives a lead qualification from call content using
// Gemini. The model is consumed as a black box: transcript plus metadata in,
// a structured qualification out. Callers treat every error as "no
// qualification available" and persist the call outcome regardless.
package qualify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"dialhub_backend/internal/calls/domain"
	"dialhub_backend/internal/calls/transport"
	"dialhub_backend/platform/config"
)

// Qualifier scores call content. Implemented by GeminiQualifier; tests use fakes.
type Qualifier interface {
	Qualify(ctx context.Context, event transport.CompletionEvent) (*domain.Qualification, error)
}

// GeminiQualifier calls the Gemini API with a JSON-only response contract.
type GeminiQualifier struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed qualifier.
func NewGemini(ctx context.Context, cfg config.QualifierConfig) (*GeminiQualifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("qualifier: %w", err)
	}

	model := cfg.GetGeminiModel()
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiQualifier{client: client, model: model}, nil
}

// Qualify scores the call. The result is normalized (level and severities
// coerced, confidence clamped to 0-100) before being returned.
func (q *GeminiQualifier) Qualify(ctx context.Context, event transport.CompletionEvent) (*domain.Qualification, error) {
	prompt := buildPrompt(event)

	resp, err := q.client.Models.GenerateContent(ctx, q.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("qualifier: generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("qualifier: empty model response")
	}

	var qualification domain.Qualification
	if err := json.Unmarshal([]byte(text), &qualification); err != nil {
		return nil, fmt.Errorf("qualifier: parse model response: %w", err)
	}

	qualification.Normalize()
	return &qualification, nil
}

func buildPrompt(event transport.CompletionEvent) string {
	var b strings.Builder

	b.WriteString(`You are a sales lead qualification analyst. Assess the lead based on the call below and respond with ONLY a JSON object of this shape:
{
  "level": "HOT" | "WARM" | "COLD",
  "confidence": 0-100,
  "reasoning": "...",
  "painPoints": ["..."],
  "keyInsights": ["..."],
  "recommendedAction": "...",
  "objectionAnalysis": [{"objection": "...", "severity": "high"|"medium"|"low", "suggestedResponse": "..."}]
}

`)

	if event.Summary != "" {
		fmt.Fprintf(&b, "Call summary: %s\n\n", event.Summary)
	}
	fmt.Fprintf(&b, "Duration: %d seconds. Interest level: %d/10. Completion rate: %d%%.\n\n",
		event.DurationSeconds, event.InterestLevel, event.CompletionRate)

	if len(event.Objections) > 0 {
		b.WriteString("Objections raised:\n")
		for _, objection := range event.Objections {
			fmt.Fprintf(&b, "- %s\n", objection)
		}
		b.WriteString("\n")
	}

	if len(event.QAPairs) > 0 {
		b.WriteString("Question/answer pairs:\n")
		for _, pair := range event.QAPairs {
			fmt.Fprintf(&b, "Agent: %s\nProspect: %s\n", pair.AgentSaid, pair.UserSaid)
		}
		b.WriteString("\n")
	}

	if len(event.CollectedResponses) > 0 {
		b.WriteString("Collected responses:\n")
		for key, value := range event.CollectedResponses {
			fmt.Fprintf(&b, "- %s: %s\n", key, value)
		}
		b.WriteString("\n")
	}

	if event.Transcript != "" {
		fmt.Fprintf(&b, "Full transcript:\n%s\n", event.Transcript)
	}

	return b.String()
}
