package callconfig

import (
	"sort"
	"testing"
)

func baseConfig() CallConfig {
	return CallConfig{
		ScriptPrompt: "You are calling on behalf of Acme.",
		Questions:    []string{"Are you the homeowner?"},
		ObjectionResponses: map[string]string{
			"too expensive": "We offer financing.",
		},
		Persona:         map[string]string{"name": "Sam", "tone": "friendly"},
		Product:         map[string]string{"name": "Solar Plan"},
		SocialProof:     map[string]string{"quote": "Rated 4.8 stars"},
		ContextDefaults: map[string]string{"company": "Acme", "offer": ""},
	}
}

func TestResolveGatesOptionalBlocksOnToggles(t *testing.T) {
	cfg := baseConfig()

	payload := Resolve(cfg, nil)
	if payload.Persona != nil || payload.Product != nil || payload.SocialProof != nil {
		t.Fatal("disabled blocks must not appear in the payload")
	}

	cfg.PersonaEnabled = true
	cfg.SocialProofEnabled = true
	payload = Resolve(cfg, nil)
	if payload.Persona == nil || payload.Persona["name"] != "Sam" {
		t.Fatal("enabled persona block missing")
	}
	if payload.SocialProof == nil {
		t.Fatal("enabled social proof block missing")
	}
	if payload.Product != nil {
		t.Fatal("product still disabled, must be omitted")
	}
}

func TestResolveMergesContextWithPerCallPrecedence(t *testing.T) {
	cfg := baseConfig()

	payload := Resolve(cfg, map[string]string{"offer": "20% off", "extra": "yes"})
	if payload.Context["company"] != "Acme" {
		t.Fatalf("default should survive, got %q", payload.Context["company"])
	}
	if payload.Context["offer"] != "20% off" {
		t.Fatalf("per-call value should win, got %q", payload.Context["offer"])
	}
	if payload.Context["extra"] != "yes" {
		t.Fatal("per-call-only keys should be included")
	}

	// Empty per-call values never erase a default.
	payload = Resolve(cfg, map[string]string{"company": ""})
	if payload.Context["company"] != "Acme" {
		t.Fatalf("empty per-call value must not override default, got %q", payload.Context["company"])
	}
}

func TestMissingContextKeys(t *testing.T) {
	cfg := baseConfig()

	missing := MissingContextKeys(cfg, nil)
	sort.Strings(missing)
	if len(missing) != 1 || missing[0] != "offer" {
		t.Fatalf("expected [offer], got %v", missing)
	}

	missing = MissingContextKeys(cfg, map[string]string{"offer": "20% off"})
	if len(missing) != 0 {
		t.Fatalf("expected no missing keys, got %v", missing)
	}
}
