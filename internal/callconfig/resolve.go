package callconfig

// ResolvedPayload is the configuration-dependent part of a dispatch request,
// with optional blocks included only when their toggle is on and context
// variables merged with per-call values taking precedence.
type ResolvedPayload struct {
	ScriptPrompt       string            `json:"script_prompt"`
	Questions          []string          `json:"questions"`
	ObjectionResponses map[string]string `json:"objection_responses"`
	Persona            map[string]string `json:"persona,omitempty"`
	Product            map[string]string `json:"product,omitempty"`
	SocialProof        map[string]string `json:"social_proof,omitempty"`
	Context            map[string]string `json:"context"`
}

// Resolve builds the provider payload for cfg, overlaying callContext on top
// of the configuration's context defaults.
func Resolve(cfg CallConfig, callContext map[string]string) ResolvedPayload {
	merged := make(map[string]string, len(cfg.ContextDefaults)+len(callContext))
	for k, v := range cfg.ContextDefaults {
		merged[k] = v
	}
	for k, v := range callContext {
		if v != "" {
			merged[k] = v
		}
	}

	payload := ResolvedPayload{
		ScriptPrompt:       cfg.ScriptPrompt,
		Questions:          cfg.Questions,
		ObjectionResponses: cfg.ObjectionResponses,
		Context:            merged,
	}

	if cfg.PersonaEnabled {
		payload.Persona = cfg.Persona
	}
	if cfg.ProductEnabled {
		payload.Product = cfg.Product
	}
	if cfg.SocialProofEnabled {
		payload.SocialProof = cfg.SocialProof
	}

	return payload
}

// MissingContextKeys returns the context variables cfg requires (keys present
// in its defaults with an empty value) that the merged context still leaves
// blank.
func MissingContextKeys(cfg CallConfig, callContext map[string]string) []string {
	missing := make([]string, 0)
	for key, def := range cfg.ContextDefaults {
		if def != "" {
			continue
		}
		if callContext[key] == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
