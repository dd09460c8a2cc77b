// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

// newMistral creates a Mistral provider. The Mistral chat API is
// OpenAI-compatible apart from the max_tokens field name. Vision input
// requires a Pixtral model.
func newMistral(cfg ProviderConfig) *chatProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "pixtral-large-latest"
	}
	return newChatProvider("mistral", cfg, true)
}
