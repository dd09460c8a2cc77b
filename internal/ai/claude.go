// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const claudeDefaultModel = "claude-sonnet-4-5"

// claudeProvider implements the Provider interface using the Anthropic
// Messages API (POST /v1/messages). A reasoning budget turns on extended
// thinking; Gemini honours the budget as well, the OpenAI-compatible
// providers ignore it.
type claudeProvider struct {
	config ProviderConfig
	client *http.Client
}

// newClaude creates a new Anthropic Claude provider.
func newClaude(cfg ProviderConfig) *claudeProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Model == "" {
		cfg.Model = claudeDefaultModel
	}
	return &claudeProvider{
		config: cfg,
		client: &http.Client{Timeout: cfg.timeout()},
	}
}

func (p *claudeProvider) Name() string { return "claude" }

// Complete sends one user turn, image first, and returns the last text
// block of the answer. Thinking blocks are skipped.
func (p *claudeProvider) Complete(ctx context.Context, in *Request) (string, error) {
	var content []claudeBlock
	if in.Image != nil {
		content = append(content, claudeBlock{
			Type: "image",
			Source: &claudeImageSource{
				Type:      "base64",
				MediaType: in.Image.MediaType,
				Data:      in.Image.Base64(),
			},
		})
	}
	content = append(content, claudeBlock{Type: "text", Text: in.Prompt})

	body := claudeRequest{
		Model:     p.config.Model,
		MaxTokens: in.maxTokens(),
		System:    in.System,
		Messages:  []claudeMessage{{Role: "user", Content: content}},
	}
	if in.ThinkingBudget > 0 {
		body.Thinking = &claudeThinking{Type: "enabled", BudgetTokens: in.ThinkingBudget}
		// max_tokens must exceed the thinking budget.
		if body.MaxTokens <= in.ThinkingBudget {
			body.MaxTokens = in.ThinkingBudget + DefaultMaxTokens
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("claude marshal: %w", err)
	}

	url := p.config.BaseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("claude request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("claude http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("claude read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claude API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result claudeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("claude unmarshal: %w", err)
	}

	text, found := "", false
	for _, block := range result.Content {
		if block.Type == "text" {
			text, found = block.Text, true
		}
	}
	if !found {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// --- Anthropic Messages API types ---

type claudeImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type claudeBlock struct {
	Type   string             `json:"type"`
	Text   string             `json:"text,omitempty"`
	Source *claudeImageSource `json:"source,omitempty"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeThinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Thinking  *claudeThinking `json:"thinking,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}

type claudeResponse struct {
	Content    []claudeContentBlock `json:"content"`
	StopReason string               `json:"stop_reason,omitempty"`
}
