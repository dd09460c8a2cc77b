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
	"sort"
	"strings"
	"time"
)

// ModerationResult contains the outcome of a prompt safety check.
type ModerationResult struct {
	Safe       bool     // true if the text passes moderation
	Categories []string // flagged category names, sorted (empty when safe)
}

// Moderator checks user-supplied text for policy violations before it is
// forwarded to a completion provider.
type Moderator interface {
	CheckSafety(ctx context.Context, text string) (*ModerationResult, error)
}

// NewModerator builds a moderator from the provider configs. OpenAI's free
// endpoint is preferred; Mistral is used when OpenAI is missing or rejects
// the key. Returns nil when neither key is set.
func NewModerator(configs map[string]ProviderConfig) Moderator {
	var chain []Moderator
	if cfg, ok := configs["openai"]; ok && cfg.APIKey != "" {
		base := cfg.BaseURL
		if base == "" {
			base = "https://api.openai.com/v1"
		}
		chain = append(chain, newHTTPModerator(cfg.APIKey, base, "omni-moderation-latest"))
	}
	if cfg, ok := configs["mistral"]; ok && cfg.APIKey != "" {
		base := cfg.BaseURL
		if base == "" {
			base = "https://api.mistral.ai/v1"
		}
		chain = append(chain, newHTTPModerator(cfg.APIKey, base, "mistral-moderation-latest"))
	}

	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	default:
		return fallbackModerator(chain)
	}
}

// httpModerator calls an OpenAI-compatible POST {base}/moderations endpoint.
// Mistral omits the top-level flagged field, so any true category counts.
type httpModerator struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func newHTTPModerator(apiKey, baseURL, model string) *httpModerator {
	return &httpModerator{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (m *httpModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	payload, err := json.Marshal(moderationRequest{Model: m.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("moderation marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/moderations", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("moderation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("moderation read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &moderationStatusError{status: resp.StatusCode, body: string(body)}
	}

	var result moderationResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("moderation unmarshal: %w", err)
	}

	var flagged []string
	for _, r := range result.Results {
		for cat, hit := range r.Categories {
			if hit {
				flagged = append(flagged, strings.ReplaceAll(cat, "_", " "))
			}
		}
	}
	if len(flagged) == 0 {
		return &ModerationResult{Safe: true}, nil
	}
	sort.Strings(flagged)
	return &ModerationResult{Safe: false, Categories: flagged}, nil
}

type moderationStatusError struct {
	status int
	body   string
}

func (e *moderationStatusError) Error() string {
	return fmt.Sprintf("moderation API error (status %d): %s", e.status, e.body)
}

// fallbackModerator tries each moderator in order and moves on only when
// one fails to answer. A verdict from any moderator is final.
type fallbackModerator []Moderator

func (f fallbackModerator) CheckSafety(ctx context.Context, text string) (*ModerationResult, error) {
	var lastErr error
	for _, m := range f {
		res, err := m.CheckSafety(ctx, text)
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

type moderationRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}
