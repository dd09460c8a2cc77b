// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ai sends completion requests to hosted LLM providers (Claude,
// OpenAI, Gemini, Mistral). Each provider implements the Provider interface,
// and the Registry routes every request to the active one by name.
//
// Completions are never cached and never retried here: every call is a fresh
// round-trip and a provider failure is returned to the caller unchanged.
package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrEmptyCompletion is returned when a provider answers successfully
	// but the response carries no textual segment.
	ErrEmptyCompletion = errors.New("ai: completion contained no text")

	// ErrNoProvider is returned when the active provider has no API key.
	ErrNoProvider = errors.New("ai: no provider configured")
)

// DefaultMaxTokens bounds the output of requests that do not set MaxTokens.
const DefaultMaxTokens = 4096

// Image is an inline image attached to a completion request.
type Image struct {
	Data      []byte
	MediaType string // e.g. "image/png"
}

// Base64 returns the standard base64 encoding of the image bytes.
func (img *Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// DataURL returns the image as a data: URL for providers that take URLs.
func (img *Image) DataURL() string {
	return "data:" + img.MediaType + ";base64," + img.Base64()
}

// Request is a single completion call. Prompt is sent as the user turn,
// preceded by Image when one is attached.
type Request struct {
	System string
	Prompt string
	Image  *Image

	// MaxTokens bounds the output length. Zero means DefaultMaxTokens.
	MaxTokens int

	// ThinkingBudget enables extended reasoning with the given token budget
	// on providers that support it. Reasoning output is never returned.
	ThinkingBudget int
}

func (r *Request) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return DefaultMaxTokens
}

// Provider defines the interface that all AI providers must implement.
type Provider interface {
	// Complete sends the request and returns the final textual segment of
	// the response. A response without text yields ErrEmptyCompletion.
	Complete(ctx context.Context, req *Request) (string, error)

	// Name returns the provider identifier (e.g., "claude", "openai").
	Name() string
}

// ProviderConfig holds the credentials and settings for a single provider.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration // HTTP client timeout; zero means defaultTimeout
}

const defaultTimeout = 180 * time.Second

func (c ProviderConfig) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultTimeout
}

// Registry manages available AI providers and selects the active one.
// All methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
	moderator Moderator // nil when no moderation endpoint is configured
}

// NewRegistry creates a registry and initialises providers for every config
// that has a non-empty API key. Providers without keys are skipped.
func NewRegistry(active string, configs map[string]ProviderConfig) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
		active:    active,
	}

	for name, cfg := range configs {
		if cfg.APIKey == "" {
			continue
		}
		switch name {
		case "openai":
			r.providers[name] = newOpenAI(cfg)
		case "gemini":
			r.providers[name] = newGemini(cfg)
		case "claude":
			r.providers[name] = newClaude(cfg)
		case "mistral":
			r.providers[name] = newMistral(cfg)
		}
	}
	return r
}

// Complete calls the active provider. Whitespace-only answers are reported
// as ErrEmptyCompletion regardless of provider.
func (r *Registry) Complete(ctx context.Context, req *Request) (string, error) {
	p, err := r.Active()
	if err != nil {
		return "", err
	}
	text, err := p.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// Active returns the currently active provider.
func (r *Registry) Active() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[r.active]
	if !ok {
		return nil, fmt.Errorf("%w for %q", ErrNoProvider, r.active)
	}
	return p, nil
}

// ActiveName returns the name of the currently active provider.
func (r *Registry) ActiveName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.active
}

// Available returns the sorted names of all configured providers.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a provider in the registry.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// HasProvider checks whether a named provider is configured and available.
func (r *Registry) HasProvider(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.providers[name]
	return ok
}

// Ready reports whether the active provider is configured.
func (r *Registry) Ready() bool {
	return r.HasProvider(r.ActiveName())
}

// SetModerator installs the prompt moderator. A nil moderator disables checks.
func (r *Registry) SetModerator(m Moderator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moderator = m
}

// CheckPrompt runs user text through the moderator. It returns a safe
// result when no moderator is configured.
func (r *Registry) CheckPrompt(ctx context.Context, text string) (*ModerationResult, error) {
	r.mu.RLock()
	m := r.moderator
	r.mu.RUnlock()

	if m == nil || strings.TrimSpace(text) == "" {
		return &ModerationResult{Safe: true}, nil
	}
	return m.CheckSafety(ctx, text)
}
