// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// chatProvider implements the Provider interface over any OpenAI-compatible
// chat completions endpoint. OpenAI and Mistral both use it.
type chatProvider struct {
	name   string
	model  string
	client openai.Client

	// legacyMaxTokens sends max_tokens instead of max_completion_tokens
	// for endpoints that predate the newer field.
	legacyMaxTokens bool
}

// newOpenAI creates an OpenAI provider.
func newOpenAI(cfg ProviderConfig) *chatProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return newChatProvider("openai", cfg, false)
}

func newChatProvider(name string, cfg ProviderConfig, legacyMaxTokens bool) *chatProvider {
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(&http.Client{Timeout: cfg.timeout()}),
		// Failures go straight back to the caller.
		option.WithMaxRetries(0),
	)
	return &chatProvider{
		name:            name,
		model:           cfg.Model,
		client:          client,
		legacyMaxTokens: legacyMaxTokens,
	}
}

func (p *chatProvider) Name() string { return p.name }

// Complete sends a system message and a single user message. When an image
// is attached it is sent as a data URL part ahead of the text part.
func (p *chatProvider) Complete(ctx context.Context, in *Request) (string, error) {
	var user openai.ChatCompletionMessageParamUnion
	if in.Image != nil {
		user = openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: in.Image.DataURL(),
			}),
			openai.TextContentPart(in.Prompt),
		})
	} else {
		user = openai.UserMessage(in.Prompt)
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if in.System != "" {
		messages = append(messages, openai.SystemMessage(in.System))
	}
	messages = append(messages, user)

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: messages,
	}
	if p.legacyMaxTokens {
		params.MaxTokens = openai.Int(int64(in.maxTokens()))
	} else {
		params.MaxCompletionTokens = openai.Int(int64(in.maxTokens()))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%s API error (status %d): %s", p.name, apiErr.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%s http: %w", p.name, err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return completion.Choices[0].Message.Content, nil
}
