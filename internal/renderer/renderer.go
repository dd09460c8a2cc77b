// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package renderer is a client for the external template rendering
// service. Renders are submitted by template id or by tags and polled until
// every render has either succeeded or failed.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL      = "https://api.creatomate.com/v1"
	DefaultPollInterval = 2 * time.Second
	DefaultPollAttempts = 60
)

var (
	// ErrRenderFailed means the service reported a failed render.
	ErrRenderFailed = errors.New("render failed")

	// ErrNoRenders means the service accepted the job but produced nothing.
	ErrNoRenders = errors.New("renderer returned no renders")

	errStillRendering = errors.New("render still in progress")
)

// Render statuses reported by the service.
const (
	StatusPlanned   = "planned"
	StatusRendering = "rendering"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Config configures a Client.
type Config struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	PollInterval time.Duration
	PollAttempts int
}

// Client talks to the rendering service.
type Client struct {
	http         *resty.Client
	pollInterval time.Duration
	pollAttempts uint
}

// New creates a Client. It returns nil when no API key is configured so
// callers can treat rendering as an optional capability.
func New(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = DefaultPollAttempts
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:         client,
		pollInterval: cfg.PollInterval,
		pollAttempts: uint(cfg.PollAttempts),
	}
}

// Job is one render request. Exactly one of TemplateID or Tags is set.
type Job struct {
	TemplateID    string         `json:"template_id,omitempty"`
	Tags          []string       `json:"tags,omitempty"`
	Modifications map[string]any `json:"modifications"`
	OutputFormat  string         `json:"output_format"`
	RenderScale   float64        `json:"render_scale,omitempty"`
	MaxWidth      int            `json:"max_width,omitempty"`
	MaxHeight     int            `json:"max_height,omitempty"`
}

// Render is one output of a job.
type Render struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	URL          string `json:"url"`
	SnapshotURL  string `json:"snapshot_url,omitempty"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	TemplateID   string `json:"template_id,omitempty"`
	TemplateName string `json:"template_name,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func (r *Render) done() bool {
	return r.Status == StatusSucceeded || r.Status == StatusFailed
}

// Template is a template as listed by the service.
type Template struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
	Width       int      `json:"width,omitempty"`
	Height      int      `json:"height,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	SnapshotURL string   `json:"snapshot_url,omitempty"`
	Source      any      `json:"source,omitempty"`
}

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("renderer API error (status %d): %s", e.StatusCode, e.Body)
}

func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return &APIError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
}

// Render submits job and waits for all of its renders to finish. A job by
// tags may legitimately match no template, in which case the result is
// empty and no error is returned.
func (c *Client) Render(ctx context.Context, job Job) ([]Render, error) {
	if job.TemplateID == "" && len(job.Tags) == 0 {
		return nil, errors.New("render job needs a template id or tags")
	}
	if job.OutputFormat == "" {
		job.OutputFormat = "png"
	}
	if job.Modifications == nil {
		job.Modifications = map[string]any{}
	}

	var submitted []Render
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(job).
		SetResult(&submitted).
		Post("/renders")
	if err != nil {
		return nil, fmt.Errorf("submitting render: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	if len(submitted) == 0 {
		if job.TemplateID != "" {
			return nil, ErrNoRenders
		}
		return nil, nil
	}

	renders := make([]Render, len(submitted))
	for i, r := range submitted {
		final, err := c.wait(ctx, r)
		if err != nil {
			return nil, err
		}
		renders[i] = *final
	}

	for _, r := range renders {
		if r.Status == StatusFailed {
			return renders, fmt.Errorf("%w: render %s: %s", ErrRenderFailed, r.ID, r.ErrorMessage)
		}
	}
	return renders, nil
}

// wait polls a render until it reaches a terminal status.
func (c *Client) wait(ctx context.Context, r Render) (*Render, error) {
	if r.done() {
		return &r, nil
	}

	current := r
	err := retry.Do(
		func() error {
			next, err := c.Get(ctx, r.ID)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
					return retry.Unrecoverable(err)
				}
				return err
			}
			current = *next
			if !current.done() {
				return errStillRendering
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.pollAttempts),
		retry.Delay(c.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if errors.Is(err, errStillRendering) {
			return nil, fmt.Errorf("render %s did not finish after %d polls", r.ID, c.pollAttempts)
		}
		return nil, fmt.Errorf("polling render %s: %w", r.ID, err)
	}
	return &current, nil
}

// Get fetches the current state of a render.
func (c *Client) Get(ctx context.Context, id string) (*Render, error) {
	var r Render
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&r).
		Get("/renders/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetching render: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListTemplates returns every template in the account.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var templates []Template
	err := retry.Do(
		func() error {
			resp, err := c.http.R().
				SetContext(ctx).
				SetResult(&templates).
				Get("/templates")
			if err != nil {
				return err
			}
			if err := checkResponse(resp); err != nil {
				if resp.StatusCode() < http.StatusInternalServerError {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	return templates, nil
}
