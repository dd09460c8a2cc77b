// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pipeline runs the ad generation flows: build a prompt, call the
// completion provider, extract and validate the structured answer, then
// optionally tokenize and self-review the result. Every flow is the same
// sequence parameterized by a Flow value; only the prompt differs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"adstudio/internal/ai"
	"adstudio/internal/extract"
	"adstudio/internal/models"
	"adstudio/internal/placeholder"
	"adstudio/internal/prompt"
)

var (
	// ErrInvalidRequest wraps every input validation failure.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnavailable means a collaborator the flow needs is not configured.
	ErrUnavailable = errors.New("service not configured")
)

// Completer is the completion provider as seen by the pipeline.
type Completer interface {
	Complete(ctx context.Context, req *ai.Request) (string, error)
}

// Flow configures one generation flow.
type Flow struct {
	Name           string
	MaxTokens      int
	ThinkingBudget int

	// Tokenize runs a tokenize pass when the primary answer contains no
	// placeholders.
	Tokenize bool

	// ReviewDimensions are scored by the self-review loop. Empty disables it.
	ReviewDimensions []string
}

// The generation flows.
var (
	FlowDescribe = Flow{
		Name:             "describe",
		MaxTokens:        8192,
		Tokenize:         true,
		ReviewDimensions: []string{"hook", "quality", "readability", "clarity"},
	}
	FlowRecreate = Flow{
		Name:             "recreate",
		MaxTokens:        16000,
		ThinkingBudget:   5000,
		Tokenize:         true,
		ReviewDimensions: []string{"layout", "quality", "readability"},
	}
	FlowEdit     = Flow{Name: "edit", MaxTokens: 8192}
	FlowFix      = Flow{Name: "fix", MaxTokens: 8192}
	FlowTokenize = Flow{Name: "tokenize", MaxTokens: 8192}
)

// Stage is where a result ended up in the self-review state machine.
type Stage string

const (
	StagePass1 Stage = "pass1"
	StageFixed Stage = "fixed"
)

// Result is a generated ad with its review outcome.
type Result struct {
	models.GeneratedAd
	Review        *models.ReviewReport `json:"review,omitempty"`
	Stage         Stage                `json:"stage"`
	Tokenized     bool                 `json:"tokenized,omitempty"`
	MissingFields []string             `json:"missingFields,omitempty"`
}

// Options tunes a Pipeline.
type Options struct {
	// ReviewPasses caps self-review round-trips per generation. Zero
	// disables self-review.
	ReviewPasses int
}

// Pipeline runs generation flows against one completion provider.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	llm          Completer
	prompts      *prompt.Builder
	catalog      Catalog
	renderer     Renderer
	reviewPasses int
}

// New creates a Pipeline. catalog and renderer may be nil; the template
// flows then return ErrUnavailable.
func New(llm Completer, prompts *prompt.Builder, catalog Catalog, renderer Renderer, opts Options) *Pipeline {
	return &Pipeline{
		llm:          llm,
		prompts:      prompts,
		catalog:      catalog,
		renderer:     renderer,
		reviewPasses: opts.ReviewPasses,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

const maxDimension = 4096

func validateSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return invalid("ad width and height are required")
	}
	if width > maxDimension || height > maxDimension {
		return invalid("ad size %dx%d exceeds %dpx", width, height, maxDimension)
	}
	return nil
}

// complete runs one completion round-trip.
func (p *Pipeline) complete(ctx context.Context, flow Flow, userPrompt string, img *models.ReferenceImage) (string, error) {
	req := &ai.Request{
		System:         p.prompts.System(),
		Prompt:         userPrompt,
		MaxTokens:      flow.MaxTokens,
		ThinkingBudget: flow.ThinkingBudget,
	}
	if img != nil {
		req.Image = &ai.Image{Data: img.Data, MediaType: img.MediaType}
	}
	text, err := p.llm.Complete(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", flow.Name, err)
	}
	return text, nil
}

// generate runs the primary pass and decodes a GeneratedAd.
func (p *Pipeline) generate(ctx context.Context, flow Flow, userPrompt string, img *models.ReferenceImage) (models.GeneratedAd, error) {
	text, err := p.complete(ctx, flow, userPrompt, img)
	if err != nil {
		return models.GeneratedAd{}, err
	}
	var ad models.GeneratedAd
	if _, err := extract.Into(text, extract.GenerationResult, &ad); err != nil {
		return models.GeneratedAd{}, fmt.Errorf("%s response: %w", flow.Name, err)
	}
	if ad.Fields == nil {
		ad.Fields = models.Fields{}
	}
	return ad, nil
}

// finish applies the optional tokenize and self-review passes.
func (p *Pipeline) finish(ctx context.Context, flow Flow, ad models.GeneratedAd, width, height int, channel string) *Result {
	res := &Result{Stage: StagePass1}

	if flow.Tokenize && len(placeholder.Tokens(ad.HTML)) == 0 && strings.TrimSpace(ad.HTML) != "" {
		tokenized, err := p.generate(ctx, FlowTokenize, p.prompts.Tokenize(ad.HTML), nil)
		if err != nil {
			slog.Warn("tokenize pass failed, keeping literal markup", "flow", flow.Name, "error", err)
		} else {
			tokenized.Colors = tokenized.Colors.Merge(ad.Colors)
			ad = tokenized
			res.Tokenized = true
		}
	}

	if len(flow.ReviewDimensions) > 0 {
		out := p.SelfReview(ctx, ad, flow.ReviewDimensions, width, height, channel)
		ad, res.Review, res.Stage = out.Ad, out.Report, out.Stage
	}

	res.MissingFields = placeholder.Fill(ad.HTML, ad.Fields)
	if len(res.MissingFields) > 0 {
		slog.Warn("generated markup references fields without values",
			"flow", flow.Name, "missing", res.MissingFields)
	}
	res.GeneratedAd = ad
	return res
}

// Generate creates an ad from a text description.
func (p *Pipeline) Generate(ctx context.Context, req models.GenerationRequest) (*Result, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, invalid("description is required")
	}
	if err := validateSize(req.Width, req.Height); err != nil {
		return nil, err
	}
	ad, err := p.generate(ctx, FlowDescribe, p.prompts.Describe(req), nil)
	if err != nil {
		return nil, err
	}
	return p.finish(ctx, FlowDescribe, ad, req.Width, req.Height, req.Channel), nil
}

// Recreate rebuilds an uploaded reference ad with the brand's identity.
func (p *Pipeline) Recreate(ctx context.Context, req models.GenerationRequest) (*Result, error) {
	if req.Image == nil || len(req.Image.Data) == 0 {
		return nil, invalid("reference image is required")
	}
	if err := validateSize(req.Width, req.Height); err != nil {
		return nil, err
	}
	ad, err := p.generate(ctx, FlowRecreate, p.prompts.Recreate(req), req.Image)
	if err != nil {
		return nil, err
	}
	return p.finish(ctx, FlowRecreate, ad, req.Width, req.Height, req.Channel), nil
}

// EditRequest applies a free-text instruction to an existing ad.
type EditRequest struct {
	Ad          models.GeneratedAd
	Instruction string
	Width       int
	Height      int
}

// Edit applies a user instruction to an ad.
func (p *Pipeline) Edit(ctx context.Context, req EditRequest) (*Result, error) {
	if strings.TrimSpace(req.Ad.HTML) == "" {
		return nil, invalid("current html is required")
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return nil, invalid("instruction is required")
	}
	if err := validateSize(req.Width, req.Height); err != nil {
		return nil, err
	}
	ad, err := p.generate(ctx, FlowEdit, p.prompts.Edit(req.Ad, req.Instruction, req.Width, req.Height), nil)
	if err != nil {
		return nil, err
	}
	ad.Colors = ad.Colors.Merge(req.Ad.Colors)
	return p.finish(ctx, FlowEdit, ad, req.Width, req.Height, ""), nil
}

// FixRequest applies selected review improvements to an ad.
type FixRequest struct {
	Ad           models.GeneratedAd
	Improvements []models.Improvement
	Notes        string
	Width        int
	Height       int
}

// Fix applies review improvements in a new completion pass.
func (p *Pipeline) Fix(ctx context.Context, req FixRequest) (*Result, error) {
	if strings.TrimSpace(req.Ad.HTML) == "" {
		return nil, invalid("current html is required")
	}
	if len(req.Improvements) == 0 {
		return nil, invalid("at least one improvement is required")
	}
	if err := validateSize(req.Width, req.Height); err != nil {
		return nil, err
	}
	ad, err := p.generate(ctx, FlowFix, p.prompts.Fix(req.Ad, req.Improvements, req.Notes, req.Width, req.Height), nil)
	if err != nil {
		return nil, err
	}
	ad.Colors = ad.Colors.Merge(req.Ad.Colors)
	res := p.finish(ctx, FlowFix, ad, req.Width, req.Height, "")
	res.Stage = StageFixed
	return res, nil
}

// Tokenize converts literal markup into placeholders plus field values.
func (p *Pipeline) Tokenize(ctx context.Context, markup string) (*Result, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, invalid("html is required")
	}
	ad, err := p.generate(ctx, FlowTokenize, p.prompts.Tokenize(markup), nil)
	if err != nil {
		return nil, err
	}
	res := p.finish(ctx, FlowTokenize, ad, 0, 0, "")
	res.Tokenized = true
	return res, nil
}

// CopyRequest asks for ad copy variations.
type CopyRequest struct {
	Flavor  string
	SKU     string
	Channel string
	Tone    string
	Notes   string
	Count   int

	// Reference is the analysis of a reference ad; its style notes steer
	// the copy.
	Reference *models.Analysis
}

// Copy generates ad copy variations.
func (p *Pipeline) Copy(ctx context.Context, req CopyRequest) (*models.CopySet, error) {
	if req.Count <= 0 {
		req.Count = 3
	}
	if req.Count > 10 {
		return nil, invalid("at most 10 variations can be requested")
	}
	flow := Flow{Name: "copy", MaxTokens: 2048}
	text, err := p.complete(ctx, flow, p.prompts.Copy(prompt.CopyBrief{
		Flavor:    req.Flavor,
		SKU:       req.SKU,
		Channel:   req.Channel,
		Tone:      req.Tone,
		Notes:     req.Notes,
		Count:     req.Count,
		Reference: req.Reference,
	}), nil)
	if err != nil {
		return nil, err
	}
	var set models.CopySet
	if _, err := extract.Into(text, extract.CopyResult, &set); err != nil {
		return nil, fmt.Errorf("copy response: %w", err)
	}
	return &set, nil
}

// Analyze describes the structure of a reference ad.
func (p *Pipeline) Analyze(ctx context.Context, img *models.ReferenceImage) (*models.Analysis, error) {
	if img == nil || len(img.Data) == 0 {
		return nil, invalid("reference image is required")
	}
	flow := Flow{Name: "analyze", MaxTokens: 2048}
	text, err := p.complete(ctx, flow, p.prompts.Analyze(), img)
	if err != nil {
		return nil, err
	}
	var a models.Analysis
	if _, err := extract.Into(text, extract.AnalysisResult, &a); err != nil {
		return nil, fmt.Errorf("analyze response: %w", err)
	}
	return &a, nil
}
