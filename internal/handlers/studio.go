// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"adstudio/internal/ai"
	"adstudio/internal/models"
	"adstudio/internal/pipeline"
)

// LLM is the completion provider as seen by the handlers: readiness and
// prompt moderation. The pipeline does the completions.
type LLM interface {
	Ready() bool
	CheckPrompt(ctx context.Context, text string) (*ai.ModerationResult, error)
}

// AssetLookup resolves brand asset references.
type AssetLookup interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.BrandAsset, error)
}

// Studio groups the ad generation endpoints.
type Studio struct {
	pipeline *pipeline.Pipeline
	llm      LLM
	assets   AssetLookup
}

// NewStudio creates the studio handler group. assets may be nil, in which
// case asset references are ignored.
func NewStudio(p *pipeline.Pipeline, llm LLM, assets AssetLookup) *Studio {
	return &Studio{pipeline: p, llm: llm, assets: assets}
}

// ready writes a 503 and returns false when no completion provider is
// configured.
func (s *Studio) ready(w http.ResponseWriter) bool {
	if !s.llm.Ready() {
		writeError(w, http.StatusServiceUnavailable, "No AI provider is configured.")
		return false
	}
	return true
}

// checkPromptSafety runs user text through moderation. Returns true if the
// text is safe or no moderator is available. Flagged text gets a 400.
func (s *Studio) checkPromptSafety(w http.ResponseWriter, r *http.Request, texts ...string) bool {
	text := strings.TrimSpace(strings.Join(texts, "\n"))
	result, err := s.llm.CheckPrompt(r.Context(), text)
	if err != nil {
		slog.Warn("moderation check failed, allowing prompt", "error", err)
		return true
	}
	if result.Safe {
		return true
	}

	categories := strings.Join(result.Categories, ", ")
	slog.Warn("prompt flagged by moderation", "categories", categories)
	writeError(w, http.StatusBadRequest, fmt.Sprintf(
		"Your request was flagged for: %s. Please reformulate it and try again.", categories))
	return false
}

// assetRefs resolves asset ids into prompt references. Unknown and inactive
// ids are dropped.
func (s *Studio) assetRefs(ctx context.Context, ids []uuid.UUID) ([]models.AssetRef, error) {
	if s.assets == nil || len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > maxAssetRefs {
		return nil, fmt.Errorf("%w: at most %d assets can be referenced", pipeline.ErrInvalidRequest, maxAssetRefs)
	}
	found, err := s.assets.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	refs := make([]models.AssetRef, 0, len(found))
	for i := range found {
		if found[i].IsActive {
			refs = append(refs, found[i].Ref())
		}
	}
	return refs, nil
}

// briefInput is the common body of the generation endpoints.
type briefInput struct {
	sizeInput
	Description string      `json:"description"`
	Flavor      string      `json:"flavor"`
	Channel     string      `json:"channel"`
	Notes       string      `json:"userNotes"`
	AssetIDs    []uuid.UUID `json:"assetIds"`
}

// request validates b and converts it into a pipeline request. It writes
// the error response itself and returns false on failure.
func (s *Studio) request(w http.ResponseWriter, r *http.Request, b briefInput) (models.GenerationRequest, bool) {
	if msg := validateBrief(b.Description, b.Notes); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return models.GenerationRequest{}, false
	}
	if !s.checkPromptSafety(w, r, b.Description, b.Notes) {
		return models.GenerationRequest{}, false
	}
	refs, err := s.assetRefs(r.Context(), b.AssetIDs)
	if err != nil {
		writeFailure(w, "asset refs", err)
		return models.GenerationRequest{}, false
	}
	width, height := b.resolve()
	return models.GenerationRequest{
		Description: strings.TrimSpace(b.Description),
		Width:       width,
		Height:      height,
		Flavor:      strings.TrimSpace(b.Flavor),
		Channel:     strings.TrimSpace(b.Channel),
		Notes:       strings.TrimSpace(b.Notes),
		Assets:      refs,
	}, true
}

// GenerateAd produces ad markup from a text description.
func (s *Studio) GenerateAd(w http.ResponseWriter, r *http.Request) {
	var in briefInput
	if !decodeJSON(w, r, &in) || !s.ready(w) {
		return
	}
	if strings.TrimSpace(in.Description) == "" {
		writeError(w, http.StatusBadRequest, "No description provided.")
		return
	}
	req, ok := s.request(w, r, in)
	if !ok {
		return
	}

	res, err := s.pipeline.Generate(r.Context(), req)
	if err != nil {
		writeFailure(w, "generate ad", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Recreate reproduces a reference ad image as editable markup.
func (s *Studio) Recreate(w http.ResponseWriter, r *http.Request) {
	var in struct {
		briefInput
		imageInput
	}
	if !decodeJSON(w, r, &in) || !s.ready(w) {
		return
	}
	img, err := in.decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req, ok := s.request(w, r, in.briefInput)
	if !ok {
		return
	}
	req.Image = img

	res, err := s.pipeline.Recreate(r.Context(), req)
	if err != nil {
		writeFailure(w, "recreate ad", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EditAd applies a free-text instruction to the current ad.
func (s *Studio) EditAd(w http.ResponseWriter, r *http.Request) {
	var in struct {
		adInput
		sizeInput
		Instruction string `json:"instruction"`
	}
	if !decodeJSON(w, r, &in) || !s.ready(w) {
		return
	}
	if strings.TrimSpace(in.HTML) == "" || strings.TrimSpace(in.Instruction) == "" {
		writeError(w, http.StatusBadRequest, "Current HTML and an instruction are required.")
		return
	}
	if msg := checkLen("Instruction", in.Instruction, maxInstructionLen); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !s.checkPromptSafety(w, r, in.Instruction) {
		return
	}

	width, height := in.resolve()
	res, err := s.pipeline.Edit(r.Context(), pipeline.EditRequest{
		Ad:          in.ad(),
		Instruction: strings.TrimSpace(in.Instruction),
		Width:       width,
		Height:      height,
	})
	if err != nil {
		writeFailure(w, "edit ad", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Tokenize rewrites literal markup into placeholders and field values.
func (s *Studio) Tokenize(w http.ResponseWriter, r *http.Request) {
	var in struct {
		HTML string `json:"html"`
	}
	if !decodeJSON(w, r, &in) || !s.ready(w) {
		return
	}
	if strings.TrimSpace(in.HTML) == "" {
		writeError(w, http.StatusBadRequest, "No HTML provided.")
		return
	}
	if msg := checkLen("HTML", in.HTML, maxHTMLLen); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := s.pipeline.Tokenize(r.Context(), in.HTML)
	if err != nil {
		writeFailure(w, "tokenize", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ReviewAd scores an ad without changing it.
func (s *Studio) ReviewAd(w http.ResponseWriter, r *http.Request) {
	var in struct {
		sizeInput
		HTML       string        `json:"adHtml"`
		Fields     models.Fields `json:"fields"`
		Channel    string        `json:"channel"`
		Dimensions []string      `json:"dimensions"`
	}
	if !decodeJSON(w, r, &in) || !s.ready(w) {
		return
	}
	if strings.TrimSpace(in.HTML) == "" {
		writeError(w, http.StatusBadRequest, "No ad HTML provided.")
		return
	}

	width, height := in.resolve()
	report, err := s.pipeline.Review(r.Context(), pipeline.ReviewRequest{
		Ad:         models.GeneratedAd{HTML: in.HTML, Fields: in.Fields},
		Width:      width,
		Height:     height,
		Channel:    strings.TrimSpace(in.Channel),
		Dimensions: in.Dimensions,
	})
	if err != nil {
		writeFailure(w, "review ad", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// FixAd applies selected review improvements.
func (s *Studio) FixAd(w http.ResponseWriter, r *http.Request) {
	var in struct {
		adInput
		sizeInput
		Improvements []models.Improvement `json:"improvements"`
		Notes        string               `json:"userNotes"`
	}
	if !decodeJSON(w, r, &in) || !s.ready(w) {
		return
	}
	if strings.TrimSpace(in.HTML) == "" {
		writeError(w, http.StatusBadRequest, "No ad HTML provided.")
		return
	}
	if len(in.Improvements) == 0 {
		writeError(w, http.StatusBadRequest, "Select at least one improvement.")
		return
	}
	if msg := checkLen("Notes", in.Notes, maxNotesLen); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !s.checkPromptSafety(w, r, in.Notes) {
		return
	}

	width, height := in.resolve()
	res, err := s.pipeline.Fix(r.Context(), pipeline.FixRequest{
		Ad:           in.ad(),
		Improvements: in.Improvements,
		Notes:        strings.TrimSpace(in.Notes),
		Width:        width,
		Height:       height,
	})
	if err != nil {
		writeFailure(w, "fix ad", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GenerateCopy writes ad copy variations for a flavor and channel.
func (s *Studio) GenerateCopy(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Flavor    string           `json:"flavor"`
		SKU       string           `json:"sku"`
		Channel   string           `json:"channel"`
		Tone      string           `json:"tone"`
		Prompt    string           `json:"userPrompt"`
		Count     int              `json:"count"`
		Reference *models.Analysis `json:"referenceAnalysis"`
	}
	if !decodeJSON(w, r, &in) || !s.ready(w) {
		return
	}
	if msg := checkLen("Prompt", in.Prompt, maxNotesLen); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if msg := checkLen("Tone", in.Tone, maxToneLen); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !s.checkPromptSafety(w, r, in.Prompt, in.Tone) {
		return
	}

	set, err := s.pipeline.Copy(r.Context(), pipeline.CopyRequest{
		Flavor:    strings.TrimSpace(in.Flavor),
		SKU:       strings.TrimSpace(in.SKU),
		Channel:   strings.TrimSpace(in.Channel),
		Tone:      strings.TrimSpace(in.Tone),
		Notes:     strings.TrimSpace(in.Prompt),
		Count:     in.Count,
		Reference: in.Reference,
	})
	if err != nil {
		writeFailure(w, "generate copy", err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// Analyze describes the layout and style of a reference ad.
func (s *Studio) Analyze(w http.ResponseWriter, r *http.Request) {
	var in imageInput
	if !decodeJSON(w, r, &in) || !s.ready(w) {
		return
	}
	img, err := in.decode()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysis, err := s.pipeline.Analyze(r.Context(), img)
	if err != nil {
		writeFailure(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analysis": analysis})
}
