// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"adstudio/internal/extract"
	"adstudio/internal/models"
	"adstudio/internal/renderer"
)

var (
	// ErrNoTemplates means the catalog has no active templates at all.
	ErrNoTemplates = errors.New("no templates available, run a template sync first")

	// ErrUnknownTemplate means the model chose an id outside the candidates.
	ErrUnknownTemplate = errors.New("model chose nonexistent template")
)

// Catalog lists active render templates.
type Catalog interface {
	ListTemplates(ctx context.Context, filter models.TemplateFilter) ([]models.RenderTemplate, error)
}

// Renderer renders a template with modifications.
type Renderer interface {
	Render(ctx context.Context, job renderer.Job) ([]renderer.Render, error)
}

// Selection is the model's template choice with complete modifications.
type Selection struct {
	Template      models.RenderTemplate
	Modifications map[string]any
	Reasoning     string
}

// TemplateResult is a rendered template selection.
type TemplateResult struct {
	RenderURL      string                          `json:"renderUrl"`
	SnapshotURL    string                          `json:"snapshotUrl,omitempty"`
	TemplateID     string                          `json:"templateId"`
	TemplateName   string                          `json:"templateName"`
	Modifications  map[string]any                  `json:"modifications"`
	EditableFields map[string]models.EditableField `json:"editableFields"`
	Width          int                             `json:"width"`
	Height         int                             `json:"height"`
	Reasoning      string                          `json:"reasoning,omitempty"`
}

type templateChoice struct {
	TemplateID    string         `json:"templateId"`
	TemplateName  string         `json:"templateName"`
	Reasoning     string         `json:"reasoning"`
	Modifications map[string]any `json:"modifications"`
}

// candidates returns templates matching the requested size, or every
// active template when none match.
func (p *Pipeline) candidates(ctx context.Context, width, height int) ([]models.RenderTemplate, error) {
	list, err := p.catalog.ListTemplates(ctx, models.TemplateFilter{Width: width, Height: height})
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	if len(list) == 0 && (width > 0 || height > 0) {
		list, err = p.catalog.ListTemplates(ctx, models.TemplateFilter{})
		if err != nil {
			return nil, fmt.Errorf("listing templates: %w", err)
		}
	}
	if len(list) == 0 {
		return nil, ErrNoTemplates
	}
	return list, nil
}

// SelectTemplate asks the model to pick a catalog template and fill its
// fields. The choice must be one of the templates offered.
func (p *Pipeline) SelectTemplate(ctx context.Context, req models.GenerationRequest) (*Selection, error) {
	if p.catalog == nil {
		return nil, fmt.Errorf("template catalog: %w", ErrUnavailable)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, invalid("description is required")
	}

	list, err := p.candidates(ctx, req.Width, req.Height)
	if err != nil {
		return nil, err
	}

	flow := Flow{Name: "select-template", MaxTokens: 4096}
	text, err := p.complete(ctx, flow, p.prompts.SelectTemplate(req, list), nil)
	if err != nil {
		return nil, err
	}
	var choice templateChoice
	if _, err := extract.Into(text, extract.TemplateSelection, &choice); err != nil {
		return nil, fmt.Errorf("template selection response: %w", err)
	}

	var chosen *models.RenderTemplate
	for i := range list {
		if list[i].ExternalID == choice.TemplateID {
			chosen = &list[i]
			break
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, choice.TemplateID)
	}

	return &Selection{
		Template:      *chosen,
		Modifications: completeModifications(*chosen, choice.Modifications),
		Reasoning:     choice.Reasoning,
	}, nil
}

// completeModifications gives every declared field a value: the model's,
// else the field default, else nil. Values for undeclared names are kept.
func completeModifications(t models.RenderTemplate, mods map[string]any) map[string]any {
	out := make(map[string]any, len(t.EditableFields)+len(mods))
	for k, v := range mods {
		out[k] = v
	}
	for name, field := range t.EditableFields {
		if _, ok := out[name]; ok {
			continue
		}
		out[name] = field.Default
	}
	return out
}

// RenderModifications maps field values to renderer modification keys.
// Fields that set a property other than the element's main value are sent
// as "name.property".
func RenderModifications(t models.RenderTemplate, mods map[string]any) map[string]any {
	out := make(map[string]any, len(mods))
	for name, v := range mods {
		if f, ok := t.EditableFields[name]; ok && f.Property != "" {
			out[name+"."+f.Property] = v
			continue
		}
		out[name] = v
	}
	return out
}

// GenerateFromTemplate selects a template and renders it.
func (p *Pipeline) GenerateFromTemplate(ctx context.Context, req models.GenerationRequest) (*TemplateResult, error) {
	if p.renderer == nil {
		return nil, fmt.Errorf("renderer: %w", ErrUnavailable)
	}
	sel, err := p.SelectTemplate(ctx, req)
	if err != nil {
		return nil, err
	}

	renders, err := p.renderer.Render(ctx, renderer.Job{
		TemplateID:    sel.Template.ExternalID,
		Modifications: RenderModifications(sel.Template, sel.Modifications),
		OutputFormat:  "png",
	})
	if err != nil {
		return nil, fmt.Errorf("rendering template %s: %w", sel.Template.ExternalID, err)
	}
	if len(renders) == 0 {
		return nil, renderer.ErrNoRenders
	}

	r := renders[0]
	res := &TemplateResult{
		RenderURL:      r.URL,
		SnapshotURL:    r.SnapshotURL,
		TemplateID:     sel.Template.ExternalID,
		TemplateName:   sel.Template.Name,
		Modifications:  sel.Modifications,
		EditableFields: sel.Template.EditableFields,
		Width:          r.Width,
		Height:         r.Height,
		Reasoning:      sel.Reasoning,
	}
	if res.Width == 0 {
		res.Width = sel.Template.Width
	}
	if res.Height == 0 {
		res.Height = sel.Template.Height
	}
	return res, nil
}
