// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"adstudio/internal/ai"
	"adstudio/internal/brand"
	"adstudio/internal/extract"
	"adstudio/internal/models"
	"adstudio/internal/placeholder"
	"adstudio/internal/prompt"
	"adstudio/internal/renderer"
)

// scriptedLLM returns its responses in order. An error entry is returned
// as the call's error.
type scriptedLLM struct {
	mu        sync.Mutex
	responses []any
	requests  []*ai.Request
}

func (s *scriptedLLM) Complete(_ context.Context, req *ai.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if len(s.responses) == 0 {
		return "", errors.New("unexpected completion call")
	}
	next := s.responses[0]
	s.responses = s.responses[1:]
	if err, ok := next.(error); ok {
		return "", err
	}
	return next.(string), nil
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func newTestPipeline(t *testing.T, llm Completer, passes int, catalog Catalog, r Renderer) *Pipeline {
	t.Helper()
	b, err := brand.Default()
	if err != nil {
		t.Fatalf("brand.Default: %v", err)
	}
	return New(llm, prompt.New(b), catalog, r, Options{ReviewPasses: passes})
}

const pass1 = `Here you go:
` + "```json" + `
{"html": "<div><h1>{{headline}}</h1><a>{{cta}}</a></div>", "fields": {"headline": "20% off", "cta": "Shop Now"}, "backgroundColor": "#fff", "textColor": "#111", "accentColor": "#f0615a"}
` + "```"

func TestGenerate_EveryPlaceholderHasAField(t *testing.T) {
	llm := &scriptedLLM{responses: []any{
		pass1,
		`{"fixed": false, "score": 8}`,
	}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	res, err := p.Generate(context.Background(), models.GenerationRequest{
		Description: "bold promo, 20% off", Width: 1080, Height: 1080,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.HTML == "" || len(res.Fields) == 0 {
		t.Fatalf("empty result: %+v", res)
	}
	if missing := placeholder.Missing(res.HTML, res.Fields); len(missing) != 0 {
		t.Errorf("placeholders without fields: %v", missing)
	}
	if res.Stage != StagePass1 {
		t.Errorf("Stage: got %q", res.Stage)
	}
	if llm.calls() != 2 {
		t.Errorf("calls: got %d, want 2", llm.calls())
	}
	if got := llm.requests[0].MaxTokens; got != FlowDescribe.MaxTokens {
		t.Errorf("MaxTokens: got %d", got)
	}
}

func TestGenerate_FillsFieldsTheModelForgot(t *testing.T) {
	llm := &scriptedLLM{responses: []any{
		`{"html": "<h1>{{headline}}</h1><p>{{subhead}}</p>", "fields": {"headline": "Hi"}}`,
	}}
	p := newTestPipeline(t, llm, 0, nil, nil)

	res, err := p.Generate(context.Background(), models.GenerationRequest{Description: "x", Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if v, ok := res.Fields["subhead"]; !ok || v != "" {
		t.Errorf("subhead should be filled with an empty value, got %q, %v", v, ok)
	}
	if len(res.MissingFields) != 1 || res.MissingFields[0] != "subhead" {
		t.Errorf("MissingFields: %v", res.MissingFields)
	}
}

func TestSelfReview_NotFixedLeavesAdUnchanged(t *testing.T) {
	llm := &scriptedLLM{responses: []any{`{"fixed": false}`}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	ad := models.GeneratedAd{
		HTML:   "<h1>{{headline}}</h1>",
		Fields: models.Fields{"headline": "Hi"},
		Colors: models.Colors{Background: "#fff", Text: "#000", Accent: "#f00"},
	}
	out := p.SelfReview(context.Background(), ad, FlowRecreate.ReviewDimensions, 1080, 1080, "")

	if out.Stage != StagePass1 {
		t.Errorf("Stage: got %q", out.Stage)
	}
	if out.Ad.HTML != ad.HTML || out.Ad.Fields["headline"] != "Hi" || out.Ad.Colors != ad.Colors {
		t.Errorf("ad changed: %+v", out.Ad)
	}
	if out.Report == nil || out.Report.Fixed {
		t.Errorf("report: %+v", out.Report)
	}
}

func TestSelfReview_FailuresDegradeToPass1(t *testing.T) {
	ad := models.GeneratedAd{HTML: "<h1>{{h}}</h1>", Fields: models.Fields{"h": "Hi"}}

	tests := map[string]any{
		"transport error": errors.New("connection reset"),
		"unparseable":     "I think this ad is great!",
		"schema mismatch": `{"score": 9}`,
		"empty":           ai.ErrEmptyCompletion,
	}
	for name, resp := range tests {
		t.Run(name, func(t *testing.T) {
			p := newTestPipeline(t, &scriptedLLM{responses: []any{resp}}, 1, nil, nil)
			out := p.SelfReview(context.Background(), ad, []string{"quality"}, 100, 100, "")
			if out.Stage != StagePass1 || out.Ad.HTML != ad.HTML || out.Report != nil {
				t.Errorf("expected unchanged pass-1 outcome, got %+v", out)
			}
		})
	}
}

func TestSelfReview_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestPipeline(t, &scriptedLLM{responses: []any{context.Canceled}}, 1, nil, nil)

	ad := models.GeneratedAd{HTML: "<p>{{a}}</p>", Fields: models.Fields{"a": "b"}}
	out := p.SelfReview(ctx, ad, []string{"quality"}, 100, 100, "")
	if out.Stage != StagePass1 || out.Ad.HTML != ad.HTML {
		t.Errorf("expected pass-1 outcome, got %+v", out)
	}
}

func TestSelfReview_AdoptsFixWithColorFallback(t *testing.T) {
	llm := &scriptedLLM{responses: []any{
		`{"fixed": true, "score": 6, "html": "<h1>{{headline}}</h1><b>{{cta}}</b>", "fields": {"headline": "Better", "cta": "Buy"}, "accentColor": "#00f"}`,
	}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	ad := models.GeneratedAd{
		HTML:   "<h1>{{headline}}</h1>",
		Fields: models.Fields{"headline": "Hi"},
		Colors: models.Colors{Background: "#fff", Text: "#000", Accent: "#f00"},
	}
	out := p.SelfReview(context.Background(), ad, []string{"quality"}, 100, 100, "")

	if out.Stage != StageFixed {
		t.Fatalf("Stage: got %q", out.Stage)
	}
	if out.Ad.Fields["headline"] != "Better" || !strings.Contains(out.Ad.HTML, "{{cta}}") {
		t.Errorf("fixed ad not adopted: %+v", out.Ad)
	}
	want := models.Colors{Background: "#fff", Text: "#000", Accent: "#00f"}
	if out.Ad.Colors != want {
		t.Errorf("Colors: got %+v, want %+v", out.Ad.Colors, want)
	}
}

func TestSelfReview_FixedWithoutMarkupIgnored(t *testing.T) {
	llm := &scriptedLLM{responses: []any{`{"fixed": true, "score": 5}`}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	ad := models.GeneratedAd{HTML: "<p>{{a}}</p>", Fields: models.Fields{"a": "b"}}
	out := p.SelfReview(context.Background(), ad, []string{"quality"}, 100, 100, "")
	if out.Stage != StagePass1 || out.Ad.HTML != ad.HTML {
		t.Errorf("expected pass-1 outcome, got %+v", out)
	}
}

func TestSelfReview_SendsRenderedMarkup(t *testing.T) {
	llm := &scriptedLLM{responses: []any{`{"fixed": false}`}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	ad := models.GeneratedAd{HTML: "<h1>{{headline}}</h1>", Fields: models.Fields{"headline": "Protein oats"}}
	p.SelfReview(context.Background(), ad, []string{"quality"}, 100, 100, "")
	if !strings.Contains(llm.requests[0].Prompt, "<h1>Protein oats</h1>") {
		t.Error("review prompt should contain the rendered markup")
	}
}

func TestGenerate_PrimaryFailureIsReturned(t *testing.T) {
	tests := map[string]struct {
		resp any
		want error
	}{
		"unparseable":     {"no json here", extract.ErrUnparseable},
		"schema mismatch": {`{"fields": {}}`, extract.ErrInvalid},
		"empty":           {ai.ErrEmptyCompletion, ai.ErrEmptyCompletion},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			p := newTestPipeline(t, &scriptedLLM{responses: []any{tt.resp}}, 1, nil, nil)
			_, err := p.Generate(context.Background(), models.GenerationRequest{Description: "x", Width: 1, Height: 1})
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGenerate_Validation(t *testing.T) {
	p := newTestPipeline(t, &scriptedLLM{}, 0, nil, nil)
	tests := map[string]models.GenerationRequest{
		"no description": {Width: 100, Height: 100},
		"no size":        {Description: "x"},
		"too large":      {Description: "x", Width: 5000, Height: 100},
	}
	for name, req := range tests {
		if _, err := p.Generate(context.Background(), req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: got %v, want ErrInvalidRequest", name, err)
		}
	}
}

func TestRecreate_UsesThinkingAndImage(t *testing.T) {
	llm := &scriptedLLM{responses: []any{pass1}}
	p := newTestPipeline(t, llm, 0, nil, nil)

	img := &models.ReferenceImage{Data: []byte{1, 2, 3}, MediaType: "image/png"}
	if _, err := p.Recreate(context.Background(), models.GenerationRequest{Image: img, Width: 1080, Height: 1080}); err != nil {
		t.Fatalf("Recreate: %v", err)
	}
	req := llm.requests[0]
	if req.Image == nil || req.Image.MediaType != "image/png" {
		t.Error("reference image not attached")
	}
	if req.ThinkingBudget != 5000 || req.MaxTokens != 16000 {
		t.Errorf("budget/max: %d/%d", req.ThinkingBudget, req.MaxTokens)
	}

	if _, err := p.Recreate(context.Background(), models.GenerationRequest{Width: 1, Height: 1}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("missing image: got %v", err)
	}
}

func TestGenerate_TokenizesLiteralMarkup(t *testing.T) {
	llm := &scriptedLLM{responses: []any{
		`{"html": "<h1>Hello</h1>", "fields": {}, "backgroundColor": "#fff"}`,
		`{"html": "<h1>{{headline}}</h1>", "fields": {"headline": "Hello"}}`,
	}}
	p := newTestPipeline(t, llm, 0, nil, nil)

	res, err := p.Generate(context.Background(), models.GenerationRequest{Description: "x", Width: 1, Height: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Tokenized || res.Fields["headline"] != "Hello" {
		t.Errorf("tokenize pass not applied: %+v", res)
	}
	if res.Background != "#fff" {
		t.Errorf("colors should carry over from the primary pass, got %q", res.Background)
	}
}

func TestGenerate_TokenizeFailureKeepsLiteralMarkup(t *testing.T) {
	llm := &scriptedLLM{responses: []any{
		`{"html": "<h1>Hello</h1>", "fields": {}}`,
		"sorry",
	}}
	p := newTestPipeline(t, llm, 0, nil, nil)

	res, err := p.Generate(context.Background(), models.GenerationRequest{Description: "x", Width: 1, Height: 1})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Tokenized || res.HTML != "<h1>Hello</h1>" {
		t.Errorf("literal markup should be kept: %+v", res)
	}
}

func TestEditAndFix(t *testing.T) {
	current := models.GeneratedAd{
		HTML:   "<h1>{{headline}}</h1>",
		Fields: models.Fields{"headline": "Hi"},
		Colors: models.Colors{Background: "#fff"},
	}

	llm := &scriptedLLM{responses: []any{
		`{"html": "<h1 style='color:red'>{{headline}}</h1>", "fields": {"headline": "Hi"}}`,
		`{"html": "<h1>{{headline}}</h1>", "fields": {"headline": "Hi there"}}`,
	}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	edited, err := p.Edit(context.Background(), EditRequest{Ad: current, Instruction: "red headline", Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Background != "#fff" || !strings.Contains(edited.HTML, "color:red") {
		t.Errorf("edited: %+v", edited)
	}

	fixed, err := p.Fix(context.Background(), FixRequest{
		Ad: current, Improvements: []models.Improvement{{Issue: "weak"}}, Width: 10, Height: 10,
	})
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if fixed.Stage != StageFixed || fixed.Fields["headline"] != "Hi there" {
		t.Errorf("fixed: %+v", fixed)
	}
	if llm.calls() != 2 {
		t.Errorf("edit and fix should not self-review, calls: %d", llm.calls())
	}

	if _, err := p.Edit(context.Background(), EditRequest{Ad: current, Width: 10, Height: 10}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("edit without instruction: %v", err)
	}
	if _, err := p.Fix(context.Background(), FixRequest{Ad: current, Width: 10, Height: 10}); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("fix without improvements: %v", err)
	}
}

func TestReview_Standalone(t *testing.T) {
	llm := &scriptedLLM{responses: []any{
		`{"score": 7, "verdict": "Solid", "improvements": [{"issue": "CTA small", "priority": "high"}], "scores": {"hook": 6}}`,
	}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	report, err := p.Review(context.Background(), ReviewRequest{
		Ad: models.GeneratedAd{HTML: "<p>x</p>"}, Width: 10, Height: 10,
	})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if report.Score != 7 || len(report.Improvements) != 1 || report.Scores["hook"] != 6 {
		t.Errorf("report: %+v", report)
	}

	p = newTestPipeline(t, &scriptedLLM{responses: []any{`{"fixed": false}`}}, 1, nil, nil)
	if _, err := p.Review(context.Background(), ReviewRequest{Ad: models.GeneratedAd{HTML: "<p>x</p>"}, Width: 10, Height: 10}); !errors.Is(err, extract.ErrInvalid) {
		t.Errorf("standalone review must fail on a report without score: %v", err)
	}
}

func TestReview_DefaultSize(t *testing.T) {
	llm := &scriptedLLM{responses: []any{`{"score": 8, "verdict": "Good"}`}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	if _, err := p.Review(context.Background(), ReviewRequest{Ad: models.GeneratedAd{HTML: "<p>x</p>"}}); err != nil {
		t.Fatalf("Review without size: %v", err)
	}
	if !strings.Contains(llm.requests[0].Prompt, "SIZE: 1080x1080") {
		t.Errorf("a review without size should assume 1080x1080:\n%s", llm.requests[0].Prompt)
	}

	tests := []struct {
		name          string
		width, height int
	}{
		{"width only", 1080, 0},
		{"height only", 0, 1920},
		{"too large", 5000, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Review(context.Background(), ReviewRequest{
				Ad: models.GeneratedAd{HTML: "<p>x</p>"}, Width: tt.width, Height: tt.height,
			})
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("got %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	llm := &scriptedLLM{responses: []any{`{"html": "<p>{{body}}</p>", "fields": {"body": "Warm"}}`}}
	p := newTestPipeline(t, llm, 1, nil, nil)

	res, err := p.Tokenize(context.Background(), "<p>Warm</p>")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if !res.Tokenized || placeholder.Render(res.HTML, res.Fields) != "<p>Warm</p>" {
		t.Errorf("tokenized result does not round-trip: %+v", res)
	}
}

func TestCopyAndAnalyze(t *testing.T) {
	llm := &scriptedLLM{responses: []any{
		`{"variations": [{"headline": "Hot cereal, hotter protein", "cta": "Shop Now"}]}`,
		`{"layout": {"type": "split"}, "suggestedTemplate": "split"}`,
	}}
	p := newTestPipeline(t, llm, 0, nil, nil)

	set, err := p.Copy(context.Background(), CopyRequest{Flavor: "Original"})
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if len(set.Variations) != 1 {
		t.Errorf("variations: %+v", set.Variations)
	}
	if strings.Contains(llm.requests[0].Prompt, "TONE:") {
		t.Error("tone line should be omitted when no tone is given")
	}

	a, err := p.Analyze(context.Background(), &models.ReferenceImage{Data: []byte{1}, MediaType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if a.SuggestedTemplate != "split" {
		t.Errorf("analysis: %+v", a)
	}
}

func TestCopy_ForwardsBrief(t *testing.T) {
	llm := &scriptedLLM{responses: []any{`{"variations": [{"headline": "Maple mornings"}]}`}}
	p := newTestPipeline(t, llm, 0, nil, nil)

	_, err := p.Copy(context.Background(), CopyRequest{
		SKU:       "MBS-CUP",
		Tone:      "calm",
		Reference: &models.Analysis{StyleNotes: "muted pastels"},
	})
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	sent := llm.requests[0].Prompt
	for _, want := range []string{"3 distinct", "Maple Brown Sugar Cup", "TONE: calm", "REFERENCE AD STYLE: muted pastels"} {
		if !strings.Contains(sent, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

type fakeCatalog struct {
	templates []models.RenderTemplate
}

func (f *fakeCatalog) ListTemplates(_ context.Context, filter models.TemplateFilter) ([]models.RenderTemplate, error) {
	var out []models.RenderTemplate
	for _, t := range f.templates {
		if filter.Width > 0 && t.Width != filter.Width {
			continue
		}
		if filter.Height > 0 && t.Height != filter.Height {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type fakeRenderer struct {
	jobs []renderer.Job
}

func (f *fakeRenderer) Render(_ context.Context, job renderer.Job) ([]renderer.Render, error) {
	f.jobs = append(f.jobs, job)
	return []renderer.Render{{ID: "r1", Status: renderer.StatusSucceeded, URL: "https://cdn.example/r1.png"}}, nil
}

func TestSelectTemplate_RejectsUnknownID(t *testing.T) {
	catalog := &fakeCatalog{templates: []models.RenderTemplate{{ExternalID: "x", Width: 1080, Height: 1080}}}
	llm := &scriptedLLM{responses: []any{`{"templateId": "y", "modifications": {}}`}}
	p := newTestPipeline(t, llm, 0, catalog, &fakeRenderer{})

	_, err := p.GenerateFromTemplate(context.Background(), models.GenerationRequest{Description: "promo", Width: 1080, Height: 1080})
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("got %v, want ErrUnknownTemplate", err)
	}
}

func TestSelectTemplate_OnlyOfferedCandidatesAccepted(t *testing.T) {
	catalog := &fakeCatalog{templates: []models.RenderTemplate{
		{ExternalID: "square", Width: 1080, Height: 1080},
		{ExternalID: "story", Width: 1080, Height: 1920},
	}}
	llm := &scriptedLLM{responses: []any{`{"templateId": "story", "modifications": {}}`}}
	p := newTestPipeline(t, llm, 0, catalog, nil)

	_, err := p.SelectTemplate(context.Background(), models.GenerationRequest{Description: "promo", Width: 1080, Height: 1080})
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("template outside the filtered set must be rejected, got %v", err)
	}
}

func TestSelectTemplate_FallsBackToWholeCatalog(t *testing.T) {
	catalog := &fakeCatalog{templates: []models.RenderTemplate{{
		ExternalID: "story", Name: "Story", Width: 1080, Height: 1920,
		EditableFields: map[string]models.EditableField{
			"Headline":   {Type: models.FieldText, Default: "Default headline"},
			"Photo":      {Type: models.FieldImage},
			"Background": {Type: models.FieldColor, Property: "fill_color", Default: "#f0615a"},
		},
	}}}
	llm := &scriptedLLM{responses: []any{
		`{"templateId": "story", "reasoning": "only one", "modifications": {"Headline": "Warm up"}}`,
	}}
	r := &fakeRenderer{}
	p := newTestPipeline(t, llm, 0, catalog, r)

	res, err := p.GenerateFromTemplate(context.Background(), models.GenerationRequest{Description: "promo", Width: 1080, Height: 1080})
	if err != nil {
		t.Fatalf("GenerateFromTemplate: %v", err)
	}
	if res.TemplateID != "story" || res.RenderURL != "https://cdn.example/r1.png" {
		t.Errorf("result: %+v", res)
	}
	if res.Width != 1080 || res.Height != 1920 {
		t.Errorf("size should fall back to the template's: %dx%d", res.Width, res.Height)
	}

	mods := res.Modifications
	if mods["Headline"] != "Warm up" || mods["Background"] != "#f0615a" {
		t.Errorf("modifications: %+v", mods)
	}
	if v, ok := mods["Photo"]; !ok || v != nil {
		t.Errorf("Photo should be present and nil, got %v, %v", v, ok)
	}

	job := r.jobs[0]
	if job.TemplateID != "story" || job.Modifications["Background.fill_color"] != "#f0615a" {
		t.Errorf("render job: %+v", job)
	}
}

func TestSelectTemplate_EmptyCatalog(t *testing.T) {
	llm := &scriptedLLM{}
	p := newTestPipeline(t, llm, 0, &fakeCatalog{}, &fakeRenderer{})

	_, err := p.GenerateFromTemplate(context.Background(), models.GenerationRequest{Description: "promo", Width: 1080, Height: 1080})
	if !errors.Is(err, ErrNoTemplates) {
		t.Errorf("got %v, want ErrNoTemplates", err)
	}
	if llm.calls() != 0 {
		t.Error("model should not be called with an empty catalog")
	}
}

func TestGenerateFromTemplate_Unavailable(t *testing.T) {
	p := newTestPipeline(t, &scriptedLLM{}, 0, nil, nil)
	if _, err := p.GenerateFromTemplate(context.Background(), models.GenerationRequest{Description: "x"}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
}
