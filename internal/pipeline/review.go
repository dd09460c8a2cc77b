// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"adstudio/internal/extract"
	"adstudio/internal/models"
	"adstudio/internal/placeholder"
)

// DefaultReviewDimensions are scored by a standalone review when the
// caller does not name any.
var DefaultReviewDimensions = []string{"hook", "clarity", "brand", "cta", "design"}

// Outcome is the result of the self-review loop.
type Outcome struct {
	Ad     models.GeneratedAd
	Report *models.ReviewReport
	Stage  Stage
}

// SelfReview critiques ad and adopts the reviewer's corrected version when
// one is returned. It is best-effort: any failure, including cancellation,
// leaves the last good ad in place and never turns into an error.
func (p *Pipeline) SelfReview(ctx context.Context, ad models.GeneratedAd, dims []string, width, height int, channel string) Outcome {
	out := Outcome{Ad: ad, Stage: StagePass1}

	for pass := 1; pass <= p.reviewPasses; pass++ {
		report, err := p.review(ctx, out.Ad, dims, width, height, channel, true)
		if err != nil {
			slog.Warn("self-review failed, keeping current ad", "pass", pass, "error", err)
			return out
		}
		out.Report = report

		next, ok := report.Replacement()
		if !ok {
			return out
		}
		next.Colors = next.Colors.Merge(out.Ad.Colors)
		out.Ad = next
		out.Stage = StageFixed
		slog.Debug("self-review adopted corrected ad", "pass", pass, "score", report.Score)
	}
	return out
}

// review runs one critique round-trip on the rendered ad.
func (p *Pipeline) review(ctx context.Context, ad models.GeneratedAd, dims []string, width, height int, channel string, offerFix bool) (*models.ReviewReport, error) {
	rendered := placeholder.Render(ad.HTML, ad.Fields)
	flow := Flow{Name: "review", MaxTokens: 8192}
	schema := extract.ReviewResult
	if offerFix {
		schema = extract.SelfReviewResult
	}

	text, err := p.complete(ctx, flow, p.prompts.Review(rendered, dims, width, height, channel, offerFix), nil)
	if err != nil {
		return nil, err
	}
	var report models.ReviewReport
	if _, err := extract.Into(text, schema, &report); err != nil {
		return nil, fmt.Errorf("review response: %w", err)
	}
	return &report, nil
}

// defaultReviewSize is the square size assumed when a review names none.
const defaultReviewSize = 1080

// ReviewRequest asks for a standalone critique of an ad.
type ReviewRequest struct {
	Ad         models.GeneratedAd
	Width      int
	Height     int
	Channel    string
	Dimensions []string
}

// Review critiques an ad without changing it. Unlike the self-review loop
// this is the primary operation, so failures are returned.
func (p *Pipeline) Review(ctx context.Context, req ReviewRequest) (*models.ReviewReport, error) {
	if strings.TrimSpace(req.Ad.HTML) == "" {
		return nil, invalid("html is required")
	}
	if req.Width == 0 && req.Height == 0 {
		req.Width, req.Height = defaultReviewSize, defaultReviewSize
	}
	if err := validateSize(req.Width, req.Height); err != nil {
		return nil, err
	}
	dims := req.Dimensions
	if len(dims) == 0 {
		dims = DefaultReviewDimensions
	}
	return p.review(ctx, req.Ad, dims, req.Width, req.Height, req.Channel, false)
}
