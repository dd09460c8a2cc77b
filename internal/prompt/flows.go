// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package prompt

import (
	"fmt"
	"sort"
	"strings"

	"adstudio/internal/models"
)

// markupRules are the constraints shared by every markup-producing prompt.
func markupRules(width, height int) []string {
	return []string{
		fmt.Sprintf("The root element must be exactly %dpx wide and %dpx tall.", width, height),
		"Use inline styles only. No <style> tags, no classes, no scripts.",
		"Replace ALL visible text with {{token_name}} placeholders using descriptive snake_case names.",
		"Every placeholder in the markup must have an entry in \"fields\".",
		"Any <img> tag must include crossorigin=\"anonymous\".",
	}
}

const generationShape = `{"html": "<div style='...'>...</div>", "fields": {"token_name": "text value"}, "backgroundColor": "#hex", "textColor": "#hex", "accentColor": "#hex"}`

func (b *Builder) requestContext(l *lines, req models.GenerationRequest) {
	l.field("PRODUCT FOCUS", b.productFocus(req.Flavor))
	l.field("CHANNEL", b.channelFocus(req.Channel))
	if len(req.Assets) > 0 {
		assets := make([]string, 0, len(req.Assets))
		for _, a := range req.Assets {
			assets = append(assets, fmt.Sprintf("%s: %s", a.Name, a.URL))
		}
		l.list("BRAND ASSETS (use these image URLs where a product or logo image fits):", assets)
	}
	if strings.TrimSpace(req.Notes) != "" {
		l.add("USER NOTES: " + quoted(req.Notes))
	}
}

func (b *Builder) outputContract(l *lines, width, height int) {
	l.blank()
	l.list("RULES:", markupRules(width, height))
	l.blank()
	l.add("Return ONLY valid JSON in this shape:", generationShape)
}

// Describe builds the prompt for generating an ad from a text description.
func (b *Builder) Describe(req models.GenerationRequest) string {
	var l lines
	l.addf("Design a %dx%d HTML/CSS ad for %s from this brief:", req.Width, req.Height, b.brand.Brand.Name)
	l.add(quoted(req.Description))
	l.blank()
	b.requestContext(&l, req)
	l.list("COPY GUIDELINES:", b.brand.CopyGuidelines)
	b.outputContract(&l, req.Width, req.Height)
	return l.String()
}

// Recreate builds the prompt for recreating an attached reference ad.
func (b *Builder) Recreate(req models.GenerationRequest) string {
	var l lines
	l.addf("Look at the attached reference ad. Recreate it as a %s ad.", b.brand.Brand.Name)
	l.add("Keep the EXACT same layout, proportions, and structure. Swap only the branding:")
	l.add("- Brand: " + b.brand.Brand.Name + brandSuffix(b.brand.Brand.Website))
	l.add("- Colors: " + b.colorList())
	if fonts := b.fontList(); fonts != "" {
		l.add("- Fonts: " + fonts)
	}
	if p := b.productFocus(req.Flavor); p != "" {
		l.add("- Product: " + p)
	}
	l.blank()
	b.requestContext(&l, models.GenerationRequest{Channel: req.Channel, Notes: req.Notes, Assets: req.Assets})
	if len(req.Assets) == 0 {
		l.add("Where the reference shows product photos, use colored shapes as placeholders.")
	}
	b.outputContract(&l, req.Width, req.Height)
	return l.String()
}

func brandSuffix(website string) string {
	if website == "" {
		return ""
	}
	return " | " + website
}

// Edit builds the prompt for applying a user instruction to existing markup.
func (b *Builder) Edit(current models.GeneratedAd, instruction string, width, height int) string {
	var l lines
	l.addf("You are editing an HTML ad for %s.", b.brand.Brand.Name)
	l.addf("Here is the CURRENT ad markup (%dx%dpx):", width, height)
	l.add(current.HTML)
	l.blank()
	if len(current.Fields) > 0 {
		l.add("CURRENT FIELD VALUES:", fieldsJSON(current.Fields))
		l.blank()
	}
	l.add("THE USER WANTS THIS CHANGE:", quoted(instruction))
	l.blank()
	l.add("Apply exactly what the user asked for. Keep everything else the same unless the change requires adjusting other elements for visual consistency.")
	l.add("When adding or changing colors, prefer the brand colors: " + b.colorList())
	b.outputContract(&l, width, height)
	return l.String()
}

// Review builds the critique prompt. With offerFix the reviewer may return
// a corrected ad alongside the report.
func (b *Builder) Review(rendered string, dims []string, width, height int, channel string, offerFix bool) string {
	var l lines
	l.addf("You are a senior performance-marketing specialist reviewing a %s ad for conversion.", b.brand.Brand.Name)
	l.add("Here is the rendered ad markup:")
	l.add(rendered)
	l.blank()
	l.addf("SIZE: %dx%d", width, height)
	l.field("CHANNEL", b.channelFocus(channel))
	l.blank()
	l.add("Score the ad from 1 to 10 overall and on each of these dimensions: " + strings.Join(dims, ", ") + ".")
	l.add("Be honest and specific. Give actionable feedback, not praise.")
	l.blank()

	scores := make([]string, 0, len(dims))
	for _, d := range dims {
		scores = append(scores, fmt.Sprintf("%q: <1-10>", d))
	}
	shape := `{"score": <1-10>, "verdict": "<one blunt sentence>", "strengths": ["..."], ` +
		`"improvements": [{"issue": "...", "fix": "...", "priority": "high|medium|low"}], ` +
		`"scores": {` + strings.Join(scores, ", ") + `}, "tips": ["..."]`
	if offerFix {
		l.add("If any dimension scores below 7, fix the ad: return the corrected markup with {{token}} placeholders and its fields, and set \"fixed\" to true. Otherwise set \"fixed\" to false and omit html and fields.")
		l.list("Corrected markup must follow these RULES:", markupRules(width, height))
		shape += `, "fixed": true|false, "html": "<corrected markup>", "fields": {"token_name": "value"}, "backgroundColor": "#hex", "textColor": "#hex", "accentColor": "#hex"`
	}
	l.add("Return ONLY valid JSON in this shape:", shape+"}")
	return l.String()
}

// Fix builds the prompt that applies selected review improvements.
func (b *Builder) Fix(current models.GeneratedAd, improvements []models.Improvement, notes string, width, height int) string {
	var l lines
	l.addf("Improve this %s ad by applying the review feedback below.", b.brand.Brand.Name)
	l.addf("CURRENT ad markup (%dx%dpx):", width, height)
	l.add(current.HTML)
	if len(current.Fields) > 0 {
		l.add("CURRENT FIELD VALUES:", fieldsJSON(current.Fields))
	}
	l.blank()

	items := make([]string, 0, len(improvements))
	for _, imp := range improvements {
		s := imp.Issue
		if imp.Fix != "" {
			s += " => " + imp.Fix
		}
		if imp.Priority != "" {
			s += " [" + imp.Priority + "]"
		}
		items = append(items, s)
	}
	l.list("APPLY THESE CHANGES:", items)
	if strings.TrimSpace(notes) != "" {
		l.add("USER NOTES: " + quoted(notes))
	}
	b.outputContract(&l, width, height)
	return l.String()
}

// Tokenize builds the prompt that converts literal text into placeholders.
func (b *Builder) Tokenize(markup string) string {
	var l lines
	l.add("Rewrite the following HTML so every piece of text visible to a viewer becomes a {{token_name}} placeholder with a descriptive snake_case name.")
	l.add("Preserve every tag, attribute, inline style, and image or font URL byte-for-byte. Do not add, remove, or reorder elements.")
	l.add("Put the original text of each placeholder in \"fields\".")
	l.blank()
	l.add("HTML:", markup)
	l.blank()
	l.add(`Return ONLY valid JSON in this shape: {"html": "<markup with placeholders>", "fields": {"token_name": "original text"}}`)
	return l.String()
}

// SelectTemplate builds the prompt for choosing and filling a catalog template.
func (b *Builder) SelectTemplate(req models.GenerationRequest, catalog []models.RenderTemplate) string {
	var l lines
	l.addf("Choose the best template for a %dx%d %s ad and write the copy for it.", req.Width, req.Height, b.brand.Brand.Name)
	if strings.TrimSpace(req.Description) != "" {
		l.add("BRIEF: " + quoted(req.Description))
	}
	b.requestContext(&l, req)
	l.blank()
	l.add("AVAILABLE TEMPLATES:")
	for _, t := range catalog {
		desc := fmt.Sprintf("- id %q: %s (%dx%d, %s)", t.ExternalID, t.Name, t.Width, t.Height, t.Category)
		if t.Description != nil && *t.Description != "" {
			desc += " " + *t.Description
		}
		l.add(desc)
		for _, name := range t.FieldNames() {
			l.addf("    %s: %s", name, t.EditableFields[name].Type)
		}
	}
	l.blank()
	l.list("COPY GUIDELINES:", b.brand.CopyGuidelines)
	l.add("Give a value for EVERY editable field of the chosen template. Image fields take a URL or null. Color fields take a brand hex color.")
	l.add(`Return ONLY valid JSON in this shape: {"templateId": "<id>", "templateName": "<name>", "reasoning": "<one sentence>", "modifications": {"<field>": "<value>"}}`)
	return l.String()
}

// CopyBrief is the input of the copy prompt. Blank fields are left out.
type CopyBrief struct {
	Flavor  string
	SKU     string // takes precedence over Flavor when it names a product
	Channel string
	Tone    string
	Notes   string
	Count   int

	// Reference is an earlier analysis of a reference ad whose style the
	// copy should follow.
	Reference *models.Analysis
}

// Copy builds the prompt for ad copy variations.
func (b *Builder) Copy(in CopyBrief) string {
	var l lines
	l.addf("Write %d distinct ad copy variations for %s.", in.Count, b.brand.Brand.Name)
	if p, ok := b.brand.ProductBySKU(in.SKU); ok {
		l.field("PRODUCT FOCUS", productLine(p))
	} else {
		l.field("PRODUCT FOCUS", b.productFocus(in.Flavor))
	}
	if strings.TrimSpace(in.Channel) != "" {
		l.field("CHANNEL", b.channelFocus(in.Channel))
	} else if names := b.channelNames(); len(names) > 0 {
		l.field("CHANNELS", strings.Join(names, ", "))
	}
	l.field("TONE", in.Tone)
	if in.Reference != nil {
		l.field("REFERENCE AD STYLE", in.Reference.StyleNotes)
	}
	if strings.TrimSpace(in.Notes) != "" {
		l.add("USER NOTES: " + quoted(in.Notes))
	}
	l.list("COPY GUIDELINES:", b.brand.CopyGuidelines)
	l.add(`Return ONLY valid JSON in this shape: {"variations": [{"headline": "...", "subheadline": "...", "body": "...", "cta": "..."}]}`)
	return l.String()
}

// Analyze builds the prompt for describing an attached reference ad.
func (b *Builder) Analyze() string {
	var l lines
	l.add("Analyze the attached reference ad so it can be recreated with different branding.")
	l.add("Describe the layout, the text hierarchy, the color palette, and the distinctive design elements.")
	l.add(`Return ONLY valid JSON in this shape: {"layout": {"type": "...", "regions": ["..."]}, "textHierarchy": {"headline": "...", "subheadline": "...", "body": "...", "cta": "..."}, ` +
		`"colorPalette": {"background": "#hex", "text": "#hex", "accent": "#hex"}, "styleNotes": "...", "suggestedTemplate": "hero|lifestyle|split|bold|grid|collage|promo|other", "designElements": ["..."]}`)
	return l.String()
}

// fieldsJSON lists fields one per line in sorted order.
func fieldsJSON(fields models.Fields) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%q: %q", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
