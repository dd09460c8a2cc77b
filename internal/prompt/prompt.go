// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package prompt assembles the instructions sent to the completion provider.
// Every builder is a pure function of its inputs and the brand context:
// identical inputs give byte-identical prompts, optional inputs that are
// blank are left out entirely, and user-supplied text is included verbatim.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"adstudio/internal/brand"
)

// Builder produces prompts for one brand.
type Builder struct {
	brand *brand.Context
}

// New creates a Builder. The brand context must not be modified afterwards.
func New(b *brand.Context) *Builder {
	return &Builder{brand: b}
}

// lines accumulates prompt lines.
type lines []string

func (l *lines) add(s ...string) { *l = append(*l, s...) }

func (l *lines) addf(format string, args ...any) { *l = append(*l, fmt.Sprintf(format, args...)) }

// field adds "label: value" unless value is blank.
func (l *lines) field(label, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*l = append(*l, label+": "+v)
	}
}

// list adds a heading followed by "- item" lines, unless items is empty.
func (l *lines) list(heading string, items []string) {
	if len(items) == 0 {
		return
	}
	*l = append(*l, heading)
	for _, it := range items {
		*l = append(*l, "- "+it)
	}
}

func (l *lines) blank() { *l = append(*l, "") }

func (l lines) String() string { return strings.TrimSpace(strings.Join(l, "\n")) }

// System returns the system prompt shared by every flow.
func (b *Builder) System() string {
	var l lines
	l.addf("You are a senior performance-marketing designer and copywriter working for %s.", b.brand.Brand.Name)
	l.add("You always answer with a single JSON object and nothing else.")
	l.blank()
	l.add(b.BrandBlock())
	return l.String()
}

// BrandBlock renders the brand context as prompt text.
func (b *Builder) BrandBlock() string {
	c := b.brand
	var l lines

	name := c.Brand.Name
	if c.Brand.Tagline != "" {
		name += " (" + c.Brand.Tagline + ")"
	}
	l.field("BRAND", name)
	l.field("WEBSITE", c.Brand.Website)
	l.field("STORY", c.Brand.Story)
	l.field("TONE OF VOICE", c.Voice.Description)
	if len(c.Voice.Qualities) > 0 {
		l.field("Key qualities", strings.Join(c.Voice.Qualities, ", "))
	}
	l.list("Voice guidelines:", c.Voice.Guidelines)
	l.field("BRAND COLORS", b.colorList())
	l.field("FONTS", b.fontList())
	l.list("SELLING POINTS:", c.SellingPoints)

	products := make([]string, 0, len(c.Products))
	for _, p := range c.Products {
		products = append(products, productLine(p))
	}
	l.list("PRODUCTS:", products)

	audience := make([]string, 0, len(c.Audience))
	for _, a := range c.Audience {
		audience = append(audience, a.Segment+": "+strings.Join(a.Traits, ", "))
	}
	l.list("TARGET AUDIENCE:", audience)

	if c.Mascot != nil && c.Mascot.Name != "" {
		l.field("MASCOT", c.Mascot.Name+", "+c.Mascot.Description)
	}
	l.list("IMPORTANT:", c.Rules)
	return l.String()
}

func (b *Builder) colorList() string {
	colors := b.brand.AllColors()
	parts := make([]string, 0, len(colors))
	for _, c := range colors {
		parts = append(parts, c.Name+": "+c.Hex)
	}
	return strings.Join(parts, ", ")
}

func (b *Builder) fontList() string {
	f := b.brand.Fonts
	var parts []string
	if f.Primary != "" {
		parts = append(parts, fmt.Sprintf("%q for headlines", f.Primary))
	}
	if f.Secondary != "" {
		parts = append(parts, fmt.Sprintf("%q for body", f.Secondary))
	}
	if len(f.Accents) > 0 {
		parts = append(parts, "accents: "+strings.Join(f.Accents, ", "))
	}
	return strings.Join(parts, ", ")
}

func productLine(p brand.Product) string {
	s := p.Name
	if p.Format != "" {
		s += " (" + p.Format + ")"
	}
	var facts []string
	if p.Protein != "" {
		facts = append(facts, p.Protein+" protein")
	}
	if p.Calories != "" {
		facts = append(facts, p.Calories+" cal")
	}
	if len(facts) > 0 {
		s += ": " + strings.Join(facts, ", ")
	}
	if p.KeyBenefit != "" {
		s += fmt.Sprintf(" %q", p.KeyBenefit)
	}
	return s
}

// productFocus describes the products of the requested flavor, if any.
func (b *Builder) productFocus(flavor string) string {
	if strings.TrimSpace(flavor) == "" {
		return ""
	}
	products := b.brand.ProductsFor(flavor)
	if len(products) == 0 {
		return flavor
	}
	parts := make([]string, 0, len(products))
	for _, p := range products {
		parts = append(parts, productLine(p))
	}
	return strings.Join(parts, "; ")
}

// channelFocus describes the requested channel, if known.
func (b *Builder) channelFocus(channel string) string {
	if strings.TrimSpace(channel) == "" {
		return ""
	}
	ch, ok := b.brand.ChannelFor(channel)
	if !ok {
		return channel
	}
	return fmt.Sprintf("%s (emphasis: %s; call to action: %q)", channel, ch.Emphasis, ch.CTA)
}

// channelNames returns the configured channel keys, sorted.
func (b *Builder) channelNames() []string {
	names := make([]string, 0, len(b.brand.Channels))
	for k := range b.brand.Channels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// quoted wraps user text in quotes without altering it.
func quoted(s string) string {
	return `"` + s + `"`
}
