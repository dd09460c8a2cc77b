// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package brand loads the brand context (voice, palette, fonts, products,
// channels) that every generation prompt is built from. A Context is loaded
// once at startup and passed to the prompt builder; it is never mutated
// afterwards.
package brand

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Identity is the brand's name and story.
type Identity struct {
	Name     string `yaml:"name" json:"name"`
	FullName string `yaml:"full_name" json:"fullName,omitempty"`
	Tagline  string `yaml:"tagline" json:"tagline,omitempty"`
	Website  string `yaml:"website" json:"website,omitempty"`
	ShopURL  string `yaml:"shop_url" json:"shopUrl,omitempty"`
	Story    string `yaml:"story" json:"story,omitempty"`
}

// Voice describes how copy should sound.
type Voice struct {
	Description string   `yaml:"description" json:"description"`
	Qualities   []string `yaml:"qualities" json:"qualities"`
	Guidelines  []string `yaml:"guidelines" json:"guidelines"`
}

// Color is a named palette entry.
type Color struct {
	Name string `yaml:"name" json:"name"`
	Hex  string `yaml:"hex" json:"hex"`
}

// Palette keeps colors as ordered lists so prompts are stable.
type Palette struct {
	Primary  []Color `yaml:"primary" json:"primary"`
	Pairings []Color `yaml:"pairings" json:"pairings"`
}

// Fonts lists the brand typefaces.
type Fonts struct {
	Primary   string   `yaml:"primary" json:"primary"`
	Secondary string   `yaml:"secondary" json:"secondary,omitempty"`
	Accents   []string `yaml:"accents" json:"accents,omitempty"`
}

// Mascot is the optional brand character.
type Mascot struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Segment is one target audience group.
type Segment struct {
	Segment string   `yaml:"segment" json:"segment"`
	Traits  []string `yaml:"traits" json:"traits"`
}

// Product is one SKU.
type Product struct {
	SKU        string `yaml:"sku" json:"sku"`
	Name       string `yaml:"name" json:"name"`
	Flavor     string `yaml:"flavor" json:"flavor"`
	Format     string `yaml:"format" json:"format"`
	Protein    string `yaml:"protein" json:"protein"`
	Calories   string `yaml:"calories" json:"calories"`
	KeyBenefit string `yaml:"key_benefit" json:"keyBenefit"`
}

// Channel is the emphasis and call to action for a sales channel.
type Channel struct {
	Emphasis string `yaml:"emphasis" json:"emphasis"`
	CTA      string `yaml:"cta" json:"cta"`
}

// Context is the full brand description.
type Context struct {
	Brand          Identity           `yaml:"brand" json:"brand"`
	Voice          Voice              `yaml:"voice" json:"voice"`
	Colors         Palette            `yaml:"colors" json:"colors"`
	Fonts          Fonts              `yaml:"fonts" json:"fonts"`
	Mascot         *Mascot            `yaml:"mascot" json:"mascot,omitempty"`
	Audience       []Segment          `yaml:"audience" json:"audience,omitempty"`
	Products       []Product          `yaml:"products" json:"products"`
	SellingPoints  []string           `yaml:"selling_points" json:"sellingPoints"`
	Channels       map[string]Channel `yaml:"channels" json:"channels"`
	Rules          []string           `yaml:"rules" json:"rules,omitempty"`
	CopyGuidelines []string           `yaml:"copy_guidelines" json:"copyGuidelines,omitempty"`
}

// Default returns the embedded brand context.
func Default() (*Context, error) {
	return Parse(defaultYAML)
}

// Load reads a brand context from a YAML file. An empty path loads the
// embedded default.
func Load(path string) (*Context, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read brand file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML brand context.
func Parse(data []byte) (*Context, error) {
	var c Context
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse brand context: %w", err)
	}
	if strings.TrimSpace(c.Brand.Name) == "" {
		return nil, fmt.Errorf("brand context: brand.name is required")
	}
	if len(c.Colors.Primary) == 0 {
		return nil, fmt.Errorf("brand context: at least one primary color is required")
	}
	return &c, nil
}

// ProductsFor returns the products of a flavor, matched case-insensitively.
func (c *Context) ProductsFor(flavor string) []Product {
	var out []Product
	for _, p := range c.Products {
		if strings.EqualFold(p.Flavor, flavor) {
			out = append(out, p)
		}
	}
	return out
}

// ProductBySKU returns the product with the given SKU, matched
// case-insensitively.
func (c *Context) ProductBySKU(sku string) (Product, bool) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Product{}, false
	}
	for _, p := range c.Products {
		if strings.EqualFold(p.SKU, sku) {
			return p, true
		}
	}
	return Product{}, false
}

// Flavors returns the distinct product flavors in catalog order.
func (c *Context) Flavors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.Products {
		if !seen[p.Flavor] {
			seen[p.Flavor] = true
			out = append(out, p.Flavor)
		}
	}
	return out
}

// ChannelFor looks up a channel by key.
func (c *Context) ChannelFor(key string) (Channel, bool) {
	ch, ok := c.Channels[strings.ToLower(key)]
	return ch, ok
}

// AllColors returns primary colors followed by pairings.
func (c *Context) AllColors() []Color {
	out := make([]Color, 0, len(c.Colors.Primary)+len(c.Colors.Pairings))
	out = append(out, c.Colors.Primary...)
	return append(out, c.Colors.Pairings...)
}
