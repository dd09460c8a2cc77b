// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render produces the standalone HTML documents used to preview
// saved ads. The browser-side exporter screenshots the same document.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/google/uuid"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Preview holds the data for one preview document.
type Preview struct {
	ID         uuid.UUID
	Title      string
	Width      int
	Height     int
	Background string
	FontFamily string

	// Markup is placed into the frame unescaped. Previews are served with a
	// content security policy that forbids scripts.
	Markup template.HTML
}

// Renderer executes the embedded document templates.
type Renderer struct {
	preview *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/preview.html")
	if err != nil {
		return nil, fmt.Errorf("parse preview template: %w", err)
	}
	return &Renderer{preview: tmpl}, nil
}

// Preview writes the preview document for p. The document is rendered to a
// buffer first so template errors never produce a half-written page.
func (rn *Renderer) Preview(w http.ResponseWriter, p *Preview) {
	var buf bytes.Buffer
	if err := rn.preview.ExecuteTemplate(&buf, "preview.html", p); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
