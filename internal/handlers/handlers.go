// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers for the ad studio API.
// Handlers are grouped by concern (studio, templates, assets, gallery,
// meta) and receive their dependencies through the handler struct.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"adstudio/internal/ai"
	"adstudio/internal/extract"
	"adstudio/internal/models"
	"adstudio/internal/pipeline"
	"adstudio/internal/renderer"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error body.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps an operation error to an HTTP status.
func statusFor(err error) int {
	var apiErr *renderer.APIError
	switch {
	case errors.Is(err, pipeline.ErrInvalidRequest),
		errors.Is(err, pipeline.ErrNoTemplates):
		return http.StatusBadRequest
	case errors.Is(err, pipeline.ErrUnavailable),
		errors.Is(err, ai.ErrNoProvider):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure logs err and writes it with its mapped status. Upstream and
// parse failures carry their message so clients can show it.
func writeFailure(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		attrs := []any{"op", op, "error", err}
		if errors.Is(err, extract.ErrUnparseable) || errors.Is(err, extract.ErrInvalid) {
			attrs = append(attrs, "kind", "response")
		}
		slog.Error("request failed", attrs...)
	}
	writeError(w, status, err.Error())
}

// maxJSONBody bounds JSON request bodies. Reference images arrive base64
// encoded, so this is larger than the decoded image limit.
const maxJSONBody = 16 << 20

// decodeJSON reads a JSON body into v. It writes a 400 and returns false on
// malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large.")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "Request body is required.")
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		}
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	body := http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %v", err))
		return false
	}
	return true
}

// pathID parses the {id} URL parameter. It writes a 400 and returns false
// when the id is not a UUID.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID.")
		return uuid.Nil, false
	}
	return id, true
}

// sizeInput is the canvas size of a request, either a preset id or explicit
// dimensions. Explicit dimensions win.
type sizeInput struct {
	AdSize   string `json:"adSize"`
	AdWidth  int    `json:"adWidth"`
	AdHeight int    `json:"adHeight"`
}

// resolve returns the requested dimensions. Unknown presets and "custom"
// without dimensions resolve to 0x0, which the pipeline rejects.
func (s sizeInput) resolve() (int, int) {
	if s.AdWidth > 0 || s.AdHeight > 0 {
		return s.AdWidth, s.AdHeight
	}
	if preset, ok := models.FindAdSize(s.AdSize); ok {
		return preset.Width, preset.Height
	}
	return 0, 0
}

// adInput is a generated ad sent back by the client.
type adInput struct {
	HTML   string        `json:"currentHtml"`
	Fields models.Fields `json:"fields"`
	models.Colors
}

func (a adInput) ad() models.GeneratedAd {
	return models.GeneratedAd{HTML: a.HTML, Fields: a.Fields, Colors: a.Colors}
}

// trimmed returns the trimmed value of a *string, or "" when nil.
func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// optional returns a pointer to the trimmed s, or nil when it is empty.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
