// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the ad
// studio API. Generation and render routes share a rate limit; library and
// gallery routes do not.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"adstudio/internal/handlers"
	"adstudio/internal/middleware"
)

// maxBody bounds every request body. Handlers apply tighter limits per
// endpoint; this only has to fit the largest of them.
const maxBody = 32 << 20

// Handlers bundles the handler groups served by the router.
type Handlers struct {
	Studio    *handlers.Studio
	Templates *handlers.Templates
	Assets    *handlers.Assets
	Gallery   *handlers.Gallery
	Meta      *handlers.Meta
}

// Options configures the middleware chains.
type Options struct {
	// Limiter may be nil, which disables rate limiting.
	Limiter middleware.Limiter
	// TrustProxy takes the client address from forwarding headers. Only
	// safe behind a proxy that overwrites them.
	TrustProxy bool
}

// New creates the configured Chi router.
func New(h Handlers, opts Options) chi.Router {
	r := chi.NewRouter()
	limiter := opts.Limiter

	// Global middleware, applied to every request.
	if opts.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.MaxBodySize(maxBody))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", h.Meta.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ad-sizes", h.Meta.AdSizes)
		r.Get("/brand", h.Meta.Brand)

		// AI generation and rendering, rate limited per client.
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(middleware.RateLimit(limiter, "ai"))
			}
			r.Post("/generate-ad", h.Studio.GenerateAd)
			r.Post("/generate-ad/template", h.Templates.Generate)
			r.Post("/recreate", h.Studio.Recreate)
			r.Post("/edit-ad", h.Studio.EditAd)
			r.Post("/tokenize", h.Studio.Tokenize)
			r.Post("/review-ad", h.Studio.ReviewAd)
			r.Post("/review-ad/fix", h.Studio.FixAd)
			r.Post("/generate-copy", h.Studio.GenerateCopy)
			r.Post("/analyze", h.Studio.Analyze)
			r.Post("/render", h.Templates.Render)
			r.Post("/render-multi", h.Templates.RenderMulti)
		})

		// Template catalog
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.Templates.List)
			r.Post("/sync", h.Templates.Sync)
		})

		// Brand asset library
		r.Route("/brand-assets", func(r chi.Router) {
			r.Get("/", h.Assets.List)
			r.Post("/", h.Assets.Upload)
			r.Patch("/{id}", h.Assets.Update)
			r.Delete("/{id}", h.Assets.Delete)
		})

		// Saved ads
		r.Route("/gallery", func(r chi.Router) {
			r.Get("/", h.Gallery.List)
			r.Post("/", h.Gallery.Create)
			r.Get("/{id}", h.Gallery.Get)
			r.Patch("/{id}", h.Gallery.Update)
			r.Delete("/{id}", h.Gallery.Delete)
			r.Post("/{id}/export", h.Gallery.Export)
			r.With(middleware.PreviewHeaders).Get("/{id}/preview", h.Gallery.Preview)
		})
	})

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"not found"}`))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"error":"method not allowed"}`))
}
