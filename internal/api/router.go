// Package api serves a read-only JSON view of the dev server: build status,
// pages, navigation and broken links.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/site"
)

// Prefix is where the router expects to be mounted.
const Prefix = "/__folio/api"

// NewRouter creates a chi router with all API routes under Prefix.
func NewRouter(s *site.Site, status *Status) chi.Router {
	h := NewHandler(s, status)

	r := chi.NewRouter()
	r.Route(Prefix, func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/status", h.Status)
		r.Get("/pages", h.ListPages)
		r.Get("/navigation", h.Navigation)
		r.Get("/links/broken", h.BrokenLinks)
	})
	return r
}
