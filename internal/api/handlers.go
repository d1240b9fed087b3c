package api

import (
	"errors"
	"net/http"

	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/linkcheck"
	"github.com/starford/folio/internal/navigation"
	"github.com/starford/folio/internal/site"
)

// Handler holds API route handlers.
type Handler struct {
	site   *site.Site
	status *Status
}

// NewHandler creates a new Handler.
func NewHandler(s *site.Site, status *Status) *Handler {
	return &Handler{site: s, status: status}
}

// PageItem is one entry of the page list.
type PageItem struct {
	URI       string `json:"uri"`
	Title     string `json:"title"`
	Path      string `json:"path"`
	Generated bool   `json:"generated,omitempty"`
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status handles GET /status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	b, ok := h.status.Last()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no build yet"))
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ListPages handles GET /pages.
func (h *Handler) ListPages(w http.ResponseWriter, _ *http.Request) {
	root := h.site.Root()
	if root == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("site has not been built"))
		return
	}
	items := []PageItem{}
	_ = root.Walk(func(doc *docs.Document) error {
		items = append(items, PageItem{URI: doc.URI, Title: doc.Title, Path: doc.Path, Generated: doc.Generated})
		return nil
	})
	writeJSON(w, http.StatusOK, items)
}

// Navigation handles GET /navigation.
func (h *Handler) Navigation(w http.ResponseWriter, _ *http.Request) {
	nav := h.site.Navigation()
	if nav == nil {
		nav = []navigation.Link{}
	}
	writeJSON(w, http.StatusOK, nav)
}

// BrokenLinks handles GET /links/broken.
func (h *Handler) BrokenLinks(w http.ResponseWriter, _ *http.Request) {
	err := linkcheck.Run(h.site)
	var broken *linkcheck.BrokenLinksError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, []linkcheck.BrokenLink{})
	case errors.As(err, &broken):
		writeJSON(w, http.StatusOK, broken.Links)
	default:
		writeJSON(w, http.StatusServiceUnavailable, errorBody(err.Error()))
	}
}
