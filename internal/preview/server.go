package preview

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/site"
)

const (
	// DefaultWorkers bounds concurrently handled requests.
	DefaultWorkers = 16
	// backlog caps requests waiting for a worker; beyond it clients get 429.
	backlog = 1024
)

// Server answers GET requests from an artifact store.
type Server struct {
	store    site.Reader
	basePath string
	logger   *slog.Logger
	metrics  *metrics.Recorder
	workers  int
	mounts   []mount
}

type mount struct {
	pattern string
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records every response on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Server) { s.metrics = rec }
}

// WithWorkers sets how many requests are handled at once.
func WithWorkers(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithHandler serves h at pattern ahead of artifact resolution.
func WithHandler(pattern string, h http.Handler) Option {
	return func(s *Server) { s.mounts = append(s.mounts, mount{pattern: pattern, handler: h}) }
}

// NewServer returns a Server reading from store.
func NewServer(store site.Reader, basePath string, opts ...Option) *Server {
	s := &Server{
		store:    store,
		basePath: basePath,
		logger:   slog.Default(),
		workers:  DefaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the router. Requests beyond the worker limit wait in a
// bounded backlog.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.ThrottleBacklog(s.workers, backlog, 30*time.Second))
	r.Use(middleware.GetHead)

	for _, m := range s.mounts {
		r.Handle(m.pattern, m.handler)
	}
	r.Get("/*", s.serveArtifact)
	return r
}

func (s *Server) serveArtifact(w http.ResponseWriter, r *http.Request) {
	artifact, ok := Resolve(s.store, r.URL.EscapedPath(), s.basePath)
	if !ok {
		s.notFound(w, r)
		return
	}

	data, err := s.store.Read(artifact)
	if err != nil {
		// The artifact can vanish between Has and Read when a rebuild swaps generations.
		if !errors.Is(err, apperr.ErrNotFound) {
			s.logger.Warn("preview: read failed",
				slog.String("path", artifact),
				slog.String("error", err.Error()))
		}
		s.notFound(w, r)
		return
	}

	if ct := ContentType(artifact); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		// Keep net/http from sniffing a type.
		w.Header()["Content-Type"] = nil
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)

	s.metrics.ObserveRequest(http.StatusOK)
	s.logger.Debug("preview: served",
		slog.String("path", r.URL.Path),
		slog.String("artifact", artifact),
		slog.String("request_id", middleware.GetReqID(r.Context())))
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	s.metrics.ObserveRequest(http.StatusNotFound)
	s.logger.Debug("preview: not found", slog.String("path", r.URL.Path))
}
