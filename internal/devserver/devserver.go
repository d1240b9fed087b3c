// Package devserver drives the watch, rebuild and notify loop of the
// development server.
package devserver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/starford/folio/internal/linkcheck"
	"github.com/starford/folio/internal/livereload"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/watcher"
)

// Rebuilder reloads the docs tree and commits a new generation.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*site.Stats, error)
}

// Source delivers coalesced change events.
type Source interface {
	Events() <-chan watcher.Event
}

// Notifier is told about every committed generation.
type Notifier interface {
	Publish(livereload.Reload)
}

// Orchestrator rebuilds the site once per change event, strictly one rebuild
// at a time, and notifies browsers after each successful rebuild.
type Orchestrator struct {
	site     Rebuilder
	source   Source
	notifier Notifier
	check    func() error
	report   func(*site.Stats, error)
	logger   *slog.Logger
	metrics  *metrics.Recorder
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics records rebuild outcomes on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = rec }
}

// WithLinkCheck runs check after every successful rebuild. Broken links are
// reported as warnings and never stop the loop.
func WithLinkCheck(check func() error) Option {
	return func(o *Orchestrator) { o.check = check }
}

// WithReporter calls report with the outcome of every rebuild.
func WithReporter(report func(*site.Stats, error)) Option {
	return func(o *Orchestrator) { o.report = report }
}

// New returns an Orchestrator.
func New(s Rebuilder, source Source, notifier Notifier, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		site:     s,
		source:   source,
		notifier: notifier,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run consumes events until ctx is cancelled or the source closes its
// channel. A failed rebuild is logged and the loop keeps watching.
func (o *Orchestrator) Run(ctx context.Context) error {
	events := o.source.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			o.rebuild(ctx, ev)
		}
	}
}

func (o *Orchestrator) rebuild(ctx context.Context, ev watcher.Event) {
	start := time.Now()
	stats, err := o.site.Rebuild(ctx)
	o.metrics.ObserveRebuild(time.Since(start), err)
	if o.report != nil {
		o.report(stats, err)
	}
	if err != nil {
		o.logger.Error("devserver: rebuild failed",
			slog.String("trigger", ev.Path),
			slog.String("kind", ev.Kind.String()),
			slog.String("error", err.Error()))
		return
	}

	o.logger.Info("devserver: rebuilt",
		slog.String("build_id", stats.BuildID),
		slog.String("trigger", ev.Path),
		slog.String("kind", ev.Kind.String()),
		slog.Int("changes", ev.Changes),
		slog.Int("documents", stats.Documents),
		slog.Duration("duration", stats.Duration))

	if o.check != nil {
		o.reportLinks(stats.BuildID, o.check())
	}

	o.notifier.Publish(livereload.Reload{BuildID: stats.BuildID})
}

func (o *Orchestrator) reportLinks(buildID string, err error) {
	if err == nil {
		return
	}
	var broken *linkcheck.BrokenLinksError
	if !errors.As(err, &broken) {
		o.logger.Warn("devserver: link check failed",
			slog.String("build_id", buildID),
			slog.String("error", err.Error()))
		return
	}
	for _, l := range broken.Links {
		o.logger.Warn("devserver: broken link",
			slog.String("build_id", buildID),
			slog.String("source", l.Source),
			slog.String("destination", l.Link.Destination))
	}
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(livereload.Reload)

// Publish calls f(r).
func (f NotifierFunc) Publish(r livereload.Reload) {
	f(r)
}
