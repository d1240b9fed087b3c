// Package internal provides the application entry points: the dev server,
// one-shot builds, the MCP server and project scaffolding.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/devserver"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/linkcheck"
	"github.com/starford/folio/internal/livereload"
	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/mcpserver"
	"github.com/starford/folio/internal/metrics"
	"github.com/starford/folio/internal/preview"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/watcher"
)

const renderCacheSize = 1024

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if app.logger == nil {
		// Logs go to stderr so stdout stays usable for MCP and command output.
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}
	return app, nil
}

func (a *application) siteOptions(mode site.Mode, renderer markdown.Renderer) site.Options {
	cfg := a.config
	return site.Options{
		Title:          cfg.Title,
		DocsDir:        cfg.DocsPath(),
		BasePath:       cfg.BasePath,
		Rules:          cfg.NavigationRules(),
		Mode:           mode,
		LiveReloadPort: cfg.App.LiveReload.Port,
		Renderer:       renderer,
		Logger:         a.logger,
	}
}

// Serve builds the site into memory, serves it, and rebuilds it whenever the
// docs directory changes until ctx is cancelled or the process is signalled.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderer, err := markdown.NewCache(markdown.New(), renderCacheSize)
	if err != nil {
		return fmt.Errorf("init render cache: %w", err)
	}
	s := site.New(site.NewMemory(), app.siteOptions(site.ModeDev, renderer))

	var rec *metrics.Recorder
	if cfg.App.Metrics.Enabled {
		rec = metrics.New(nil)
	}

	status := api.NewStatus()
	start := time.Now()
	stats, err := s.Build(ctx)
	rec.ObserveRebuild(time.Since(start), err)
	status.Record(stats, err)
	if err != nil {
		// The next change retries; the preview answers 404 until then.
		logger.Error("serve: initial build failed", slog.String("error", err.Error()))
	} else {
		logger.Info("serve: site built",
			slog.String("build_id", stats.BuildID),
			slog.Int("documents", stats.Documents),
			slog.Duration("duration", stats.Duration))
	}

	broker := livereload.NewBroker()
	defer broker.Close()
	rec.TrackClients(broker.ClientCount)

	previewOpts := []preview.Option{
		preview.WithLogger(logger),
		preview.WithMetrics(rec),
		preview.WithHandler(api.Prefix+"/*", api.NewRouter(s, status)),
	}
	if rec != nil {
		previewOpts = append(previewOpts, preview.WithHandler(metrics.Path, rec.Handler()))
	}
	previewServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           preview.NewServer(s, s.BasePath(), previewOpts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	reloadServer := &http.Server{
		Addr:              cfg.App.LiveReload.Address(),
		Handler:           livereload.NewServer(broker, livereload.WithLogger(logger)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	w, err := watcher.New([]string{cfg.DocsPath()}, watcher.DefaultDebounce, logger)
	if err != nil {
		return fmt.Errorf("init watcher: %w", err)
	}
	orchestrator := devserver.New(s, w, broker,
		devserver.WithLogger(logger),
		devserver.WithMetrics(rec),
		devserver.WithReporter(status.Record),
		devserver.WithLinkCheck(func() error { return linkcheck.Run(s) }),
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error { return w.Run(gCtx) })
	g.Go(func() error { return orchestrator.Run(gCtx) })

	for _, srv := range []*http.Server{previewServer, reloadServer} {
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("serve: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range []*http.Server{previewServer, reloadServer} {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("serve: shutdown error", slog.String("error", err.Error()))
			}
		}
		return nil
	})

	logger.Info("serve: listening",
		slog.String("url", fmt.Sprintf("http://localhost:%d%s", cfg.App.HTTP.Port, s.BasePath())),
		slog.Int("livereload_port", cfg.App.LiveReload.Port))

	if err := g.Wait(); err != nil {
		logger.Error("serve: stopped with error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// BuildResult summarizes a one-shot build.
type BuildResult struct {
	Stats  *site.Stats
	OutDir string
	Broken []linkcheck.BrokenLink
}

// Build writes the site to the configured output directory and checks its
// links. Broken links fail the build with a *linkcheck.BrokenLinksError
// unless WithAllowFailedChecks is set; the result is returned either way.
func Build(ctx context.Context, opts ...Option) (*BuildResult, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg, logger := app.config, app.logger

	disk, err := site.NewDisk(cfg.OutPath())
	if err != nil {
		return nil, fmt.Errorf("init output: %w", err)
	}
	s := site.New(disk, app.siteOptions(app.mode, markdown.New()))

	stats, err := s.Build(ctx)
	if err != nil {
		return nil, err
	}
	res := &BuildResult{Stats: stats, OutDir: disk.Root()}
	logger.Debug("build: site written",
		slog.String("build_id", stats.BuildID),
		slog.String("out_dir", disk.Root()),
		slog.String("mode", app.mode.String()))

	err = linkcheck.Run(s)
	var broken *linkcheck.BrokenLinksError
	switch {
	case err == nil:
		return res, nil
	case errors.As(err, &broken):
		res.Broken = broken.Links
		if app.allowFailedChecks {
			logger.Warn("build: broken links ignored", slog.Int("count", len(broken.Links)))
			return res, nil
		}
		return res, err
	default:
		return res, err
	}
}

// MCP builds the site into memory, indexes it, and serves the MCP tools on
// stdio. The site and index follow changes to the docs directory.
func MCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithRelease(true)}, opts...))
	if err != nil {
		return err
	}
	cfg, logger := app.config, app.logger

	renderer, err := markdown.NewCache(markdown.New(), renderCacheSize)
	if err != nil {
		return fmt.Errorf("init render cache: %w", err)
	}
	s := site.New(site.NewMemory(), app.siteOptions(site.ModeRelease, renderer))
	if _, err := s.Build(ctx); err != nil {
		return err
	}

	dbPath := cfg.Search.DBPath
	if dbPath == "" {
		f, err := os.CreateTemp("", "folio-index-*.db")
		if err != nil {
			return fmt.Errorf("create index file: %w", err)
		}
		f.Close()
		dbPath = f.Name()
		defer os.Remove(dbPath)
	} else if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.Root(), dbPath)
	}

	db, err := index.Open(dbPath)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, s.Root(), logger); err != nil {
		return fmt.Errorf("initial index sync: %w", err)
	}

	w, err := watcher.New([]string{cfg.DocsPath()}, watcher.DefaultDebounce, logger)
	if err != nil {
		return fmt.Errorf("init watcher: %w", err)
	}
	reindex := devserver.NotifierFunc(func(r livereload.Reload) {
		if err := index.Sync(db, s.Root(), logger); err != nil {
			logger.Warn("mcp: index sync failed",
				slog.String("build_id", r.BuildID),
				slog.String("error", err.Error()))
		}
	})
	orchestrator := devserver.New(s, w, reindex, devserver.WithLogger(logger))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error { return w.Run(gCtx) })
	g.Go(func() error { return orchestrator.Run(gCtx) })
	g.Go(func() error {
		// Stdio ends when the client closes stdin; stop watching then.
		defer cancel()
		logger.Info("mcp: serving on stdio", slog.String("docs_dir", cfg.DocsPath()))
		return mcpserver.New(s, db).ServeStdio()
	})

	return g.Wait()
}
