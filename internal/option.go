package internal

import (
	"log/slog"

	"github.com/starford/folio/internal/site"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config            *Config
	logger            *slog.Logger
	mode              site.Mode
	allowFailedChecks bool
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON logger built from the configured log level.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithRelease builds pages without development hooks.
func WithRelease(release bool) Option {
	return func(a *application) {
		if release {
			a.mode = site.ModeRelease
		} else {
			a.mode = site.ModeDev
		}
	}
}

// WithAllowFailedChecks reports broken links as warnings instead of failing the build.
func WithAllowFailedChecks(allow bool) Option {
	return func(a *application) {
		a.allowFailedChecks = allow
	}
}
