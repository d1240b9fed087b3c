// Package watcher turns native filesystem notifications into debounced
// change events.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period that ends a burst of changes.
const DefaultDebounce = time.Second

// Kind classifies a change.
type Kind int

const (
	Created Kind = iota
	Updated
	Deleted
	Renamed
)

func (k Kind) String() string {
	switch k {
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	case Renamed:
		return "renamed"
	default:
		return "updated"
	}
}

// Event summarizes one settled burst of changes.
type Event struct {
	// Path and Kind describe the last change in the burst.
	Path string
	Kind Kind
	// Changes counts the raw notifications coalesced into this event.
	Changes int
}

// Watcher recursively watches directories and emits at most one Event per
// settle period. Directories created while watching are added automatically.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	logger   *slog.Logger
	events   chan Event
}

// New starts watching every directory below each of paths.
func New(paths []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: new: %w", err)
	}
	for _, p := range paths {
		if err := addDirsRecursive(fw, p); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watcher: add %s: %w", p, err)
		}
	}

	return &Watcher{
		fs:       fw,
		debounce: debounce,
		logger:   logger,
		// One pending event is enough: consumers rebuild from scratch, so a
		// queued event already covers any change that arrives after it.
		events: make(chan Event, 1),
	}, nil
}

// Events is the single consumer queue.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run processes notifications until ctx is cancelled. It closes the event
// channel and the underlying watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	defer w.fs.Close()

	w.logger.Info("watcher: started", slog.Duration("debounce", w.debounce))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
		pending *Event
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			timerCh = nil
			if pending == nil {
				continue
			}
			select {
			case w.events <- *pending:
				w.logger.Debug("watcher: change settled",
					slog.String("path", pending.Path),
					slog.String("kind", pending.Kind.String()),
					slog.Int("changes", pending.Changes))
			default:
				w.logger.Debug("watcher: consumer busy, change folded into queued event",
					slog.String("path", pending.Path))
			}
			pending = nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			kind, relevant := classify(ev)
			if !relevant {
				continue
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addDirsRecursive(w.fs, ev.Name); err != nil {
						w.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", err.Error()))
					} else {
						w.logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
				}
			}

			if pending == nil {
				pending = &Event{}
			}
			pending.Path = ev.Name
			pending.Kind = kind
			pending.Changes++

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", err.Error()))
		}
	}
}

// classify maps a raw notification to a Kind. Pure attribute changes and
// editor swap files are not relevant.
func classify(ev fsnotify.Event) (Kind, bool) {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return 0, false
	}
	switch {
	case ev.Op&fsnotify.Create != 0:
		return Created, true
	case ev.Op&fsnotify.Write != 0:
		return Updated, true
	case ev.Op&fsnotify.Remove != 0:
		return Deleted, true
	case ev.Op&fsnotify.Rename != 0:
		return Renamed, true
	default:
		return 0, false
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return w.Add(path)
		}
		return nil
	})
}
