package site

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/navigation"
	"github.com/starford/folio/internal/uri"
)

// Mode selects between development and release output.
type Mode int

const (
	// ModeDev pages load the live-reload client.
	ModeDev Mode = iota
	// ModeRelease pages carry no development hooks.
	ModeRelease
)

func (m Mode) String() string {
	if m == ModeRelease {
		return "release"
	}
	return "dev"
}

// Options configure a Site.
type Options struct {
	Title    string
	DocsDir  string
	BasePath string
	Rules    []navigation.Rule
	Mode     Mode
	// LiveReloadPort is advertised to pages in ModeDev.
	LiveReloadPort int
	Renderer       markdown.Renderer
	// Workers bounds parallel page generation. Defaults to GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Stats describes one completed build.
type Stats struct {
	BuildID    string
	Documents  int
	Assets     int
	Duration   time.Duration
	Unresolved []navigation.Rule
}

// Site ties a docs tree to the backend its artifacts are written to.
//
// Reset loads the source tree, Build generates and commits it. Root and
// Navigation always describe the committed generation, never one still
// being built. Readers of the tree wait while a generation is committed.
type Site struct {
	opts    Options
	backend Backend

	buildMu sync.Mutex

	mu      sync.RWMutex
	root    *docs.Directory
	nav     []navigation.Link
	pending *docs.Directory
}

// New returns a Site writing to backend.
func New(backend Backend, opts Options) *Site {
	opts.BasePath = uri.NormalizeBase(opts.BasePath)
	if opts.Renderer == nil {
		opts.Renderer = markdown.New()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Site{opts: opts, backend: backend}
}

// Reset re-reads the docs tree from disk. The previously built artifacts stay
// readable until the next Build commits a new generation over them.
func (s *Site) Reset() error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	return s.reset()
}

// Build generates every artifact from the most recently loaded tree and
// replaces the backend's content with it. A Site that was never Reset loads
// the tree first.
func (s *Site) Build(ctx context.Context) (*Stats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	return s.build(ctx)
}

// Rebuild runs Reset and Build as one step.
func (s *Site) Rebuild(ctx context.Context) (*Stats, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if err := s.reset(); err != nil {
		return nil, err
	}
	return s.build(ctx)
}

func (s *Site) reset() error {
	root, err := docs.Load(s.opts.DocsDir, docs.Options{
		BasePath: s.opts.BasePath,
		Renderer: s.opts.Renderer,
	})
	if err != nil {
		return fmt.Errorf("site: load docs: %w", err)
	}
	s.mu.Lock()
	s.pending = root
	s.mu.Unlock()
	return nil
}

func (s *Site) build(ctx context.Context) (*Stats, error) {
	start := time.Now()
	stats := &Stats{BuildID: uuid.NewString()}

	s.mu.RLock()
	root := s.pending
	if root == nil {
		root = s.root
	}
	s.mu.RUnlock()

	if root == nil {
		if err := s.reset(); err != nil {
			return nil, err
		}
		s.mu.RLock()
		root = s.pending
		s.mu.RUnlock()
	}

	nav, unresolved := navigation.Build(root, s.opts.Rules, s.opts.BasePath)
	for _, r := range unresolved {
		s.opts.Logger.Warn("site: navigation rule matches no page",
			slog.String("build_id", stats.BuildID),
			slog.String("path", r.Path))
	}
	stats.Unresolved = unresolved

	// The tree is committed in the same critical section as the artifacts so
	// View never pairs one generation's tree with another's artifacts.
	s.mu.Lock()
	err := s.backend.Replace(func(store Store) error {
		g := &generator{opts: s.opts, root: root, nav: nav, store: store}
		n, err := g.run(ctx)
		stats.Documents, stats.Assets = n.documents, n.assets
		return err
	})
	if err == nil {
		s.root = root
		s.nav = nav
		s.pending = nil
	}
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("site: build: %w", err)
	}

	stats.Duration = time.Since(start)
	s.opts.Logger.Debug("site: built",
		slog.String("build_id", stats.BuildID),
		slog.String("mode", s.opts.Mode.String()),
		slog.Int("documents", stats.Documents),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// Root returns the committed docs tree, or nil before the first Build.
func (s *Site) Root() *docs.Directory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// View calls fn with the committed tree and the artifacts generated from it.
// Builds wait for fn to return. fn must not call back into s.
func (s *Site) View(fn func(root *docs.Directory, artifacts Reader)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.root, s.backend)
}

// Navigation returns the committed navigation.
func (s *Site) Navigation() []navigation.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav
}

// BasePath returns the normalized base path.
func (s *Site) BasePath() string {
	return s.opts.BasePath
}

// Title returns the project title.
func (s *Site) Title() string {
	return s.opts.Title
}

// Read returns an artifact from the backend.
func (s *Site) Read(p string) ([]byte, error) {
	return s.backend.Read(p)
}

// Has reports whether the backend holds an artifact at p.
func (s *Site) Has(p string) bool {
	return s.backend.Has(p)
}
