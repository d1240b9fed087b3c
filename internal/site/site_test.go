package site

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/navigation"
	"github.com/starford/folio/internal/testutil"
)

var projectFiles = map[string]string{
	"README.md":       "# Welcome\n\nSee [one](/one).\n",
	"one.md":          "---\ntitle: Page One\n---\n# Heading\n",
	"child/leaf.md":   "# Leaf\n",
	"images/logo.png": "png-bytes",
}

func newSite(t *testing.T, backend Backend, opts Options) (*Site, string) {
	t.Helper()
	_, docsDir := testutil.Project(t, projectFiles)
	opts.DocsDir = docsDir
	if opts.Title == "" {
		opts.Title = "Test Project"
	}
	opts.Logger = testutil.Logger()
	return New(backend, opts), docsDir
}

func TestSite_BuildWritesArtifacts(t *testing.T) {
	mem := NewMemory()
	s, _ := newSite(t, mem, Options{Mode: ModeRelease})

	stats, err := s.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if stats.BuildID == "" || stats.Documents != 4 || stats.Assets != 1 {
		t.Errorf("stats = %+v", stats)
	}

	for _, p := range []string{
		"index.html",
		"one.html",
		"child/index.html",
		"child/leaf.html",
		"images/logo.png",
		"search_index.json",
		"assets/app.js",
		"assets/style.css",
		"assets/livereload.js",
	} {
		if !mem.Has(p) {
			t.Errorf("missing artifact %s (have %v)", p, mem.Paths())
		}
	}

	index, _ := mem.Read("index.html")
	if !strings.Contains(string(index), "<title>Test Project | Test Project</title>") {
		t.Errorf("root page should use the project title:\n%s", index)
	}
	if strings.Contains(string(index), "livereload.js\"") {
		t.Error("release build should not include the reload client")
	}

	one, _ := mem.Read("one.html")
	if !strings.Contains(string(one), "<title>Page One | Test Project</title>") {
		t.Errorf("page title wrong:\n%s", one)
	}
}

func TestSite_SearchIndex(t *testing.T) {
	mem := NewMemory()
	s, _ := newSite(t, mem, Options{})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	data, err := mem.Read(SearchIndexPath)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	var idx searchIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(idx.Documents) != 4 {
		t.Fatalf("documents = %+v", idx.Documents)
	}
	ids := map[int]bool{}
	for _, d := range idx.Documents {
		ids[d.ID] = true
		if d.URI == "/one" && d.Title != "Page One" {
			t.Errorf("entry for /one = %+v", d)
		}
	}
	if len(ids) != 4 {
		t.Errorf("ids are not unique: %+v", idx.Documents)
	}
}

func TestSite_DevModeIncludesReloadClient(t *testing.T) {
	mem := NewMemory()
	s, _ := newSite(t, mem, Options{Mode: ModeDev, LiveReloadPort: 35729})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	page, _ := mem.Read("one.html")
	if !strings.Contains(string(page), `data-port="35729"`) {
		t.Error("dev build should include the reload client")
	}
}

func TestSite_BasePath(t *testing.T) {
	mem := NewMemory()
	s, _ := newSite(t, mem, Options{BasePath: "docs"})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if s.BasePath() != "/docs/" {
		t.Errorf("BasePath = %q", s.BasePath())
	}
	if doc := s.Root().Find("one.md"); doc.URI != "/docs/one" {
		t.Errorf("URI = %q", doc.URI)
	}
	index, _ := mem.Read("index.html")
	if !strings.Contains(string(index), `href="/docs/one"`) {
		t.Errorf("links not placed under base path:\n%s", index)
	}
}

func TestSite_NavigationRules(t *testing.T) {
	mem := NewMemory()
	s, _ := newSite(t, mem, Options{Rules: []navigation.Rule{
		navigation.File("one.md"),
		navigation.File("gone.md"),
	}})
	stats, err := s.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if len(stats.Unresolved) != 1 || stats.Unresolved[0].Path != "gone.md" {
		t.Errorf("unresolved = %+v", stats.Unresolved)
	}
	nav := s.Navigation()
	if len(nav) != 1 || nav[0].Title != "Page One" {
		t.Errorf("navigation = %+v", nav)
	}
}

func TestSite_ResetIsNotVisibleUntilBuild(t *testing.T) {
	mem := NewMemory()
	s, docsDir := newSite(t, mem, Options{})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	if err := os.WriteFile(filepath.Join(docsDir, "new.md"), []byte("# New"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if s.Root().Find("new.md") != nil || mem.Has("new.html") {
		t.Fatal("reset tree visible before build")
	}

	if _, err := s.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Root().Find("new.md") == nil || !mem.Has("new.html") {
		t.Fatal("build did not commit the reset tree")
	}
}

func TestSite_FailedRebuildKeepsServedContent(t *testing.T) {
	mem := NewMemory()
	s, docsDir := newSite(t, mem, Options{})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	bad := filepath.Join(docsDir, "bad.md")
	if err := os.WriteFile(bad, []byte("---\ntitle: [oops\n---\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Rebuild(context.Background()); err == nil {
		t.Fatal("expected rebuild error")
	}
	if !mem.Has("index.html") || !mem.Has("one.html") {
		t.Fatal("failed rebuild removed served artifacts")
	}
}

func TestSite_ReadersNeverSeePartialGeneration(t *testing.T) {
	mem := NewMemory()
	s, _ := newSite(t, mem, Options{})
	ctx := context.Background()
	if _, err := s.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	var missing atomic.Int64
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if !mem.Has("index.html") || !mem.Has("child/leaf.html") {
					missing.Add(1)
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if _, err := s.Rebuild(ctx); err != nil {
			t.Fatalf("Rebuild: %v", err)
		}
	}
	close(stop)
	wg.Wait()

	if n := missing.Load(); n != 0 {
		t.Errorf("readers observed %d partial generations", n)
	}
}

func TestSite_DiskBuild(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	d, err := NewDisk(out)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := newSite(t, d, Options{Mode: ModeRelease})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	for _, p := range []string{"index.html", "child/leaf.html", "images/logo.png", "assets/style.css"} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(p))); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
}

func TestSite_ConflictingOutputsFail(t *testing.T) {
	for name, files := range map[string]map[string]string{
		"page and asset":    {"README.md": "# Home", "one.md": "# One", "one.html": "<p>raw</p>"},
		"search index":      {"README.md": "# Home", "search_index.json": "{}"},
		"built-in asset":    {"README.md": "# Home", "assets/app.js": "alert(1)"},
		"index and sibling": {"README.md": "# Home", "index.html": "<p>raw</p>"},
	} {
		t.Run(name, func(t *testing.T) {
			_, docsDir := testutil.Project(t, files)
			s := New(NewMemory(), Options{Title: "T", DocsDir: docsDir, Logger: testutil.Logger()})
			_, err := s.Rebuild(context.Background())
			if !errors.Is(err, apperr.ErrConflict) {
				t.Fatalf("Rebuild = %v, want ErrConflict", err)
			}
		})
	}
}
