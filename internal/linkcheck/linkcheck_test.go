package linkcheck

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/preview"
	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/testutil"
)

func build(t *testing.T, base string, files map[string]string) *site.Site {
	t.Helper()
	_, docsDir := testutil.Project(t, files)
	s := site.New(site.NewMemory(), site.Options{
		Title:    "My project",
		DocsDir:  docsDir,
		BasePath: base,
		Mode:     site.ModeRelease,
		Logger:   testutil.Logger(),
	})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return s
}

func TestRun_DetectsBrokenLinks(t *testing.T) {
	s := build(t, "/", map[string]string{
		"README.md": "[highway to hell](/dont-exist)",
	})

	err := Run(s)
	var broken *BrokenLinksError
	if !errors.As(err, &broken) {
		t.Fatalf("expected BrokenLinksError, got %v", err)
	}
	if len(broken.Links) != 1 || broken.Links[0].Source != "README.md" || broken.Links[0].Link.Destination != "/dont-exist" {
		t.Errorf("broken = %+v", broken.Links)
	}
}

func TestRun_NoBrokenLinks(t *testing.T) {
	s := build(t, "/", map[string]string{
		"README.md":       "[a](/other) [b](/other.html) [c](/nested/) [d](/nested/other.html) [e](https://example.com)",
		"other.md":        "No links!",
		"nested/other.md": "[back](/)",
	})
	if err := Run(s); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_IgnoresFragments(t *testing.T) {
	s := build(t, "/", map[string]string{
		"README.md": "[x](/other#heading-1) [y](#local)",
		"other.md":  "# Heading",
	})
	if err := Run(s); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_HonorsBasePath(t *testing.T) {
	s := build(t, "/not_docs", map[string]string{
		"README.md":       "[a](/other) [b](/nested/) [c](/nested/other.html)",
		"other.md":        "content",
		"nested/other.md": "content",
	})
	if err := Run(s); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRun_RelativeLinks(t *testing.T) {
	s := build(t, "/", map[string]string{
		"README.md":      "[a](guide/intro) [b](missing)",
		"guide/intro.md": "[sibling](next) [up](../README.md)",
		"guide/next.md":  "ok",
	})

	err := Run(s)
	var broken *BrokenLinksError
	if !errors.As(err, &broken) {
		t.Fatalf("expected BrokenLinksError, got %v", err)
	}
	got := map[string]bool{}
	for _, b := range broken.Links {
		got[b.Source+" -> "+b.Link.Destination] = true
	}
	if len(got) != 2 || !got["README.md -> missing"] || !got["guide/intro.md -> ../README.md"] {
		t.Errorf("broken = %v", got)
	}
}

func TestTarget(t *testing.T) {
	tests := []struct {
		doc, dest, want string
		ok              bool
	}{
		{"/guide/intro", "next", "/guide/next", true},
		{"/guide/intro", "../x#h", "/x#h", true},
		{"/guide/intro", "sub/", "/guide/sub/", true},
		{"/", "other", "/other", true},
		{"/guide/intro", "/abs", "/abs", true},
		{"/guide/intro", "#frag", "", false},
	}
	for _, tt := range tests {
		got, ok := Target(tt.doc, tt.dest)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Target(%q, %q) = %q, %v; want %q, %v", tt.doc, tt.dest, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCheck_AgreesWithPreviewServer(t *testing.T) {
	for _, base := range []string{"/", "/not_docs/"} {
		t.Run(base, func(t *testing.T) {
			s := build(t, base, map[string]string{
				"README.md":       "[a](/other) [b](/other.html) [c](/nested/) [d](/gone) [e](guide/intro) [f](/logo.png)",
				"other.md":        "[x](#top) [y](/other#heading-1) [z](/nested/missing.html)",
				"nested/other.md": "[up](../other) [bad](../nope/)",
				"guide/intro.md":  "[sib](next)",
				"guide/next.md":   "ok",
				"logo.png":        "png",
			})
			srv := httptest.NewServer(preview.NewServer(s, s.BasePath(), preview.WithLogger(testutil.Logger())).Handler())
			defer srv.Close()

			var root *docs.Directory
			var broken []BrokenLink
			s.View(func(r *docs.Directory, artifacts site.Reader) {
				root = r
				broken = Check(r, artifacts, s.BasePath())
			})
			reported := map[string]bool{}
			for _, b := range broken {
				reported[b.Source+" "+b.Link.Destination] = true
			}

			checked := 0
			_ = root.Walk(func(doc *docs.Document) error {
				for _, link := range doc.Links {
					if link.Kind != markdown.Local {
						continue
					}
					target, ok := Target(doc.URI, link.Destination)
					if !ok {
						continue
					}
					resp, err := http.Get(srv.URL + target)
					if err != nil {
						t.Fatalf("GET %s: %v", target, err)
					}
					resp.Body.Close()
					checked++

					isBroken := reported[doc.Path+" "+link.Destination]
					if (resp.StatusCode == http.StatusOK) == isBroken {
						t.Errorf("%s -> %s: status %d, reported broken %v", doc.Path, target, resp.StatusCode, isBroken)
					}
				}
				return nil
			})
			if checked == 0 || len(broken) != 3 {
				t.Errorf("checked %d links, %d broken: %+v", checked, len(broken), broken)
			}
		})
	}
}

func TestRun_ConsistentDuringRebuilds(t *testing.T) {
	_, docsDir := testutil.Project(t, map[string]string{
		"README.md": "[page](/a)",
		"a.md":      "# A",
	})
	s := site.New(site.NewMemory(), site.Options{
		Title:   "My project",
		DocsDir: docsDir,
		Mode:    site.ModeRelease,
		Logger:  testutil.Logger(),
	})
	if _, err := s.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			if err := Run(s); err != nil {
				t.Errorf("Run during rebuild: %v", err)
				return
			}
		}
	}()

	// Each generation renames the page and moves the link with it.
	for i := 0; i < 30; i++ {
		from, to := "a", "b"
		if i%2 == 1 {
			from, to = "b", "a"
		}
		if err := os.Rename(filepath.Join(docsDir, from+".md"), filepath.Join(docsDir, to+".md")); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(docsDir, "README.md"), []byte("[page](/"+to+")"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Rebuild(context.Background()); err != nil {
			t.Fatalf("Rebuild: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}
