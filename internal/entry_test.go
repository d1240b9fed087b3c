package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/folio/internal/linkcheck"
	"github.com/starford/folio/internal/testutil"
)

func buildConfig(t *testing.T, files map[string]string) *Config {
	t.Helper()
	root, _ := testutil.Project(t, files)
	cfg := NewDefaultConfig(root)
	cfg.Title = "Docs"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func TestBuild_WritesSite(t *testing.T) {
	cfg := buildConfig(t, map[string]string{
		"README.md":     "# Home\n\n[Guide](/guide/)\n",
		"guide/one.md":  "# One\n",
		"guide/pic.png": "png",
	})

	res, err := Build(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger()), WithRelease(true))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if res.Stats.Documents != 3 || len(res.Broken) != 0 {
		t.Errorf("result = %+v", res)
	}
	for _, p := range []string{"index.html", "guide/index.html", "guide/one.html", "guide/pic.png", "search_index.json", "assets/style.css"} {
		if _, err := os.Stat(filepath.Join(res.OutDir, filepath.FromSlash(p))); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
	page, _ := os.ReadFile(filepath.Join(res.OutDir, "guide", "one.html"))
	if strings.Contains(string(page), "livereload.js\"") {
		t.Error("release build should not load the reload client")
	}
}

func TestBuild_BrokenLinksFail(t *testing.T) {
	cfg := buildConfig(t, map[string]string{"README.md": "[nowhere](/does-not-exist)\n"})

	res, err := Build(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger()))
	var broken *linkcheck.BrokenLinksError
	if !errors.As(err, &broken) {
		t.Fatalf("err = %v, want BrokenLinksError", err)
	}
	if len(broken.Links) != 1 || broken.Links[0].Source != "README.md" {
		t.Errorf("broken = %+v", broken.Links)
	}
	if res == nil || len(res.Broken) != 1 {
		t.Errorf("result should still describe the build: %+v", res)
	}
}

func TestBuild_AllowFailedChecks(t *testing.T) {
	cfg := buildConfig(t, map[string]string{"README.md": "[nowhere](/does-not-exist)\n"})

	res, err := Build(context.Background(), WithConfig(cfg), WithLogger(testutil.Logger()), WithAllowFailedChecks(true))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(res.Broken) != 1 {
		t.Errorf("broken = %+v", res.Broken)
	}
}

func TestBuild_RequiresConfig(t *testing.T) {
	if _, err := Build(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
