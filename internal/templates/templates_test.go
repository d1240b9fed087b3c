package templates

import (
	"strings"
	"testing"

	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/navigation"
)

func TestRender_Page(t *testing.T) {
	out, err := Render(Page{
		ProjectTitle: "Folio",
		PageTitle:    "Guide",
		Content:      "<h1 id=\"guide-1\">Guide</h1>",
		Headings:     []markdown.Heading{{Level: 1, Title: "Guide", Anchor: "guide-1"}},
		Navigation: []navigation.Link{
			{Title: "Guide", URI: "/docs/guide"},
			{Title: "API", URI: "/docs/api", Children: []navigation.Link{{Title: "Calls", URI: "/docs/api/calls"}}},
		},
		CurrentURI: "/docs/guide",
		BasePath:   "/docs/",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	html := string(out)
	for _, want := range []string{
		"<title>Guide | Folio</title>",
		`href="/docs/assets/style.css"`,
		`<h1 id="guide-1">Guide</h1>`,
		`<a href="#guide-1">Guide</a>`,
		`<li class="active">`,
		`<a href="/docs/api/calls">Calls</a>`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "livereload.js") {
		t.Error("release page should not load the reload client")
	}
}

func TestRender_LiveReloadScript(t *testing.T) {
	out, err := Render(Page{ProjectTitle: "P", PageTitle: "P", BasePath: "/", LiveReloadPort: 35729})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(string(out), `src="/assets/livereload.js" data-port="35729"`) {
		t.Errorf("reload client missing:\n%s", out)
	}
}

func TestAssets(t *testing.T) {
	assets, err := Assets()
	if err != nil {
		t.Fatalf("Assets: %v", err)
	}
	got := map[string]bool{}
	for _, a := range assets {
		got[a.Path] = len(a.Content) > 0
	}
	for _, want := range []string{"assets/app.js", "assets/style.css", "assets/normalize.css", "assets/livereload.js"} {
		if !got[want] {
			t.Errorf("asset %s missing or empty", want)
		}
	}
}
