// Package templates renders HTML pages and carries the static assets every
// built site ships with.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/navigation"
)

//go:embed page.html
var pageHTML string

//go:embed assets
var assetFS embed.FS

// AssetsDir is the artifact directory assets are written to.
const AssetsDir = "assets"

// Page is the data a page template is executed with.
type Page struct {
	ProjectTitle string
	PageTitle    string
	Content      template.HTML
	Headings     []markdown.Heading
	Navigation   []navigation.Link
	CurrentURI   string
	BasePath     string
	// LiveReloadPort is zero in release builds, which omits the reload client.
	LiveReloadPort int
}

var page = template.Must(template.New("page").Funcs(template.FuncMap{
	"active": func(current, uri string) bool {
		if current == uri {
			return true
		}
		return uri != "/" && strings.HasPrefix(current, uri+"/")
	},
	"asset": func(base, name string) string {
		return strings.TrimSuffix(base, "/") + "/" + AssetsDir + "/" + name
	},
	"dict": func(current string, links []navigation.Link) navLevel {
		return navLevel{Current: current, Links: links}
	},
}).Parse(pageHTML))

type navLevel struct {
	Current string
	Links   []navigation.Link
}

// Render executes the page template.
func Render(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := page.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("templates: render %s: %w", p.CurrentURI, err)
	}
	return buf.Bytes(), nil
}

// Asset is a static file shipped with every site.
type Asset struct {
	// Path is relative to the artifact root, e.g. "assets/app.js".
	Path    string
	Content []byte
}

// Assets returns every embedded asset.
func Assets() ([]Asset, error) {
	var out []Asset
	err := fs.WalkDir(assetFS, AssetsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := assetFS.ReadFile(p)
		if err != nil {
			return err
		}
		out = append(out, Asset{Path: p, Content: data})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("templates: read assets: %w", err)
	}
	return out, nil
}
