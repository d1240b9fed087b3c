// Package docs loads a documentation tree from disk into Documents and
// Directories, synthesizing an index page for every directory without one.
package docs

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/folio/internal/frontmatter"
	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/uri"
)

// IndexFile is the file name that marks a directory's index document.
const IndexFile = uri.IndexStem + ".md"

// Document is one rendered Markdown page.
type Document struct {
	// ID is unique within one loaded tree.
	ID int
	// Path is slash-separated and relative to the docs root.
	Path        string
	Title       string
	URI         string
	Frontmatter *frontmatter.Frontmatter
	// Body is the raw Markdown with the frontmatter removed.
	Body     string
	HTML     string
	Headings []markdown.Heading
	Links    []markdown.Link
	IsIndex  bool
	// Generated is set on index pages synthesized during loading.
	Generated bool
}

// OutputPath is the artifact path the document renders to.
func (d *Document) OutputPath() string {
	return uri.OutputPath(d.Path)
}

// Options configure document construction.
type Options struct {
	// BasePath is the URL prefix every URI is placed under.
	BasePath string
	// Renderer defaults to a fresh markdown.Goldmark.
	Renderer markdown.Renderer
	// RootName names the docs root. Used as the title of a root index that
	// declares none.
	RootName string
}

func (o Options) withDefaults() Options {
	o.BasePath = uri.NormalizeBase(o.BasePath)
	if o.Renderer == nil {
		o.Renderer = markdown.New()
	}
	if o.RootName == "" {
		o.RootName = "docs"
	}
	return o
}

// NewDocument parses and renders raw file content stored at rel.
func NewDocument(rel string, data []byte, id int, opts Options) (*Document, error) {
	opts = opts.withDefaults()
	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")

	fm, body, err := frontmatter.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("docs: %s: %w", rel, err)
	}
	res, err := opts.Renderer.Render([]byte(body), markdown.Options{URLRoot: opts.BasePath})
	if err != nil {
		return nil, fmt.Errorf("docs: %s: %w", rel, err)
	}

	doc := &Document{
		ID:          id,
		Path:        rel,
		URI:         uri.FromPath(rel, opts.BasePath),
		Frontmatter: fm,
		Body:        body,
		HTML:        res.HTML,
		Headings:    res.Headings,
		Links:       res.Links,
		IsIndex:     path.Base(rel) == IndexFile,
	}
	doc.Title = deriveTitle(doc, opts.RootName)
	return doc, nil
}

// deriveTitle returns the frontmatter title, else the first H1, else a name
// taken from the path.
func deriveTitle(d *Document, rootName string) string {
	if t, ok := d.Frontmatter.Get("title"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	for _, h := range d.Headings {
		if h.Level == 1 && h.Title != "" {
			return h.Title
		}
	}
	if d.IsIndex {
		if dir := path.Dir(d.Path); dir != "." {
			return path.Base(dir)
		}
		return rootName
	}
	base := path.Base(d.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}
