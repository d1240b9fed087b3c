package docs

import (
	"path"
	"slices"

	"github.com/starford/folio/internal/alphanum"
)

// Directory groups the documents of one docs directory. Every loaded
// Directory holds exactly one index document.
type Directory struct {
	// Path is slash-separated and relative to the docs root; "" for the root.
	Path string
	Name string
	Docs []*Document
	Dirs []*Directory
	// Assets lists non-Markdown files to publish unchanged, including those
	// found in subdirectories that hold no documents.
	Assets []string
}

// Index returns the directory's index document, or nil while loading.
func (d *Directory) Index() *Document {
	for _, doc := range d.Docs {
		if doc.IsIndex {
			return doc
		}
	}
	return nil
}

// Pages returns the non-index documents ordered by title.
func (d *Directory) Pages() []*Document {
	out := make([]*Document, 0, len(d.Docs))
	for _, doc := range d.Docs {
		if !doc.IsIndex {
			out = append(out, doc)
		}
	}
	slices.SortStableFunc(out, func(a, b *Document) int {
		return alphanum.Compare(a.Title, b.Title)
	})
	return out
}

// Subdirs returns the child directories ordered by their index title.
func (d *Directory) Subdirs() []*Directory {
	out := slices.Clone(d.Dirs)
	slices.SortStableFunc(out, func(a, b *Directory) int {
		return alphanum.Compare(a.title(), b.title())
	})
	return out
}

func (d *Directory) title() string {
	if idx := d.Index(); idx != nil {
		return idx.Title
	}
	return d.Name
}

// Walk calls fn for every document, depth first, stopping at the first error.
func (d *Directory) Walk(fn func(*Document) error) error {
	for _, doc := range d.Docs {
		if err := fn(doc); err != nil {
			return err
		}
	}
	for _, sub := range d.Dirs {
		if err := sub.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// Documents flattens the tree in Walk order.
func (d *Directory) Documents() []*Document {
	var out []*Document
	_ = d.Walk(func(doc *Document) error {
		out = append(out, doc)
		return nil
	})
	return out
}

// AllAssets returns the asset paths of the whole tree.
func (d *Directory) AllAssets() []string {
	out := slices.Clone(d.Assets)
	for _, sub := range d.Dirs {
		out = append(out, sub.AllAssets()...)
	}
	return out
}

// Find returns the document stored at the slash-separated path rel.
func (d *Directory) Find(rel string) *Document {
	rel = path.Clean(rel)
	var found *Document
	_ = d.Walk(func(doc *Document) error {
		if doc.Path == rel {
			found = doc
			return errStop
		}
		return nil
	})
	return found
}

// FindURI returns the document served at u.
func (d *Directory) FindURI(u string) *Document {
	var found *Document
	_ = d.Walk(func(doc *Document) error {
		if doc.URI == u {
			found = doc
			return errStop
		}
		return nil
	})
	return found
}
