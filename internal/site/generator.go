package site

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/navigation"
	"github.com/starford/folio/internal/templates"
	"github.com/starford/folio/internal/uri"
)

// SearchIndexPath is the artifact holding the client-side search index.
const SearchIndexPath = "search_index.json"

type generator struct {
	opts  Options
	root  *docs.Directory
	nav   []navigation.Link
	store Store
}

type counts struct {
	documents int
	assets    int
}

func (g *generator) run(ctx context.Context) (counts, error) {
	documents := g.root.Documents()
	assets := g.root.AllAssets()
	n := counts{documents: len(documents), assets: len(assets)}

	builtins, err := templates.Assets()
	if err != nil {
		return n, err
	}
	if err := claimOutputs(documents, assets, builtins); err != nil {
		return n, err
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.Workers)

	for _, doc := range documents {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.page(doc)
		})
	}
	for _, rel := range assets {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src := filepath.Join(g.opts.DocsDir, filepath.FromSlash(rel))
			return g.store.Copy(src, rel)
		})
	}
	if err := eg.Wait(); err != nil {
		return n, err
	}

	if err := g.searchIndex(documents); err != nil {
		return n, err
	}
	for _, a := range builtins {
		if err := g.store.Write(a.Path, a.Content); err != nil {
			return n, err
		}
	}
	return n, nil
}

// claimOutputs fails when two sources would write the same artifact, which
// would otherwise leave the result up to write order.
func claimOutputs(documents []*docs.Document, assets []string, builtins []templates.Asset) error {
	owner := map[string]string{SearchIndexPath: "search index"}
	for _, a := range builtins {
		owner[a.Path] = "built-in " + a.Path
	}
	claim := func(out, src string) error {
		if prev, ok := owner[out]; ok {
			return fmt.Errorf("site: %s and %s both produce %s: %w", prev, src, out, apperr.ErrConflict)
		}
		owner[out] = src
		return nil
	}
	for _, doc := range documents {
		if err := claim(doc.OutputPath(), doc.Path); err != nil {
			return err
		}
	}
	for _, rel := range assets {
		if err := claim(rel, rel); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) page(doc *docs.Document) error {
	title := doc.Title
	if doc.URI == uri.Join(g.opts.BasePath, "") {
		title = g.opts.Title
	}

	p := templates.Page{
		ProjectTitle: g.opts.Title,
		PageTitle:    title,
		Content:      template.HTML(doc.HTML),
		Headings:     doc.Headings,
		Navigation:   g.nav,
		CurrentURI:   doc.URI,
		BasePath:     g.opts.BasePath,
	}
	if g.opts.Mode == ModeDev {
		p.LiveReloadPort = g.opts.LiveReloadPort
	}

	out, err := templates.Render(p)
	if err != nil {
		return err
	}
	return g.store.Write(doc.OutputPath(), out)
}

type searchIndex struct {
	Fields    []string         `json:"fields"`
	Documents []searchDocument `json:"documents"`
}

type searchDocument struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URI   string `json:"uri"`
	Body  string `json:"body"`
}

func (g *generator) searchIndex(documents []*docs.Document) error {
	idx := searchIndex{
		Fields:    []string{"title", "uri", "body"},
		Documents: make([]searchDocument, 0, len(documents)),
	}
	for _, doc := range documents {
		idx.Documents = append(idx.Documents, searchDocument{
			ID:    doc.ID,
			Title: doc.Title,
			URI:   doc.URI,
			Body:  doc.Body,
		})
	}
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("site: encode search index: %w", err)
	}
	return g.store.Write(SearchIndexPath, data)
}
