package index

import (
	"log/slog"

	"github.com/starford/folio/internal/checksum"
	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/linkcheck"
	"github.com/starford/folio/internal/markdown"
)

// Sync brings the index up to date with a loaded docs tree:
//   - new/changed pages are upserted
//   - pages no longer in the tree are deleted
func Sync(db *DB, root *docs.Directory, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	seen := make(map[string]struct{})
	err = root.Walk(func(doc *docs.Document) error {
		seen[doc.Path] = struct{}{}

		p := pageOf(doc)
		if checksums[p.Path] == p.Checksum {
			return nil
		}
		if err := db.Upsert(p); err != nil {
			logger.Warn("index: sync failed", slog.String("path", p.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("index: indexed", slog.String("path", p.Path))
		}
		return nil
	})
	if err != nil {
		return err
	}

	for p := range checksums {
		if _, ok := seen[p]; ok {
			continue
		}
		if err := db.Delete(p); err != nil {
			logger.Warn("index: delete failed", slog.String("path", p), slog.String("error", err.Error()))
		} else {
			logger.Debug("index: removed stale", slog.String("path", p))
		}
	}
	return nil
}

func pageOf(doc *docs.Document) Page {
	p := Page{
		Path:  doc.Path,
		URI:   doc.URI,
		Title: doc.Title,
		Body:  doc.Body,
	}
	for _, l := range doc.Links {
		if l.Kind != markdown.Local {
			continue
		}
		if target, ok := linkcheck.Target(doc.URI, l.Destination); ok {
			p.Links = append(p.Links, target)
		}
	}
	p.Checksum = checksum.SumParts(append([]string{doc.URI, doc.Title, doc.Body}, p.Links...)...)
	return p
}
