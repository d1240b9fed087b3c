// Package linkcheck finds local links that no built artifact answers.
package linkcheck

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/markdown"
	"github.com/starford/folio/internal/preview"
	"github.com/starford/folio/internal/site"
)

// BrokenLink is a local link whose target does not resolve.
type BrokenLink struct {
	// Source is the linking document's path relative to the docs root.
	Source string        `json:"source"`
	Link   markdown.Link `json:"link"`
}

// BrokenLinksError reports every broken link found in one check.
type BrokenLinksError struct {
	Links []BrokenLink
}

func (e *BrokenLinksError) Error() string {
	if len(e.Links) == 1 {
		return "linkcheck: 1 broken link"
	}
	return fmt.Sprintf("linkcheck: %d broken links", len(e.Links))
}

// Check returns the local links of every document under root that the
// preview server would answer with 404. Remote links are not checked.
func Check(root *docs.Directory, store site.Reader, basePath string) []BrokenLink {
	var broken []BrokenLink
	_ = root.Walk(func(doc *docs.Document) error {
		for _, link := range doc.Links {
			if link.Kind != markdown.Local {
				continue
			}
			target, ok := Target(doc.URI, link.Destination)
			if !ok {
				continue
			}
			if _, found := preview.Resolve(store, target, basePath); !found {
				broken = append(broken, BrokenLink{Source: doc.Path, Link: link})
			}
		}
		return nil
	})
	return broken
}

// Run checks the committed generation of s and returns a *BrokenLinksError
// when anything is broken.
func Run(s *site.Site) error {
	var broken []BrokenLink
	s.View(func(root *docs.Directory, artifacts site.Reader) {
		if root != nil {
			broken = Check(root, artifacts, s.BasePath())
		}
	})
	if len(broken) > 0 {
		return &BrokenLinksError{Links: broken}
	}
	return nil
}

// Target turns a link destination into an absolute request path. Pure
// fragment links point into the same page and are skipped. Relative links
// resolve against the linking page the way a browser would.
func Target(docURI, dest string) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "?") {
		return "", false
	}
	if strings.HasPrefix(dest, "/") {
		return dest, true
	}

	rest := dest
	suffix := ""
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest, suffix = rest[:i], rest[i:]
	}
	joined := path.Join(path.Dir(docURI), rest)
	if strings.HasSuffix(rest, "/") && joined != "/" {
		joined += "/"
	}
	return joined + suffix, true
}
