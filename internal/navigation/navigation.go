// Package navigation builds the site's navigation tree, either from the
// directory layout or from configured override rules.
package navigation

import (
	"path"

	"github.com/starford/folio/internal/docs"
	"github.com/starford/folio/internal/uri"
)

// Link is one navigation entry.
type Link struct {
	Title    string `json:"title"`
	URI      string `json:"uri"`
	Children []Link `json:"children,omitempty"`
}

// Kind says whether a Rule names a file or a directory.
type Kind int

const (
	KindFile Kind = iota
	KindDir
)

// Include selects which children a directory rule shows.
type Include int

const (
	// IncludeNone shows the directory link alone.
	IncludeNone Include = iota
	// IncludeAll shows the directory's whole default subtree.
	IncludeAll
	// IncludeExplicit shows only the rules listed in Children.
	IncludeExplicit
)

// Rule selects one default navigation entry by source path.
type Rule struct {
	Kind Kind
	// Path is slash-separated and relative to the docs root.
	Path     string
	Include  Include
	Children []Rule
}

// File returns a rule for a single page.
func File(path string) Rule {
	return Rule{Kind: KindFile, Path: path}
}

// Dir returns a directory rule. Passing children implies IncludeExplicit.
func Dir(path string, include Include, children ...Rule) Rule {
	if len(children) > 0 {
		include = IncludeExplicit
	}
	return Rule{Kind: KindDir, Path: path, Include: include, Children: children}
}

// Default returns the navigation implied by the directory layout: each
// level's pages sorted by title, followed by its subdirectories sorted by
// title, each subdirectory carrying its own default children.
func Default(root *docs.Directory) []Link {
	t := newTree(root)
	return t.links(t.top)
}

// Build applies rules to the default navigation. Rules that match no entry
// are skipped and returned so callers can report them.
func Build(root *docs.Directory, rules []Rule, basePath string) ([]Link, []Rule) {
	t := newTree(root)
	if len(rules) == 0 {
		return t.links(t.top), nil
	}
	var unresolved []Rule
	links := t.apply(rules, basePath, &unresolved)
	return links, unresolved
}

func (t *tree) apply(rules []Rule, basePath string, unresolved *[]Rule) []Link {
	out := make([]Link, 0, len(rules))
	for _, r := range rules {
		target := uri.FromPath(r.Path, basePath)
		// A directory's index file is served by the directory entry.
		idx, ok := t.find(target, r.Kind == KindDir || path.Base(r.Path) == docs.IndexFile)
		if !ok {
			*unresolved = append(*unresolved, r)
			continue
		}

		n := t.nodes[idx]
		link := Link{Title: n.title, URI: n.uri}
		if r.Kind == KindDir {
			switch r.Include {
			case IncludeAll:
				link.Children = t.links(n.children)
			case IncludeExplicit:
				link.Children = t.apply(r.Children, basePath, unresolved)
			}
		}
		out = append(out, link)
	}
	return out
}
