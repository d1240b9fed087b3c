// Package uri maps source-relative document paths to the public URIs they are
// served under and to the artifact paths they are written to.
package uri

import (
	"path"
	"path/filepath"
	"strings"
)

// IndexStem is the file stem that marks a directory's index document.
const IndexStem = "README"

// FromPath converts a path relative to the docs root into a URI rooted at basePath.
//
// The extension is dropped and an index document maps to its parent directory:
//
//	FromPath("a/b/c.md", "/")      == "/a/b/c"
//	FromPath("a/b/README.md", "/") == "/a/b"
//	FromPath("README.md", "/docs/") == "/docs"
func FromPath(p, basePath string) string {
	p = strings.Trim(filepath.ToSlash(p), "/")
	if p == "" || p == "." {
		return Join(basePath, "")
	}

	dir, file := path.Split(p)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if stem == IndexStem {
		return Join(basePath, strings.TrimSuffix(dir, "/"))
	}
	return Join(basePath, dir+stem)
}

// OutputPath returns the artifact path a source document is rendered to.
// Index documents become index.html of their directory.
func OutputPath(p string) string {
	p = strings.Trim(filepath.ToSlash(p), "/")
	dir, file := path.Split(p)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if stem == IndexStem {
		return dir + "index.html"
	}
	return dir + stem + ".html"
}

// Join places a slash-separated path under basePath. The result always starts
// with "/" and never ends with one unless it is the root.
func Join(basePath, p string) string {
	parts := make([]string, 0, 2)
	if b := strings.Trim(basePath, "/"); b != "" {
		parts = append(parts, b)
	}
	if p = strings.Trim(p, "/"); p != "" {
		parts = append(parts, p)
	}
	return "/" + strings.Join(parts, "/")
}

// NormalizeBase returns basePath with exactly one leading and one trailing slash.
func NormalizeBase(basePath string) string {
	b := strings.Trim(strings.TrimSpace(basePath), "/")
	if b == "" {
		return "/"
	}
	return "/" + b + "/"
}
