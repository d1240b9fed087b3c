// Package site builds the artifact set of a documentation site and stores it
// in memory for previewing or on disk for publishing.
package site

import (
	"fmt"
	"path"
	"strings"

	"github.com/starford/folio/internal/apperr"
)

// Reader is the read side of an artifact store, shared by the preview
// server and the link checker.
type Reader interface {
	// Read returns the content of the artifact at path or an error wrapping
	// apperr.ErrNotFound.
	Read(path string) ([]byte, error)
	// Has reports whether an artifact exists at path.
	Has(path string) bool
}

// Store is the surface page generation writes to.
type Store interface {
	Reader
	// Write stores content at path, replacing any previous artifact.
	Write(path string, content []byte) error
	// Copy stores the external file src at path unchanged.
	Copy(src, path string) error
}

// Backend is a Store that can replace its whole artifact set.
type Backend interface {
	Store
	// Replace discards every artifact and runs fill against the new, empty
	// generation. Whether readers can observe a partial generation depends on
	// the implementation.
	Replace(fill func(Store) error) error
}

// Clean normalizes an artifact path to a slash-separated path without a
// leading slash. Paths that climb above the root are rejected.
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", fmt.Errorf("site: %w: %s", apperr.ErrInvalidPath, p)
		}
	}
	cleaned := strings.TrimPrefix(path.Clean("/"+p), "/")
	return cleaned, nil
}
