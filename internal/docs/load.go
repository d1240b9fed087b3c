package docs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var errStop = errors.New("docs: stop walk")

// Load reads docsDir into a Directory tree. Document IDs are assigned in walk
// order starting at 1. A missing docs directory yields a root holding only a
// generated index.
func Load(docsDir string, opts Options) (*Directory, error) {
	abs, err := filepath.Abs(docsDir)
	if err != nil {
		return nil, fmt.Errorf("docs: resolve root: %w", err)
	}
	if opts.RootName == "" {
		opts.RootName = filepath.Base(abs)
	}
	opts = opts.withDefaults()

	l := &loader{root: abs, opts: opts}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		root := &Directory{Name: opts.RootName}
		if _, err := l.ensureIndex(root, 1); err != nil {
			return nil, err
		}
		return root, nil
	case err != nil:
		return nil, fmt.Errorf("docs: stat root: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("docs: root is not a directory: %s", abs)
	}

	root, assets, next, err := l.walk("", 1)
	if err != nil {
		return nil, err
	}
	if root == nil {
		root = &Directory{Name: opts.RootName, Assets: assets}
		if _, err := l.ensureIndex(root, next); err != nil {
			return nil, err
		}
	}
	return root, nil
}

type loader struct {
	root string
	opts Options
}

// walk loads one directory level, recursing into subdirectories first so
// their generated indexes exist before this level's own index is built.
// It returns nil when nothing below rel is a document; the assets found are
// then handed to the caller. nextID is the first unused document ID and the
// updated value is returned.
func (l *loader) walk(rel string, nextID int) (*Directory, []string, int, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, nil, nextID, fmt.Errorf("docs: read dir %q: %w", rel, err)
	}

	dir := &Directory{Path: rel, Name: l.opts.RootName}
	if rel != "" {
		dir.Name = path.Base(rel)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		childRel := path.Join(rel, name)

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			if info, err := os.Stat(filepath.Join(l.root, filepath.FromSlash(childRel))); err == nil {
				isDir = info.IsDir()
			}
		}

		switch {
		case isDir:
			sub, assets, next, err := l.walk(childRel, nextID)
			if err != nil {
				return nil, nil, nextID, err
			}
			nextID = next
			if sub == nil {
				dir.Assets = append(dir.Assets, assets...)
				continue
			}
			dir.Dirs = append(dir.Dirs, sub)

		case strings.HasSuffix(name, ".md"):
			data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(childRel)))
			if err != nil {
				return nil, nil, nextID, fmt.Errorf("docs: read %s: %w", childRel, err)
			}
			doc, err := NewDocument(childRel, data, nextID, l.opts)
			if err != nil {
				return nil, nil, nextID, err
			}
			nextID++
			dir.Docs = append(dir.Docs, doc)

		default:
			dir.Assets = append(dir.Assets, childRel)
		}
	}

	if len(dir.Docs) == 0 && len(dir.Dirs) == 0 {
		return nil, dir.Assets, nextID, nil
	}

	nextID, err = l.ensureIndex(dir, nextID)
	if err != nil {
		return nil, nil, nextID, err
	}
	return dir, nil, nextID, nil
}

// ensureIndex appends a generated index to dir when it has none.
func (l *loader) ensureIndex(dir *Directory, nextID int) (int, error) {
	if dir.Index() != nil {
		return nextID, nil
	}
	content := generatedIndex(dir, path.Join(filepath.Base(l.root), dir.Path))
	doc, err := NewDocument(path.Join(dir.Path, IndexFile), []byte(content), nextID, l.opts)
	if err != nil {
		return nextID, err
	}
	doc.Generated = true
	dir.Docs = append(dir.Docs, doc)
	return nextID + 1, nil
}

func generatedIndex(dir *Directory, displayPath string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "---\ntitle: %q\n---\n\n", dir.Name)
	fmt.Fprintf(&sb, "# Index of %s\n\n", dir.Name)
	fmt.Fprintf(&sb, "This page was generated automatically by Folio, because the directory "+
		"`%s` did not contain an index `%s` file. You can customize this page by creating one yourself.\n\n",
		displayPath, IndexFile)
	sb.WriteString("## Pages\n\n")
	for _, doc := range dir.Pages() {
		fmt.Fprintf(&sb, "* [%s](%s)\n", doc.Title, doc.URI)
	}
	for _, sub := range dir.Subdirs() {
		if idx := sub.Index(); idx != nil {
			fmt.Fprintf(&sb, "* [%s](%s)\n", idx.Title, idx.URI)
		}
	}
	return sb.String()
}
