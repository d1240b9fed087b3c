package site

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/starford/folio/internal/apperr"
)

// Disk writes artifacts below a directory. Replace deletes and recreates the
// directory before filling it, so readers may observe a partial generation.
type Disk struct {
	root string // absolute path to the output directory
}

// NewDisk returns a backend rooted at root. The directory is created on the
// first Replace or Write.
func NewDisk(root string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("site: resolve out dir: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return nil, fmt.Errorf("site: out dir is not a directory: %s", abs)
	}
	return &Disk{root: abs}, nil
}

// Root returns the absolute output directory.
func (d *Disk) Root() string {
	return d.root
}

// safePath maps an artifact path below the output directory and rejects any
// result that escapes it.
func (d *Disk) safePath(p string) (string, error) {
	key, err := Clean(p)
	if err != nil {
		return "", err
	}
	abs := filepath.Join(d.root, filepath.FromSlash(key))
	if abs != d.root && !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("site: %w: %s", apperr.ErrInvalidPath, p)
	}
	return abs, nil
}

// Write atomically writes content: temp file, fsync, rename.
func (d *Disk) Write(p string, content []byte) error {
	abs, err := d.safePath(p)
	if err != nil {
		return err
	}
	return writeAtomic(abs, func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	})
}

// Copy streams src into the artifact at p.
func (d *Disk) Copy(src, p string) error {
	abs, err := d.safePath(p)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("site: copy %s: %w", src, err)
	}
	defer in.Close()

	return writeAtomic(abs, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

// Read returns the artifact content.
func (d *Disk) Read(p string) ([]byte, error) {
	abs, err := d.safePath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("site: read %s: %w", p, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("site: read %s: %w", p, err)
	}
	return data, nil
}

// Has reports whether a regular file exists at p.
func (d *Disk) Has(p string) bool {
	abs, err := d.safePath(p)
	if err != nil {
		return false
	}
	info, err := os.Stat(abs)
	return err == nil && info.Mode().IsRegular()
}

// Replace removes the output directory, recreates it and runs fill.
func (d *Disk) Replace(fill func(Store) error) error {
	if err := os.RemoveAll(d.root); err != nil {
		return fmt.Errorf("site: clear out dir: %w", err)
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("site: create out dir: %w", err)
	}
	return fill(d)
}

func writeAtomic(abs string, write func(io.Writer) error) error {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("site: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".folio-tmp-*")
	if err != nil {
		return fmt.Errorf("site: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return fmt.Errorf("site: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("site: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("site: close temp: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("site: chmod: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("site: rename: %w", err)
	}
	success = true
	return nil
}
