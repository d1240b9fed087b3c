package site

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/starford/folio/internal/apperr"
)

// Memory keeps artifacts in a map. A single read/write lock guards the map;
// Replace builds the new generation aside and swaps it in under the write
// lock, so concurrent readers see either the old or the new set in full.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Write stores a copy of content.
func (m *Memory) Write(p string, content []byte) error {
	key, err := Clean(p)
	if err != nil {
		return err
	}
	buf := make([]byte, len(content))
	copy(buf, content)

	m.mu.Lock()
	m.files[key] = buf
	m.mu.Unlock()
	return nil
}

// Copy reads src from disk and stores it at p.
func (m *Memory) Copy(src, p string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("site: copy %s: %w", src, err)
	}
	return m.Write(p, data)
}

// Read returns the stored artifact. The returned slice must not be modified.
func (m *Memory) Read(p string) ([]byte, error) {
	key, err := Clean(p)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	data, ok := m.files[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("site: read %s: %w", key, apperr.ErrNotFound)
	}
	return data, nil
}

// Has reports whether p is stored.
func (m *Memory) Has(p string) bool {
	key, err := Clean(p)
	if err != nil {
		return false
	}
	m.mu.RLock()
	_, ok := m.files[key]
	m.mu.RUnlock()
	return ok
}

// Replace fills a fresh generation and swaps it in only if fill succeeds.
// On failure the previous artifacts stay in place.
func (m *Memory) Replace(fill func(Store) error) error {
	next := NewMemory()
	if err := fill(next); err != nil {
		return err
	}
	m.mu.Lock()
	m.files = next.files
	m.mu.Unlock()
	return nil
}

// Paths lists every stored artifact path in sorted order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	out := make([]string, 0, len(m.files))
	for p := range m.files {
		out = append(out, p)
	}
	m.mu.RUnlock()
	slices.Sort(out)
	return out
}
