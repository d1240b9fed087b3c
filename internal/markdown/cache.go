package markdown

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starford/folio/internal/checksum"
)

// Cache memoizes renders by body digest so unchanged documents are not
// re-rendered on every rebuild.
type Cache struct {
	next    Renderer
	results *lru.Cache[string, *Result]
}

// NewCache wraps next with an LRU cache holding up to size results.
func NewCache(next Renderer, size int) (*Cache, error) {
	if size <= 0 {
		size = 1024
	}
	results, err := lru.New[string, *Result](size)
	if err != nil {
		return nil, fmt.Errorf("markdown: new cache: %w", err)
	}
	return &Cache{next: next, results: results}, nil
}

// Render returns a cached result or renders and stores a new one.
func (c *Cache) Render(body []byte, opts Options) (*Result, error) {
	key := checksum.SumParts(string(body), opts.URLRoot)
	if res, ok := c.results.Get(key); ok {
		return res, nil
	}
	res, err := c.next.Render(body, opts)
	if err != nil {
		return nil, err
	}
	c.results.Add(key, res)
	return res, nil
}

// Len reports the number of cached results.
func (c *Cache) Len() int {
	return c.results.Len()
}
