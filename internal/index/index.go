package index

// PageIndex is the query surface consumers depend on.
type PageIndex interface {
	Upsert(p Page) error
	Delete(path string) error
	Get(uri string) (*Page, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(uri string) ([]string, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ PageIndex = (*DB)(nil)
