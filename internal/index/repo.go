package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/folio/internal/apperr"
)

// Page is one indexed document.
type Page struct {
	Path      string
	URI       string
	Title     string
	Checksum  string
	Body      string
	UpdatedAt time.Time
	// Links are the request paths the page links to.
	Links []string
}

// SearchResult represents one search hit.
type SearchResult struct {
	Path    string `json:"path"`
	URI     string `json:"uri"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// NormalizeURI reduces a request path to the form pages are stored under so
// that "/a", "/a/", "/a.html" and "/a#x" compare equal.
func NormalizeURI(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimSuffix(u, "/index.html")
	u = strings.TrimSuffix(u, ".html")
	if len(u) > 1 {
		u = strings.TrimRight(u, "/")
	}
	if u == "" {
		return "/"
	}
	return u
}

// Upsert inserts or replaces a page, its FTS entry, and links within a transaction.
func (db *DB) Upsert(p Page) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	p.URI = NormalizeURI(p.URI)

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	// A page that moved to a new path keeps its URI; drop the old row and
	// everything hanging off it first.
	displaced, err := queryPaths(tx, `SELECT path FROM pages WHERE uri = ? AND path <> ?`, p.URI, p.Path)
	if err != nil {
		return err
	}
	for _, old := range displaced {
		ftsDelete(tx, old)
		_, _ = tx.Exec(`DELETE FROM pages WHERE path = ?`, old)
	}
	var prevURI string
	if err := tx.QueryRow(`SELECT uri FROM pages WHERE path = ?`, p.Path).Scan(&prevURI); err == nil && prevURI != p.URI {
		_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, prevURI)
	}

	_, err = tx.Exec(`
		INSERT INTO pages (path, uri, title, checksum, body, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			uri        = excluded.uri,
			title      = excluded.title,
			checksum   = excluded.checksum,
			body       = excluded.body,
			updated_at = excluded.updated_at
	`, p.Path, p.URI, p.Title, p.Checksum, p.Body, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert page: %w", err)
	}

	if err := ftsUpsert(tx, p); err != nil {
		return err
	}

	_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, p.URI)
	if len(p.Links) > 0 {
		stmt, err := tx.Prepare(`INSERT OR IGNORE INTO links (source, target) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("index: prepare link insert: %w", err)
		}
		defer stmt.Close()
		for _, target := range p.Links {
			if _, err := stmt.Exec(p.URI, NormalizeURI(target)); err != nil {
				return fmt.Errorf("index: insert link: %w", err)
			}
		}
	}

	return tx.Commit()
}

func queryPaths(tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query paths: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("index: scan path: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a page, its FTS entry, and outgoing links.
func (db *DB) Delete(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var u string
	if err := tx.QueryRow(`SELECT uri FROM pages WHERE path = ?`, path).Scan(&u); err == nil {
		_, _ = tx.Exec(`DELETE FROM links WHERE source = ?`, u)
	}
	ftsDelete(tx, path)
	_, _ = tx.Exec(`DELETE FROM pages WHERE path = ?`, path)

	return tx.Commit()
}

// Get returns the page served at uri.
func (db *DB) Get(uri string) (*Page, error) {
	var p Page
	err := db.conn.QueryRow(`
		SELECT path, uri, title, checksum, body, updated_at FROM pages WHERE uri = ?
	`, NormalizeURI(uri)).Scan(&p.Path, &p.URI, &p.Title, &p.Checksum, &p.Body, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get page: %w", err)
	}
	return &p, nil
}

// AllChecksums returns path → checksum for every indexed page.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM pages`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// Backlinks returns the URIs of every page linking to uri.
func (db *DB) Backlinks(uri string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT source FROM links WHERE target = ? ORDER BY source`, NormalizeURI(uri))
	if err != nil {
		return nil, fmt.Errorf("index: backlinks: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
