// Package preview serves a built site over HTTP.
package preview

import (
	"net/url"
	"path"
	"strings"

	"github.com/starford/folio/internal/site"
	"github.com/starford/folio/internal/uri"
)

// Resolve maps a request path to the artifact that answers it.
//
// The query and fragment are ignored and the path must sit under basePath.
// The remainder is tried as an exact artifact, then as a directory holding
// index.html, then with ".html" appended.
func Resolve(store site.Reader, requestPath, basePath string) (string, bool) {
	p := requestPath
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}
	if !strings.HasPrefix(p, "/") {
		return "", false
	}

	base := uri.NormalizeBase(basePath)
	var rest string
	switch {
	case base == "/":
		rest = p[1:]
	case p == strings.TrimSuffix(base, "/"):
		rest = ""
	case strings.HasPrefix(p, base):
		rest = p[len(base):]
	default:
		return "", false
	}

	for _, seg := range strings.Split(rest, "/") {
		if seg == ".." {
			return "", false
		}
	}
	rest = strings.Trim(rest, "/")

	candidates := make([]string, 0, 3)
	if rest != "" {
		candidates = append(candidates, rest)
	}
	candidates = append(candidates, path.Join(rest, "index.html"))
	if rest != "" {
		candidates = append(candidates, rest+".html")
	}

	for _, c := range candidates {
		if store.Has(c) {
			return c, true
		}
	}
	return "", false
}

var contentTypes = map[string]string{
	".txt":   "text/plain; charset=utf-8",
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".css":   "text/css",
	".js":    "text/javascript",
	".json":  "application/json",
	".svg":   "image/svg+xml",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".png":   "image/png",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".ico":   "image/x-icon",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// ContentType returns the Content-Type for an artifact path, or "" when the
// extension is not known.
func ContentType(p string) string {
	return contentTypes[strings.ToLower(path.Ext(p))]
}
