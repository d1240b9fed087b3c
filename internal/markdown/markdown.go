// Package markdown renders document bodies to HTML and reports the headings
// and links found along the way.
package markdown

// LinkKind tells local links, which point into the site, from remote ones.
type LinkKind int

const (
	// Local links point at a path served by the site.
	Local LinkKind = iota
	// Remote links carry a scheme or are protocol-relative.
	Remote
)

func (k LinkKind) String() string {
	if k == Remote {
		return "remote"
	}
	return "local"
}

// Link is an outgoing link found in a document.
type Link struct {
	Kind        LinkKind `json:"-"`
	Title       string   `json:"title"`
	Destination string   `json:"destination"`
	Image       bool     `json:"image,omitempty"`
}

// Heading is a rendered heading and the anchor it was given.
type Heading struct {
	Level  int    `json:"level"`
	Title  string `json:"title"`
	Anchor string `json:"anchor"`
}

// Result is the output of rendering one document body. It is shared between
// documents with identical bodies and must be treated as read-only.
type Result struct {
	HTML     string
	Headings []Heading
	Links    []Link
}

// Options control a single render.
type Options struct {
	// URLRoot is the site base path. Root-relative link destinations are
	// placed under it.
	URLRoot string
}

// Renderer turns a Markdown body into a Result.
type Renderer interface {
	Render(body []byte, opts Options) (*Result, error)
}
