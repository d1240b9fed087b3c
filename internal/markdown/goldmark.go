package markdown

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Goldmark renders CommonMark plus tables, strikethrough and task lists.
// It is safe for concurrent use.
type Goldmark struct {
	md    goldmark.Markdown
	lower cases.Caser
}

// New returns a Goldmark renderer.
func New() *Goldmark {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&codeBlockRenderer{}, 100)),
		),
	)
	return &Goldmark{md: md, lower: cases.Lower(language.Und)}
}

// Render parses body, assigns heading anchors, places root-relative links
// under opts.URLRoot and renders the result.
func (g *Goldmark) Render(body []byte, opts Options) (*Result, error) {
	root := g.md.Parser().Parse(text.NewReader(body))

	res := &Result{}
	headingIndex := 1
	prefix := strings.TrimSuffix(opts.URLRoot, "/")

	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			title := strings.TrimSpace(plainText(node, body))
			anchor := g.anchor(title, headingIndex)
			headingIndex++
			node.SetAttributeString("id", []byte(anchor))
			res.Headings = append(res.Headings, Heading{Level: node.Level, Title: title, Anchor: anchor})

		case *ast.Link:
			node.Destination = placeUnder(prefix, node.Destination)
			res.Links = append(res.Links, newLink(string(node.Destination), plainText(node, body), false))

		case *ast.Image:
			node.Destination = placeUnder(prefix, node.Destination)
			res.Links = append(res.Links, newLink(string(node.Destination), plainText(node, body), true))

		case *ast.AutoLink:
			dest := string(node.URL(body))
			if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(dest, "mailto:") {
				dest = "mailto:" + dest
			}
			res.Links = append(res.Links, newLink(dest, string(node.Label(body)), false))
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("markdown: walk: %w", err)
	}

	var buf bytes.Buffer
	if err := g.md.Renderer().Render(&buf, body, root); err != nil {
		return nil, fmt.Errorf("markdown: render: %w", err)
	}
	res.HTML = buf.String()
	return res, nil
}

// anchor lowercases the heading, replaces spaces with dashes and appends the
// heading's 1-based position in the document.
func (g *Goldmark) anchor(title string, index int) string {
	slug := strings.ReplaceAll(g.lower.String(title), " ", "-")
	return slug + "-" + strconv.Itoa(index)
}

func placeUnder(prefix string, dest []byte) []byte {
	if prefix == "" || !bytes.HasPrefix(dest, []byte("/")) || bytes.HasPrefix(dest, []byte("//")) {
		return dest
	}
	if bytes.Equal(dest, []byte(prefix)) || bytes.HasPrefix(dest, []byte(prefix+"/")) {
		return dest
	}
	return append([]byte(prefix), dest...)
}

func newLink(dest, title string, image bool) Link {
	return Link{Kind: classify(dest), Title: title, Destination: dest, Image: image}
}

func classify(dest string) LinkKind {
	if strings.HasPrefix(dest, "//") {
		return Remote
	}
	u, err := url.Parse(dest)
	if err == nil && u.Scheme != "" {
		return Remote
	}
	return Local
}

// plainText concatenates the text content below n.
func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(plainText(c, source))
		}
	}
	return sb.String()
}
