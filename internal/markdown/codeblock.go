package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// codeBlockRenderer renders fenced code blocks, turning mermaid blocks into
// containers the mermaid script picks up client side.
type codeBlockRenderer struct{}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*ast.FencedCodeBlock)
	lang := n.Language(source)
	mermaid := string(lang) == "mermaid"

	if !entering {
		if mermaid {
			_, _ = w.WriteString("</div>\n")
		} else {
			_, _ = w.WriteString("</code></pre>\n")
		}
		return ast.WalkContinue, nil
	}

	switch {
	case mermaid:
		_, _ = w.WriteString(`<div class="mermaid">`)
	case lang != nil:
		_, _ = w.WriteString(`<pre><code class="language-`)
		_, _ = w.Write(util.EscapeHTML(lang))
		_, _ = w.WriteString(`">`)
	default:
		_, _ = w.WriteString("<pre><code>")
	}

	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
	return ast.WalkSkipChildren, nil
}
