package navigation

import (
	"github.com/starford/folio/internal/docs"
)

// tree is the default navigation stored as a flat slice of nodes that refer
// to their children by index.
type tree struct {
	nodes []node
	top   []int
}

type node struct {
	title    string
	uri      string
	dir      bool
	children []int
}

func newTree(root *docs.Directory) *tree {
	t := &tree{}
	t.top = t.add(root)
	return t
}

// add appends the default entries of one directory level and returns their indexes.
func (t *tree) add(d *docs.Directory) []int {
	var ids []int
	for _, doc := range d.Pages() {
		t.nodes = append(t.nodes, node{title: doc.Title, uri: doc.URI})
		ids = append(ids, len(t.nodes)-1)
	}
	for _, sub := range d.Subdirs() {
		idx := sub.Index()
		if idx == nil {
			continue
		}
		t.nodes = append(t.nodes, node{title: idx.Title, uri: idx.URI, dir: true})
		id := len(t.nodes) - 1
		children := t.add(sub)
		t.nodes[id].children = children
		ids = append(ids, id)
	}
	return ids
}

// find searches the whole tree depth first, in navigation order, for the
// first node serving target. Directory nodes and page nodes are searched
// separately, so a page a.md never shadows directory a/.
func (t *tree) find(target string, dir bool) (int, bool) {
	stack := make([]int, 0, len(t.nodes))
	for i := len(t.top) - 1; i >= 0; i-- {
		stack = append(stack, t.top[i])
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := t.nodes[id]
		if n.uri == target && n.dir == dir {
			return id, true
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			stack = append(stack, n.children[i])
		}
	}
	return 0, false
}

func (t *tree) links(ids []int) []Link {
	if len(ids) == 0 {
		return nil
	}
	out := make([]Link, 0, len(ids))
	for _, id := range ids {
		n := t.nodes[id]
		out = append(out, Link{Title: n.title, URI: n.uri, Children: t.links(n.children)})
	}
	return out
}
