// Package frontmatter splits a leading YAML block from Markdown content and
// exposes it as an ordered string map.
package frontmatter

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Frontmatter is an insertion-ordered string to string mapping.
type Frontmatter struct {
	keys   []string
	values map[string]string
}

// New returns an empty Frontmatter.
func New() *Frontmatter {
	return &Frontmatter{values: make(map[string]string)}
}

// Get returns the value stored for key.
func (f *Frontmatter) Get(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key, keeping the original position of existing keys.
func (f *Frontmatter) Set(key, value string) {
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Keys returns the keys in the order they were declared.
func (f *Frontmatter) Keys() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Len reports the number of entries.
func (f *Frontmatter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.keys)
}

// Parse separates frontmatter from the Markdown body.
//
// The block must start at the very first line with "---" and end with a line
// holding only "---". Content without an opening fence, or with an opening
// fence that is never closed, has no frontmatter and is returned unchanged.
// A closed block that is not a YAML mapping is an error.
func Parse(data []byte) (*Frontmatter, string, error) {
	fm := New()

	rest, ok := cutLine(data)
	if !ok {
		return fm, string(data), nil
	}

	end := -1
	offset := 0
	for offset <= len(rest) {
		line := rest[offset:]
		n := bytes.IndexByte(line, '\n')
		if n >= 0 {
			line = line[:n]
		}
		if strings.TrimRight(string(line), "\r") == delim {
			end = offset
			break
		}
		if n < 0 {
			break
		}
		offset += n + 1
	}
	if end < 0 {
		return fm, string(data), nil
	}

	block := rest[:end]
	body := rest[end+len(delim):]
	body = bytes.TrimPrefix(bytes.TrimPrefix(body, []byte("\r")), []byte("\n"))

	if err := decode(block, fm); err != nil {
		return nil, "", err
	}
	return fm, string(body), nil
}

// cutLine reports whether data opens with a fence line and returns what follows it.
func cutLine(data []byte) ([]byte, bool) {
	for _, opener := range []string{delim + "\n", delim + "\r\n"} {
		if bytes.HasPrefix(data, []byte(opener)) {
			return data[len(opener):], true
		}
	}
	return nil, false
}

func decode(block []byte, fm *Frontmatter) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return fmt.Errorf("frontmatter: invalid yaml: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("frontmatter: expected a mapping, got %s", kindName(root.Kind))
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		fm.Set(key.Value, scalar(value))
	}
	return nil
}

func scalar(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	case yaml.AliasNode:
		if n.Alias != nil {
			return scalar(n.Alias)
		}
		return ""
	default:
		out, err := yaml.Marshal(n)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
