package dom

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// ParseFragment parses markup in a <body> context and returns the detached
// top-level nodes.
func ParseFragment(markup string) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	return nodes, nil
}

// ParseInto parses markup and returns a detached element with the given tag
// holding the parsed nodes as children.
func ParseInto(tag, markup string) (*html.Node, error) {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	return Element(tag, nil, nodes...), nil
}

// MustParseInto is like ParseInto but panics on error. Intended for tests and
// static templates.
func MustParseInto(tag, markup string) *html.Node {
	n, err := ParseInto(tag, markup)
	if err != nil {
		panic(err)
	}
	return n
}

// Body returns the <body> element of a parsed document, or nil.
func Body(doc *html.Node) *html.Node {
	return Find(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
}

// Path returns the element-index path from root to n, e.g. "0.2.1".
// The root itself has the empty path. Returns false if n is not under root.
func Path(root, n *html.Node) (string, bool) {
	if !Contains(root, n) {
		return "", false
	}
	var parts []string
	for c := n; c != root; c = c.Parent {
		idx := 0
		for s := c.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				idx++
			}
		}
		parts = append(parts, strconv.Itoa(idx))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "."), true
}

// Resolve returns the element at path below root, or nil if the path does not
// lead anywhere.
func Resolve(root *html.Node, path string) *html.Node {
	if root == nil {
		return nil
	}
	if path == "" {
		return root
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		idx, err := strconv.Atoi(part)
		if err != nil || idx < 0 {
			return nil
		}
		kids := ElementChildren(cur)
		if idx >= len(kids) {
			return nil
		}
		cur = kids[idx]
	}
	return cur
}

// Comparable returns the children of n that take part in structural
// comparison: elements and non-whitespace text.
func Comparable(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case IsElement(c):
			out = append(out, c)
		case IsText(c) && !IsWhitespace(c):
			out = append(out, c)
		}
	}
	return out
}

// Equal reports whether a and b are structurally equal: same kind, tag, text,
// attribute set and, recursively, comparable children. Whitespace-only text
// and non element/text nodes are ignored.
func Equal(a, b *html.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !SameKind(a, b) {
		return false
	}
	if IsText(a) {
		return a.Data == b.Data
	}
	if !equalAttrs(a.Attr, b.Attr) {
		return false
	}
	ac, bc := Comparable(a), Comparable(b)
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

func equalAttrs(a, b []html.Attribute) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[string]string, len(a))
	for _, attr := range a {
		m[attr.Key] = attr.Val
	}
	for _, attr := range b {
		v, ok := m[attr.Key]
		if !ok {
			return false
		}
		if attr.Key == "class" {
			if !sameTokens(v, attr.Val) {
				return false
			}
			continue
		}
		if v != attr.Val {
			return false
		}
	}
	return true
}

func sameTokens(a, b string) bool {
	at, bt := SplitClasses(a), SplitClasses(b)
	if len(at) != len(bt) {
		return false
	}
	set := make(map[string]struct{}, len(at))
	for _, t := range at {
		set[t] = struct{}{}
	}
	for _, t := range bt {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
