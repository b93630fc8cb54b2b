package dom

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Kind is the node kind discriminator used by the diffing engine.
type Kind uint8

const (
	KindOther    Kind = iota // comments, doctype, raw
	KindElement              // <div>, <button>, etc.
	KindText                 // Plain text node
	KindDocument             // Document root
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindDocument:
		return "Document"
	default:
		return "Other"
	}
}

// KindOf returns the kind of n.
func KindOf(n *html.Node) Kind {
	if n == nil {
		return KindOther
	}
	switch n.Type {
	case html.ElementNode:
		return KindElement
	case html.TextNode:
		return KindText
	case html.DocumentNode:
		return KindDocument
	default:
		return KindOther
	}
}

// IsElement reports whether n is an element node.
func IsElement(n *html.Node) bool { return n != nil && n.Type == html.ElementNode }

// IsText reports whether n is a text node.
func IsText(n *html.Node) bool { return n != nil && n.Type == html.TextNode }

// IsWhitespace reports whether n is a text node made only of whitespace.
func IsWhitespace(n *html.Node) bool {
	return IsText(n) && strings.TrimSpace(n.Data) == ""
}

// Tag returns the element tag name, or "" for non-elements.
func Tag(n *html.Node) string {
	if !IsElement(n) {
		return ""
	}
	return n.Data
}

// SameKind reports whether a and b have the same kind and, for elements, the
// same tag. Text content is not compared.
func SameKind(a, b *html.Node) bool {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return false
	}
	if ka == KindElement {
		return a.Data == b.Data && a.Namespace == b.Namespace
	}
	return true
}

// Element creates a detached element node with the given attributes and children.
// Children that already have a parent are moved.
func Element(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	tag = strings.ToLower(tag)
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
	for _, c := range children {
		if c == nil {
			continue
		}
		Detach(c)
		n.AppendChild(c)
	}
	return n
}

// Text creates a detached text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Attrs builds an attribute list from alternating key/value pairs.
// A trailing key without value is dropped.
func Attrs(kv ...string) []html.Attribute {
	attrs := make([]html.Attribute, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, html.Attribute{Key: kv[i], Val: kv[i+1]})
	}
	return attrs
}

// Children returns the direct children of n in document order.
func Children(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// ElementChildren returns the direct element children of n.
func ElementChildren(n *html.Node) []*html.Node {
	if n == nil {
		return nil
	}
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// HasChildren reports whether n has at least one child.
func HasChildren(n *html.Node) bool {
	return n != nil && n.FirstChild != nil
}

// Detach removes n from its parent, if any. Detaching a parentless node is a no-op.
func Detach(n *html.Node) {
	if n == nil || n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// Contains reports whether n is root or a descendant of root.
func Contains(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

// Walk calls fn for n and every descendant in document order.
// Returning false from fn skips the node's subtree.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// Find returns the first element in document order for which match returns true.
func Find(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if IsElement(n) && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// ByID returns the first element whose id attribute equals id.
func ByID(root *html.Node, id string) *html.Node {
	return Find(root, func(n *html.Node) bool {
		v, ok := GetAttr(n, "id")
		return ok && v == id
	})
}

// TextContent returns the concatenated text of n and its descendants.
func TextContent(n *html.Node) string {
	if IsText(n) {
		return n.Data
	}
	var b strings.Builder
	Walk(n, func(c *html.Node) bool {
		if IsText(c) {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// SetTextContent replaces the content of a text node, or the children of an
// element with a single text node.
func SetTextContent(n *html.Node, s string) {
	if n == nil {
		return
	}
	if IsText(n) {
		n.Data = s
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(Text(s))
}

// Render serializes n to HTML.
func Render(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// RenderChildren serializes the children of n to HTML.
func RenderChildren(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}
