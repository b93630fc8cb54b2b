package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// GetAttr returns the value of the named attribute.
func GetAttr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// HasAttr reports whether n carries the named attribute.
func HasAttr(n *html.Node, key string) bool {
	_, ok := GetAttr(n, key)
	return ok
}

// SetAttr sets an attribute in place, or appends it when absent.
// Attribute order is preserved.
func SetAttr(n *html.Node, key, val string) {
	if n == nil {
		return
	}
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes the named attribute. Returns false if it was not present.
func RemoveAttr(n *html.Node, key string) bool {
	if n == nil {
		return false
	}
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return true
		}
	}
	return false
}

// ClassList returns the class tokens of n in order, without duplicates.
func ClassList(n *html.Node) []string {
	v, _ := GetAttr(n, "class")
	return SplitClasses(v)
}

// SplitClasses splits a class attribute value into unique tokens, keeping the
// first occurrence of each.
func SplitClasses(v string) []string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// HasClass reports whether n has the class token.
func HasClass(n *html.Node, token string) bool {
	for _, c := range ClassList(n) {
		if c == token {
			return true
		}
	}
	return false
}

// AddClass appends a class token if missing. Returns true when the list changed.
func AddClass(n *html.Node, token string) bool {
	if token == "" || HasClass(n, token) {
		return false
	}
	list := append(ClassList(n), token)
	SetAttr(n, "class", strings.Join(list, " "))
	return true
}

// RemoveClass drops a class token. Returns true when the list changed.
func RemoveClass(n *html.Node, token string) bool {
	list := ClassList(n)
	out := list[:0]
	removed := false
	for _, c := range list {
		if c == token {
			removed = true
			continue
		}
		out = append(out, c)
	}
	if removed {
		SetAttr(n, "class", strings.Join(out, " "))
	}
	return removed
}
