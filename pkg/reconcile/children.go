package reconcile

import (
	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// diffChildren converges target's element and text children on source's.
//
// The diff is positional: children are paired by index after stale target
// children are dropped. On a mismatch the source child is moved in front of
// the live one, unless the live side holds a surplus and the next live child
// matches, in which case the live child is removed instead. Whatever remains
// past the end of source is trimmed.
func (r *Reconciler) diffChildren(target, source *html.Node) {
	live := r.comparable(target, true)
	want := r.comparable(source, false)

	live = r.removeStale(target, live, want)

	for i := 0; i < len(want); i++ {
		s := want[i]
		if i >= len(live) {
			dom.Detach(s)
			adopt(s)
			target.AppendChild(s)
			r.emit(Mutation{Op: OpAppendNode, Node: s, Key: dom.Tag(s)})
			live = append(live, s)
			continue
		}

		t := live[i]
		if dom.SameKind(t, s) {
			r.patch(t, s)
			continue
		}

		if len(live) > len(want) && i+1 < len(live) && dom.SameKind(live[i+1], s) {
			r.remove(target, t)
			live = append(live[:i], live[i+1:]...)
			i--
			continue
		}

		dom.Detach(s)
		adopt(s)
		target.InsertBefore(s, t)
		r.emit(Mutation{Op: OpInsertNode, Node: s, Key: dom.Tag(s)})
		live = append(live, nil)
		copy(live[i+1:], live[i:])
		live[i] = s
	}

	for _, t := range live[len(want):] {
		r.remove(target, t)
	}
}

// comparable returns the element and text children of n in order, removing
// whitespace-only text from n along the way. Pruning is only reported for
// the live side.
func (r *Reconciler) comparable(n *html.Node, live bool) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case dom.IsWhitespace(c):
			n.RemoveChild(c)
			if live {
				r.emit(Mutation{Op: OpPruneWhitespace, Node: c})
			}
		case dom.IsElement(c), dom.IsText(c):
			out = append(out, c)
		}
		c = next
	}
	return out
}

// adopt strips whitespace-only text from a source subtree entering the live
// tree, so the next pass over the same source finds nothing to prune.
func adopt(n *html.Node) {
	var blank []*html.Node
	dom.Walk(n, func(c *html.Node) bool {
		if c != n && dom.IsWhitespace(c) {
			blank = append(blank, c)
		}
		return true
	})
	for _, c := range blank {
		c.Parent.RemoveChild(c)
	}
}

// removeStale removes live children that have no counterpart anywhere in
// want: no element with the same tag, or no text with the exact same content.
// A text child facing a text child at the same position is kept; the
// positional pass rewrites it in place.
func (r *Reconciler) removeStale(parent *html.Node, live, want []*html.Node) []*html.Node {
	tags := make(map[string]struct{})
	texts := make(map[string]struct{})
	for _, s := range want {
		if dom.IsText(s) {
			texts[s.Data] = struct{}{}
		} else {
			tags[s.Namespace+":"+s.Data] = struct{}{}
		}
	}

	kept := live[:0]
	for i, t := range live {
		var ok bool
		if dom.IsText(t) {
			_, ok = texts[t.Data]
			if !ok && i < len(want) && dom.IsText(want[i]) {
				ok = true
			}
		} else {
			_, ok = tags[t.Namespace+":"+t.Data]
		}
		if ok {
			kept = append(kept, t)
			continue
		}
		r.remove(parent, t)
	}
	return kept
}

func (r *Reconciler) remove(parent, n *html.Node) {
	parent.RemoveChild(n)
	r.emit(Mutation{Op: OpRemoveNode, Node: n, Key: dom.Tag(n)})
	r.removed(n)
}
