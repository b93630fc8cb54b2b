package reconcile

import (
	"golang.org/x/net/html"

	"github.com/nimble-go/nimble/pkg/dom"
)

// diffAttributes brings target's attributes in line with source's. Keys only
// in target are removed, keys only in source are added and keys present on
// both with a different value are updated. Untouched keys keep their position.
// Owned keys are skipped.
func (r *Reconciler) diffAttributes(target, source *html.Node) {
	want := make(map[string]string, len(source.Attr))
	for _, a := range source.Attr {
		want[a.Key] = a.Val
	}
	have := make(map[string]string, len(target.Attr))
	for _, a := range target.Attr {
		have[a.Key] = a.Val
	}

	var removed []string
	for _, a := range target.Attr {
		if _, ok := want[a.Key]; !ok && !r.owns(target, a.Key) {
			removed = append(removed, a.Key)
		}
	}
	for _, key := range removed {
		dom.RemoveAttr(target, key)
		r.emit(Mutation{Op: OpRemoveAttr, Node: target, Key: key})
	}

	for _, a := range source.Attr {
		if _, ok := have[a.Key]; ok || r.owns(target, a.Key) {
			continue
		}
		dom.SetAttr(target, a.Key, a.Val)
		r.emit(Mutation{Op: OpSetAttr, Node: target, Key: a.Key, Value: a.Val})
	}

	for _, a := range source.Attr {
		old, ok := have[a.Key]
		if !ok || old == a.Val || r.owns(target, a.Key) {
			continue
		}
		if a.Key == "class" && a.Val != "" {
			r.mergeClasses(target, a.Val)
			continue
		}
		dom.SetAttr(target, a.Key, a.Val)
		r.emit(Mutation{Op: OpSetAttr, Node: target, Key: a.Key, Value: a.Val})
	}
}

// mergeClasses converges target's class tokens on the tokens of want. Tokens
// kept from target stay in their order; new tokens follow in source order.
func (r *Reconciler) mergeClasses(target *html.Node, want string) {
	wanted := dom.SplitClasses(want)
	keep := make(map[string]struct{}, len(wanted))
	for _, t := range wanted {
		keep[t] = struct{}{}
	}
	for _, t := range dom.ClassList(target) {
		if _, ok := keep[t]; ok {
			continue
		}
		if dom.RemoveClass(target, t) {
			r.emit(Mutation{Op: OpRemoveClass, Node: target, Key: t})
		}
	}
	for _, t := range wanted {
		if dom.AddClass(target, t) {
			r.emit(Mutation{Op: OpAddClass, Node: target, Key: t})
		}
	}
}
