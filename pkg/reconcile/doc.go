// Package reconcile merges a freshly rendered tree into the live tree.
//
// Reconcile compares the two trees node by node and mutates the live one in
// place with as few destructive operations as it can: attributes are patched
// individually, class tokens are merged, text is assigned, and children are
// paired by position after stale nodes have been dropped. Nodes that survive
// keep their identity, so listeners and other per-node state stay attached.
//
// # Children
//
// Child matching is positional, not keyed. Whitespace-only text is pruned on
// both sides. A live child whose tag (or exact text) appears nowhere among the
// new children is removed first; the remaining children are then walked in
// order, recursing into same-tag pairs, inserting new nodes on mismatch and
// trimming whatever is left at the tail.
//
// # Observing mutations
//
// Every live mutation is reported to an Observer as a Mutation. Stats is an
// Observer that counts them; pkg/metrics exports them to Prometheus. Removed
// nodes are also passed to the OnRemove hook so that listener bookkeeping can
// be released.
//
//	r := reconcile.New(
//	    reconcile.WithObserver(stats),
//	    reconcile.OnRemove(binder.Release),
//	)
//	live = r.Reconcile(live, fresh)
package reconcile
