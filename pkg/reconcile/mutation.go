package reconcile

import "golang.org/x/net/html"

// Op is the type of a live mutation.
type Op uint8

const (
	OpInsertNode      Op = 0x01 // Insert a source node before a live node
	OpAppendNode      Op = 0x02 // Append a source node to a live parent
	OpRemoveNode      Op = 0x03 // Remove a live node
	OpReplaceNode     Op = 0x04 // Replace the live root
	OpSetAttr         Op = 0x05 // Set or update an attribute
	OpRemoveAttr      Op = 0x06 // Remove an attribute
	OpAddClass        Op = 0x07 // Add a class token
	OpRemoveClass     Op = 0x08 // Remove a class token
	OpSetText         Op = 0x09 // Change text content
	OpPruneWhitespace Op = 0x0A // Drop a whitespace-only text node
	OpMismatch        Op = 0x0B // Tag mismatch left unpatched
)

// String returns the string representation of the Op.
func (op Op) String() string {
	switch op {
	case OpInsertNode:
		return "InsertNode"
	case OpAppendNode:
		return "AppendNode"
	case OpRemoveNode:
		return "RemoveNode"
	case OpReplaceNode:
		return "ReplaceNode"
	case OpSetAttr:
		return "SetAttr"
	case OpRemoveAttr:
		return "RemoveAttr"
	case OpAddClass:
		return "AddClass"
	case OpRemoveClass:
		return "RemoveClass"
	case OpSetText:
		return "SetText"
	case OpPruneWhitespace:
		return "PruneWhitespace"
	case OpMismatch:
		return "Mismatch"
	default:
		return "Unknown"
	}
}

// Destructive reports whether the op inserts or removes nodes.
func (op Op) Destructive() bool {
	switch op {
	case OpInsertNode, OpAppendNode, OpRemoveNode, OpReplaceNode:
		return true
	}
	return false
}

// Mutation describes a single change applied to the live tree.
type Mutation struct {
	Op    Op         // Operation type
	Node  *html.Node // Node that was mutated, inserted or removed
	Key   string     // Attribute key or class token
	Value string     // New value
}

// Observer receives every mutation as it is applied.
type Observer interface {
	Observe(m Mutation)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(m Mutation)

// Observe implements Observer.
func (f ObserverFunc) Observe(m Mutation) { f(m) }

// multiObserver fans a mutation out to several observers.
type multiObserver []Observer

func (mo multiObserver) Observe(m Mutation) {
	for _, o := range mo {
		o.Observe(m)
	}
}

// Stats counts mutations by op.
type Stats struct {
	counts map[Op]int
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{counts: make(map[Op]int)}
}

// Observe implements Observer.
func (s *Stats) Observe(m Mutation) {
	if s.counts == nil {
		s.counts = make(map[Op]int)
	}
	s.counts[m.Op]++
}

// Count returns the number of mutations recorded for op.
func (s *Stats) Count(op Op) int { return s.counts[op] }

// Destructive returns the number of node insertions, removals and replacements.
func (s *Stats) Destructive() int {
	total := 0
	for op, n := range s.counts {
		if op.Destructive() {
			total += n
		}
	}
	return total
}

// Total returns the number of recorded mutations.
func (s *Stats) Total() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// Ops returns the ops with a non-zero count in op order.
func (s *Stats) Ops() []Op {
	var ops []Op
	for op := OpInsertNode; op <= OpMismatch; op++ {
		if s.counts[op] > 0 {
			ops = append(ops, op)
		}
	}
	return ops
}

// Reset clears all counters.
func (s *Stats) Reset() {
	s.counts = make(map[Op]int)
}
