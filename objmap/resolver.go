package objmap

import (
	"fmt"
	"sort"

	"github.com/tog-format/go-tog/debug"
)

// anchorEntry is the resolution slot for one anchor definition. Between
// begin and complete it holds the provisional value: the pointer, map, or
// slice allocated before the anchored node's children are constructed.
// An alias resolved during that window receives the provisional value,
// which is completed in place, so every reference ends up at the same
// instance. This is the rewritable-cell form of a placeholder.
type anchorEntry struct {
	anchor string
	val    any
	hasVal bool
	done   bool
}

// refTable is the per-call resolution context: anchor id to entry. Anchor
// ids are only unique within one document, so a refTable is never shared
// across decode calls and is discarded wholesale when the call ends.
type refTable struct {
	anchors map[string]*anchorEntry
}

func newRefTable() *refTable {
	return &refTable{anchors: make(map[string]*anchorEntry)}
}

// begin registers a forward-referenceable slot for anchor. A later
// definition of the same anchor id replaces the earlier one, matching
// document-order redefinition semantics.
func (t *refTable) begin(anchor string) *anchorEntry {
	e := &anchorEntry{anchor: anchor}
	t.anchors[anchor] = e
	if debug.Anchors() {
		debug.Logf("anchor %q begun", anchor)
	}
	return e
}

// provide sets the provisional value of an in-progress entry, making the
// anchor referenceable by aliases before construction completes.
func (e *anchorEntry) provide(v any) {
	e.val = v
	e.hasVal = true
}

// complete finalizes the slot.
func (t *refTable) complete(e *anchorEntry, v any) {
	e.val = v
	e.hasVal = true
	e.done = true
	if debug.Anchors() {
		debug.Logf("anchor %q completed", e.anchor)
	}
}

// lookup resolves an alias target. An in-progress entry resolves to its
// provisional value; an in-progress entry with no provisional value means
// the alias closes a cycle through a node that cannot exist before its
// children do, which no object can satisfy.
func (t *refTable) lookup(anchor, path string) (any, error) {
	e, ok := t.anchors[anchor]
	if !ok {
		return nil, decodeErrf(path, ErrUndefinedAnchor, "alias *%s has no anchor definition", anchor)
	}
	if !e.hasVal {
		return nil, decodeErrf(path, ErrIncompleteGraph, "alias *%s refers to a value that cannot exist before its own construction completes", anchor)
	}
	return e.val, nil
}

// checkComplete reports begun-but-never-completed anchors. Reaching the
// end of a successful decode with a dangling anchor means the graph has a
// hole; it is fatal, never silently left unresolved.
func (t *refTable) checkComplete() error {
	var pending []string
	for anchor, e := range t.anchors {
		if !e.done {
			pending = append(pending, anchor)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Strings(pending)
	return &DecodeError{
		Message: fmt.Sprintf("anchors begun but never completed: %v", pending),
		Err:     ErrIncompleteGraph,
	}
}
