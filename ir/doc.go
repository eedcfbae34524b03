// Package ir provides the intermediate representation (IR) for tagged
// object graph documents.
//
// # Overview
//
// The IR package defines the core data structures for representing a parsed
// document as a tree of nodes. A document (whether parsed from text by an
// external parser or created programmatically) is represented as an ir.Node
// tree which the objmap package decodes into an object graph and encodes
// back out of one.
//
// The IR contains no position information from input documents, making it
// purely semantic.
//
// # Node Structure
//
// A Node represents a single value in a document. Nodes can be:
//
//   - Atomic types: null, boolean, number, string
//   - Composite types: object (key-value pairs), array (ordered list)
//   - Alias: a reference to a previously anchored node
//
// Each node maintains parent-child relationships, allowing navigation
// through the tree structure.
//
// The IR works as a recursive tagged union structure, where values are
// placed in fields depending on the node type.
//
// # Tags and Anchors
//
// Every node optionally carries a Tag, a string annotation selecting which
// host type the node should construct into, and an Anchor, an identifier
// marking the node as a reusable target for later Alias nodes. An
// AliasType node carries only the Alias field, naming the anchor it stands
// in for. Alias targets must be defined earlier in document order; the ir
// package does not enforce this, the decoder does.
//
// # Creating Nodes
//
// Use constructor functions to create nodes:
//
//	node := ir.FromString("hello")
//	num := ir.FromInt(42)
//	flag := ir.FromBool(true)
//	obj := ir.FromMap(map[string]*ir.Node{
//	    "key": ir.FromString("value"),
//	})
//	arr := ir.FromSlice([]*ir.Node{
//	    ir.FromInt(1),
//	    ir.FromInt(2),
//	})
//	tagged := obj.WithTag("person").WithAnchor("p1")
//	ref := ir.NewAlias("p1")
//
// # IR Structure Constraints
//
// For ObjectType nodes, Fields[i] is the key for the value at Values[i], so
// there will always be the same number of fields as values. Keys are scalar
// nodes; field order is preserved from the source document.
//
// Number values are placed under:
//   - Int64: if it is an integer (64-bit signed)
//   - Float64: if it is a floating point number (64-bit IEEE float)
//   - Number: as a string fallback if neither Int64 nor Float64 can represent it
//
// # Navigating Nodes
//
// Nodes maintain parent-child relationships:
//
//   - Parent: parent node (nil for root)
//   - ParentIndex: index in parent's array/object
//   - ParentField: field name if parent is object
//   - Fields: field names (for ObjectType)
//   - Values: child values (for ObjectType and ArrayType)
//
// Use Path() to get a JSONPath-style path string:
//
//	path := node.Path() // e.g., "$.foo.bar[0]"
//
// # Comparison
//
// Nodes can be compared for equality and order:
//
//	equal := ir.Compare(a, b) == 0
//
// Compare is anchor-sensitive. For the round-trip law, where anchor
// identifiers are implementation-chosen, use Equiv, which is insensitive
// to anchor renaming:
//
//	same := ir.Equiv(a, b)
//
// # Thread Safety
//
// Node structures are not thread-safe. If you need to access nodes from
// multiple goroutines, you must synchronize access yourself or clone nodes
// for each goroutine.
//
// # Related Packages
//
//   - github.com/tog-format/go-tog/objmap - Decodes IR into object graphs and back
//   - github.com/tog-format/go-tog/yamlnode - Bridges YAML syntax trees to IR
package ir
