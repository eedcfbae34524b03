// Package objmap decodes tagged ir.Node trees into graphs of typed Go
// objects and encodes object graphs back into node trees.
//
// Type selection is driven by tags: a Registry maps tag strings to
// reflection-backed Descriptors, and decoding a tagged mapping constructs
// an instance of the registered type. Anchors and aliases in the document
// resolve to shared object instances, including cycles: an anchored
// mapping whose own field aliases its own anchor decodes to an object
// referencing itself.
//
// Example usage:
//
//	type Person struct {
//	    Name string
//	    Boss *Person `tog:",optional"`
//	}
//
//	reg := objmap.NewRegistry()
//	reg.Register("person", Person{})
//
//	codec := objmap.NewCodec(reg)
//	v, err := codec.Decode(node)   // v is *Person for a !person mapping
//	out, err := codec.Encode(v)    // out is a tagged *ir.Node
//
// # Safe and unsafe modes
//
// By default only registered tags may be constructed; an unregistered tag
// fails with ErrUnknownTag. Unsafe mode is an explicit, opt-in capability:
// the caller supplies a TypeResolver via WithUnsafeResolver, and tags
// missing from the registry are handed to it. Go has no runtime lookup
// from a name to a type, so the resolver defines the type space the
// document may reach; TypesResolver builds one from a fixed set of sample
// values keyed by their qualified type names.
//
// # Strictness
//
// Decoding is strict by default: an unknown field in a tagged mapping
// fails with ErrUnknownField, and a duplicate tag registration fails with
// ErrDuplicateTag. WithLenient and LenientRegistration relax these to
// ignore-unknown and last-registration-wins respectively. Encoding an
// unregistered struct type fails with ErrUnregisteredType in strict mode;
// lenient encoding falls back to the qualified type name as an ad hoc tag.
//
// # Field visibility
//
//   - Only exported (uppercase) struct fields are processed (like encoding/json)
//   - Unexported fields are ignored (cannot access from different package)
//   - Field matching is case-sensitive
//   - A `tog:"name,optional"` struct tag renames a field or marks it
//     optional; `tog:"-"` omits it
package objmap
