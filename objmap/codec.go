package objmap

import (
	"fmt"
	"reflect"

	"github.com/tog-format/go-tog/ir"
)

// TypeResolver is the unsafe-mode escape hatch: a capability, supplied by
// the host, from a tag string to a descriptor. It is consulted only for
// tags missing from the registry, and only when installed via
// WithUnsafeResolver. It is never a default.
type TypeResolver func(name string) (*Descriptor, error)

// TypesResolver builds a TypeResolver over a fixed set of sample values,
// keyed by their qualified type names (reflect.Type.String(), e.g.
// "mypkg.Widget"). Names outside the set fail with ErrUnresolvableType.
func TypesResolver(samples ...any) TypeResolver {
	byName := make(map[string]*Descriptor, len(samples))
	for _, sample := range samples {
		t := reflect.TypeOf(sample)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		d, err := DescribeType(t.String(), t)
		if err != nil {
			continue
		}
		byName[t.String()] = d
	}
	return func(name string) (*Descriptor, error) {
		d, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnresolvableType, name)
		}
		return d, nil
	}
}

type config struct {
	unsafeResolver TypeResolver
	lenient        bool
	maxDepth       int
}

// Option configures a Codec or a single Decode/Encode call.
type Option func(*config)

// WithUnsafeResolver enables unsafe mode: tags missing from the registry
// are resolved through r. Safe mode (the default) never consults r.
func WithUnsafeResolver(r TypeResolver) Option {
	return func(c *config) { c.unsafeResolver = r }
}

// WithLenient relaxes decoding to ignore unknown fields in tagged
// mappings and encoding to fall back to qualified type names for
// unregistered types.
func WithLenient() Option {
	return func(c *config) { c.lenient = true }
}

// WithMaxDepth imposes a recursion depth budget on decoding; exceeding it
// aborts the call with ErrMaxDepth. Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// Codec decodes node trees into object graphs and back, consulting a
// Registry for tag resolution. A Codec is immutable after construction
// and safe for concurrent use; each call gets its own resolution context.
type Codec struct {
	registry *Registry
	cfg      config
}

// NewCodec creates a Codec over reg. A nil reg uses the default registry.
func NewCodec(reg *Registry, opts ...Option) *Codec {
	c := &Codec{registry: reg}
	if c.registry == nil {
		c.registry = DefaultRegistry()
	}
	for _, opt := range opts {
		opt(&c.cfg)
	}
	return c
}

// Registry returns the registry the codec resolves tags against.
func (c *Codec) Registry() *Registry {
	return c.registry
}

// resolveTag resolves a tag to a descriptor, applying the safe/unsafe
// mode policy.
func (c *Codec) resolveTag(tag, path string) (*Descriptor, error) {
	if d, ok := c.registry.Resolve(tag); ok {
		return d, nil
	}
	if c.cfg.unsafeResolver == nil {
		return nil, decodeErrf(path, ErrUnknownTag, "tag %q is not registered", tag)
	}
	d, err := c.cfg.unsafeResolver(tag)
	if err != nil {
		return nil, decodeErrf(path, err, "tag %q did not resolve to a type", tag)
	}
	return d, nil
}

// Decode constructs the object graph for a node tree. The result is a
// native Go scalar, a []any, a map, or a pointer to a registered type,
// per the node's shape and tag.
func (c *Codec) Decode(node *ir.Node) (any, error) {
	dec := newDecoder(c)
	v, err := dec.decodeAny(node, "$")
	if err != nil {
		return nil, err
	}
	if err := dec.refs.checkComplete(); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeInto constructs the node tree into v, which must be a non-nil
// pointer to the target.
func (c *Codec) DecodeInto(node *ir.Node, v any) error {
	if v == nil {
		return &DecodeError{Message: "destination value cannot be nil"}
	}
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return &DecodeError{Message: "destination value must be a non-nil pointer"}
	}
	dec := newDecoder(c)
	if err := dec.decodeNode(node, val.Elem(), "$"); err != nil {
		return err
	}
	return dec.refs.checkComplete()
}

// Encode walks an object graph and produces the node tree for it.
// Objects reachable more than once get generated anchors and Alias nodes;
// cyclic graphs terminate.
func (c *Codec) Encode(v any) (*ir.Node, error) {
	enc := newEncoder(c)
	return enc.encode(v)
}

// Decode constructs node's object graph using the default registry.
func Decode(node *ir.Node, opts ...Option) (any, error) {
	return NewCodec(nil, opts...).Decode(node)
}

// DecodeInto constructs node into v using the default registry.
func DecodeInto(node *ir.Node, v any, opts ...Option) error {
	return NewCodec(nil, opts...).DecodeInto(node, v)
}

// Encode produces the node tree for v using the default registry.
func Encode(v any, opts ...Option) (*ir.Node, error) {
	return NewCodec(nil, opts...).Encode(v)
}
