package objmap

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"

	"github.com/tog-format/go-tog/debug"
	"github.com/tog-format/go-tog/ir"
)

// encoder is the per-call emission state: reference counts from the
// sharing pass, assigned anchor names, and the gray set of objects
// currently being emitted.
type encoder struct {
	codec      *Codec
	counts     map[refKey]int
	anchors    map[refKey]string
	gray       map[refKey]bool
	nextAnchor int
}

func newEncoder(c *Codec) *encoder {
	return &encoder{
		codec:   c,
		counts:  make(map[refKey]int),
		anchors: make(map[refKey]string),
		gray:    make(map[refKey]bool),
	}
}

// refKey identifies a referenceable value. The bare address is not
// enough: a slice and its prefix re-slice share a base address, as do a
// slice and a pointer to its first element, and emitting one as an alias
// of the other would produce a tree of the wrong shape. The type
// separates pointers from slices and the length separates re-slices;
// two slices agreeing on all three are the same view of the same
// elements.
type refKey struct {
	addr uintptr
	typ  reflect.Type
	len  int
}

func (e *encoder) encode(v any) (*ir.Node, error) {
	if v == nil {
		return ir.Null(), nil
	}
	rv := reflect.ValueOf(v)
	e.count(rv)
	node, err := e.emit(rv, "$")
	if err != nil {
		return nil, err
	}
	stripUnaliasedAnchors(node)
	return node, nil
}

// refID identifies a value that can be referenced more than once. Only
// pointers, maps, and non-empty slices have reference identity.
func refID(v reflect.Value) (refKey, bool) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map:
		if v.IsNil() {
			return refKey{}, false
		}
		return refKey{addr: v.Pointer(), typ: v.Type()}, true
	case reflect.Slice:
		if v.IsNil() || v.Cap() == 0 {
			return refKey{}, false
		}
		return refKey{addr: v.Pointer(), typ: v.Type(), len: v.Len()}, true
	}
	return refKey{}, false
}

// count is the sharing pass: it walks the graph once, counting how often
// each reference is reachable. Revisits stop the descent, which also
// makes the pass terminate on cycles.
func (e *encoder) count(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Interface:
		if !v.IsNil() {
			e.count(v.Elem())
		}
	case reflect.Ptr:
		id, ok := refID(v)
		if !ok {
			return
		}
		e.counts[id]++
		if e.counts[id] > 1 {
			return
		}
		e.count(v.Elem())
	case reflect.Map:
		id, ok := refID(v)
		if !ok {
			return
		}
		e.counts[id]++
		if e.counts[id] > 1 {
			return
		}
		iter := v.MapRange()
		for iter.Next() {
			e.count(iter.Value())
		}
	case reflect.Slice:
		id, ok := refID(v)
		if !ok {
			return
		}
		e.counts[id]++
		if e.counts[id] > 1 {
			return
		}
		for i := 0; i < v.Len(); i++ {
			e.count(v.Index(i))
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			e.count(v.Index(i))
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			// embedded structs promote fields the emitter will walk,
			// even when the embedded type itself is unexported
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				e.count(v.Field(i))
				continue
			}
			if !f.IsExported() {
				continue
			}
			e.count(v.Field(i))
		}
	}
}

func (e *encoder) anchorName() string {
	e.nextAnchor++
	return fmt.Sprintf("a%d", e.nextAnchor)
}

// enter begins emission of a referenceable value. It returns an alias
// node when the value was already emitted, or the anchor name to attach
// when the value is shared and this is its first emission.
func (e *encoder) enter(id refKey, v reflect.Value, path string) (*ir.Node, string, error) {
	if name, ok := e.anchors[id]; ok {
		if debug.Encode() {
			debug.Logf("alias *%s at %s", name, path)
		}
		return ir.NewAlias(name), "", nil
	}
	if e.gray[id] {
		// counts guarantee cycle members are anchored before descent
		return nil, "", encodeErrf(path, nil, "re-entered %s while emitting it", v.Type())
	}
	var name string
	if e.counts[id] > 1 {
		name = e.anchorName()
		e.anchors[id] = name
		if debug.Encode() {
			debug.Logf("anchor &%s assigned at %s", name, path)
		}
	}
	e.gray[id] = true
	return nil, name, nil
}

func (e *encoder) emit(v reflect.Value, path string) (*ir.Node, error) {
	if !v.IsValid() {
		return ir.Null(), nil
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return ir.Null(), nil
		}
		return e.emit(v.Elem(), path)

	case reflect.Ptr:
		if v.IsNil() {
			return ir.Null(), nil
		}
		id, _ := refID(v)
		alias, name, err := e.enter(id, v, path)
		if err != nil || alias != nil {
			return alias, err
		}
		node, err := e.emit(v.Elem(), path)
		delete(e.gray, id)
		if err != nil {
			return nil, err
		}
		if name != "" {
			node.Anchor = name
		}
		return node, nil

	case reflect.Map:
		if v.IsNil() {
			return ir.Null(), nil
		}
		id, _ := refID(v)
		alias, name, err := e.enter(id, v, path)
		if err != nil || alias != nil {
			return alias, err
		}
		node, err := e.emitMap(v, path)
		delete(e.gray, id)
		if err != nil {
			return nil, err
		}
		if name != "" {
			node.Anchor = name
		}
		return node, nil

	case reflect.Slice:
		if v.IsNil() {
			return ir.Null(), nil
		}
		id, hasID := refID(v)
		var name string
		if hasID {
			alias, n, err := e.enter(id, v, path)
			if err != nil || alias != nil {
				return alias, err
			}
			name = n
		}
		node, err := e.emitArray(v, path)
		if hasID {
			delete(e.gray, id)
		}
		if err != nil {
			return nil, err
		}
		if name != "" {
			node.Anchor = name
		}
		return node, nil

	case reflect.Array:
		return e.emitArray(v, path)

	case reflect.Struct:
		return e.emitStruct(v, path)

	case reflect.String:
		return e.withTypeTag(v.Type(), ir.FromString(v.String())), nil
	case reflect.Bool:
		return e.withTypeTag(v.Type(), ir.FromBool(v.Bool())), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return e.withTypeTag(v.Type(), ir.FromInt(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return e.withTypeTag(v.Type(), ir.FromInt(int64(v.Uint()))), nil
	case reflect.Float32, reflect.Float64:
		return e.withTypeTag(v.Type(), ir.FromFloat(v.Float())), nil
	}
	return nil, encodeErrf(path, nil, "unsupported type: %s", v.Type())
}

// withTypeTag attaches the registered tag of a named scalar or slice
// type, so registered one-argument constructors round-trip.
func (e *encoder) withTypeTag(t reflect.Type, node *ir.Node) *ir.Node {
	if t.Name() == "" || t.PkgPath() == "" {
		return node
	}
	if d, ok := e.codec.registry.DescriptorOf(t); ok {
		node.Tag = d.Tag
	}
	return node
}

func (e *encoder) emitArray(v reflect.Value, path string) (*ir.Node, error) {
	values := make([]*ir.Node, v.Len())
	for i := 0; i < v.Len(); i++ {
		elem, err := e.emit(v.Index(i), elemPath(path, i))
		if err != nil {
			return nil, err
		}
		values[i] = elem
	}
	node := ir.FromSlice(values)
	if v.Kind() == reflect.Slice {
		node = e.withTypeTag(v.Type(), node)
	}
	return node, nil
}

func (e *encoder) emitMap(v reflect.Value, path string) (*ir.Node, error) {
	kvs := make([]ir.KeyVal, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		keyNode, err := scalarToNode(iter.Key(), path)
		if err != nil {
			return nil, err
		}
		valNode, err := e.emit(iter.Value(), keyPath(path, keyNode))
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, ir.KeyVal{Key: keyNode, Val: valNode})
	}
	// map iteration order is random; sort for deterministic output
	sort.Slice(kvs, func(i, j int) bool {
		return ir.Compare(kvs[i].Key, kvs[j].Key) < 0
	})
	return ir.FromKeyVals(kvs), nil
}

func (e *encoder) emitStruct(v reflect.Value, path string) (*ir.Node, error) {
	if tm, ok := textMarshaler(v); ok {
		text, err := tm.MarshalText()
		if err != nil {
			return nil, encodeErrf(path, err, "MarshalText failed for %s", v.Type())
		}
		return e.withTypeTag(v.Type(), ir.FromString(string(text))), nil
	}

	desc, ok := e.codec.registry.DescriptorOf(v.Type())
	if !ok {
		if !e.codec.cfg.lenient {
			return nil, encodeErrf(path, ErrUnregisteredType, "type %s has no registered tag", v.Type())
		}
		// ad hoc tag from the qualified type name
		adHoc, err := DescribeType(v.Type().String(), v.Type())
		if err != nil {
			return nil, encodeErrf(path, err, "cannot describe %s", v.Type())
		}
		desc = adHoc
	}

	kvs := make([]ir.KeyVal, 0, len(desc.fields))
	for _, f := range desc.fields {
		if f.Omit {
			continue
		}
		fieldVal := v.FieldByIndex(f.Index)
		if f.Optional && fieldVal.IsZero() {
			continue
		}
		valNode, err := e.emit(fieldVal, fieldPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		kvs = append(kvs, ir.KeyVal{Key: ir.FromString(f.Name), Val: valNode})
	}
	node := ir.FromKeyVals(kvs)
	node.Tag = desc.Tag
	return node, nil
}

func textMarshaler(v reflect.Value) (encoding.TextMarshaler, bool) {
	if tm, ok := v.Interface().(encoding.TextMarshaler); ok {
		return tm, true
	}
	if v.CanAddr() {
		if tm, ok := v.Addr().Interface().(encoding.TextMarshaler); ok {
			return tm, true
		}
	}
	return nil, false
}

func scalarToNode(v reflect.Value, path string) (*ir.Node, error) {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ir.Null(), nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.String:
		return ir.FromString(v.String()), nil
	case reflect.Bool:
		return ir.FromBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.FromInt(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ir.FromInt(int64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return ir.FromFloat(v.Float()), nil
	}
	return nil, encodeErrf(path, ErrUnhashableKey, "map key of type %s is not a scalar", v.Type())
}

// stripUnaliasedAnchors removes anchors that no alias in the emitted tree
// refers to. The sharing pass can overcount through fields the emission
// later omits.
func stripUnaliasedAnchors(root *ir.Node) {
	aliased := map[string]bool{}
	_ = root.Visit(func(y *ir.Node, isPost bool) (bool, error) {
		if !isPost && y.Type == ir.AliasType {
			aliased[y.Alias] = true
		}
		return true, nil
	})
	_ = root.Visit(func(y *ir.Node, isPost bool) (bool, error) {
		if !isPost && y.Anchor != "" && !aliased[y.Anchor] {
			y.Anchor = ""
		}
		return true, nil
	})
}
