package objmap

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/tog-format/go-tog/debug"
	"github.com/tog-format/go-tog/ir"
)

// decoder is the per-call construction state: the codec configuration
// plus the resolution context for anchors. One decoder never serves two
// calls.
type decoder struct {
	codec *Codec
	refs  *refTable
	depth int
}

func newDecoder(c *Codec) *decoder {
	return &decoder{codec: c, refs: newRefTable()}
}

// decodeAny constructs node into a dynamic value.
func (d *decoder) decodeAny(node *ir.Node, path string) (any, error) {
	var v any
	val := reflect.ValueOf(&v).Elem()
	if err := d.decodeNode(node, val, path); err != nil {
		return nil, err
	}
	return v, nil
}

// decodeNode constructs node into dst, dispatching on the node variant.
// Anchored nodes run the begin/complete protocol around construction so
// aliases resolve to the instance under construction.
func (d *decoder) decodeNode(node *ir.Node, dst reflect.Value, path string) error {
	if node == nil {
		return &DecodeError{FieldPath: path, Message: "IR node is nil"}
	}
	if max := d.codec.cfg.maxDepth; max > 0 && d.depth >= max {
		return decodeErrf(path, ErrMaxDepth, "recursion depth budget %d exhausted", max)
	}
	d.depth++
	defer func() { d.depth-- }()

	if debug.Decode() {
		debug.Logf("decode %s at %s (tag=%q anchor=%q)", node.Type, path, node.Tag, node.Anchor)
	}

	if node.Type == ir.AliasType {
		v, err := d.refs.lookup(node.Alias, path)
		if err != nil {
			return err
		}
		return d.assignAny(dst, v, path)
	}

	var entry *anchorEntry
	if node.Anchor != "" {
		entry = d.refs.begin(node.Anchor)
	}

	switch node.Type {
	case ir.NullType, ir.BoolType, ir.NumberType, ir.StringType:
		return d.decodeScalar(node, dst, path, entry)
	case ir.ArrayType:
		return d.decodeSequence(node, dst, path, entry)
	case ir.ObjectType:
		if node.Tag != "" {
			return d.decodeTagged(node, dst, path, entry)
		}
		return d.decodeMapping(node, dst, path, entry)
	}
	return decodeErrf(path, nil, "unsupported node type %s", node.Type)
}

// decodeScalar handles the four atomic node types, tagged or not.
// Scalars have no children, so the anchor completes immediately.
func (d *decoder) decodeScalar(node *ir.Node, dst reflect.Value, path string, entry *anchorEntry) error {
	if node.Tag != "" {
		desc, err := d.codec.resolveTag(node.Tag, path)
		if err != nil {
			return err
		}
		v, err := buildScalar(desc, node, path)
		if err != nil {
			return err
		}
		if entry != nil {
			d.refs.complete(entry, v)
		}
		return d.assignAny(dst, v, path)
	}

	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		v, err := nativeScalar(node, path)
		if err != nil {
			return err
		}
		if entry != nil {
			d.refs.complete(entry, v)
		}
		if v == nil {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	}

	if err := decodeScalarInto(node, dst, path); err != nil {
		return err
	}
	if entry != nil {
		d.refs.complete(entry, dst.Interface())
	}
	return nil
}

// decodeSequence handles array nodes. The slice is allocated at its full
// length before elements are constructed, so aliases into an anchored
// sequence share its backing array.
func (d *decoder) decodeSequence(node *ir.Node, dst reflect.Value, path string, entry *anchorEntry) error {
	n := len(node.Values)

	if node.Tag != "" {
		desc, err := d.codec.resolveTag(node.Tag, path)
		if err != nil {
			return err
		}
		if desc.Type.Kind() != reflect.Slice {
			return decodeErrf(path, nil, "tag %q selects %s, which cannot be built from a sequence", node.Tag, desc.Type)
		}
		sl := reflect.MakeSlice(desc.Type, n, n)
		if entry != nil {
			entry.provide(sl.Interface())
		}
		for i := 0; i < n; i++ {
			if err := d.decodeNode(node.Values[i], sl.Index(i), elemPath(path, i)); err != nil {
				return err
			}
		}
		if entry != nil {
			d.refs.complete(entry, sl.Interface())
		}
		return d.assignAny(dst, sl.Interface(), path)
	}

	switch dst.Kind() {
	case reflect.Interface:
		if dst.NumMethod() != 0 {
			return decodeErrf(path, nil, "cannot decode sequence into %s", dst.Type())
		}
		sl := make([]any, n)
		rsl := reflect.ValueOf(sl)
		if entry != nil {
			entry.provide(sl)
		}
		for i := 0; i < n; i++ {
			if err := d.decodeNode(node.Values[i], rsl.Index(i), elemPath(path, i)); err != nil {
				return err
			}
		}
		if entry != nil {
			d.refs.complete(entry, sl)
		}
		dst.Set(rsl)
		return nil

	case reflect.Slice:
		sl := reflect.MakeSlice(dst.Type(), n, n)
		if entry != nil {
			entry.provide(sl.Interface())
		}
		for i := 0; i < n; i++ {
			if err := d.decodeNode(node.Values[i], sl.Index(i), elemPath(path, i)); err != nil {
				return err
			}
		}
		if entry != nil {
			d.refs.complete(entry, sl.Interface())
		}
		dst.Set(sl)
		return nil

	case reflect.Array:
		if dst.Len() != n {
			return decodeErrf(path, nil, "array length mismatch: expected %d, got %d", dst.Len(), n)
		}
		for i := 0; i < n; i++ {
			if err := d.decodeNode(node.Values[i], dst.Index(i), elemPath(path, i)); err != nil {
				return err
			}
		}
		if entry != nil {
			d.refs.complete(entry, dst.Interface())
		}
		return nil

	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return d.decodeSequence(node, dst.Elem(), path, entry)
	}
	return decodeErrf(path, nil, "expected sequence-compatible destination, got %s", dst.Type())
}

// decodeTagged constructs a tagged mapping through its descriptor. The
// field layout is validated in full (unknown and missing fields) before
// any field value is constructed, so no construction runs once a fatal
// sibling error is knowable.
func (d *decoder) decodeTagged(node *ir.Node, dst reflect.Value, path string, entry *anchorEntry) error {
	desc, err := d.codec.resolveTag(node.Tag, path)
	if err != nil {
		return err
	}
	switch desc.Type.Kind() {
	case reflect.Struct:
		return d.decodeStruct(node, desc, dst, path, entry)
	case reflect.Map:
		return d.decodeTypedMap(node, desc.Type, dst, path, entry)
	}
	return decodeErrf(path, nil, "tag %q selects %s, which cannot be built from a mapping", node.Tag, desc.Type)
}

func (d *decoder) decodeStruct(node *ir.Node, desc *Descriptor, dst reflect.Value, path string, entry *anchorEntry) error {
	ptr := reflect.New(desc.Type)
	if entry != nil {
		entry.provide(ptr.Interface())
	}

	// layout validation pass
	seen := make(map[string]*ir.Node, len(node.Fields))
	for i, keyNode := range node.Fields {
		name, ok := scalarKeyString(keyNode)
		if !ok {
			return decodeErrf(keyPath(path, keyNode), ErrUnhashableKey, "field name must be a scalar, got %s", keyNode.Type)
		}
		if _, known := desc.Field(name); !known {
			if d.codec.cfg.lenient {
				continue
			}
			return decodeErrf(keyPath(path, keyNode), ErrUnknownField, "type %s has no field %q", desc.Type, name)
		}
		seen[name] = node.Values[i]
	}
	for _, f := range desc.fields {
		if f.Omit || f.Optional {
			continue
		}
		if _, ok := seen[f.Name]; !ok {
			return decodeErrf(path, ErrMissingField, "type %s requires field %q", desc.Type, f.Name)
		}
	}

	// construction pass
	for _, f := range desc.fields {
		fieldNode, ok := seen[f.Name]
		if !ok {
			continue
		}
		fieldVal := ptr.Elem().FieldByIndex(f.Index)
		if err := d.decodeNode(fieldNode, fieldVal, fieldPath(path, f.Name)); err != nil {
			return err
		}
	}

	if entry != nil {
		d.refs.complete(entry, ptr.Interface())
	}
	if dst.Type() == desc.Type {
		// storing an anchored object into a value field would copy it
		// while aliases keep the canonical pointer, splitting one
		// anchor into two instances
		if entry != nil {
			return decodeErrf(path, nil,
				"anchored %s cannot be stored in a %s field without breaking reference identity; use a pointer field", ptr.Type(), desc.Type)
		}
		dst.Set(ptr.Elem())
		return nil
	}
	return d.assignAny(dst, ptr.Interface(), path)
}

// decodeMapping handles untagged mapping nodes.
func (d *decoder) decodeMapping(node *ir.Node, dst reflect.Value, path string, entry *anchorEntry) error {
	switch dst.Kind() {
	case reflect.Interface:
		if dst.NumMethod() != 0 {
			return decodeErrf(path, nil, "cannot decode mapping into %s", dst.Type())
		}
		v, err := d.decodeDynamicMap(node, path, entry)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(v))
		return nil
	case reflect.Map:
		return d.decodeTypedMap(node, dst.Type(), dst, path, entry)
	case reflect.Struct:
		// typed destination without a registered tag: describe on the fly
		desc, err := DescribeType("", dst.Type())
		if err != nil {
			return decodeErrf(path, err, "cannot decode mapping into %s", dst.Type())
		}
		return d.decodeStruct(node, desc, dst, path, entry)
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return d.decodeMapping(node, dst.Elem(), path, entry)
	}
	return decodeErrf(path, nil, "expected mapping-compatible destination, got %s", dst.Type())
}

// decodeDynamicMap builds map[string]any when every key is a string and
// map[any]any otherwise. The map is registered as the anchor's
// provisional value before the pairs are constructed, so a self-alias
// inside the mapping resolves to the mapping itself.
func (d *decoder) decodeDynamicMap(node *ir.Node, path string, entry *anchorEntry) (any, error) {
	allString := true
	for _, keyNode := range node.Fields {
		if !keyNode.Type.IsScalar() {
			return nil, decodeErrf(keyPath(path, keyNode), ErrUnhashableKey, "mapping key must be a scalar, got %s", keyNode.Type)
		}
		if keyNode.Type != ir.StringType {
			allString = false
		}
	}

	if allString {
		m := make(map[string]any, len(node.Fields))
		if entry != nil {
			entry.provide(m)
		}
		for i, keyNode := range node.Fields {
			v, err := d.decodeAny(node.Values[i], fieldPath(path, keyNode.String))
			if err != nil {
				return nil, err
			}
			m[keyNode.String] = v
		}
		if entry != nil {
			d.refs.complete(entry, m)
		}
		return m, nil
	}

	m := make(map[any]any, len(node.Fields))
	if entry != nil {
		entry.provide(m)
	}
	for i, keyNode := range node.Fields {
		key, err := nativeScalar(keyNode, keyPath(path, keyNode))
		if err != nil {
			return nil, err
		}
		v, err := d.decodeAny(node.Values[i], keyPath(path, keyNode))
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	if entry != nil {
		d.refs.complete(entry, m)
	}
	return m, nil
}

// decodeTypedMap fills a map of mapType from a mapping node and assigns
// it to dst.
func (d *decoder) decodeTypedMap(node *ir.Node, mapType reflect.Type, dst reflect.Value, path string, entry *anchorEntry) error {
	keyType := mapType.Key()
	valType := mapType.Elem()
	m := reflect.MakeMapWithSize(mapType, len(node.Fields))
	if entry != nil {
		entry.provide(m.Interface())
	}
	for i, keyNode := range node.Fields {
		if !keyNode.Type.IsScalar() {
			return decodeErrf(keyPath(path, keyNode), ErrUnhashableKey, "mapping key must be a scalar, got %s", keyNode.Type)
		}
		keyVal := reflect.New(keyType).Elem()
		if err := decodeScalarInto(keyNode, keyVal, keyPath(path, keyNode)); err != nil {
			return err
		}
		valVal := reflect.New(valType).Elem()
		if err := d.decodeNode(node.Values[i], valVal, keyPath(path, keyNode)); err != nil {
			return err
		}
		m.SetMapIndex(keyVal, valVal)
	}
	if entry != nil {
		d.refs.complete(entry, m.Interface())
	}
	return d.assignAny(dst, m.Interface(), path)
}

// assignAny stores a constructed or shared value into dst, converting
// between scalar representations where that cannot lose identity.
func (d *decoder) assignAny(dst reflect.Value, v any, path string) error {
	if !dst.CanSet() {
		return decodeErrf(path, nil, "destination of type %s is not settable", dst.Type())
	}
	if v == nil {
		switch dst.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return decodeErrf(path, nil, "cannot assign null to %s", dst.Type())
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if dst.Kind() == reflect.Interface && rv.Type().Implements(dst.Type()) {
		dst.Set(rv)
		return nil
	}
	if convertibleScalar(rv.Type(), dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
		return nil
	}
	if rv.Kind() == reflect.Ptr && rv.Type().Elem().AssignableTo(dst.Type()) {
		return decodeErrf(path, nil,
			"shared %s cannot be stored in a %s field without breaking reference identity; use a pointer field", rv.Type(), dst.Type())
	}
	return decodeErrf(path, nil, "cannot assign %s to %s", rv.Type(), dst.Type())
}

// convertibleScalar permits numeric widening and named-type conversions
// but never the int-to-string conversions reflect would allow.
func convertibleScalar(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	switch {
	case isNumericKind(from.Kind()) && isNumericKind(to.Kind()):
		return true
	case from.Kind() == reflect.String && to.Kind() == reflect.String:
		return true
	case from.Kind() == reflect.Bool && to.Kind() == reflect.Bool:
		return true
	}
	return false
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// nativeScalar returns the host-native value of a scalar node: nil,
// bool, int64, float64, or string, inferred from the node payload.
func nativeScalar(node *ir.Node, path string) (any, error) {
	switch node.Type {
	case ir.NullType:
		return nil, nil
	case ir.BoolType:
		return node.Bool, nil
	case ir.StringType:
		return node.String, nil
	case ir.NumberType:
		if node.Int64 != nil {
			return *node.Int64, nil
		}
		if node.Float64 != nil {
			return *node.Float64, nil
		}
		if node.Number != "" {
			if i, err := strconv.ParseInt(node.Number, 10, 64); err == nil {
				return i, nil
			}
			if f, ok := parseNumberString(node.Number); ok {
				return f, nil
			}
			return nil, decodeErrf(path, nil, "invalid number: %q", node.Number)
		}
		return nil, decodeErrf(path, nil, "number node has no value")
	}
	return nil, decodeErrf(path, nil, "expected scalar, got %s", node.Type)
}

// buildScalar applies a one-argument constructor over a scalar node: the
// descriptor's type is built from the scalar payload.
func buildScalar(desc *Descriptor, node *ir.Node, path string) (any, error) {
	ptr := reflect.New(desc.Type)
	if tu, ok := ptr.Interface().(interface{ UnmarshalText([]byte) error }); ok && node.Type == ir.StringType {
		if err := tu.UnmarshalText([]byte(node.String)); err != nil {
			return nil, decodeErrf(path, err, "tag %q text constructor failed", desc.Tag)
		}
		return ptr.Elem().Interface(), nil
	}
	if err := decodeScalarInto(node, ptr.Elem(), path); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// decodeScalarInto stores a scalar node into a typed destination.
func decodeScalarInto(node *ir.Node, dst reflect.Value, path string) error {
	if node.Type == ir.NullType {
		switch dst.Kind() {
		case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return decodeErrf(path, nil, "cannot assign null to %s", dst.Type())
	}

	switch dst.Kind() {
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return decodeScalarInto(node, dst.Elem(), path)

	case reflect.Interface:
		if dst.NumMethod() != 0 {
			return decodeErrf(path, nil, "cannot decode scalar into %s", dst.Type())
		}
		v, err := nativeScalar(node, path)
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(v))
		return nil

	case reflect.String:
		if node.Type != ir.StringType {
			return decodeErrf(path, nil, "expected string, got %s", node.Type)
		}
		dst.SetString(node.String)
		return nil

	case reflect.Bool:
		if node.Type != ir.BoolType {
			return decodeErrf(path, nil, "expected bool, got %s", node.Type)
		}
		dst.SetBool(node.Bool)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := scalarInt(node, path)
		if err != nil {
			return err
		}
		if dst.OverflowInt(i) {
			return decodeErrf(path, nil, "value %d overflows %s", i, dst.Type())
		}
		dst.SetInt(i)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, err := scalarInt(node, path)
		if err != nil {
			return err
		}
		if i < 0 {
			return decodeErrf(path, nil, "negative value %d cannot be converted to %s", i, dst.Type())
		}
		if dst.OverflowUint(uint64(i)) {
			return decodeErrf(path, nil, "value %d overflows %s", i, dst.Type())
		}
		dst.SetUint(uint64(i))
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := scalarFloat(node, path)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
		return nil
	}
	return decodeErrf(path, nil, "expected %s-compatible scalar destination, got %s", node.Type, dst.Type())
}

func scalarInt(node *ir.Node, path string) (int64, error) {
	switch node.Type {
	case ir.NumberType:
		if node.Int64 != nil {
			return *node.Int64, nil
		}
		if node.Number != "" {
			i, err := strconv.ParseInt(node.Number, 10, 64)
			if err != nil {
				return 0, decodeErrf(path, err, "invalid number: %q", node.Number)
			}
			return i, nil
		}
		if node.Float64 != nil {
			f := *node.Float64
			i := int64(f)
			if float64(i) != f {
				return 0, decodeErrf(path, nil, "number %v is not an integer", f)
			}
			return i, nil
		}
		return 0, decodeErrf(path, nil, "number node has no value")
	case ir.StringType:
		i, err := strconv.ParseInt(node.String, 10, 64)
		if err != nil {
			return 0, decodeErrf(path, err, "cannot convert string %q to int", node.String)
		}
		return i, nil
	}
	return 0, decodeErrf(path, nil, "expected number, got %s", node.Type)
}

// parseNumberString reads a string number payload, including the YAML
// spellings of the non-finite floats.
func parseNumberString(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case ".inf", "+.inf":
		return math.Inf(1), true
	case "-.inf":
		return math.Inf(-1), true
	case ".nan":
		return math.NaN(), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func scalarFloat(node *ir.Node, path string) (float64, error) {
	switch node.Type {
	case ir.NumberType:
		if node.Float64 != nil {
			return *node.Float64, nil
		}
		if node.Int64 != nil {
			return float64(*node.Int64), nil
		}
		if node.Number != "" {
			f, ok := parseNumberString(node.Number)
			if !ok {
				return 0, decodeErrf(path, nil, "invalid float: %q", node.Number)
			}
			return f, nil
		}
		return 0, decodeErrf(path, nil, "number node has no value")
	case ir.StringType:
		f, err := strconv.ParseFloat(node.String, 64)
		if err != nil {
			return 0, decodeErrf(path, err, "cannot convert string %q to float", node.String)
		}
		return f, nil
	}
	return 0, decodeErrf(path, nil, "expected number, got %s", node.Type)
}

// scalarKeyString reads a scalar key node as a field name.
func scalarKeyString(n *ir.Node) (string, bool) {
	switch n.Type {
	case ir.StringType:
		return n.String, true
	case ir.NumberType:
		if n.Int64 != nil {
			return strconv.FormatInt(*n.Int64, 10), true
		}
		if n.Float64 != nil {
			return strconv.FormatFloat(*n.Float64, 'g', -1, 64), true
		}
		return n.Number, true
	case ir.BoolType:
		return strconv.FormatBool(n.Bool), true
	}
	return "", false
}

func fieldPath(path, field string) string {
	return path + "." + field
}

func elemPath(path string, i int) string {
	return fmt.Sprintf("%s[%d]", path, i)
}

func keyPath(path string, keyNode *ir.Node) string {
	if s, ok := scalarKeyString(keyNode); ok {
		return fieldPath(path, s)
	}
	return fieldPath(path, "<key>")
}
