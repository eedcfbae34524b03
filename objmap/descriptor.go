package objmap

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
)

var textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()

// Descriptor describes how a tag constructs instances of a Go type. It is
// built once by reflection and never mutated afterwards, so it is safe to
// share between concurrent decode calls.
type Descriptor struct {
	// Tag is the tag string the descriptor is registered under.
	Tag string

	// Type is the concrete Go type constructed for the tag. Struct types
	// are constructed from mappings, slice types from sequences, and
	// scalar-kinded or TextUnmarshaler types from scalars.
	Type reflect.Type

	fields []FieldInfo
	byName map[string]int
}

// FieldInfo holds field metadata extracted from struct tags.
type FieldInfo struct {
	// Name is the field name as it appears in documents.
	Name string

	// GoName is the struct field name.
	GoName string

	// Index is the field index path (flattened embedded structs have a
	// two-element path).
	Index []int

	// Type is the Go type of the field.
	Type reflect.Type

	// Optional indicates the field may be absent from a mapping. Fields
	// of pointer, slice, map, and interface kind are optional implicitly.
	Optional bool

	// Omit indicates the field is excluded from mapping (`tog:"-"`).
	Omit bool
}

// DescribeType builds a Descriptor for sample's type under the given tag.
// sample may also be a reflect.Type. Pointer types are described by their
// element type; decoding always yields a pointer to a fresh instance.
func DescribeType(tag string, sample any) (*Descriptor, error) {
	var t reflect.Type
	switch v := sample.(type) {
	case nil:
		return nil, fmt.Errorf("cannot describe nil for tag %q", tag)
	case reflect.Type:
		t = v
	default:
		t = reflect.TypeOf(sample)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	d := &Descriptor{Tag: tag, Type: t}
	switch t.Kind() {
	case reflect.Struct:
		if err := d.collectFields(); err != nil {
			return nil, err
		}
		return d, nil
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Slice, reflect.Map:
		return d, nil
	}
	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return d, nil
	}
	return nil, fmt.Errorf("cannot describe type %s for tag %q: unsupported kind %s", t, tag, t.Kind())
}

// MustDescribeType is DescribeType panicking on error, for package-level
// registration of known-good types.
func MustDescribeType(tag string, sample any) *Descriptor {
	d, err := DescribeType(tag, sample)
	if err != nil {
		panic(err)
	}
	return d
}

// FieldNames returns the document-visible field names in struct
// declaration order.
func (d *Descriptor) FieldNames() []string {
	names := make([]string, 0, len(d.fields))
	for i := range d.fields {
		if d.fields[i].Omit {
			continue
		}
		names = append(names, d.fields[i].Name)
	}
	return names
}

// Field returns the field info for a document field name.
func (d *Descriptor) Field(name string) (FieldInfo, bool) {
	i, ok := d.byName[name]
	if !ok {
		return FieldInfo{}, false
	}
	return d.fields[i], true
}

func (d *Descriptor) collectFields() error {
	typ := d.Type
	d.byName = make(map[string]int)
	add := func(info FieldInfo) error {
		if prev, exists := d.byName[info.Name]; exists {
			return fmt.Errorf("field name conflict in %s: %q maps to both %s and %s",
				typ, info.Name, d.fields[prev].GoName, info.GoName)
		}
		d.byName[info.Name] = len(d.fields)
		d.fields = append(d.fields, info)
		return nil
	}

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.Anonymous {
			// flatten embedded structs one level; exported fields of an
			// unexported embedded struct type promote, as in
			// encoding/json
			if field.Type.Kind() != reflect.Struct {
				continue
			}
			embeddedType := field.Type
			for j := 0; j < embeddedType.NumField(); j++ {
				embeddedField := embeddedType.Field(j)
				if !embeddedField.IsExported() || embeddedField.Anonymous {
					continue
				}
				info, omit := fieldInfoOf(embeddedField)
				if omit {
					continue
				}
				info.Index = append(append([]int{}, field.Index...), embeddedField.Index...)
				if err := add(info); err != nil {
					return err
				}
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		info, omit := fieldInfoOf(field)
		if omit {
			continue
		}
		if err := add(info); err != nil {
			return err
		}
	}
	return nil
}

func fieldInfoOf(field reflect.StructField) (FieldInfo, bool) {
	info := FieldInfo{
		Name:   field.Name,
		GoName: field.Name,
		Index:  field.Index,
		Type:   field.Type,
	}
	switch field.Type.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		info.Optional = true
	}
	tag, ok := field.Tag.Lookup("tog")
	if !ok {
		return info, false
	}
	if tag == "-" {
		info.Omit = true
		return info, true
	}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		info.Name = parts[0]
	}
	for _, p := range parts[1:] {
		switch p {
		case "optional":
			info.Optional = true
		case "required":
			info.Optional = false
		}
	}
	return info, false
}
