package ir

import (
	"testing"
)

func TestFromMapParentLinks(t *testing.T) {
	obj := FromMap(map[string]*Node{
		"a": FromInt(1),
		"b": FromString("two"),
	})
	if obj.Type != ObjectType {
		t.Fatalf("expected object, got %s", obj.Type)
	}
	if len(obj.Fields) != 2 || len(obj.Values) != 2 {
		t.Fatalf("expected 2 fields and 2 values")
	}
	for i, v := range obj.Values {
		if v.Parent != obj {
			t.Errorf("value %d has wrong parent", i)
		}
		if v.ParentField != obj.Fields[i].String {
			t.Errorf("value %d ParentField %q != key %q", i, v.ParentField, obj.Fields[i].String)
		}
	}
}

func TestPath(t *testing.T) {
	inner := FromInt(3)
	arr := FromSlice([]*Node{FromInt(1), inner})
	doc := FromMap(map[string]*Node{"xs": arr})
	if got := inner.Path(); got != "$.xs[1]" {
		t.Errorf("Path() = %q, want %q", got, "$.xs[1]")
	}
	if got := doc.Path(); got != "$" {
		t.Errorf("root Path() = %q, want %q", got, "$")
	}
}

func TestClonePreservesTagAnchorAlias(t *testing.T) {
	doc := FromKeyVals([]KeyVal{
		{Key: FromString("one"), Val: FromInt(1).WithAnchor("L").WithTag("A")},
		{Key: FromString("two"), Val: NewAlias("L")},
	})
	c := doc.Clone()
	if Compare(doc, c) != 0 {
		t.Errorf("clone differs from original")
	}
	if c.Values[0].Anchor != "L" || c.Values[0].Tag != "A" {
		t.Errorf("clone dropped tag or anchor")
	}
	if c.Values[1].Type != AliasType || c.Values[1].Alias != "L" {
		t.Errorf("clone dropped alias target")
	}
	// deep copy
	c.Values[0].Tag = "B"
	if doc.Values[0].Tag != "A" {
		t.Errorf("clone shares nodes with original")
	}
}

func TestReType(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"null", NullType},
		{"true", BoolType},
		{"false", BoolType},
		{"42", NumberType},
		{"4.5", NumberType},
		{"hello", StringType},
	}
	for _, tt := range tests {
		n := FromString(tt.in)
		n.ReType()
		if n.Type != tt.want {
			t.Errorf("ReType(%q) = %s, want %s", tt.in, n.Type, tt.want)
		}
	}
}

func TestVisitOrder(t *testing.T) {
	doc := FromSlice([]*Node{FromInt(1), FromSlice([]*Node{FromInt(2)})})
	var pre, post int
	err := doc.Visit(func(y *Node, isPost bool) (bool, error) {
		if isPost {
			post++
		} else {
			pre++
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pre != 4 || post != 4 {
		t.Errorf("expected 4 pre and 4 post visits, got %d/%d", pre, post)
	}
}

func TestGet(t *testing.T) {
	obj := FromMap(map[string]*Node{"a": FromInt(1)})
	if v := Get(obj, "a"); v == nil || v.Int64 == nil || *v.Int64 != 1 {
		t.Errorf("Get existing field failed")
	}
	if v := Get(obj, "missing"); v != nil {
		t.Errorf("Get missing field should be nil")
	}
}
