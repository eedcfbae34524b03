package ir

import (
	"testing"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     *Node
		expected int
	}{
		// Type Ranking: Null < Bool < Number < String < Array < Object < Alias
		{"Null < Bool", Null(), FromBool(false), -1},
		{"Bool < Number", FromBool(true), FromInt(1), -1},
		{"Number < String", FromInt(1), FromString("a"), -1},
		{"String < Array", FromString("a"), FromSlice(nil), -1},
		{"Array < Object", FromSlice(nil), FromKeyVals(nil), -1},
		{"Object < Alias", FromKeyVals(nil), NewAlias("x"), -1},

		// Bool Comparison
		{"false < true", FromBool(false), FromBool(true), -1},
		{"true > false", FromBool(true), FromBool(false), 1},
		{"true == true", FromBool(true), FromBool(true), 0},

		// Number Comparison: Int < Float < String
		{"Int < Float", FromInt(1), FromFloat(1.0), -1},
		{"Float < StringNum", FromFloat(1.0), &Node{Type: NumberType, Number: "1"}, -1},
		{"Int < Int", FromInt(1), FromInt(2), -1},
		{"Float < Float", FromFloat(1.0), FromFloat(2.0), -1},

		// Tags and anchors participate in ordering
		{"untagged < tagged", FromInt(1), FromInt(1).WithTag("a"), -1},
		{"tag order", FromInt(1).WithTag("a"), FromInt(1).WithTag("b"), -1},
		{"anchor order", FromInt(1).WithAnchor("a"), FromInt(1).WithAnchor("b"), -1},
		{"alias target order", NewAlias("a"), NewAlias("b"), -1},

		// Array Comparison
		{"Empty Array == Empty Array", FromSlice(nil), FromSlice(nil), 0},
		{"Short Array < Long Array", FromSlice([]*Node{FromInt(1)}), FromSlice([]*Node{FromInt(1), FromInt(2)}), -1},
		{"Array Element Comparison", FromSlice([]*Node{FromInt(1)}), FromSlice([]*Node{FromInt(2)}), -1},

		// Object Comparison
		{"Empty Object == Empty Object", FromKeyVals(nil), FromKeyVals(nil), 0},
		{"Object Key Comparison",
			FromKeyVals([]KeyVal{{Key: FromString("a"), Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: FromString("b"), Val: FromInt(1)}}),
			-1},
		{"Object Value Comparison",
			FromKeyVals([]KeyVal{{Key: FromString("a"), Val: FromInt(1)}}),
			FromKeyVals([]KeyVal{{Key: FromString("a"), Val: FromInt(2)}}),
			-1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.a, tt.b)
			if got != tt.expected {
				t.Errorf("Compare() = %d, want %d", got, tt.expected)
			}
			if tt.expected != 0 {
				if back := Compare(tt.b, tt.a); back != -tt.expected {
					t.Errorf("Compare() reversed = %d, want %d", back, -tt.expected)
				}
			}
		})
	}
}

func anchoredDoc(anchor string) *Node {
	shared := FromKeyVals([]KeyVal{
		{Key: FromString("x"), Val: FromInt(1)},
	}).WithAnchor(anchor)
	return FromKeyVals([]KeyVal{
		{Key: FromString("one"), Val: shared},
		{Key: FromString("two"), Val: NewAlias(anchor)},
	})
}

func TestEquivAnchorRenaming(t *testing.T) {
	a := anchoredDoc("L")
	b := anchoredDoc("a1")
	if !Equiv(a, b) {
		t.Errorf("documents differing only in anchor spelling should be equivalent")
	}
	if Compare(a, b) == 0 {
		t.Errorf("Compare should be anchor-sensitive")
	}
}

func TestEquivAliasStructure(t *testing.T) {
	// same shape, but "two" aliases a different anchor
	a := FromKeyVals([]KeyVal{
		{Key: FromString("one"), Val: FromInt(1).WithAnchor("p")},
		{Key: FromString("oneBis"), Val: FromInt(1).WithAnchor("q")},
		{Key: FromString("two"), Val: NewAlias("p")},
	})
	b := FromKeyVals([]KeyVal{
		{Key: FromString("one"), Val: FromInt(1).WithAnchor("p")},
		{Key: FromString("oneBis"), Val: FromInt(1).WithAnchor("q")},
		{Key: FromString("two"), Val: NewAlias("q")},
	})
	if Equiv(a, b) {
		t.Errorf("aliases to distinct anchors must not be equivalent")
	}
}

func TestEquivFieldOrder(t *testing.T) {
	a := FromKeyVals([]KeyVal{
		{Key: FromString("x"), Val: FromInt(1)},
		{Key: FromString("y"), Val: FromInt(2)},
	})
	b := FromKeyVals([]KeyVal{
		{Key: FromString("y"), Val: FromInt(2)},
		{Key: FromString("x"), Val: FromInt(1)},
	})
	if !Equiv(a, b) {
		t.Errorf("field order should not affect equivalence")
	}
}

func TestEquivNumbers(t *testing.T) {
	if !Equiv(FromInt(1), FromFloat(1.0)) {
		t.Errorf("numeric normalization should not affect equivalence")
	}
	if Equiv(FromInt(1), FromFloat(1.5)) {
		t.Errorf("distinct numeric values must not be equivalent")
	}
}

func TestEquivTags(t *testing.T) {
	if Equiv(FromInt(1).WithTag("a"), FromInt(1).WithTag("b")) {
		t.Errorf("distinct tags must not be equivalent")
	}
	if !Equiv(FromInt(1).WithTag("a"), FromInt(1).WithTag("a")) {
		t.Errorf("equal tags should be equivalent")
	}
}
