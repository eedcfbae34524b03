package ir

import (
	"cmp"
	"strings"
)

// Compare returns an integer comparing two nodes.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
// Compare is anchor-sensitive: nodes differing only in anchor or alias
// identifiers compare unequal. See Equiv for the anchor-insensitive form.
func Compare(a, b *Node) int {
	if a == b {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	rankA := rank(a.Type)
	rankB := rank(b.Type)
	if rankA != rankB {
		return cmp.Compare(rankA, rankB)
	}
	if c := strings.Compare(a.Tag, b.Tag); c != 0 {
		return c
	}
	if c := strings.Compare(a.Anchor, b.Anchor); c != 0 {
		return c
	}

	switch a.Type {
	case NumberType:
		return compareNumbers(a, b)
	case StringType:
		return strings.Compare(a.String, b.String)
	case BoolType:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case ArrayType:
		return compareArrays(a, b)
	case ObjectType:
		return compareObjects(a, b)
	case AliasType:
		return strings.Compare(a.Alias, b.Alias)
	case NullType:
		return 0
	}
	return 0
}

// rank returns the sorting rank of a type.
// Order: Null < Bool < Number < String < Array < Object < Alias
func rank(t Type) int {
	switch t {
	case NullType:
		return 0
	case BoolType:
		return 1
	case NumberType:
		return 2
	case StringType:
		return 3
	case ArrayType:
		return 4
	case ObjectType:
		return 5
	case AliasType:
		return 6
	}
	return 100
}

func compareNumbers(a, b *Node) int {
	// Sub-rank: Int64 < Float64 < String
	subRankA := numberSubRank(a)
	subRankB := numberSubRank(b)
	if subRankA != subRankB {
		return cmp.Compare(subRankA, subRankB)
	}

	if a.Int64 != nil {
		return cmp.Compare(*a.Int64, *b.Int64)
	}
	if a.Float64 != nil {
		return cmp.Compare(*a.Float64, *b.Float64)
	}
	return strings.Compare(a.Number, b.Number)
}

func numberSubRank(n *Node) int {
	if n.Int64 != nil {
		return 0
	}
	if n.Float64 != nil {
		return 1
	}
	return 2
}

func compareArrays(a, b *Node) int {
	lenA := len(a.Values)
	lenB := len(b.Values)
	minLen := min(lenA, lenB)

	for i := 0; i < minLen; i++ {
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(lenA, lenB)
}

func compareObjects(a, b *Node) int {
	lenA := len(a.Fields)
	lenB := len(b.Fields)
	minLen := min(lenA, lenB)

	for i := 0; i < minLen; i++ {
		if c := Compare(a.Fields[i], b.Fields[i]); c != 0 {
			return c
		}
		if c := Compare(a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(lenA, lenB)
}

// Equiv reports whether a and b are structurally equivalent up to anchor-id
// renaming, object field ordering, and numeric representation. This is the
// equality of the round-trip law: anchor identifiers are
// implementation-chosen, so two encodings of the same graph may differ only
// in anchor spelling and field order.
func Equiv(a, b *Node) bool {
	e := &equiv{ab: map[string]string{}, ba: map[string]string{}}
	return e.nodes(a, b)
}

type equiv struct {
	ab, ba map[string]string
}

func (e *equiv) anchors(a, b string) bool {
	if (a == "") != (b == "") {
		return false
	}
	if a == "" {
		return true
	}
	if prev, ok := e.ab[a]; ok {
		return prev == b
	}
	if _, ok := e.ba[b]; ok {
		return false
	}
	e.ab[a] = b
	e.ba[b] = a
	return true
}

func (e *equiv) nodes(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Tag != b.Tag {
		return false
	}
	if !e.anchors(a.Anchor, b.Anchor) {
		return false
	}
	switch a.Type {
	case NullType:
		return true
	case BoolType:
		return a.Bool == b.Bool
	case StringType:
		return a.String == b.String
	case NumberType:
		return numbersEquiv(a, b)
	case AliasType:
		// alias targets are defined before use, so the bijection
		// already holds an entry for them
		return e.ab[a.Alias] == b.Alias
	case ArrayType:
		if len(a.Values) != len(b.Values) {
			return false
		}
		for i := range a.Values {
			if !e.nodes(a.Values[i], b.Values[i]) {
				return false
			}
		}
		return true
	case ObjectType:
		return e.objects(a, b)
	}
	return false
}

// objects matches fields by key rather than position.
func (e *equiv) objects(a, b *Node) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	used := make([]bool, len(b.Fields))
	for i, aKey := range a.Fields {
		found := -1
		for j, bKey := range b.Fields {
			if used[j] {
				continue
			}
			if Compare(aKey, bKey) == 0 {
				found = j
				break
			}
		}
		if found == -1 {
			return false
		}
		used[found] = true
		if !e.nodes(a.Values[i], b.Values[found]) {
			return false
		}
	}
	return true
}

func numbersEquiv(a, b *Node) bool {
	af, aok := numberValue(a)
	bf, bok := numberValue(b)
	if aok && bok {
		return af == bf
	}
	if aok != bok {
		return false
	}
	return a.Number == b.Number
}

func numberValue(n *Node) (float64, bool) {
	if n.Int64 != nil {
		return float64(*n.Int64), true
	}
	if n.Float64 != nil {
		return *n.Float64, true
	}
	return 0, false
}
