package yamlnode

import (
	"math"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tog-format/go-tog/ir"
	"github.com/tog-format/go-tog/objmap"
)

func mustParse(t *testing.T, src string) *ir.Node {
	t.Helper()
	node, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return node
}

func TestParseScalars(t *testing.T) {
	tests := []struct {
		src  string
		want *ir.Node
	}{
		{`hello`, ir.FromString("hello")},
		{`"42"`, ir.FromString("42")},
		{`42`, ir.FromInt(42)},
		{`0x10`, ir.FromInt(16)},
		{`2.5`, ir.FromFloat(2.5)},
		{`true`, ir.FromBool(true)},
		{`null`, ir.Null()},
		{`~`, ir.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := mustParse(t, tt.src)
			if !ir.Equiv(got, tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.src, got, tt.want)
			}
		})
	}
}

func TestParseContainers(t *testing.T) {
	got := mustParse(t, `
name: svc
ports: [80, 443]
env:
  DEBUG: "1"
`)
	want := ir.FromMap(map[string]*ir.Node{
		"name":  ir.FromString("svc"),
		"ports": ir.FromSlice([]*ir.Node{ir.FromInt(80), ir.FromInt(443)}),
		"env":   ir.FromMap(map[string]*ir.Node{"DEBUG": ir.FromString("1")}),
	})
	if !ir.Equiv(got, want) {
		t.Errorf("unexpected tree: %v", got)
	}
}

func TestParseKeyOrderPreserved(t *testing.T) {
	got := mustParse(t, "b: 1\na: 2\n")
	if got.Fields[0].String != "b" || got.Fields[1].String != "a" {
		t.Errorf("document key order must be preserved, got %v then %v",
			got.Fields[0].String, got.Fields[1].String)
	}
}

func TestParseTagsAnchorsAliases(t *testing.T) {
	got := mustParse(t, `{one: &L !A {x: 1}, two: !B {x: 2, y: *L}}`)

	one := ir.Get(got, "one")
	if one == nil || one.Tag != "A" || one.Anchor != "L" {
		t.Fatalf("expected tagged anchored mapping, got %v", one)
	}
	two := ir.Get(got, "two")
	if two == nil || two.Tag != "B" {
		t.Fatalf("expected tagged mapping, got %v", two)
	}
	y := ir.Get(two, "y")
	if y == nil || y.Type != ir.AliasType || y.Alias != "L" {
		t.Errorf("expected alias *L, got %v", y)
	}
}

func TestParseAnchoredScalarAndSequence(t *testing.T) {
	got := mustParse(t, `
base: &port 8080
alt: *port
hosts: &hs [a, b]
mirror: *hs
`)
	base := ir.Get(got, "base")
	if base.Anchor != "port" || base.Int64 == nil || *base.Int64 != 8080 {
		t.Errorf("expected anchored int scalar, got %v", base)
	}
	hosts := ir.Get(got, "hosts")
	if hosts.Type != ir.ArrayType || hosts.Anchor != "hs" {
		t.Errorf("expected anchored sequence, got %v", hosts)
	}
	if mirror := ir.Get(got, "mirror"); mirror.Type != ir.AliasType || mirror.Alias != "hs" {
		t.Errorf("expected alias *hs, got %v", mirror)
	}
}

func TestParseCustomScalarTag(t *testing.T) {
	got := mustParse(t, `reading: !temp 36.6`)
	r := ir.Get(got, "reading")
	if r == nil || r.Tag != "temp" {
		t.Fatalf("expected tag temp, got %v", r)
	}
	if r.Type != ir.NumberType {
		t.Errorf("tagged scalar payload should re-type by lexical form, got %s", r.Type)
	}
}

func TestParseNonFiniteFloats(t *testing.T) {
	got := mustParse(t, "pos: .inf\nneg: -.inf\nnan: .nan\n")
	pos := ir.Get(got, "pos")
	if pos.Float64 == nil || !math.IsInf(*pos.Float64, 1) {
		t.Errorf("expected +Inf, got %v", pos)
	}
	neg := ir.Get(got, "neg")
	if neg.Float64 == nil || !math.IsInf(*neg.Float64, -1) {
		t.Errorf("expected -Inf, got %v", neg)
	}
	nan := ir.Get(got, "nan")
	if nan.Float64 == nil || !math.IsNaN(*nan.Float64) {
		t.Errorf("expected NaN, got %v", nan)
	}

	// the YAML spellings come back out
	ynode, err := ToYAML(got)
	if err != nil {
		t.Fatalf("ToYAML: %v", err)
	}
	text, err := yaml.Marshal(ynode)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	back := mustParse(t, string(text))
	if p := ir.Get(back, "pos"); p.Float64 == nil || !math.IsInf(*p.Float64, 1) {
		t.Errorf("+Inf did not survive the round trip: %v", p)
	}
	if n := ir.Get(back, "nan"); n.Float64 == nil || !math.IsNaN(*n.Float64) {
		t.Errorf("NaN did not survive the round trip: %v", n)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	got := mustParse(t, "")
	if got.Type != ir.NullType {
		t.Errorf("empty document should parse to null, got %v", got)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	srcs := []string{
		`{one: &L !A {x: 1}, two: !B {x: 2, y: *L}}`,
		"xs: [1, two, 3.5, true, null]\n",
		"self: &top\n  me: *top\n",
	}
	for _, src := range srcs {
		node := mustParse(t, src)
		ynode, err := ToYAML(node)
		if err != nil {
			t.Fatalf("ToYAML(%q): %v", src, err)
		}
		text, err := yaml.Marshal(ynode)
		if err != nil {
			t.Fatalf("marshal(%q): %v", src, err)
		}
		back := mustParse(t, string(text))
		if !ir.Equiv(node, back) {
			t.Errorf("round trip of %q changed the tree:\nbefore %v\nafter  %v", src, node, back)
		}
	}
}

func TestToYAMLDanglingAlias(t *testing.T) {
	node := ir.FromMap(map[string]*ir.Node{"a": ir.NewAlias("gone")})
	if _, err := ToYAML(node); err == nil {
		t.Errorf("expected error for alias without anchor")
	}
}

func TestParseThenDecode(t *testing.T) {
	type endpoint struct {
		Host string `tog:"host"`
		Port int    `tog:"port"`
	}
	type route struct {
		Name string    `tog:"name"`
		To   *endpoint `tog:"to"`
	}
	reg := objmap.NewRegistry()
	if err := reg.Register("endpoint", endpoint{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("route", route{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	codec := objmap.NewCodec(reg)

	node := mustParse(t, `
primary: &ep !endpoint {host: db, port: 5432}
routes:
  - !route {name: main, to: *ep}
  - !route {name: backup, to: *ep}
`)
	v, err := codec.Decode(node)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := v.(map[string]any)
	primary := m["primary"].(*endpoint)
	routes := m["routes"].([]any)
	if len(routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(routes))
	}
	for i, r := range routes {
		rt := r.(*route)
		if rt.To != primary {
			t.Errorf("route %d does not share the primary endpoint instance", i)
		}
	}
	if primary.Host != "db" || primary.Port != 5432 {
		t.Errorf("unexpected endpoint: %+v", primary)
	}
}
