package objmap

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tog-format/go-tog/ir"
)

func TestRegisterDuplicateTag(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("A", tA{}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	err := reg.Register("A", tB{})
	if !errors.Is(err, ErrDuplicateTag) {
		t.Errorf("expected ErrDuplicateTag, got %v", err)
	}
	// the original binding survives
	d, ok := reg.Resolve("A")
	if !ok || d.Type.Name() != "tA" {
		t.Errorf("original binding lost: %v", d)
	}
}

func TestLenientRegistrationReplaces(t *testing.T) {
	reg := NewRegistry(LenientRegistration())
	if err := reg.Register("A", tA{}); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if err := reg.Register("A", tB{}); err != nil {
		t.Fatalf("re-registration: %v", err)
	}
	d, ok := reg.Resolve("A")
	if !ok || d.Type.Name() != "tB" {
		t.Errorf("expected replacement with tB, got %v", d)
	}
}

type Person struct {
	Name string `tog:"name"`
}

func TestRegisterNamed(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterNamed(&Person{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reg.Resolve("Person"); !ok {
		t.Errorf("expected tag Person derived from the type name")
	}

	if err := reg.RegisterNamed(map[string]int{}); err == nil {
		t.Errorf("expected error for unnamed type")
	}
}

func TestRegistryTags(t *testing.T) {
	reg := newTestRegistry(t)
	tags := reg.Tags()
	sort.Strings(tags)
	if diff := cmp.Diff([]string{"A", "B"}, tags); diff != "" {
		t.Errorf("Tags() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefaultRegistry(t *testing.T) {
	prev := DefaultRegistry()
	defer SetDefaultRegistry(prev)

	reg := NewRegistry()
	if err := reg.Register("A", tA{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	SetDefaultRegistry(reg)

	doc := ir.FromMap(map[string]*ir.Node{"x": ir.FromInt(5)}).WithTag("A")
	got, err := Decode(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a, ok := got.(*tA); !ok || a.X != 5 {
		t.Errorf("package-level Decode did not use the default registry: got %v (%T)", got, got)
	}
}
