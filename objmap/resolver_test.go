package objmap

import (
	"errors"
	"testing"
)

func TestRefTableProtocol(t *testing.T) {
	refs := newRefTable()

	e := refs.begin("x")
	if _, err := refs.lookup("x", "$"); !errors.Is(err, ErrIncompleteGraph) {
		t.Errorf("lookup before provide must fail with ErrIncompleteGraph, got %v", err)
	}

	m := map[string]any{}
	e.provide(m)
	v, err := refs.lookup("x", "$")
	if err != nil {
		t.Fatalf("lookup after provide: %v", err)
	}
	if _, ok := v.(map[string]any); !ok {
		t.Errorf("expected the provisional value, got %T", v)
	}

	refs.complete(e, m)
	if err := refs.checkComplete(); err != nil {
		t.Errorf("completed table must pass checkComplete: %v", err)
	}
}

func TestRefTableUndefined(t *testing.T) {
	refs := newRefTable()
	_, err := refs.lookup("nope", "$.a")
	if !errors.Is(err, ErrUndefinedAnchor) {
		t.Errorf("expected ErrUndefinedAnchor, got %v", err)
	}
	var derr *DecodeError
	if !errors.As(err, &derr) || derr.FieldPath != "$.a" {
		t.Errorf("expected DecodeError at $.a, got %v", err)
	}
}

func TestRefTableDangling(t *testing.T) {
	refs := newRefTable()
	refs.begin("a")
	refs.begin("b")
	err := refs.checkComplete()
	if !errors.Is(err, ErrIncompleteGraph) {
		t.Errorf("expected ErrIncompleteGraph for dangling anchors, got %v", err)
	}
}

func TestRefTableRedefinition(t *testing.T) {
	refs := newRefTable()
	first := refs.begin("x")
	refs.complete(first, 1)
	second := refs.begin("x")
	refs.complete(second, 2)

	v, err := refs.lookup("x", "$")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if v != 2 {
		t.Errorf("redefinition must shadow the earlier value, got %v", v)
	}
}
