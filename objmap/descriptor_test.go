package objmap

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type dBase struct {
	ID int `tog:"id"`
}

type dRecord struct {
	dBase
	Name   string         `tog:"name"`
	Note   string         `tog:"note,optional"`
	Labels []string       `tog:"labels"`
	Meta   map[string]any `tog:"meta"`
	hidden int
	Skip   bool `tog:"-"`
}

func TestDescribeStruct(t *testing.T) {
	d, err := DescribeType("record", dRecord{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"id", "name", "note", "labels", "meta"}
	if diff := cmp.Diff(want, d.FieldNames()); diff != "" {
		t.Errorf("FieldNames() mismatch (-want +got):\n%s", diff)
	}

	f, ok := d.Field("note")
	if !ok {
		t.Fatal("field note not found")
	}
	if !f.Optional {
		t.Errorf("note should be optional via struct tag")
	}
	f, ok = d.Field("labels")
	if !ok || !f.Optional {
		t.Errorf("slice fields should be implicitly optional")
	}
	f, ok = d.Field("id")
	if !ok || f.Optional {
		t.Errorf("embedded scalar field id should be required")
	}
	if len(f.Index) != 2 {
		t.Errorf("embedded field should have a two-element index path, got %v", f.Index)
	}
	if _, ok := d.Field("hidden"); ok {
		t.Errorf("unexported fields must not be described")
	}
	if _, ok := d.Field("Skip"); ok {
		t.Errorf("tog:\"-\" fields must not be described")
	}
}

func TestDescribePointerAndReflectType(t *testing.T) {
	fromPtr, err := DescribeType("record", &dRecord{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromType, err := DescribeType("record", reflect.TypeOf(dRecord{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromPtr.Type != fromType.Type {
		t.Errorf("pointer and reflect.Type samples must describe the same type")
	}
}

func TestDescribeScalarAndSliceKinds(t *testing.T) {
	for _, sample := range []any{tTemp(0), tIDList(nil), "", 0, false} {
		if _, err := DescribeType("t", sample); err != nil {
			t.Errorf("DescribeType(%T) failed: %v", sample, err)
		}
	}
}

func TestDescribeTextUnmarshaler(t *testing.T) {
	if _, err := DescribeType("when", time.Time{}); err != nil {
		t.Errorf("TextUnmarshaler types must be describable: %v", err)
	}
}

func TestDescribeUnsupportedKind(t *testing.T) {
	if _, err := DescribeType("ch", make(chan int)); err == nil {
		t.Errorf("expected error for channel kind")
	}
	if _, err := DescribeType("nil", nil); err == nil {
		t.Errorf("expected error for nil sample")
	}
}

type dConflict struct {
	A string `tog:"x"`
	B string `tog:"x"`
}

func TestDescribeFieldNameConflict(t *testing.T) {
	if _, err := DescribeType("c", dConflict{}); err == nil {
		t.Errorf("expected error for duplicate document field name")
	}
}
