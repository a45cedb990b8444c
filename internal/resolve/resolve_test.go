package resolve

import (
	"testing"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

func newFooRegistry() (*metadata.Registry, *metadata.Class) {
	reg := metadata.NewRegistry()
	foo := metadata.NewClass("Foo", "Foo")
	foo.Flags = metadata.FlagSizeCalculated | metadata.FlagMethodsFinalized
	reg.Register(foo)
	return reg, foo
}

func TestResolveObjectReference(t *testing.T) {
	reg, foo := newFooRegistry()
	r := New(reg)

	ref := metadata.NewObjectRef("Foo")
	if err := r.Resolve(ref); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ref.Resolved != foo {
		t.Fatalf("resolved class = %v, want %v", ref.Resolved, foo)
	}
	if ref.Kind != metadata.RefNormal || ref.ArrayLevel != 0 {
		t.Fatalf("post-resolve invariant violated: kind=%v arraylevel=%d", ref.Kind, ref.ArrayLevel)
	}
}

func TestResolveMissingClassFails(t *testing.T) {
	reg := metadata.NewRegistry()
	r := New(reg)
	ref := metadata.NewObjectRef("DoesNotExist")
	if err := r.Resolve(ref); err == nil {
		t.Fatal("expected error resolving a missing class")
	}
}

func TestResolveArraySynthesizesOnce(t *testing.T) {
	reg, _ := newFooRegistry()
	r := New(reg)

	ref1 := &metadata.TypeRef{Prim: metadata.PrimObject, ClassName: "Foo", ArrayLevel: 1}
	ref2 := &metadata.TypeRef{Prim: metadata.PrimObject, ClassName: "Foo", ArrayLevel: 1}

	if err := r.Resolve(ref1); err != nil {
		t.Fatalf("Resolve ref1: %v", err)
	}
	if err := r.Resolve(ref2); err != nil {
		t.Fatalf("Resolve ref2: %v", err)
	}
	if ref1.Resolved != ref2.Resolved {
		t.Fatal("two [Foo] type references should resolve to the same synthesized array class")
	}
	if ref1.Resolved.Special != metadata.SpecialArray {
		t.Fatalf("resolved class special tag = %v, want SpecialArray", ref1.Resolved.Special)
	}
}

func TestResolveArrayOfArray(t *testing.T) {
	reg, _ := newFooRegistry()
	r := New(reg)

	ref := &metadata.TypeRef{Prim: metadata.PrimObject, ClassName: "Foo", ArrayLevel: 2}
	if err := r.Resolve(ref); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	outer := ref.Resolved
	if outer.Special != metadata.SpecialArray {
		t.Fatalf("outer special = %v, want SpecialArray", outer.Special)
	}
	inner := outer.WrappedClass
	if inner.Special != metadata.SpecialArray {
		t.Fatalf("inner special = %v, want SpecialArray", inner.Special)
	}
	if inner.WrappedClass == nil || inner.WrappedClass.NiceName != "Foo" {
		t.Fatalf("innermost element should be Foo, got %v", inner.WrappedClass)
	}
}

func TestSynthesizeFailableFieldOrder(t *testing.T) {
	reg, foo := newFooRegistry()
	r := New(reg)

	fc := r.SynthesizeFailable(foo)
	if len(fc.InstanceFields) != 2 {
		t.Fatalf("failable should have 2 fields, got %d", len(fc.InstanceFields))
	}
	if fc.InstanceFields[0].Name != "error" {
		t.Fatalf("first failable field should be 'error', got %q", fc.InstanceFields[0].Name)
	}
}

func TestSynthesizeForeignProxyRejectsValueType(t *testing.T) {
	reg := metadata.NewRegistry()
	r := New(reg)
	vt := metadata.NewClass("Point", "Point")
	vt.Flags = metadata.FlagValueType

	if _, err := r.SynthesizeForeignProxy(vt); err == nil {
		t.Fatal("expected error synthesizing a foreign proxy for a value type")
	}
}

func TestSynthesizeBoxedSkipsSelfTypedOperator(t *testing.T) {
	reg, _ := newFooRegistry()
	r := New(reg)
	vt := metadata.NewClass("Point", "Point")
	vt.Flags = metadata.FlagValueType
	addOp := metadata.NewMethod("op_Add", vt)
	addOp.Sig = metadata.Signature{
		Params: []metadata.Param{{Name: "other", Type: elemRef(vt)}},
		Return: elemRef(vt),
	}
	vt.InstanceMethods = []*metadata.Method{addOp}

	boxed := r.SynthesizeBoxed(vt)
	for _, m := range boxed.InstanceMethods {
		if m.Name == "op_Add" {
			t.Fatal("op_Add forwarder should have been excluded (first param is the wrapped value type)")
		}
	}
}
