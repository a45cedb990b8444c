package metadata

import "testing"

func intField(name string) *Field {
	return &Field{Name: name, Type: NewPrimRef(PrimInt)}
}

func TestLinkFieldLayoutInheritsOffsets(t *testing.T) {
	base := NewClass("Base", "Base")
	base.InstanceFields = []*Field{intField("x")}

	derived := NewClass("Derived", "Derived")
	derived.BaseClass = base
	derived.InstanceFields = []*Field{intField("y")}

	if err := Link([]*Class{base, derived}); err != nil {
		t.Fatalf("Link: %v", err)
	}

	if base.InstanceFields[0].Offset != 0 {
		t.Fatalf("base field offset = %d, want 0", base.InstanceFields[0].Offset)
	}
	if derived.InstanceFields[0].Offset != base.GC.ContentSize {
		t.Fatalf("derived field offset = %d, want %d", derived.InstanceFields[0].Offset, base.GC.ContentSize)
	}
	if derived.GC.ContentSize <= base.GC.ContentSize {
		t.Fatalf("derived content size %d should exceed base %d", derived.GC.ContentSize, base.GC.ContentSize)
	}
}

func TestLinkDetectsBaseCycle(t *testing.T) {
	a := NewClass("A", "A")
	b := NewClass("B", "B")
	a.BaseClass = b
	b.BaseClass = a

	if err := Link([]*Class{a, b}); err == nil {
		t.Fatal("expected cycle error, got nil")
	}
}

func TestFinalizeMethodsPreservesInheritedVtableIndices(t *testing.T) {
	base := NewClass("Base", "Base")
	greet := NewMethod("greet", base)
	greet.Sig = Signature{Return: NewPrimRef(PrimVoid)}
	base.InstanceMethods = []*Method{greet}

	derived := NewClass("Derived", "Derived")
	derived.BaseClass = base
	extra := NewMethod("extra", derived)
	extra.Sig = Signature{Return: NewPrimRef(PrimVoid)}
	derived.InstanceMethods = []*Method{extra}

	if err := Link([]*Class{base, derived}); err != nil {
		t.Fatalf("Link: %v", err)
	}

	if greet.VtableIndex != 0 {
		t.Fatalf("base method vtable index = %d, want 0", greet.VtableIndex)
	}
	if len(derived.InstanceMethods) != 2 {
		t.Fatalf("derived should have 2 instance methods (inherited+own), got %d", len(derived.InstanceMethods))
	}
	if extra.VtableIndex != 1 {
		t.Fatalf("extra method vtable index = %d, want 1 (after inherited base count)", extra.VtableIndex)
	}
}

func TestFinalizeMethodsOverrideKeepsBaseIndex(t *testing.T) {
	base := NewClass("Base", "Base")
	greet := NewMethod("greet", base)
	greet.Sig = Signature{Return: NewPrimRef(PrimVoid)}
	base.InstanceMethods = []*Method{greet}

	derived := NewClass("Derived", "Derived")
	derived.BaseClass = base
	override := NewMethod("greet", derived)
	override.Sig = Signature{Return: NewPrimRef(PrimVoid)}
	derived.InstanceMethods = []*Method{override}

	if err := Link([]*Class{base, derived}); err != nil {
		t.Fatalf("Link: %v", err)
	}

	if override.VtableIndex != greet.VtableIndex {
		t.Fatalf("override vtable index %d != base %d", override.VtableIndex, greet.VtableIndex)
	}
	if len(derived.InstanceMethods) != 1 {
		t.Fatalf("derived should only have the override, got %d methods", len(derived.InstanceMethods))
	}
}
