package dispatch

import (
	"testing"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

func TestVTableSlotReadsCodePointer(t *testing.T) {
	cls := metadata.NewClass("Greeter", "Greeter")
	m := metadata.NewMethod("greet", cls)
	m.Sig = metadata.Signature{Return: metadata.NewPrimRef(metadata.PrimVoid)}
	m.VtableIndex = 0
	m.CodePtr = 0xdeadbeef
	cls.InstanceMethods = []*metadata.Method{m}

	reg := NewRegistry()
	vt := reg.Build(cls)

	if got := vt.Slot(0); got != 0xdeadbeef {
		t.Fatalf("Slot(0) = %#x, want 0xdeadbeef", got)
	}
}

func TestIfaceCacheFindMethodAndReuse(t *testing.T) {
	iface := metadata.NewClass("Greeter", "Greeter")
	ifaceM := metadata.NewMethod("greet", iface)
	ifaceM.Sig = metadata.Signature{Return: metadata.NewPrimRef(metadata.PrimVoid)}
	iface.InstanceMethods = []*metadata.Method{ifaceM}
	iface.Special = metadata.SpecialInterface

	impl := metadata.NewClass("Dog", "Dog")
	implM := metadata.NewMethod("greet", impl)
	implM.Sig = metadata.Signature{Return: metadata.NewPrimRef(metadata.PrimVoid)}
	implM.VtableIndex = 0
	implM.CodePtr = 0x1234
	impl.InstanceMethods = []*metadata.Method{implM}
	impl.Interfaces = []*metadata.Class{iface}

	reg := NewRegistry()
	reg.Build(impl)

	ic := NewIfaceCache(reg)
	codePtr, err := ic.FindMethod(impl, ifaceM)
	if err != nil {
		t.Fatalf("FindMethod: %v", err)
	}
	if codePtr != 0x1234 {
		t.Fatalf("codePtr = %#x, want 0x1234", codePtr)
	}

	// Second call must hit the cache and return the same value without
	// re-deriving it from the vtable.
	codePtr2, err := ic.FindMethod(impl, ifaceM)
	if err != nil {
		t.Fatalf("FindMethod (cached): %v", err)
	}
	if codePtr2 != codePtr {
		t.Fatalf("cached codePtr %#x != original %#x", codePtr2, codePtr)
	}
}

func TestIfaceCacheFindMethodMissing(t *testing.T) {
	iface := metadata.NewClass("Greeter", "Greeter")
	ifaceM := metadata.NewMethod("greet", iface)
	iface.InstanceMethods = []*metadata.Method{ifaceM}

	impl := metadata.NewClass("Rock", "Rock")

	reg := NewRegistry()
	reg.Build(impl)
	ic := NewIfaceCache(reg)

	if _, err := ic.FindMethod(impl, ifaceM); err == nil {
		t.Fatal("expected error: Rock does not implement greet")
	}
}

func TestClosureCodeOffsetCachedPerClass(t *testing.T) {
	closureClass := metadata.NewClass("Closure$1", "Closure$1")
	invoke := metadata.NewMethod("invoke", closureClass)
	invoke.CodePtr = 0x9999
	closureClass.InvokeMethod = invoke

	tm := NewThunkManager()
	cc1 := tm.ClosureCodeOffset(closureClass)
	cc2 := tm.ClosureCodeOffset(closureClass)

	if cc1(0, nil) != 0x9999 {
		t.Fatalf("trampoline did not reach the invoke method's code pointer")
	}
	if cc2(0, nil) != 0x9999 {
		t.Fatalf("second trampoline lookup did not reach the invoke method's code pointer")
	}
}

func TestBoxedCtorThunkWrapsValue(t *testing.T) {
	boxed := metadata.NewClass("$boxed$Point", "Point")
	tm := NewThunkManager()

	var allocatedWith uintptr
	alloc := func(v uintptr) uintptr {
		allocatedWith = v
		return 0x42
	}
	ctor := tm.BoxedCtorThunk(boxed, alloc)
	result := ctor(0, []uintptr{7})

	if result != 0x42 {
		t.Fatalf("ctor result = %#x, want 0x42", result)
	}
	if allocatedWith != 7 {
		t.Fatalf("alloc called with %d, want 7", allocatedWith)
	}
}
