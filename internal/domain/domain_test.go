package domain

import (
	"testing"

	"github.com/KonstantinGeist/skizo-sub000/internal/codegen"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// fakeCompiler never shells out to a real C compiler: Compile always
// succeeds, and Resolve returns a canned MethodFunc for every symbol so
// tests can exercise CodeGen/RunMain without a toolchain.
type fakeCompiler struct {
	fn     codegen.MethodFunc
	closed bool
}

func newFakeCompiler(fn codegen.MethodFunc) *fakeCompiler {
	if fn == nil {
		fn = func(self uintptr, args []uintptr) uintptr { return 42 }
	}
	return &fakeCompiler{fn: fn}
}

func (f *fakeCompiler) Compile(source string) (*codegen.CompiledUnit, error) {
	return &codegen.CompiledUnit{SharedObjectPath: "fake.so"}, nil
}

func (f *fakeCompiler) Resolve(unit *codegen.CompiledUnit, symbol string) (codegen.MethodFunc, error) {
	return f.fn, nil
}

func (f *fakeCompiler) Close(unit *codegen.CompiledUnit) error {
	f.closed = true
	return nil
}

func programClassWithMain() (*metadata.Class, *metadata.Method) {
	prog := metadata.NewClass("Program", "Program")
	prog.Flags.Set(metadata.FlagStatic)
	main := metadata.NewMethod("main", prog)
	main.Sig = metadata.Signature{IsStatic: true, Return: metadata.NewPrimRef(metadata.PrimVoid)}
	prog.StaticMethods = append(prog.StaticMethods, main)
	prog.AddMember(main)
	return prog, main
}

func newTestDomain(t *testing.T, compiler codegen.Compiler) *Domain {
	t.Helper()
	d, err := New(Options{SourceReference: "<string>", Trusted: true, Compiler: compiler})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(d.Teardown)
	return d
}

func TestNewIsTrustedByDefault(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	if !d.Security.IsTrusted() {
		t.Fatal("expected a fresh domain to be trusted")
	}
}

func TestLinkRegistersClasses(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	prog, _ := programClassWithMain()
	if err := d.Link([]*metadata.Class{prog}); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if _, ok := d.Registry.Lookup("Program"); !ok {
		t.Fatal("expected Program to be registered after Link")
	}
	if err := d.Link([]*metadata.Class{prog}); err == nil {
		t.Fatal("expected a second Link call to fail")
	}
}

func TestCodeGenBindsMethodCodePointers(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	prog, main := programClassWithMain()
	if err := d.Link([]*metadata.Class{prog}); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := d.CodeGen(); err != nil {
		t.Fatalf("CodeGen: %v", err)
	}
	if main.CodePtr == 0 {
		t.Fatal("expected main's CodePtr to be bound")
	}
	result, err := d.CallCode(main.CodePtr, 0, nil)
	if err != nil {
		t.Fatalf("CallCode: %v", err)
	}
	if result != 42 {
		t.Fatalf("got %d, want 42", result)
	}
}

func TestRunMainInvokesProgramMain(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	prog, _ := programClassWithMain()
	if err := d.Link([]*metadata.Class{prog}); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if err := d.CodeGen(); err != nil {
		t.Fatalf("CodeGen: %v", err)
	}
	result, err := d.RunMain()
	if err != nil {
		t.Fatalf("RunMain: %v", err)
	}
	if result != 42 {
		t.Fatalf("got %d, want 42", result)
	}
}

func TestRunMainFailsWithoutProgramClass(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	if err := d.Link(nil); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if _, err := d.RunMain(); err == nil {
		t.Fatal("expected RunMain to fail without a registered Program class")
	}
}

func TestRunMainReportsAbortWhenMainIsUnbound(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	prog, _ := programClassWithMain()
	if err := d.Link([]*metadata.Class{prog}); err != nil {
		t.Fatalf("Link: %v", err)
	}
	// CodeGen deliberately not called: main has no bound entry point yet.
	if _, err := d.RunMain(); err == nil {
		t.Fatal("expected RunMain to report an abort for an unbound main")
	}
}

func TestECallRegistryRoundTrips(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	if _, ok := d.ECall("Console_writeLine"); ok {
		t.Fatal("expected no ECall registered yet")
	}
	d.RegisterECall("Console_writeLine", 0xdead)
	fn, ok := d.ECall("Console_writeLine")
	if !ok || fn != 0xdead {
		t.Fatalf("got (%v, %v), want (0xdead, true)", fn, ok)
	}
}

func TestExportedObjectTable(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	d.Export("shared", 0x1234)
	obj, ok := d.Exported("shared")
	if !ok || obj != 0x1234 {
		t.Fatalf("got (%v, %v), want (0x1234, true)", obj, ok)
	}
	d.Unexport("shared")
	if _, ok := d.Exported("shared"); ok {
		t.Fatal("expected shared to be gone after Unexport")
	}
}

func TestHandlePublishedOnConstruction(t *testing.T) {
	d := newTestDomain(t, newFakeCompiler(nil))
	resolved, ok := d.Handle().Domain(0)
	if !ok {
		t.Fatal("expected the domain's own handle to resolve immediately")
	}
	if rd, ok := resolved.(*Domain); !ok || rd != d {
		t.Fatal("expected the handle to resolve back to the same domain")
	}
}

func TestCreateDomainChildOfUntrustedParentInheritsPermissions(t *testing.T) {
	parent, err := New(Options{
		SourceReference: "<string>",
		Trusted:         false,
		Permissions:     []string{"FileIOPermission"},
		Compiler:        newFakeCompiler(nil),
	})
	if err != nil {
		t.Fatalf("New(parent): %v", err)
	}
	t.Cleanup(parent.Teardown)

	noop := func(string) ([]*metadata.Class, error) { return nil, nil }
	child, err := CreateDomain(Options{
		SourceReference: "<string>",
		Trusted:         true,
	}, newFakeCompiler(nil), noop, "", parent)
	if err != nil {
		t.Fatalf("CreateDomain: %v", err)
	}
	t.Cleanup(child.Teardown)

	if child.Security.IsTrusted() {
		t.Fatal("expected a child of an untrusted parent to stay untrusted")
	}
	if !child.Security.IsPermissionGranted("FileIOPermission") {
		t.Fatal("expected the child to inherit the parent's permissions")
	}
}

func TestRunStringRunsProgramMainEndToEnd(t *testing.T) {
	prog, _ := programClassWithMain()
	parse := func(string) ([]*metadata.Class, error) {
		return []*metadata.Class{prog}, nil
	}
	d, err := RunString("irrelevant source text", newFakeCompiler(nil), parse, nil)
	if err != nil {
		t.Fatalf("RunString: %v", err)
	}
	if d == nil {
		t.Fatal("expected a non-nil domain back from RunString")
	}
}
