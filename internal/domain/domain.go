// Package domain ties the metadata registry, type resolver, GC heap, code
// generator, dispatch tables, runtime helpers, security manager and
// remoting layer into one execution domain, and exposes the embedder
// entry points that create and run one.
package domain

import (
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/KonstantinGeist/skizo-sub000/internal/codegen"
	"github.com/KonstantinGeist/skizo-sub000/internal/dispatch"
	"github.com/KonstantinGeist/skizo-sub000/internal/gcheap"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
	"github.com/KonstantinGeist/skizo-sub000/internal/platform"
	"github.com/KonstantinGeist/skizo-sub000/internal/reflectx"
	"github.com/KonstantinGeist/skizo-sub000/internal/remoting"
	"github.com/KonstantinGeist/skizo-sub000/internal/resolve"
	"github.com/KonstantinGeist/skizo-sub000/internal/rthelpers"
	"github.com/KonstantinGeist/skizo-sub000/internal/security"
)

// Domain is one isolated execution context: its own class registry, heap,
// dispatch tables and security state, reachable from other domains only
// through its remoting handle and message queue.
type Domain struct {
	opts   Options
	logger *log.Logger

	Registry *metadata.Registry
	Resolver *resolve.Resolver
	Heap     *gcheap.Heap

	bridge   *codegen.Bridge
	compiler codegen.Compiler
	unit     *codegen.CompiledUnit

	Vtables *dispatch.Registry
	Ifaces  *dispatch.IfaceCache
	Thunks  *dispatch.ThunkManager
	Helpers *rthelpers.Helpers
	Unwind  *rthelpers.Unwinder

	Security *security.Manager
	SecureIO *security.SecureIO

	handle *remoting.Handle
	queue  *remoting.Queue

	Invoker *reflectx.Invoker
	hooks   *runtimeHooks

	funcsMu sync.Mutex
	funcs   map[uintptr]codegen.MethodFunc
	nextPtr uintptr

	ecallsMu sync.RWMutex
	ecalls   map[string]uintptr

	exportedMu sync.RWMutex
	exported   map[string]uintptr

	linked   bool
	closedCh chan struct{}
}

// execRegionSize is the size of the shared executable-memory region a
// domain's ThunkManager attaches for future machine-code trampolines; see
// codegen.NewExecutableRegion and dispatch.ThunkManager.AttachExecutableRegion.
const execRegionSize = 4096

// New constructs a Domain from opts but does not parse, link or codegen
// anything yet; call Link then CodeGen before RunMain.
func New(opts Options) (*Domain, error) {
	if err := validateSourceReference(opts.SourceReference); err != nil {
		return nil, fmt.Errorf("domain: invalid source reference %q: %w", opts.SourceReference, err)
	}

	platform.Init()
	platform.SetThreadPriority(opts.ThreadPriority)

	secMgr := security.New()
	if !opts.Trusted {
		secMgr.SetTrusted(false)
	}
	for _, p := range opts.Permissions {
		secMgr.AddPermission(p)
	}

	secureIO := security.NewSecureIO(secMgr)
	if !opts.Trusted {
		secureRoot := opts.SecureRoot
		if secureRoot == "" {
			secureRoot = os.TempDir()
		}
		if err := secureIO.InitSecureIO(secureRoot); err != nil {
			platform.Deinit()
			return nil, fmt.Errorf("domain: initializing secure IO: %w", err)
		}
	}

	reg := metadata.NewRegistry()
	d := &Domain{
		opts:     opts,
		logger:   log.New(os.Stderr, "domain: ", log.LstdFlags),
		Registry: reg,
		Resolver: resolve.New(reg),
		Heap:     gcheap.New(),
		bridge:   codegen.NewBridge(nil),
		Vtables:  dispatch.NewRegistry(),
		Thunks:   dispatch.NewThunkManager(),
		Unwind:   &rthelpers.Unwinder{},
		Security: secMgr,
		SecureIO: secureIO,
		handle:   remoting.NewHandle(),
		queue:    remoting.NewQueue(),
		funcs:    make(map[uintptr]codegen.MethodFunc),
		ecalls:   make(map[string]uintptr),
		exported: make(map[string]uintptr),
		closedCh: make(chan struct{}),
	}
	d.Ifaces = dispatch.NewIfaceCache(d.Vtables)
	d.Invoker = reflectx.NewInvoker(d)
	d.hooks = newRuntimeHooks(d)
	d.Helpers = rthelpers.New(d.Heap, func(name string) *metadata.Class {
		c, _ := reg.Lookup(name)
		return c
	})
	d.handle.Publish(d)

	if region, err := codegen.NewExecutableRegion(execRegionSize); err == nil {
		d.Thunks.AttachExecutableRegion(region)
	} else {
		d.logger.Printf("executable thunk region unavailable, falling back to Go-closure thunks: %v", err)
	}

	if opts.Compiler != nil {
		d.SetCompiler(opts.Compiler)
	} else {
		workDir, err := os.MkdirTemp("", "skizo-domain-*")
		if err != nil {
			platform.Deinit()
			return nil, fmt.Errorf("domain: creating codegen work directory: %w", err)
		}
		d.SetCompiler(codegen.NewExternalCCompiler(workDir))
	}

	d.logger.Printf("created (trusted=%v, source=%q)", opts.Trusted, opts.SourceReference)
	return d, nil
}

// SetCompiler wires the C compiler that CodeGen hands the generated
// translation unit to. Tests supply a fake; production callers pass a
// codegen.NewExternalCCompiler.
func (d *Domain) SetCompiler(c codegen.Compiler) {
	d.compiler = c
	d.bridge = codegen.NewBridge(c)
}

// Queue satisfies internal/remoting's Domain interface so d can be
// published on its own handle.
func (d *Domain) Queue() *remoting.Queue { return d.queue }

// Handle returns the domain handle other domains use to reach this one:
// the value every embedder entry point's "return is a domain handle usable
// for export/import and synchronous calls".
func (d *Domain) Handle() *remoting.Handle { return d.handle }

// Link closes the metadata graph: runs the linker over classes and
// registers each one. Link may only run once per domain.
func (d *Domain) Link(classes []*metadata.Class) error {
	if d.linked {
		return fmt.Errorf("domain: already linked")
	}
	// Type resolution (d.Resolver.Resolve on every unresolved TypeRef) is
	// the caller's job: it runs per-reference as the external front end
	// discovers them, not once over a finished class the way linking does.
	if err := metadata.Link(classes); err != nil {
		return fmt.Errorf("domain: linking: %w", err)
	}
	for _, c := range classes {
		d.Registry.Register(c)
	}
	// Static fields become heap roots once they hold live *gcheap.Cell
	// values; that only happens once emitted code runs a static
	// constructor, so there is nothing to root here yet.
	d.linked = true
	return nil
}

// allMethods gathers every method body a class owns, in a stable order,
// for handing to the code generator.
func allMethods(c *metadata.Class) []*metadata.Method {
	var ms []*metadata.Method
	ms = append(ms, c.InstanceCtors...)
	ms = append(ms, c.InstanceMethods...)
	ms = append(ms, c.StaticMethods...)
	if c.InstanceDtor != nil {
		ms = append(ms, c.InstanceDtor)
	}
	if c.StaticCtor != nil {
		ms = append(ms, c.StaticCtor)
	}
	if c.StaticDtor != nil {
		ms = append(ms, c.StaticDtor)
	}
	return ms
}

// CodeGen composes the translation unit for every linked class, compiles
// it, resolves every method's symbol to a callable entry point, and
// builds each class's vtable. Link must have run first, and SetCompiler
// must have been called.
func (d *Domain) CodeGen() error {
	if !d.linked {
		return fmt.Errorf("domain: CodeGen called before Link")
	}
	if d.compiler == nil {
		return fmt.Errorf("domain: no compiler configured, call SetCompiler first")
	}

	classes := d.Registry.Classes()
	sources := make([]codegen.ClassSource, 0, len(classes))
	for _, c := range classes {
		sources = append(sources, codegen.ClassSource{
			Class:     c,
			Methods:   allMethods(c),
			HasVtable: len(c.InstanceMethods) > 0,
		})
	}

	source := d.bridge.Emit(sources, d.opts.ProfilingEnabled)
	unit, err := d.compiler.Compile(source)
	if err != nil {
		return fmt.Errorf("domain: compiling generated translation unit: %w", err)
	}
	d.unit = unit

	for _, cs := range sources {
		for _, m := range cs.Methods {
			symbol := codegen.MethodSymbol(cs, m)
			fn, err := d.compiler.Resolve(unit, symbol)
			if err != nil {
				return fmt.Errorf("domain: resolving %s: %w", symbol, err)
			}
			m.CodePtr = d.bindCode(fn)
			d.Invoker.Bind(m, fn)
		}
	}
	for _, c := range classes {
		if len(c.InstanceMethods) > 0 {
			d.Vtables.Build(c)
		}
	}

	d.logger.Printf("codegen: compiled %d classes", len(classes))
	return nil
}

// bindCode assigns a synthetic, process-unique handle to fn and records
// it, since codegen.MethodFunc is a Go closure (it wraps a dlsym'd C
// function pointer) rather than a raw address Go can store in a uintptr
// and later call through directly. Method.CodePtr and vtable slots hold
// this handle; CallCode below is the only way back to the real closure.
func (d *Domain) bindCode(fn codegen.MethodFunc) uintptr {
	d.funcsMu.Lock()
	defer d.funcsMu.Unlock()
	d.nextPtr++
	h := d.nextPtr
	d.funcs[h] = fn
	return h
}

// CallCode invokes the compiled method bound to codePtr (a Method.CodePtr
// or vtable slot value produced by CodeGen). The call runs with this
// domain's runtime hooks installed (codegen.EnterRuntime) so any _soX_*
// callback the compiled body makes resolves against d; an abort recorded
// through _soX_abort/_soX_abort_msg during the call is surfaced as the
// returned error rather than left pending.
func (d *Domain) CallCode(codePtr uintptr, self uintptr, args []uintptr) (uintptr, error) {
	d.funcsMu.Lock()
	fn, ok := d.funcs[codePtr]
	d.funcsMu.Unlock()
	if !ok {
		return 0, fmt.Errorf("domain: no compiled code bound to handle %d", codePtr)
	}

	var result uintptr
	codegen.EnterRuntime(d.hooks, func() {
		result = fn(self, args)
	})
	if abort := d.Unwind.TakePendingAbort(); abort != nil {
		return 0, abort
	}
	return result, nil
}

// Box wraps a value-type instance into its boxed reference class,
// synthesizing the boxed class on first use and allocating the wrapper on
// this domain's heap. Implements reflectx.Boxer so Invoker can box
// value-type receivers/arguments before a reflected call.
func (d *Domain) Box(valueType *metadata.Class, value uintptr) uintptr {
	const boxedWordSize = 8 // boxed wrapper holds exactly one word: the "value" field.

	boxedClass := d.Resolver.SynthesizeBoxed(valueType)
	if boxedClass.GC.ContentSize == 0 {
		boxedClass.GC.ContentSize = boxedWordSize
		boxedClass.GC.SizeForUse = boxedWordSize
	}

	thunk := d.Thunks.BoxedCtorThunk(boxedClass, func(v uintptr) uintptr {
		cell := d.Heap.Allocate(classInfo{d: d, c: boxedClass}, boxedWordSize)
		binary.LittleEndian.PutUint64(cell.Bytes, uint64(v))
		if !valueType.Flags.HasValueType() {
			// valueType is itself a reference type being boxed (e.g. a
			// closure captured generically): the "value" field is a real
			// Cell reference the collector must trace, not inline bytes.
			cell.SetRef(0, gcheap.CellFromHandle(v))
		}
		return gcheap.CellHandle(cell)
	})
	return thunk(0, []uintptr{value})
}

// Invoke dispatches a call to method on self with args. If method is
// declared on an interface and receiverClass is known, the receiver's
// actual runtime class resolves the call through the interface-method
// cache first and the resolved entry point is called directly; otherwise
// the call goes through the reflected Invoker, which also boxes any
// value-type receiver/arguments first.
func (d *Domain) Invoke(receiverClass *metadata.Class, method *metadata.Method, self uintptr, args []uintptr) (uintptr, error) {
	if receiverClass != nil && method.DeclaringClass != nil && method.DeclaringClass.Special == metadata.SpecialInterface {
		codePtr, err := d.Ifaces.FindMethod(receiverClass, method)
		if err != nil {
			return 0, err
		}
		return d.CallCode(codePtr, self, args)
	}
	return d.Invoker.Invoke(reflectx.NewMethodObj(method), self, args)
}

// RegisterECall adds a named native function to the ECall registry.
func (d *Domain) RegisterECall(name string, fn uintptr) {
	d.ecallsMu.Lock()
	defer d.ecallsMu.Unlock()
	d.ecalls[name] = fn
}

// ECall looks up a registered native function by name.
func (d *Domain) ECall(name string) (uintptr, bool) {
	d.ecallsMu.RLock()
	defer d.ecallsMu.RUnlock()
	fn, ok := d.ecalls[name]
	return fn, ok
}

// Export publishes obj under name in the domain's exported-object table,
// making it reachable from GC roots and from remote synchronous calls.
func (d *Domain) Export(name string, obj uintptr) {
	d.exportedMu.Lock()
	defer d.exportedMu.Unlock()
	d.exported[name] = obj
	if cell := gcheap.CellFromHandle(obj); cell != nil {
		d.Heap.Roots().Add(cell)
	}
}

// Exported looks up a previously exported object by name.
func (d *Domain) Exported(name string) (uintptr, bool) {
	d.exportedMu.RLock()
	defer d.exportedMu.RUnlock()
	obj, ok := d.exported[name]
	return obj, ok
}

// Unexport removes name from the exported-object table.
func (d *Domain) Unexport(name string) {
	d.exportedMu.Lock()
	defer d.exportedMu.Unlock()
	obj, ok := d.exported[name]
	delete(d.exported, name)
	if ok {
		if cell := gcheap.CellFromHandle(obj); cell != nil {
			d.Heap.Roots().Remove(cell)
		}
	}
}

// RunMain locates Program's static main method and invokes it, guarding
// the call the same way a Domain.try boundary would: an abort unwinds the
// virtual stacks and is reported as an error instead of propagating as a
// recovered panic.
func (d *Domain) RunMain() (result uintptr, err error) {
	progClass, ok := d.Registry.Lookup("Program")
	if !ok {
		return 0, fmt.Errorf("domain: no Program class registered")
	}
	var mainMethod *metadata.Method
	for _, m := range progClass.StaticMethods {
		if m.Name == "main" {
			mainMethod = m
			break
		}
	}
	if mainMethod == nil {
		return 0, fmt.Errorf("domain: Program has no static main method")
	}

	message, aborted := d.Unwind.Guard(func() {
		r, invokeErr := d.Invoke(nil, mainMethod, 0, nil)
		if invokeErr != nil {
			panic(metadata.NewAbortMessage(invokeErr.Error()))
		}
		result = r
	})
	if aborted {
		return 0, fmt.Errorf("domain: Program.main aborted: %s", message)
	}
	return result, nil
}

// Teardown runs the judgement-day collection, frees the secure IO sandbox
// and releases the platform singleton reference this domain took in New.
// Teardown is idempotent: calls after the first do nothing.
func (d *Domain) Teardown() {
	select {
	case <-d.closedCh:
		return
	default:
	}
	close(d.closedCh)
	d.queue.Close()
	d.handle.Clear()
	d.Heap.Teardown()
	d.SecureIO.DeinitSecureIO()
	if d.unit != nil && d.compiler != nil {
		_ = d.compiler.Close(d.unit)
	}
	platform.Deinit()
	d.logger.Printf("torn down")
}
