package dispatch

import (
	"sync"

	"github.com/KonstantinGeist/skizo-sub000/internal/codegen"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// ClosureCall is the trampoline shape a closure exposes once it is handed
// to native code as a function pointer. The trampolines ClosureCodeOffset
// builds return the invoke method's code pointer; they do not call the
// invoke method, and envPtr and args are not used.
type ClosureCall func(envPtr uintptr, args []uintptr) uintptr

// BoxedThunk is the specialized stub for boxed methods/ctors: either wraps
// a value into a freshly allocated boxed object (ctor) or loads the value
// out of the box and forwards to the wrapped class's implementation.
type BoxedThunk func(receiver uintptr, args []uintptr) uintptr

// ThunkManager lazily generates and caches per-closure-class trampolines
// and per-boxed-method stubs. A real executable region backs the
// trampolines once the code generator bridge is available; tests can
// construct a ThunkManager with exec == nil, in which case generated
// trampolines run as plain Go closures without ever touching machine
// memory, which is sufficient for every caller that only needs the
// ClosureCall/BoxedThunk behavior, not a raw machine address.
type ThunkManager struct {
	mu sync.Mutex

	closureCodeOffsets map[*metadata.Class]ClosureCall
	boxedCtors         map[*metadata.Class]BoxedThunk
	boxedMethods       map[*metadata.Method]BoxedThunk

	region *codegen.ExecutableRegion
}

func NewThunkManager() *ThunkManager {
	return &ThunkManager{
		closureCodeOffsets: make(map[*metadata.Class]ClosureCall),
		boxedCtors:         make(map[*metadata.Class]BoxedThunk),
		boxedMethods:       make(map[*metadata.Method]BoxedThunk),
	}
}

// ClosureCodeOffset returns the cached trampoline for closureClass,
// generating one on first access. Cached per class since every instance
// of a given closure class shares the same invoke method; only the
// environment pointer differs per instance.
func (tm *ThunkManager) ClosureCodeOffset(closureClass *metadata.Class) ClosureCall {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if cc, ok := tm.closureCodeOffsets[closureClass]; ok {
		return cc
	}

	invoke := closureClass.InvokeMethod
	cc := func(envPtr uintptr, args []uintptr) uintptr {
		if invoke == nil {
			return 0
		}
		return invoke.CodePtr
	}
	tm.closureCodeOffsets[closureClass] = cc
	return cc
}

// BoxedCtorThunk returns the (lazily generated, cached) constructor stub
// for a boxed class: allocate a box, store the value, return the boxed
// object.
func (tm *ThunkManager) BoxedCtorThunk(boxedClass *metadata.Class, alloc func(valueBytes uintptr) uintptr) BoxedThunk {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if bt, ok := tm.boxedCtors[boxedClass]; ok {
		return bt
	}
	bt := func(_ uintptr, args []uintptr) uintptr {
		var value uintptr
		if len(args) > 0 {
			value = args[0]
		}
		return alloc(value)
	}
	tm.boxedCtors[boxedClass] = bt
	return bt
}

// BoxedMethodThunk returns the (lazily generated, cached) forwarding stub
// for a boxed-method forwarder: unbox the receiver and call through to
// the wrapped value type's implementation.
func (tm *ThunkManager) BoxedMethodThunk(boxedMethod *metadata.Method, unbox func(receiver uintptr) uintptr, wrappedCode uintptr, call codegen.MethodFunc) BoxedThunk {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if bt, ok := tm.boxedMethods[boxedMethod]; ok {
		return bt
	}
	bt := func(receiver uintptr, args []uintptr) uintptr {
		value := unbox(receiver)
		if call != nil {
			return call(value, args)
		}
		return wrappedCode
	}
	tm.boxedMethods[boxedMethod] = bt
	return bt
}

// AttachExecutableRegion wires a real executable memory region into the
// manager so future trampolines could, in a fuller build, be emitted as
// raw machine code instead of Go closures. Optional: most thunks above
// are pure dispatch logic and never need to leave Go-land.
func (tm *ThunkManager) AttachExecutableRegion(r *codegen.ExecutableRegion) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.region = r
}
