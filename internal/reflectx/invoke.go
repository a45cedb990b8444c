package reflectx

import (
	"fmt"
	"sync"

	"github.com/KonstantinGeist/skizo-sub000/internal/codegen"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// Boxer wraps a value-type instance into its boxed reference class,
// synthesizing the boxed class and allocating the wrapper on the owning
// domain's heap. internal/domain's *Domain implements this by composing
// internal/resolve.Resolver.SynthesizeBoxed with
// internal/dispatch.ThunkManager.BoxedCtorThunk.
type Boxer interface {
	Box(valueType *metadata.Class, value uintptr) uintptr
}

// Invoker dispatches a reflected method call to the emitted machine code
// codegen compiled for it, boxing value-type receivers/arguments first so
// every bound MethodFunc sees a uniform handle-shaped self/args, matching
// what a vtable slot reached through an interface reference would see.
type Invoker struct {
	mu    sync.RWMutex
	funcs map[*metadata.Method]codegen.MethodFunc
	boxer Boxer
}

// NewInvoker builds an Invoker that boxes through boxer. boxer may be nil
// (tests that never call a value-type method/pass a value-type argument
// can construct an Invoker with no boxing capability at all).
func NewInvoker(boxer Boxer) *Invoker {
	return &Invoker{funcs: make(map[*metadata.Method]codegen.MethodFunc), boxer: boxer}
}

// Bind records the compiled entry point for a method, called once per
// method after internal/codegen resolves its symbol.
func (inv *Invoker) Bind(m *metadata.Method, fn codegen.MethodFunc) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.funcs[m] = fn
}

// Invoke calls a reflected method on self with args, reporting an error if
// the method was never bound to compiled code (a method whose class was
// never codegen'd, or a reflection-only stub). A value-type receiver is
// boxed before the call, since the bound thunk for a value-type method
// expects the boxed object itself and unwraps it
// (dispatch.ThunkManager.BoxedMethodThunk); likewise each value-type
// argument is boxed so the callee always sees a handle, never raw value
// bytes packed into a uintptr.
func (inv *Invoker) Invoke(m *MethodObj, self uintptr, args []uintptr) (uintptr, error) {
	inv.mu.RLock()
	fn, ok := inv.funcs[m.method]
	inv.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("reflectx: method %q has no bound entry point", m.Name())
	}

	if inv.boxer != nil {
		if dc := m.method.DeclaringClass; dc != nil && dc.Flags.HasValueType() {
			self = inv.boxer.Box(dc, self)
		}
		if len(args) > 0 {
			boxedArgs := make([]uintptr, len(args))
			copy(boxedArgs, args)
			for i, p := range m.method.Sig.Params {
				if i >= len(boxedArgs) {
					break
				}
				if p.Type != nil && p.Type.Resolved != nil && p.Type.Resolved.Flags.HasValueType() {
					boxedArgs[i] = inv.boxer.Box(p.Type.Resolved, boxedArgs[i])
				}
			}
			args = boxedArgs
		}
	}

	return fn(self, args), nil
}
