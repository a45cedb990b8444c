package codegen

import "sync"

// RuntimeHooks answers the _soX_* callbacks compiled method bodies call
// back into the hosting process: frame bookkeeping, the stack-overflow
// probe, the profiler's tick source, aborts, allocation, and vtable
// registration. Exactly one hook set is active at a time, matching one
// domain running its compiled code on the calling goroutine.
type RuntimeHooks interface {
	FramePush()
	FramePop()
	StackOverflowCheck() bool
	RDTSC() uint64
	ProfileTick(symbol string, ticks uint64)
	Abort(code int)
	AbortMessage(msg string)
	Alloc(vtable uintptr, size int) uintptr
	RegisterVTable(flatName string, vtable uintptr)
	PatchStrings()
}

var (
	hooksMu sync.Mutex
	hooks   RuntimeHooks
)

// EnterRuntime installs h as the active hook set for the duration of fn,
// restoring whatever was active before on return. A domain wraps every
// CallCode invocation in EnterRuntime so the _soX_* exports resolve
// against the calling domain rather than whichever domain last compiled.
func EnterRuntime(h RuntimeHooks, fn func()) {
	hooksMu.Lock()
	prev := hooks
	hooks = h
	hooksMu.Unlock()

	defer func() {
		hooksMu.Lock()
		hooks = prev
		hooksMu.Unlock()
	}()

	fn()
}

func currentHooks() RuntimeHooks {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	return hooks
}
