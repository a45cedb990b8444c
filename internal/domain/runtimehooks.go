package domain

import (
	"sync"
	"time"

	"github.com/KonstantinGeist/skizo-sub000/internal/gcheap"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
	"github.com/KonstantinGeist/skizo-sub000/internal/rthelpers"
)

// runtimeHooks implements codegen.RuntimeHooks for one domain, answering
// the _soX_* callbacks compiled method bodies make into the hosting
// process while this domain's code is executing. Installed around every
// CallCode invocation via codegen.EnterRuntime.
type runtimeHooks struct {
	d *Domain

	vtableMu sync.Mutex
	vtableOf map[uintptr]*metadata.Class
}

func newRuntimeHooks(d *Domain) *runtimeHooks {
	return &runtimeHooks{d: d, vtableOf: make(map[uintptr]*metadata.Class)}
}

func (h *runtimeHooks) FramePush() { h.d.Unwind.PushFrame() }
func (h *runtimeHooks) FramePop()  { h.d.Unwind.PopFrame() }

func (h *runtimeHooks) StackOverflowCheck() bool {
	return h.d.Unwind.FrameDepth() > rthelpers.MaxFrameDepth
}

// RDTSC stands in for the x86 RDTSC instruction the original profiling
// counters read directly: a monotonic nanosecond clock serves the same
// "ticks since call start" purpose for Profiler.Tick's deltas.
func (h *runtimeHooks) RDTSC() uint64 { return uint64(time.Now().UnixNano()) }

func (h *runtimeHooks) ProfileTick(symbol string, ticks uint64) {
	h.d.bridge.Profiler().Tick(symbol, ticks)
}

func (h *runtimeHooks) Abort(code int) {
	h.d.Unwind.SetPendingAbort(metadata.NewAbort(metadata.ErrorCode(code)))
}

func (h *runtimeHooks) AbortMessage(msg string) {
	h.d.Unwind.SetPendingAbort(metadata.NewAbortMessage(msg))
}

// RegisterVTable records the C-side address of a class's generated
// vtable once emitted code's _soX_register_vtables pass runs it, so Alloc
// can later map that raw address back to the class it belongs to.
func (h *runtimeHooks) RegisterVTable(flatName string, vtable uintptr) {
	var class *metadata.Class
	for _, c := range h.d.Registry.Classes() {
		if c.FlatName == flatName {
			class = c
			break
		}
	}
	if class == nil {
		return
	}
	h.vtableMu.Lock()
	h.vtableOf[vtable] = class
	h.vtableMu.Unlock()
}

// Alloc resolves vtable back to the class RegisterVTable recorded for it
// and allocates through the domain's heap, returning a handle usable as a
// C object pointer the same way CellHandle/CellFromHandle round-trip it
// elsewhere.
func (h *runtimeHooks) Alloc(vtable uintptr, size int) uintptr {
	h.vtableMu.Lock()
	class := h.vtableOf[vtable]
	h.vtableMu.Unlock()

	var ci gcheap.ClassInfo
	if class != nil {
		ci = classInfo{d: h.d, c: class}
	}
	cell := h.d.Heap.Allocate(ci, size)
	return gcheap.CellHandle(cell)
}

// PatchStrings is a no-op until the domain tracks the string-literal
// cells rthelpers.PatchStrings needs to patch; see that function's doc.
// TODO: wire this once CodeGen records AllocateStringLiteral cells per
// literal so their vtables can be patched in after the string class's own
// vtable is registered.
func (h *runtimeHooks) PatchStrings() {}
