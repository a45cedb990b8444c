// Package rthelpers implements the _soX_* runtime helper contracts
// invoked by emitted code, plus the virtual unwinder that backs
// Domain.try and static-constructor abort boundaries.
package rthelpers

import (
	"github.com/KonstantinGeist/skizo-sub000/internal/gcheap"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// Helpers bundles the runtime-helper contracts for one domain; each
// method corresponds to one named _soX_* callback emitted code calls
// into.
type Helpers struct {
	heap  *gcheap.Heap
	class func(name string) *metadata.Class
}

func New(heap *gcheap.Heap, classByName func(name string) *metadata.Class) *Helpers {
	return &Helpers{heap: heap, class: classByName}
}

// Alloc implements "Allocation helpers": return a zeroed object with the
// vtable set.
func (h *Helpers) Alloc(class gcheap.ClassInfo, size int) *gcheap.Cell {
	return h.heap.Allocate(class, size)
}

// AllocClosureEnv implements the specialized allocation variant for
// closure-environment objects, whose vtable is generated on demand by the
// thunk manager rather than known up front.
func (h *Helpers) AllocClosureEnv(size int) *gcheap.Cell {
	return h.heap.Allocate(nil, size)
}

// Downcast implements "downcast(target-class, object)": returns the
// object unchanged if its dynamic class is assignable to target,
// otherwise aborts. Modeled as returning the AbortError rather than
// panicking, so callers (the generated method bodies, conceptually) can
// decide how to surface it; internal/domain's unwinder is what actually
// turns this into a Go panic at the call boundary.
func Downcast(objectClass, target *metadata.Class) (*metadata.Class, error) {
	if objectClass == nil {
		return nil, metadata.NewAbort(metadata.ErrNullDereference)
	}
	if !objectClass.IsAssignableTo(target) {
		return nil, metadata.NewAbortMessage("Cannot downcast " + objectClass.NiceName + " to " + target.NiceName + ".")
	}
	return objectClass, nil
}

// Unbox implements "unbox(dest, size, target-class, object)": asserts the
// object is a boxed instance of the target value type. Returns an error
// on mismatch instead of performing the memcopy itself — the actual byte
// copy is the caller's (generated code's) job once this assertion passes.
func Unbox(objectClass, targetValueType *metadata.Class) error {
	if objectClass == nil || objectClass.Special != metadata.SpecialBoxed {
		return metadata.NewAbortMessage("Object is not boxed.")
	}
	if objectClass.WrappedClass != targetValueType {
		return metadata.NewAbortMessage("Boxed value is not a " + targetValueType.NiceName + ".")
	}
	return nil
}

// Is implements "is(object, class)": the same assignability check as
// Downcast, but reporting a boolean instead of aborting.
func Is(objectClass, target *metadata.Class) bool {
	if objectClass == nil {
		return false
	}
	return objectClass.IsAssignableTo(target)
}

// HandlerArray models an event's handler-array field: an event object
// holds a vtable plus a pointer to a handler array.
type HandlerArray struct {
	Handlers []interface{}
}

// AddHandler implements "addhandler(event, handler)": allocates a new
// handler array one slot larger, copies existing handlers, appends the
// new one. A nil handler aborts.
func AddHandler(event *HandlerArray, handler interface{}) (*HandlerArray, error) {
	if handler == nil {
		return nil, metadata.NewAbortMessage("Cannot add a null event handler.")
	}
	next := make([]interface{}, len(event.Handlers)+1)
	copy(next, event.Handlers)
	next[len(event.Handlers)] = handler
	return &HandlerArray{Handlers: next}, nil
}

// RemoveHandler is the inverse operation: appending then removing the
// same handler from an event returns the event to its prior state. Not
// itself named as a _soX_* callback, but required to satisfy that
// invariant; modeled the same way as AddHandler.
func RemoveHandler(event *HandlerArray, handler interface{}) *HandlerArray {
	next := make([]interface{}, 0, len(event.Handlers))
	removed := false
	for _, h := range event.Handlers {
		if !removed && h == handler {
			removed = true
			continue
		}
		next = append(next, h)
	}
	return &HandlerArray{Handlers: next}
}

// Div wraps integer division to raise an abort on zero divisor rather
// than crash the process.
func Div(a, b int64) (int64, error) {
	if b == 0 {
		return 0, metadata.NewAbortMessage("Division by zero.")
	}
	return a / b, nil
}

// Abort / AbortMessage / AbortE implement the three abort entry points
// emitted code calls into.
func Abort(code metadata.ErrorCode) error           { return metadata.NewAbort(code) }
func AbortMessage(message string) error             { return metadata.NewAbortMessage(message) }
func AbortE(wrapped error) error {
	return &metadata.AbortError{Code: metadata.ErrAssertFailed, Message: wrapped.Error(), Wrapped: wrapped}
}
