// Package dispatch implements vtable layout, the per-class
// interface-method resolution cache, and the closure/boxed thunk manager.
package dispatch

import "github.com/KonstantinGeist/skizo-sub000/internal/metadata"

// VTable is slots 1.. of the object header: slot 0 holds the owning class
// pointer, slots 1.. hold virtual-method code pointers. Slot 0 itself is
// modeled by Class, not here; internal/gcheap's mark bit toggles
// conceptually on that slot, this type only owns the call table.
type VTable struct {
	Class *metadata.Class
	Slots []uintptr
}

// Registry tracks one VTable per linked class, populated once
// internal/codegen resolves every method's code pointer: a prolog
// function calls the runtime helper that registers the vtable in class
// metadata.
type Registry struct {
	byClass map[*metadata.Class]*VTable
}

func NewRegistry() *Registry {
	return &Registry{byClass: make(map[*metadata.Class]*VTable)}
}

// Build lays out a new vtable for class from its finalized instance
// method list (Link must have already run, so VtableIndex is stable).
// Grounded on link/internal/ld/typelink.go's two-pass "collect reachable
// symbols, write a sorted table" shape, here applied to method slots
// instead of typelinks.
func (r *Registry) Build(class *metadata.Class) *VTable {
	maxIdx := -1
	for _, m := range class.InstanceMethods {
		if m.IsVirtual() && m.VtableIndex > maxIdx {
			maxIdx = m.VtableIndex
		}
	}
	vt := &VTable{Class: class, Slots: make([]uintptr, maxIdx+1)}
	for _, m := range class.InstanceMethods {
		if m.IsVirtual() {
			vt.Slots[m.VtableIndex] = m.CodePtr
		}
	}
	r.byClass[class] = vt
	class.Vtable = vt.Slots
	return vt
}

// Lookup returns the registered vtable for class, or nil if Build has not
// run for it yet.
func (r *Registry) Lookup(class *metadata.Class) *VTable {
	return r.byClass[class]
}

// Slot reads the code pointer at index 1.. from the receiver's class
// vtable. A virtual call reads slot vtable_index + 1 from the receiver's
// vtable; the "+1" accounts for the slot-0 class pointer, already
// stripped out of VTable.Slots here.
func (vt *VTable) Slot(index int) uintptr {
	if index < 0 || index >= len(vt.Slots) {
		return 0
	}
	return vt.Slots[index]
}

// PatchSlot installs a code pointer into an existing slot without
// rebuilding the whole table. An out-of-range index is ignored.
func (vt *VTable) PatchSlot(index int, codePtr uintptr) {
	if index < 0 || index >= len(vt.Slots) {
		return
	}
	vt.Slots[index] = codePtr
}
