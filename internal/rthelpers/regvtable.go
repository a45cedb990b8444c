package rthelpers

import (
	"github.com/KonstantinGeist/skizo-sub000/internal/dispatch"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// RegVtable implements "regvtable(class, vtable)": installs a freshly
// emitted vtable into the class metadata. The actual slot population
// happens in dispatch.Registry.Build once every method's CodePtr has been
// filled in by internal/codegen. The C-side _soX_regvtable calls that
// bridge.go's "_soX_register_vtables" emits are answered by
// internal/domain's runtime hooks (RegisterVTable), not by this function.
func RegVtable(reg *dispatch.Registry, class *metadata.Class) *dispatch.VTable {
	return reg.Build(class)
}

// PatchStrings implements "patchstrings()": iterates the string-literal
// sub-heap and sets each literal's vtable to the (now-known) string
// class's vtable, run once after every class's vtable has been
// registered.
func PatchStrings(stringLiterals []*StringLiteralRef, stringClassVtable uintptr) {
	for _, lit := range stringLiterals {
		lit.VtablePtr = stringClassVtable
	}
}

// StringLiteralRef is the minimal shape PatchStrings needs: a pointer to
// where a pre-allocated string literal's vtable slot lives, patched once
// the string class's vtable becomes available. The string class itself
// can only be linked and have its vtable generated after every literal
// referencing it has already been emitted as data.
type StringLiteralRef struct {
	VtablePtr uintptr
}
