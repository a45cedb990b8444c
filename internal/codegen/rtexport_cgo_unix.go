//go:build cgo && unix

package codegen

/*
#include <stdint.h>
#include <stddef.h>
*/
import "C"

import "unsafe"

// The functions below are the Go-side implementations of every _soX_*
// symbol prolog() declares extern. dlopen(RTLD_NOW) resolves a compiled
// translation unit's undefined symbols against the hosting process's own
// dynamic symbol table, so these must exist as real exported C symbols,
// not just Go functions of the same name.

//export _soX_frame_push
func _soX_frame_push() {
	if h := currentHooks(); h != nil {
		h.FramePush()
	}
}

//export _soX_frame_pop
func _soX_frame_pop() {
	if h := currentHooks(); h != nil {
		h.FramePop()
	}
}

//export _soX_stack_overflow_check
func _soX_stack_overflow_check() C.int {
	if h := currentHooks(); h != nil && h.StackOverflowCheck() {
		return 1
	}
	return 0
}

//export _soX_rdtsc
func _soX_rdtsc() C.uint64_t {
	if h := currentHooks(); h != nil {
		return C.uint64_t(h.RDTSC())
	}
	return 0
}

//export _soX_profile_tick
func _soX_profile_tick(symbol *C.char, ticks C.uint64_t) {
	if h := currentHooks(); h != nil {
		h.ProfileTick(C.GoString(symbol), uint64(ticks))
	}
}

//export _soX_abort
func _soX_abort(code C.int) {
	if h := currentHooks(); h != nil {
		h.Abort(int(code))
	}
}

//export _soX_abort_msg
func _soX_abort_msg(msg *C.char) {
	if h := currentHooks(); h != nil {
		h.AbortMessage(C.GoString(msg))
	}
}

//export _soX_alloc
func _soX_alloc(vtable unsafe.Pointer, size C.size_t) unsafe.Pointer {
	h := currentHooks()
	if h == nil {
		return nil
	}
	addr := h.Alloc(uintptr(vtable), int(size))
	return unsafe.Pointer(addr) //nolint:govet // pointer-shaped integer handed back from the active domain's heap
}

//export _soX_regvtable
func _soX_regvtable(flatName *C.char, vtable unsafe.Pointer) {
	if h := currentHooks(); h != nil {
		h.RegisterVTable(C.GoString(flatName), uintptr(vtable))
	}
}

//export _soX_patchstrings
func _soX_patchstrings() {
	if h := currentHooks(); h != nil {
		h.PatchStrings()
	}
}
