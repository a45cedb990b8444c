//go:build cgo && unix

package codegen

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdint.h>
#include <stdlib.h>

typedef void* (*skizo_method_fn)(void*, void**);

static void* skizo_call(skizo_method_fn fn, void* self, void** args) {
	return fn(self, args);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// unitHandle is the dlopen()'d shared object handle for one compiled
// translation unit.
type unitHandle = unsafe.Pointer

func openUnit(path string) (unitHandle, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	h := C.dlopen(cpath, C.RTLD_NOW)
	if h == nil {
		return nil, fmt.Errorf("codegen: dlopen %s failed", path)
	}
	return h, nil
}

// resolveSymbol retrieves a function pointer for a method by its
// external symbol: dlsym resolves the mangled per-method symbol to a
// real, callable C function pointer, wrapped in a MethodFunc closure so
// Go callers never touch cgo types directly.
func resolveSymbol(h unitHandle, symbol string) (MethodFunc, error) {
	csym := C.CString(symbol)
	defer C.free(unsafe.Pointer(csym))

	ptr := C.dlsym(h, csym)
	if ptr == nil {
		return nil, fmt.Errorf("codegen: symbol %q not found in compiled unit", symbol)
	}
	fn := C.skizo_method_fn(ptr)

	return func(self uintptr, args []uintptr) uintptr {
		cargs := make([]unsafe.Pointer, len(args))
		for i, a := range args {
			cargs[i] = unsafe.Pointer(a) //nolint:govet // deliberate pointer-shaped integer, see MethodFunc doc
		}
		var argsPtr *unsafe.Pointer
		if len(cargs) > 0 {
			argsPtr = &cargs[0]
		}
		result := C.skizo_call(fn, unsafe.Pointer(self), argsPtr) //nolint:govet
		return uintptr(result) //nolint:govet
	}, nil
}

func closeUnit(h unitHandle) error {
	if C.dlclose(h) != 0 {
		return fmt.Errorf("codegen: dlclose failed")
	}
	return nil
}
