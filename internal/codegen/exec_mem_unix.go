//go:build unix

package codegen

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ExecutableRegion is a page of memory the thunk manager (internal/
// dispatch) can write a trampoline into and then execute. Closure
// code-offset trampolines and boxed method/ctor thunks are small enough
// to live in one shared region per domain rather than round-tripping
// through the external compiler for every thunk.
type ExecutableRegion struct {
	mem []byte
}

// NewExecutableRegion maps size bytes PROT_READ|PROT_WRITE, to be filled
// with trampoline bytes, then finalized read-execute via MakeExecutable.
func NewExecutableRegion(size int) (*ExecutableRegion, error) {
	mem, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("codegen: mmap executable region: %w", err)
	}
	return &ExecutableRegion{mem: mem}, nil
}

// Bytes exposes the writable backing store before the region is sealed.
func (r *ExecutableRegion) Bytes() []byte { return r.mem }

// MakeExecutable seals the region read-execute, after which Bytes must not
// be written to again.
func (r *ExecutableRegion) MakeExecutable() error {
	if err := unix.Mprotect(r.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return fmt.Errorf("codegen: mprotect executable region: %w", err)
	}
	return nil
}

// Addr returns the region's base address as a uintptr, suitable for use
// as a closure code offset.
func (r *ExecutableRegion) Addr() uintptr {
	if len(r.mem) == 0 {
		return 0
	}
	return uintptr(addrOf(r.mem))
}

func (r *ExecutableRegion) Free() error {
	return unix.Munmap(r.mem)
}
