//go:build !unix

package codegen

import "fmt"

// ExecutableRegion degrades to a plain byte slice on non-unix builds: it
// can be filled in but MakeExecutable reports an error, since there is no
// portable non-cgo way to flip page protection outside the unix mmap
// family wired in exec_mem_unix.go.
type ExecutableRegion struct {
	mem []byte
}

func NewExecutableRegion(size int) (*ExecutableRegion, error) {
	return &ExecutableRegion{mem: make([]byte, size)}, nil
}

func (r *ExecutableRegion) Bytes() []byte { return r.mem }

func (r *ExecutableRegion) MakeExecutable() error {
	return fmt.Errorf("codegen: executable memory regions require a unix build")
}

func (r *ExecutableRegion) Addr() uintptr { return 0 }

func (r *ExecutableRegion) Free() error { return nil }
