package codegen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// CompiledUnit is the result of handing a translation unit to the
// embedded C compiler: the shared object produced on disk and a handle
// the Compiler implementation uses to resolve symbols to callable
// function pointers.
type CompiledUnit struct {
	SharedObjectPath string
	handle           unitHandle
}

// MethodFunc is the uniform calling convention every generated method
// body conforms to: the receiver pointer and a packed argument array in,
// a single boxed result out. Reflection (internal/reflectx) and the
// dispatch thunks (internal/dispatch) both call through this shape.
type MethodFunc func(self uintptr, args []uintptr) uintptr

// Compiler hands a translation unit to a real, external C compiler and
// resolves the resulting machine code's exported symbols back to callable
// function pointers, one per method, keyed by its external symbol.
type Compiler interface {
	Compile(source string) (*CompiledUnit, error)
	Resolve(unit *CompiledUnit, symbol string) (MethodFunc, error)
	Close(unit *CompiledUnit) error
}

// ExternalCCompiler shells out to the system C compiler the way
// cmd/link's external-linker step shells out to the platform linker
// (grounded on cmd_local/go/internal/base.Run). The resulting shared
// object's symbols are then dynamically loaded — see
// compiler_cgo_unix.go/compiler_stub.go for the two Resolve strategies.
type ExternalCCompiler struct {
	CC     string // e.g. "cc"; defaults to the CC env var or "cc"
	WorkDir string
}

func NewExternalCCompiler(workDir string) *ExternalCCompiler {
	cc := os.Getenv("CC")
	if cc == "" {
		cc = "cc"
	}
	return &ExternalCCompiler{CC: cc, WorkDir: workDir}
}

func (e *ExternalCCompiler) Compile(source string) (*CompiledUnit, error) {
	if err := os.MkdirAll(e.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("codegen: creating work dir: %w", err)
	}
	srcPath := filepath.Join(e.WorkDir, "skizo_gen.c")
	if err := os.WriteFile(srcPath, []byte(source), 0o644); err != nil {
		return nil, fmt.Errorf("codegen: writing generated source: %w", err)
	}

	soPath := filepath.Join(e.WorkDir, "skizo_gen.so")
	cmd := exec.Command(e.CC, "-shared", "-fPIC", "-O2", "-o", soPath, srcPath)
	cmd.Dir = e.WorkDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("codegen: compiling generated translation unit: %w\n%s", err, out)
	}

	unit := &CompiledUnit{SharedObjectPath: soPath}
	handle, err := openUnit(soPath)
	if err != nil {
		return nil, err
	}
	unit.handle = handle
	return unit, nil
}

func (e *ExternalCCompiler) Resolve(unit *CompiledUnit, symbol string) (MethodFunc, error) {
	return resolveSymbol(unit.handle, symbol)
}

func (e *ExternalCCompiler) Close(unit *CompiledUnit) error {
	return closeUnit(unit.handle)
}
