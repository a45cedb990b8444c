//go:build !cgo || !unix

package codegen

import "fmt"

// unitHandle degrades to an opaque path reference on platforms/builds
// without cgo; symbol resolution is unavailable there; see
// compiler_cgo_unix.go for the real dynamic-loading path.
type unitHandle = string

func openUnit(path string) (unitHandle, error) {
	return path, nil
}

func resolveSymbol(h unitHandle, symbol string) (MethodFunc, error) {
	return nil, fmt.Errorf("codegen: dynamic symbol resolution for %q requires a cgo-enabled unix build", symbol)
}

func closeUnit(h unitHandle) error {
	return nil
}
