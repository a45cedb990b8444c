//go:build !unix

package platform

// SetThreadPriority is a no-op on non-unix platforms; there is no portable
// niceness equivalent to fall back to.
func SetThreadPriority(niceness int) {}
