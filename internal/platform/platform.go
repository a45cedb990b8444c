// Package platform holds the handful of process-wide, platform-dependent
// facts a domain needs and can't derive from metadata alone: the native
// line ending and path separator, and a singleton init/teardown pair for
// state that must exist exactly once per process regardless of how many
// domains run inside it.
package platform

import (
	"os"
	"sync"
)

// LineEnding returns the native newline sequence: "\r\n" on Windows, "\n"
// elsewhere.
func LineEnding() string {
	if os.PathSeparator == '\\' {
		return "\r\n"
	}
	return "\n"
}

// FileSeparator returns the native path separator as a one-rune string.
func FileSeparator() string {
	return string(os.PathSeparator)
}

var (
	initOnce   sync.Once
	teardownMu sync.Mutex
	torn       bool
)

// singleton is the process-wide state every domain shares: a reference
// count so the last domain torn down releases it, plus whatever
// platform-level resources Init acquires (presently none beyond the
// reference count itself).
type singleton struct {
	mu       sync.Mutex
	refCount int
}

var global singleton

// Init acquires the process-wide platform singleton, initializing it on
// first call. Every internal/domain.New must pair this with a Deinit.
func Init() {
	initOnce.Do(func() {})
	global.mu.Lock()
	defer global.mu.Unlock()
	global.refCount++
	teardownMu.Lock()
	torn = false
	teardownMu.Unlock()
}

// Deinit releases one reference; the singleton is considered torn down
// once the last domain releases it, matching a process-lifetime
// init/deinit reference-counting pair.
func Deinit() {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.refCount > 0 {
		global.refCount--
	}
	if global.refCount == 0 {
		teardownMu.Lock()
		torn = true
		teardownMu.Unlock()
	}
}

// IsTornDown reports whether every domain that called Init has since
// called Deinit. Exposed for tests; embedders don't normally need it.
func IsTornDown() bool {
	teardownMu.Lock()
	defer teardownMu.Unlock()
	return torn
}
