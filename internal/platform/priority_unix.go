//go:build unix

package platform

import "golang.org/x/sys/unix"

// SetThreadPriority applies an advisory niceness hint to the calling
// OS thread. Skizo's original declared thread priorities as a
// cross-platform concept but only ever implemented them on one platform
// (see SPEC_FULL.md's Open Question decision); this port keeps that same
// asymmetry rather than inventing Windows support nothing in the corpus
// grounds. Errors are intentionally swallowed: a priority hint that fails
// to apply should never abort a domain.
func SetThreadPriority(niceness int) {
	_ = unix.Setpriority(unix.PRIO_PROCESS, 0, niceness)
}
