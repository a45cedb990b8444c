package rthelpers

import (
	"sync"

	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// MaxFrameDepth is the deepest frame-push depth the stack-overflow probe
// allows; it aborts once the depth exceeds it, standing in for a real
// guard-page/redzone check.
const MaxFrameDepth = 10000

// StackState is the pair of counters the virtual unwinder snapshots
// before a Domain.try or static-constructor boundary and restores if an
// abort is raised.
type StackState struct {
	FrameDepth int
	DebugDepth int
}

// Unwinder owns a domain's stack-frame stack and debug-data stack depth
// counters and the snapshot/restore pairs around guarded sections.
// Recasts host-exception-based unwinding into Go's panic/recover: an
// abort propagates as a normal panic carrying a *metadata.AbortError,
// caught and normalized back into a return value at the guard boundary.
type Unwinder struct {
	frameDepth int
	debugDepth int

	abortMu sync.Mutex
	pending *metadata.AbortError
}

// PushFrame / PopFrame implement the emitted-code frame-push/frame-pop
// pair used for stack-trace collection.
func (u *Unwinder) PushFrame() { u.frameDepth++ }
func (u *Unwinder) PopFrame() {
	if u.frameDepth > 0 {
		u.frameDepth--
	}
}

// FrameDepth reports the current frame-push depth, read by the
// stack-overflow probe the emitted prolog calls before running a method
// body.
func (u *Unwinder) FrameDepth() int { return u.frameDepth }

// SetPendingAbort records an abort raised from outside normal Go control
// flow (a _soX_abort/_soX_abort_msg callback reached through compiled C,
// where panicking across the call would crash the process). TakePendingAbort
// converts it back into a panic at the nearest safe point.
func (u *Unwinder) SetPendingAbort(err *metadata.AbortError) {
	u.abortMu.Lock()
	defer u.abortMu.Unlock()
	u.pending = err
}

// TakePendingAbort clears and returns any abort recorded by
// SetPendingAbort, or nil if none is pending.
func (u *Unwinder) TakePendingAbort() *metadata.AbortError {
	u.abortMu.Lock()
	defer u.abortMu.Unlock()
	err := u.pending
	u.pending = nil
	return err
}

func (u *Unwinder) PushDebugData() { u.debugDepth++ }
func (u *Unwinder) PopDebugData() {
	if u.debugDepth > 0 {
		u.debugDepth--
	}
}

// Snapshot captures the current depths before a guarded section begins.
func (u *Unwinder) Snapshot() StackState {
	return StackState{FrameDepth: u.frameDepth, DebugDepth: u.debugDepth}
}

// Restore rolls the stacks back to a previously captured snapshot; called
// when an abort unwinds past the guarded section's boundary.
func (u *Unwinder) Restore(s StackState) {
	u.frameDepth = s.FrameDepth
	u.debugDepth = s.DebugDepth
}

// Guard runs fn inside a Domain.try-style boundary: it snapshots the
// stacks, recovers any *metadata.AbortError raised inside
// fn, restores the stacks, and returns the abort's message as a string.
// A non-abort panic (a genuine programming error in the emitted-code
// simulation) is re-panicked rather than swallowed.
func (u *Unwinder) Guard(fn func()) (message string, aborted bool) {
	snap := u.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			abortErr, ok := r.(*metadata.AbortError)
			if !ok {
				panic(r)
			}
			u.Restore(snap)
			message = abortErr.Error()
			aborted = true
		}
	}()
	fn()
	return "", false
}

// GuardStaticCtor runs a static constructor inside the second kind of
// abort boundary: on abort, the class's initialized flag is cleared so
// subsequent accesses raise type-initialization-error, instead of
// returning a message string to caller code.
func (u *Unwinder) GuardStaticCtor(class *metadata.Class, fn func()) error {
	snap := u.Snapshot()
	var result error
	func() {
		defer func() {
			if r := recover(); r != nil {
				abortErr, ok := r.(*metadata.AbortError)
				if !ok {
					panic(r)
				}
				u.Restore(snap)
				class.Flags.Clear(metadata.FlagInitialized)
				result = abortErr
			}
		}()
		fn()
		class.Flags.Set(metadata.FlagInitialized)
	}()
	return result
}
