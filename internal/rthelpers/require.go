package rthelpers

import "github.com/KonstantinGeist/skizo-sub000/internal/metadata"

// Require raises ErrAssertFailed unless cond holds: it panics with a
// *metadata.AbortError carrying message.
func Require(cond bool, message string) {
	if !cond {
		panic(&metadata.AbortError{Code: metadata.ErrAssertFailed, Message: message})
	}
}
