package remoting

import "sync/atomic"

// RCString is a reference-counted immutable string safe to share across
// domain boundaries without copying: a message crossing domains carries
// the RCString itself, and each side releases its own reference
// independently when done with it.
type RCString struct {
	text string
	refs int32
}

func NewRCString(text string) *RCString {
	return &RCString{text: text, refs: 1}
}

func (s *RCString) Ref() *RCString {
	atomic.AddInt32(&s.refs, 1)
	return s
}

// Unref drops a reference. It never frees anything itself (Go's GC owns
// the backing memory); callers that need to know when the last logical
// reference is gone can check RefCount afterwards.
func (s *RCString) Unref() {
	atomic.AddInt32(&s.refs, -1)
}

func (s *RCString) RefCount() int32 { return atomic.LoadInt32(&s.refs) }

func (s *RCString) String() string { return s.text }
