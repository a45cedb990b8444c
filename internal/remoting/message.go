package remoting

// BufferSize caps a cross-domain call's marshaled argument buffer. Fixed
// so a message never needs to allocate per send.
const BufferSize = 1024

// Message is a single cross-domain method-invocation record: the target
// object's exported name, the method being called, and its marshaled
// argument buffer. Sent through a Queue and, for a synchronous call,
// waited on via ResultReady.
type Message struct {
	ObjectName *RCString
	MethodName string

	Buffer       [BufferSize]byte
	BufferLength int

	// ErrorMessage is set by the receiver if the call aborted instead of
	// returning normally; empty on success.
	ErrorMessage string

	// ResultReady is closed by the receiver once Buffer/ErrorMessage hold
	// the call's outcome, waking a sender blocked in SendSync.
	ResultReady chan struct{}
}

// NewMessage builds a message ready to enqueue. ResultReady is created
// unbuffered-closed-once; callers that only need fire-and-forget delivery
// may ignore it.
func NewMessage(objectName *RCString, methodName string) *Message {
	return &Message{
		ObjectName:  objectName,
		MethodName:  methodName,
		ResultReady: make(chan struct{}),
	}
}

// SetArgs copies a marshaled argument payload into the fixed buffer. It
// reports an error rather than silently truncating if the payload
// exceeds BufferSize: an oversized call is a programming error, not a
// recoverable condition.
func (m *Message) SetArgs(payload []byte) error {
	if len(payload) > BufferSize {
		return errMessageTooLarge
	}
	m.BufferLength = copy(m.Buffer[:], payload)
	return nil
}

func (m *Message) Args() []byte { return m.Buffer[:m.BufferLength] }

// Complete marks the message as answered, waking a waiting sender. It's
// the receiver's counterpart to a sender's SendSync wait.
func (m *Message) Complete(errorMessage string) {
	m.ErrorMessage = errorMessage
	close(m.ResultReady)
}
