package remoting

import "errors"

var (
	errMessageTooLarge = errors.New("remoting: message payload exceeds BufferSize")
	errTimeout         = errors.New("remoting: timed out waiting for a response")
	errDomainGone      = errors.New("remoting: target domain is no longer alive")
	errQueueClosed     = errors.New("remoting: message queue is closed")
)
