package domain

import (
	"fmt"
	"time"

	"github.com/KonstantinGeist/skizo-sub000/internal/gcheap"
	"github.com/KonstantinGeist/skizo-sub000/internal/marshal"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
	"github.com/KonstantinGeist/skizo-sub000/internal/remoting"
)

// listenPollInterval bounds how long a blocked StartListening loop can go
// between checks of the domain's closed signal.
const listenPollInterval = 100 * time.Millisecond

// StartListening spawns the domain's inbound message loop: every message
// another domain's Handle.SendSync enqueues is dispatched by method name
// against the named exported object and answered in place. Called once by
// CreateDomain right after codegen succeeds, so a domain published via
// Handle() is always ready to answer synchronous cross-domain calls.
func (d *Domain) StartListening() {
	go d.queue.Listen(listenPollInterval, d.isClosed, d.handleMessage)
}

func (d *Domain) isClosed() bool {
	select {
	case <-d.closedCh:
		return true
	default:
		return false
	}
}

// handleMessage answers one inbound cross-domain call: resolve the named
// exported object, find the requested method on its runtime class, decode
// the marshaled argument buffer, invoke it through Invoke (so an
// interface-typed target still resolves through d.Ifaces), and marshal the
// result back into the message before completing it.
func (d *Domain) handleMessage(msg *remoting.Message) {
	objName := msg.ObjectName.String()
	obj, ok := d.Exported(objName)
	if !ok {
		msg.Complete(fmt.Sprintf("domain: no exported object named %q", objName))
		return
	}

	class := d.classOf(obj)
	if class == nil {
		msg.Complete(fmt.Sprintf("domain: exported object %q has no resolvable runtime class", objName))
		return
	}

	method := findInstanceMethodByName(class, msg.MethodName)
	if method == nil {
		msg.Complete(fmt.Sprintf("domain: %s has no method named %q", class.NiceName, msg.MethodName))
		return
	}

	args, err := unmarshalArgs(msg.Args(), len(method.Sig.Params))
	if err != nil {
		msg.Complete(err.Error())
		return
	}

	var result uintptr
	message, aborted := d.Unwind.Guard(func() {
		r, invokeErr := d.Invoke(class, method, obj, args)
		if invokeErr != nil {
			panic(metadata.NewAbortMessage(invokeErr.Error()))
		}
		result = r
	})
	if aborted {
		msg.Complete(message)
		return
	}

	if err := msg.SetArgs(marshal.PutInt64(nil, int64(result))); err != nil {
		msg.Complete(err.Error())
		return
	}
	msg.Complete("")
}

// classOf recovers the *metadata.Class a heap handle was allocated with,
// unwinding the gcheap.ClassInfo adapter classInfo wraps it in.
func (d *Domain) classOf(handle uintptr) *metadata.Class {
	cell := gcheap.CellFromHandle(handle)
	if cell == nil {
		return nil
	}
	ci, ok := cell.Class.(classInfo)
	if !ok {
		return nil
	}
	return ci.c
}

func findInstanceMethodByName(class *metadata.Class, name string) *metadata.Method {
	for _, m := range class.InstanceMethods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// unmarshalArgs decodes n little-endian 8-byte words (the wire
// shape marshal.PutInt64 writes) off buf into raw argument words.
func unmarshalArgs(buf []byte, n int) ([]uintptr, error) {
	args := make([]uintptr, n)
	for i := 0; i < n; i++ {
		v, rest, err := marshal.GetInt64(buf)
		if err != nil {
			return nil, fmt.Errorf("domain: decoding argument %d: %w", i, err)
		}
		args[i] = uintptr(v)
		buf = rest
	}
	return args, nil
}
