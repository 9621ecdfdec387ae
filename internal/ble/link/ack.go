package link

import (
	"context"
	"errors"
	"fmt"
)

// ErrAlreadyAcked is returned when an Ack is released twice.
var ErrAlreadyAcked = errors.New("link: request already acknowledged")

// Ack holds the reply obligation of one request. Callers acquire it as soon
// as the request arrives and release it with defer, so every exit path sends
// at most one reply:
//
//	ack := link.Acquire(req)
//	defer func() { err = ack.Release(ctx) }()
type Ack struct {
	req  Request
	done bool
}

// Acquire takes the reply obligation for req. A nil req yields an Ack whose
// Release is a no-op, which is what Disconnected events need.
func Acquire(req Request) *Ack {
	return &Ack{req: req}
}

// Release accepts the request and sends its reply. Only the first call does
// anything; later calls return ErrAlreadyAcked without touching the stack.
func (a *Ack) Release(ctx context.Context) error {
	if a.done {
		return ErrAlreadyAcked
	}
	a.done = true
	if a.req == nil {
		return nil
	}
	reply, err := a.req.Accept()
	if err != nil {
		return fmt.Errorf("link: accept handle %d: %w", a.req.Handle(), err)
	}
	if err := reply.Send(ctx); err != nil {
		return fmt.Errorf("link: send reply for handle %d: %w", a.req.Handle(), err)
	}
	return nil
}

// Released reports whether Release has been called.
func (a *Ack) Released() bool { return a.done }

// RequestOf returns the request carried by ev, or nil for Disconnected.
func RequestOf(ev Event) Request {
	switch ev := ev.(type) {
	case Read:
		return ev.Request
	case Write:
		return ev.Request
	case Other:
		return ev.Request
	default:
		return nil
	}
}
