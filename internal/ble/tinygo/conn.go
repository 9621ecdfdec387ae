package tinygo

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

type conn struct {
	s      *Stack
	peer   string
	events *link.Queue
	gone   chan struct{}
}

var _ link.Connection = (*conn)(nil)

func newConn(s *Stack, peer string) *conn {
	return &conn{s: s, peer: peer, events: link.NewQueue(), gone: make(chan struct{})}
}

func (c *conn) Peer() string { return c.peer }

func (c *conn) Next(ctx context.Context) (link.Event, error) {
	return c.events.Pop(ctx, c.s.failed, c.s.fatal)
}

// close is called with s.mu held.
func (c *conn) close(reason link.Reason) {
	close(c.gone)
	c.events.Push(link.Disconnected{Reason: reason})
}

func (c *conn) Notify(_ context.Context, h attr.Handle, value []byte) error {
	select {
	case <-c.gone:
		return link.ErrDisconnected
	default:
	}
	ch, ok := c.s.chars[h]
	if !ok {
		return fmt.Errorf("tinygo: handle %d is not registered", h)
	}
	if err := ch.Write(value); err != nil {
		return fmt.Errorf("tinygo: notify handle %d: %w", h, err)
	}
	return nil
}

// request is a write already answered by the host stack; accepting and
// replying only complete the bookkeeping.
type request struct {
	c        *conn
	handle   attr.Handle
	data     []byte
	accepted atomic.Bool
}

func (r *request) Handle() attr.Handle { return r.handle }
func (r *request) Data() []byte        { return r.data }

func (r *request) Accept() (link.Reply, error) {
	if !r.accepted.CompareAndSwap(false, true) {
		return nil, errors.New("tinygo: request already accepted")
	}
	return reply{r.c}, nil
}

type reply struct{ c *conn }

func (rp reply) Send(context.Context) error {
	select {
	case <-rp.c.gone:
		return link.ErrDisconnected
	default:
		return nil
	}
}
