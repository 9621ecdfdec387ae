package sim

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

// conn is the peripheral side of a connection.
type conn struct {
	s      *Stack
	req    *connectReq
	adv    *advertising
	events *link.Queue

	// gone is closed by the driver when the link drops.
	gone chan struct{}
}

var _ link.Connection = (*conn)(nil)

func newConn(s *Stack, req *connectReq, a *advertising) *conn {
	return &conn{
		s:      s,
		req:    req,
		adv:    a,
		events: link.NewQueue(),
		gone:   make(chan struct{}),
	}
}

func (c *conn) Peer() string { return c.req.central.addr }

func (c *conn) Next(ctx context.Context) (link.Event, error) {
	return c.events.Pop(ctx, c.s.dead, func() error { return c.s.err })
}

func (c *conn) Notify(ctx context.Context, h attr.Handle, value []byte) error {
	done := make(chan error, 1)
	v := append([]byte(nil), value...)
	if err := c.s.submit(ctx, notifyOp{c: c, h: h, value: v, done: done}); err != nil {
		return err
	}
	err, waitErr := await(ctx, c.s, done)
	if waitErr != nil {
		return waitErr
	}
	return err
}

type requestKind int

const (
	kindRead requestKind = iota
	kindWrite
	kindOther
)

// request is one attribute request from the central.
type request struct {
	s        *Stack
	c        *conn
	kind     requestKind
	handle   attr.Handle
	data     []byte
	resp     chan Response
	accepted atomic.Bool
}

var _ link.Request = (*request)(nil)

func (r *request) Handle() attr.Handle { return r.handle }
func (r *request) Data() []byte        { return r.data }

func (r *request) Accept() (link.Reply, error) {
	if !r.accepted.CompareAndSwap(false, true) {
		return nil, errors.New("sim: request already accepted")
	}
	r.s.count(func(st *Stats) { st.Accepted++ })
	return reply{r}, nil
}

func (r *request) event() link.Event {
	switch r.kind {
	case kindRead:
		return link.Read{Request: r}
	case kindWrite:
		return link.Write{Request: r}
	default:
		return link.Other{Request: r}
	}
}

type reply struct{ r *request }

func (rp reply) Send(ctx context.Context) error {
	done := make(chan error, 1)
	if err := rp.r.s.submit(ctx, replyOp{r: rp.r, done: done}); err != nil {
		return err
	}
	err, waitErr := await(ctx, rp.r.s, done)
	if waitErr != nil {
		return waitErr
	}
	return err
}
