// Package sim is an in-memory link/transport stack. Its driver goroutine owns
// the radio state (advertising, the single connection, queued centrals) and
// every operation reaches it as a message, the way a controller serializes
// host commands. Centrals are scripted through Central handles.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/chaz8081/iot-peripheral/internal/ble/adv"
	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

// Stats counts what the driver has done since creation.
type Stats struct {
	Advertisements int // advertise cycles started
	Connections    int
	Disconnects    int
	Events         int // requests delivered to the connection
	Rejected       int // requests answered by the stack itself
	Accepted       int
	Replies        int
	Notifications  int
}

// Stack is an in-memory link.Stack serving the attributes of one table.
type Stack struct {
	table *attr.Table

	ops     chan op
	running atomic.Bool

	failOnce sync.Once
	failed   chan struct{}
	failErr  error

	// dead is closed when Run returns; err holds the reason.
	dead chan struct{}
	err  error

	statsMu sync.Mutex
	stats   Stats

	// owned by the driver goroutine
	adv     *advertising
	conn    *conn
	pending []*connectReq
}

var _ link.Stack = (*Stack)(nil)

// New returns a stack serving t. Nothing happens until Run is called.
func New(t *attr.Table) *Stack {
	return &Stack{
		table:  t,
		ops:    make(chan op),
		failed: make(chan struct{}),
		dead:   make(chan struct{}),
	}
}

// Run is the link driver. It returns ctx.Err() when ctx is done and a
// wrapped link.ErrFatal after Fail; it never returns nil.
func (s *Stack) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: driver already running", link.ErrFatal)
	}
	slog.Debug("[sim] driver started")
	for {
		select {
		case <-ctx.Done():
			s.shutdown(ctx.Err())
			return ctx.Err()
		case <-s.failed:
			err := fmt.Errorf("%w: %v", link.ErrFatal, s.failErr)
			s.shutdown(err)
			return err
		case o := <-s.ops:
			o.apply(s)
		}
	}
}

// Fail makes the driver stop with err, as a desynchronized controller would.
func (s *Stack) Fail(err error) {
	s.failOnce.Do(func() {
		s.failErr = err
		close(s.failed)
	})
}

// Stats returns a snapshot of the counters.
func (s *Stack) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

func (s *Stack) count(f func(*Stats)) {
	s.statsMu.Lock()
	f(&s.stats)
	s.statsMu.Unlock()
}

func (s *Stack) shutdown(err error) {
	s.err = err
	if s.conn != nil {
		close(s.conn.gone)
		s.conn = nil
	}
	close(s.dead)
	slog.Debug("[sim] driver stopped", "error", err)
}

// submit hands o to the driver.
func (s *Stack) submit(ctx context.Context, o op) error {
	select {
	case s.ops <- o:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.dead:
		return s.err
	}
}

// await waits for the driver's answer on ch.
func await[T any](ctx context.Context, s *Stack, ch <-chan T) (T, error) {
	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.dead:
		return zero, s.err
	}
}

type advertising struct {
	d      adv.Descriptor
	result chan advResult
}

type advResult struct {
	conn *conn
	err  error
}

// Advertise broadcasts d until a central connects. The descriptor is checked
// against the payload budget before the radio is touched.
func (s *Stack) Advertise(ctx context.Context, d adv.Descriptor) (link.Connection, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("sim: advertise: %w", err)
	}
	a := &advertising{d: d, result: make(chan advResult, 1)}
	if err := s.submit(ctx, startAdv{a}); err != nil {
		return nil, err
	}
	r, err := await(ctx, s, a.result)
	if err != nil {
		// A central may have connected while we gave up; stopAdv drops it.
		_ = s.submit(context.Background(), stopAdv{a})
		return nil, err
	}
	if r.err != nil {
		return nil, r.err
	}
	return r.conn, nil
}

// driver-side operations

type op interface {
	apply(s *Stack)
}

type startAdv struct{ a *advertising }

func (o startAdv) apply(s *Stack) {
	switch {
	case s.conn != nil:
		o.a.result <- advResult{err: link.ErrMaxConnections}
		return
	case s.adv != nil:
		o.a.result <- advResult{err: errors.New("sim: already advertising")}
		return
	}
	s.adv = o.a
	s.count(func(st *Stats) { st.Advertisements++ })
	slog.Debug("[sim] advertising", "name", o.a.d.Name, "interval", o.a.d.Interval)
	if len(s.pending) > 0 {
		req := s.pending[0]
		s.pending = s.pending[1:]
		s.connect(req)
	}
}

type stopAdv struct{ a *advertising }

func (o stopAdv) apply(s *Stack) {
	if s.adv == o.a {
		s.adv = nil
		return
	}
	if s.conn != nil && s.conn.adv == o.a {
		s.closeConn(link.ReasonLocalHost)
	}
}

type connectReq struct {
	central *Central
	result  chan *conn
}

type connectOp struct{ req *connectReq }

func (o connectOp) apply(s *Stack) {
	if s.adv != nil && s.conn == nil {
		s.connect(o.req)
		return
	}
	s.pending = append(s.pending, o.req)
}

type cancelConnect struct{ req *connectReq }

func (o cancelConnect) apply(s *Stack) {
	for i, p := range s.pending {
		if p == o.req {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
	if s.conn != nil && s.conn.req == o.req {
		s.closeConn(link.ReasonRemoteTerminated)
	}
}

func (s *Stack) connect(req *connectReq) {
	c := newConn(s, req, s.adv)
	s.conn = c
	s.adv = nil
	s.count(func(st *Stats) { st.Connections++ })
	slog.Debug("[sim] connected", "peer", req.central.addr)
	c.adv.result <- advResult{conn: c}
	req.result <- c
}

func (s *Stack) closeConn(reason link.Reason) {
	c := s.conn
	s.conn = nil
	c.events.Push(link.Disconnected{Reason: reason})
	close(c.gone)
	s.count(func(st *Stats) { st.Disconnects++ })
	slog.Debug("[sim] disconnected", "peer", c.Peer(), "reason", reason)
}

type disconnectOp struct {
	c      *conn
	reason link.Reason
	done   chan struct{}
}

func (o disconnectOp) apply(s *Stack) {
	if s.conn == o.c {
		s.closeConn(o.reason)
	}
	close(o.done)
}

type requestOp struct{ r *request }

// apply performs the checks a GATT server does before the application sees a
// request: access rights and value shape. Unknown handles are passed on and
// answered with an error status when the reply is sent.
func (o requestOp) apply(s *Stack) {
	r := o.r
	if s.conn != r.c {
		return
	}
	if e, ok := s.table.Lookup(r.handle); ok {
		status := link.StatusSuccess
		switch r.kind {
		case kindRead:
			if !e.Readable() {
				status = link.StatusReadNotPermitted
			}
		case kindWrite:
			if !e.Writable() {
				status = link.StatusWriteNotPermitted
			} else if err := e.Kind.Validate(r.data); err != nil {
				slog.Debug("[sim] rejected write", "handle", r.handle, "error", err)
				status = link.StatusInvalidLength
			}
		}
		if status != link.StatusSuccess {
			s.count(func(st *Stats) { st.Rejected++ })
			r.resp <- Response{Status: status}
			return
		}
	}
	r.c.events.Push(r.event())
	s.count(func(st *Stats) { st.Events++ })
}

type replyOp struct {
	r    *request
	done chan error
}

// apply answers the central. Read replies carry the value current at the
// time the reply goes out.
func (o replyOp) apply(s *Stack) {
	r := o.r
	if s.conn != r.c {
		o.done <- link.ErrDisconnected
		return
	}
	resp := Response{Status: link.StatusSuccess}
	if r.kind != kindOther {
		e, ok := s.table.Lookup(r.handle)
		switch {
		case !ok:
			resp.Status = link.StatusInvalidHandle
		case r.kind == kindRead:
			resp.Value = e.Value()
		}
	}
	s.count(func(st *Stats) { st.Replies++ })
	r.resp <- resp
	o.done <- nil
}

type notifyOp struct {
	c     *conn
	h     attr.Handle
	value []byte
	done  chan error
}

func (o notifyOp) apply(s *Stack) {
	if s.conn != o.c {
		o.done <- link.ErrDisconnected
		return
	}
	if e, ok := s.table.Lookup(o.h); !ok || !e.Notifiable() {
		o.done <- fmt.Errorf("sim: handle %d does not notify", o.h)
		return
	}
	s.count(func(st *Stats) { st.Notifications++ })
	select {
	case o.c.req.central.notifications <- Notification{Handle: o.h, Value: o.value}:
	default:
		slog.Warn("[sim] central is not draining notifications, dropping", "handle", o.h)
	}
	o.done <- nil
}
