package tinygo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chaz8081/iot-peripheral/internal/ble/adv"
	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

// Stack is a link.Stack on top of a Radio. The host stack answers reads
// itself, so only writes and disconnects reach the connection as events.
type Stack struct {
	radio Radio
	table *attr.Table
	chars map[attr.Handle]Characteristic

	connected chan string

	mu          sync.Mutex
	advertising bool
	conn        *conn

	failOnce sync.Once
	failed   chan struct{}
	failErr  error
}

var _ link.Stack = (*Stack)(nil)

// New enables the radio and registers the vendor services of t. GAP and
// GATT services are owned by the host stack.
func New(r Radio, t *attr.Table) (*Stack, error) {
	s := &Stack{
		radio:     r,
		table:     t,
		chars:     make(map[attr.Handle]Characteristic),
		connected: make(chan string, 1),
		failed:    make(chan struct{}),
	}
	if err := r.Enable(); err != nil {
		return nil, fmt.Errorf("tinygo: enable adapter: %w", err)
	}
	r.SetConnectHandler(s.onConnect)

	for _, svc := range t.Services() {
		if !svc.IsVendor() {
			continue
		}
		specs := make([]CharacteristicSpec, 0, len(svc.Chars))
		for _, e := range svc.Chars {
			spec := CharacteristicSpec{Handle: e.Handle, UUID: e.UUID, Perm: e.Perm, Value: e.Value()}
			if e.Writable() {
				h := e.Handle
				spec.OnWrite = func(value []byte) { s.onWrite(h, value) }
			}
			specs = append(specs, spec)
		}
		chars, err := r.AddService(svc.UUID, specs)
		if err != nil {
			return nil, err
		}
		for h, c := range chars {
			s.chars[h] = c
		}
		slog.Debug("[tinygo] service registered", "service", svc.Name, "uuid", svc.UUID)
	}
	return s, nil
}

// Fail reports an unrecoverable adapter error; Run returns it.
func (s *Stack) Fail(err error) {
	s.failOnce.Do(func() {
		s.failErr = err
		close(s.failed)
	})
}

// Run watches the adapter. The host stack pumps its own state machine, so
// Run only returns on ctx or after Fail.
func (s *Stack) Run(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.failed:
		return fmt.Errorf("%w: %v", link.ErrFatal, s.failErr)
	}
}

func (s *Stack) fatal() error { return fmt.Errorf("%w: %v", link.ErrFatal, s.failErr) }

func (s *Stack) Advertise(ctx context.Context, d adv.Descriptor) (link.Connection, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("tinygo: advertise: %w", err)
	}
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		return nil, link.ErrMaxConnections
	}
	select {
	case <-s.connected:
	default:
	}
	s.advertising = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.advertising = false
		s.mu.Unlock()
	}()

	if err := s.radio.StartAdvertising(d); err != nil {
		return nil, fmt.Errorf("tinygo: start advertising: %w", err)
	}
	stop := func() {
		if err := s.radio.StopAdvertising(); err != nil {
			slog.Debug("[tinygo] stop advertising", "error", err)
		}
	}

	select {
	case peer := <-s.connected:
		stop()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.conn = newConn(s, peer)
		return s.conn, nil
	case <-ctx.Done():
		stop()
		return nil, ctx.Err()
	case <-s.failed:
		stop()
		return nil, s.fatal()
	}
}

func (s *Stack) onConnect(peer string, connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if connected {
		if s.conn != nil || !s.advertising {
			slog.Warn("[tinygo] ignoring connection outside an advertising cycle", "peer", peer)
			return
		}
		select {
		case s.connected <- peer:
		default:
		}
		return
	}
	if s.conn != nil && s.conn.peer == peer {
		s.conn.close(link.ReasonRemoteTerminated)
		s.conn = nil
	}
}

// onWrite rejects malformed values before they become events.
func (s *Stack) onWrite(h attr.Handle, value []byte) {
	e, ok := s.table.Lookup(h)
	if !ok {
		return
	}
	if err := e.Kind.Validate(value); err != nil {
		slog.Warn("[tinygo] rejected write", "handle", h, "error", err)
		return
	}
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return
	}
	c.events.Push(link.Write{Request: &request{c: c, handle: h, data: value}})
}
