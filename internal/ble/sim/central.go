package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

// ErrNotConnected is returned by Central operations that need a connection.
var ErrNotConnected = errors.New("sim: central not connected")

// Notification is a value pushed by the peripheral.
type Notification struct {
	Handle attr.Handle
	Value  []byte
}

// Response is what the central receives for a request.
type Response struct {
	Status byte
	Value  []byte
}

// ATTError is a request answered with an error status.
type ATTError struct {
	Handle attr.Handle
	Status byte
}

func (e *ATTError) Error() string {
	return fmt.Sprintf("sim: att error %#02x on handle %d", e.Status, e.Handle)
}

// Central is a scripted peer. It is safe for use by one goroutine at a time.
type Central struct {
	s             *Stack
	addr          string
	notifications chan Notification

	mu   sync.Mutex
	conn *conn
}

// NewCentral returns a central with the given address.
func (s *Stack) NewCentral(addr string) *Central {
	return &Central{s: s, addr: addr, notifications: make(chan Notification, 16)}
}

// Notifications returns the values pushed to this central.
func (c *Central) Notifications() <-chan Notification { return c.notifications }

// Connected reports whether the central holds a live connection.
func (c *Central) Connected() bool {
	cn := c.current()
	if cn == nil {
		return false
	}
	select {
	case <-cn.gone:
		return false
	default:
		return true
	}
}

func (c *Central) current() *conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Connect waits until the peripheral is advertising and connects to it.
// Only one central can be connected at a time; the others wait for the next
// advertising cycle.
func (c *Central) Connect(ctx context.Context) error {
	req := &connectReq{central: c, result: make(chan *conn, 1)}
	if err := c.s.submit(ctx, connectOp{req}); err != nil {
		return err
	}
	cn, err := await(ctx, c.s, req.result)
	if err != nil {
		_ = c.s.submit(context.Background(), cancelConnect{req})
		return err
	}
	c.mu.Lock()
	c.conn = cn
	c.mu.Unlock()
	return nil
}

// Disconnect drops the connection with reason.
func (c *Central) Disconnect(ctx context.Context, reason link.Reason) error {
	cn := c.current()
	if cn == nil {
		return ErrNotConnected
	}
	done := make(chan struct{})
	if err := c.s.submit(ctx, disconnectOp{c: cn, reason: reason, done: done}); err != nil {
		return err
	}
	if _, err := await(ctx, c.s, done); err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = nil
	c.mu.Unlock()
	return nil
}

// Read reads the value at h.
func (c *Central) Read(ctx context.Context, h attr.Handle) ([]byte, error) {
	resp, err := c.roundTrip(ctx, kindRead, h, nil)
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// Write writes value to h and waits for the write response.
func (c *Central) Write(ctx context.Context, h attr.Handle, value []byte) error {
	_, err := c.roundTrip(ctx, kindWrite, h, append([]byte(nil), value...))
	return err
}

// Exchange sends a request that is neither a read nor a write, such as an
// MTU exchange, and waits for its response.
func (c *Central) Exchange(ctx context.Context) error {
	_, err := c.roundTrip(ctx, kindOther, 0, nil)
	return err
}

func (c *Central) roundTrip(ctx context.Context, kind requestKind, h attr.Handle, data []byte) (Response, error) {
	cn := c.current()
	if cn == nil {
		return Response{}, ErrNotConnected
	}
	r := &request{s: c.s, c: cn, kind: kind, handle: h, data: data, resp: make(chan Response, 1)}
	if err := c.s.submit(ctx, requestOp{r}); err != nil {
		return Response{}, err
	}
	select {
	case resp := <-r.resp:
		if resp.Status != link.StatusSuccess {
			return resp, &ATTError{Handle: h, Status: resp.Status}
		}
		return resp, nil
	case <-cn.gone:
		return Response{}, link.ErrDisconnected
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case <-c.s.dead:
		return Response{}, c.s.err
	}
}
