// Package link defines the boundary between the peripheral logic and the
// underlying link/transport stack: advertising, connection events, replies
// to attribute requests and notifications.
package link

import (
	"context"
	"errors"
	"fmt"

	"github.com/chaz8081/iot-peripheral/internal/ble/adv"
	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
)

//go:generate mockgen -destination=mock_link/mock_link.go -package=mock_link . Stack,Connection,Request,Reply

var (
	// ErrDisconnected is returned by operations on a connection that has gone away.
	ErrDisconnected = errors.New("link: disconnected")
	// ErrFatal wraps every error returned by a stack's driver. The link-layer
	// state machine cannot be resumed after one.
	ErrFatal = errors.New("link: fatal driver error")
	// ErrMaxConnections is returned by Advertise while a connection is up.
	ErrMaxConnections = errors.New("link: connection limit reached")
)

// Stack is a link/transport stack able to serve one central at a time.
type Stack interface {
	// Advertise broadcasts d until a central connects, the driver fails, or
	// ctx is done. The radio is advertising only for the duration of the call.
	Advertise(ctx context.Context, d adv.Descriptor) (Connection, error)

	// Run pumps the link-layer state machine. It never returns nil; any
	// returned error wraps ErrFatal or ctx.Err().
	Run(ctx context.Context) error
}

// Connection is one established link.
type Connection interface {
	// Peer returns the address of the central.
	Peer() string

	// Next blocks until the next connection event. Events are delivered in
	// the order the link received them. After a Disconnected event every
	// further call returns ErrDisconnected.
	Next(ctx context.Context) (Event, error)

	// Notify pushes value for handle h to the central. It returns
	// ErrDisconnected once the link is down.
	Notify(ctx context.Context, h attr.Handle, value []byte) error
}

// Request is an attribute request awaiting exactly one reply.
type Request interface {
	Handle() attr.Handle
	// Data returns the payload of a write; nil for reads.
	Data() []byte
	// Accept takes the reply obligation for the request. For reads the
	// stack serializes the current value of the entry when the reply is sent.
	Accept() (Reply, error)
}

// Reply is the pending response to an accepted Request.
type Reply interface {
	Send(ctx context.Context) error
}

// Event is a connection event. The set of events is closed: Disconnected,
// Read, Write and Other.
type Event interface {
	event()
}

// Disconnected ends a connection. No events follow it.
type Disconnected struct {
	Reason Reason
}

// Read is a read request for a characteristic value.
type Read struct{ Request }

// Write is a write request carrying a payload that already matches the
// declared kind of its entry.
type Write struct{ Request }

// Other is any other attribute protocol request (discovery, MTU exchange,
// descriptor access). It still needs a reply.
type Other struct{ Request }

func (Disconnected) event() {}
func (Read) event()         {}
func (Write) event()        {}
func (Other) event()        {}

func (e Disconnected) String() string { return fmt.Sprintf("disconnected (%s)", e.Reason) }

// Reason is an HCI disconnect reason code.
type Reason uint8

const (
	ReasonTimeout          Reason = 0x08
	ReasonRemoteTerminated Reason = 0x13
	ReasonLocalHost        Reason = 0x16
)

func (r Reason) String() string {
	switch r {
	case ReasonTimeout:
		return "supervision timeout"
	case ReasonRemoteTerminated:
		return "remote user terminated"
	case ReasonLocalHost:
		return "local host terminated"
	default:
		return fmt.Sprintf("reason %#02x", uint8(r))
	}
}

// ATT error codes carried in replies.
const (
	StatusSuccess           byte = 0x00
	StatusInvalidHandle     byte = 0x01
	StatusReadNotPermitted  byte = 0x02
	StatusWriteNotPermitted byte = 0x03
	StatusInvalidLength     byte = 0x0d
)
