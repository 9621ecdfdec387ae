package peripheral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

// Trigger selects what starts the notifier of a session.
type Trigger int

const (
	// TriggerRead starts the notifier on the first read of the status entry.
	TriggerRead Trigger = iota
	// TriggerConnect starts the notifier as soon as the session starts.
	TriggerConnect
)

func (t Trigger) String() string {
	if t == TriggerConnect {
		return "connect"
	}
	return "read"
}

// ParseTrigger parses "read" or "connect".
func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToLower(s) {
	case "", "read":
		return TriggerRead, nil
	case "connect":
		return TriggerConnect, nil
	default:
		return 0, fmt.Errorf("peripheral: unknown notifier trigger %q", s)
	}
}

// DefaultNotifyInterval is the spacing between status pushes.
const DefaultNotifyInterval = 2 * time.Second

// SessionOptions configures a Session.
type SessionOptions struct {
	NotifyInterval time.Duration
	Trigger        Trigger
	// Status names the entry pushed by the notifier. Defaults to attr.HealthStatus.
	Status string
}

// Session serves one connection.
type Session struct {
	conn   link.Connection
	table  *attr.Table
	opts   SessionOptions
	status *attr.Entry

	notifier     *Notifier
	stopNotifier context.CancelFunc
	notifierDone chan struct{}
}

func NewSession(conn link.Connection, table *attr.Table, opts SessionOptions) *Session {
	if opts.NotifyInterval <= 0 {
		opts.NotifyInterval = DefaultNotifyInterval
	}
	if opts.Status == "" {
		opts.Status = attr.HealthStatus
	}
	return &Session{conn: conn, table: table, opts: opts, status: table.ByName(opts.Status)}
}

// Serve dispatches events in arrival order until the central disconnects.
// It returns nil after a Disconnected event. The notifier, if started, has
// exited by the time Serve returns.
func (s *Session) Serve(ctx context.Context) error {
	defer s.endNotifier()
	if s.opts.Trigger == TriggerConnect {
		s.startNotifier(ctx)
	}
	for {
		ev, err := s.conn.Next(ctx)
		if err != nil {
			return fmt.Errorf("peripheral: next event: %w", err)
		}
		if d, ok := ev.(link.Disconnected); ok {
			slog.Info("[gatt] disconnected", "peer", s.conn.Peer(), "reason", d.Reason)
			return nil
		}
		s.dispatch(ctx, ev)
	}
}

// dispatch handles one request. The reply goes out exactly once on every
// path out of here, including a panicking handler.
func (s *Session) dispatch(ctx context.Context, ev link.Event) {
	ack := link.Acquire(link.RequestOf(ev))
	defer func() {
		if err := ack.Release(ctx); err != nil {
			slog.Warn("[gatt] error sending response", "error", err)
			return
		}
		slog.Debug("[gatt] reply sent")
	}()

	switch ev := ev.(type) {
	case link.Read:
		s.onRead(ctx, ev)
	case link.Write:
		s.onWrite(ev)
	case link.Other:
		slog.Debug("[gatt] other event", "handle", ev.Handle())
	}
}

func (s *Session) onRead(ctx context.Context, ev link.Read) {
	e, ok := s.table.Lookup(ev.Handle())
	if !ok {
		slog.Debug("[gatt] read of unknown handle", "handle", ev.Handle())
		return
	}
	slog.Info("[gatt] read event", "name", e.Name, "handle", e.Handle)
	if e == s.status && s.opts.Trigger == TriggerRead {
		s.startNotifier(ctx)
	}
}

func (s *Session) onWrite(ev link.Write) {
	e, ok := s.table.Lookup(ev.Handle())
	if !ok || !e.Writable() {
		slog.Debug("[gatt] write to unknown handle", "handle", ev.Handle())
		return
	}
	if err := e.Set(ev.Data()); err != nil {
		slog.Warn("[gatt] dropping write", "name", e.Name, "error", err)
		return
	}
	slog.Info("[gatt] write event", "name", e.Name, "handle", e.Handle, "value", fmt.Sprintf("% x", ev.Data()))
}

// startNotifier starts the notifier once per session.
func (s *Session) startNotifier(ctx context.Context) {
	if s.notifierDone != nil || s.status == nil {
		return
	}
	nctx, cancel := context.WithCancel(ctx)
	s.notifier = NewNotifier(s.conn, s.status, s.opts.NotifyInterval)
	s.stopNotifier = cancel
	s.notifierDone = make(chan struct{})
	slog.Info("[notify] starting", "name", s.status.Name, "interval", s.opts.NotifyInterval)
	go func() {
		defer close(s.notifierDone)
		if err := s.notifier.Run(nctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Debug("[notify] task ended", "error", err)
		}
	}()
}

func (s *Session) endNotifier() {
	if s.notifierDone == nil {
		return
	}
	s.stopNotifier()
	<-s.notifierDone
}

// Notifier returns the notifier of this session, or nil if it never started.
func (s *Session) Notifier() *Notifier { return s.notifier }
