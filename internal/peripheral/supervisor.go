package peripheral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chaz8081/iot-peripheral/internal/ble/adv"
	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/identity"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

// Options configures a Supervisor.
type Options struct {
	AdvertiseInterval time.Duration
	// RetryDelay is the wait before the first re-advertise after an
	// advertising error; it doubles up to RetryMax. Zero retries at once.
	RetryDelay time.Duration
	RetryMax   time.Duration
	Session    SessionOptions
}

// Supervisor runs the link driver alongside the advertise/serve cycle.
type Supervisor struct {
	stack link.Stack
	table *attr.Table
	id    identity.Identity
	desc  adv.Descriptor
	opts  Options

	sessions atomic.Int64
	active   atomic.Int32
}

// NewSupervisor checks that the advertising payload for id and table fits
// before anything goes on air.
func NewSupervisor(stack link.Stack, table *attr.Table, id identity.Identity, opts Options) (*Supervisor, error) {
	desc := adv.NewDescriptor(id.Name, table, opts.AdvertiseInterval)
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("peripheral: %w", err)
	}
	return &Supervisor{stack: stack, table: table, id: id, desc: desc, opts: opts}, nil
}

// Descriptor returns what the supervisor advertises.
func (s *Supervisor) Descriptor() adv.Descriptor { return s.desc }

// Sessions returns the number of sessions started so far.
func (s *Supervisor) Sessions() int { return int(s.sessions.Load()) }

// Active reports whether a session is being served.
func (s *Supervisor) Active() bool { return s.active.Load() != 0 }

// Run runs until ctx is done or the link driver fails. A driver failure is
// returned wrapped in link.ErrFatal and also stops the serve loop.
func (s *Supervisor) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("[ble_task] driver starting")
		err := s.stack.Run(gctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil || !errors.Is(err, link.ErrFatal) {
			err = fmt.Errorf("%w: %v", link.ErrFatal, err)
		}
		slog.Error("[ble_task] driver stopped", "error", err)
		return fmt.Errorf("peripheral: link driver: %w", err)
	})
	g.Go(func() error {
		return s.serve(gctx)
	})
	return g.Wait()
}

// serve is the advertise/serve cycle. It only returns once ctx is done or
// the driver is gone.
func (s *Supervisor) serve(ctx context.Context) error {
	attempt := 0
	for {
		conn, err := Advertise(ctx, s.stack, s.id, s.desc)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, link.ErrFatal) {
				return err
			}
			delay := retryDelay(attempt, s.opts.RetryDelay, s.opts.RetryMax)
			attempt++
			slog.Error("[adv] error", "error", err, "attempt", attempt, "retry_in", delay)
			if delay > 0 {
				t := time.NewTimer(delay)
				select {
				case <-ctx.Done():
					t.Stop()
					return ctx.Err()
				case <-t.C:
				}
			}
			continue
		}
		attempt = 0

		s.sessions.Add(1)
		s.active.Store(1)
		err = NewSession(conn, s.table, s.opts.Session).Serve(ctx)
		s.active.Store(0)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, link.ErrFatal) {
				return err
			}
			slog.Warn("[gatt] session ended", "error", err)
		}
	}
}
