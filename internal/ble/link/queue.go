package link

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue is an unbounded FIFO of connection events. Push never blocks, so a
// driver can queue events while the session is busy replying through it.
type Queue struct {
	mu     sync.Mutex
	events []Event
	ready  chan struct{}
	over   atomic.Bool
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends ev.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop removes the oldest event, waiting for one if needed. Once a
// Disconnected event has been popped every later call returns
// ErrDisconnected. If stop is closed first, Pop returns stopErr().
func (q *Queue) Pop(ctx context.Context, stop <-chan struct{}, stopErr func() error) (Event, error) {
	if q.over.Load() {
		return nil, ErrDisconnected
	}
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events = q.events[1:]
			q.mu.Unlock()
			if _, ok := ev.(Disconnected); ok {
				q.over.Store(true)
			}
			return ev, nil
		}
		q.mu.Unlock()

		select {
		case <-q.ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-stop:
			return nil, stopErr()
		}
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
