package peripheral

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

// Notifier pushes the value of one entry to the central at a fixed interval.
type Notifier struct {
	conn     link.Connection
	entry    *attr.Entry
	interval time.Duration
	pushes   atomic.Int64
}

func NewNotifier(conn link.Connection, entry *attr.Entry, interval time.Duration) *Notifier {
	return &Notifier{conn: conn, entry: entry, interval: interval}
}

// Run pushes the current value, waits one interval, and repeats. The first
// failed push ends it: a push only fails once the central is gone.
func (n *Notifier) Run(ctx context.Context) error {
	timer := time.NewTimer(n.interval)
	timer.Stop()
	defer timer.Stop()

	for {
		value := n.entry.Value()
		if err := n.conn.Notify(ctx, n.entry.Handle, value); err != nil {
			slog.Info("[notify] stopped", "name", n.entry.Name, "pushes", n.pushes.Load(), "error", err)
			return fmt.Errorf("peripheral: notify %s: %w", n.entry.Name, err)
		}
		n.pushes.Add(1)
		slog.Debug("[notify] pushed", "name", n.entry.Name, "value", fmt.Sprintf("% x", value))

		timer.Reset(n.interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Pushes returns the number of successful pushes.
func (n *Notifier) Pushes() int { return int(n.pushes.Load()) }
