// Package peripheral runs the device: it advertises, serves one central at a
// time and pushes status notifications while a central is connected.
package peripheral

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaz8081/iot-peripheral/internal/ble/adv"
	"github.com/chaz8081/iot-peripheral/internal/ble/identity"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
)

// Advertise broadcasts d on behalf of id and blocks until a central connects
// or the stack fails. It does not retry.
func Advertise(ctx context.Context, stack link.Stack, id identity.Identity, d adv.Descriptor) (link.Connection, error) {
	slog.Info("[adv] advertising", "name", d.Name, "address", id.Address, "services", fmt.Sprintf("%#04x", d.ServiceIDs))
	conn, err := stack.Advertise(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("peripheral: advertise: %w", err)
	}
	slog.Info("[adv] connection established", "peer", conn.Peer())
	return conn, nil
}

// DefaultRetryMax caps the advertise backoff when no cap is configured.
const DefaultRetryMax = 5 * time.Second

// retryDelay returns base doubled per attempt and capped at max, or at
// DefaultRetryMax when max is not positive. A zero base means retry immediately.
func retryDelay(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if max <= 0 {
		max = DefaultRetryMax
	}
	if attempt > 30 {
		attempt = 30
	}
	delay := base << uint(attempt)
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}
