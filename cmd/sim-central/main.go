// Command sim-central is a manual test for the peripheral. It runs the
// device on the in-memory backend, connects a scripted central, and prints
// what the central observes.
//
// Usage:
//
//	go run ./cmd/sim-central [--interval 2s] [--pushes 2] [--log debug]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
	"github.com/chaz8081/iot-peripheral/internal/ble/sim"
	"github.com/chaz8081/iot-peripheral/internal/config"
	"github.com/chaz8081/iot-peripheral/internal/peripheral"
)

func main() {
	interval := flag.Duration("interval", 2*time.Second, "notification interval")
	pushes := flag.Int("pushes", 2, "notifications to wait for before disconnecting")
	level := flag.String("log", "info", "log level: debug, info, warn, error")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(*level),
	})))

	cfg := config.Default()
	id, err := cfg.Identity()
	if err != nil {
		log.Fatalf("identity: %v", err)
	}
	table, err := attr.NewDefault(cfg.Device.GAPName)
	if err != nil {
		log.Fatalf("attribute table: %v", err)
	}
	stack := sim.New(table)
	sup, err := peripheral.NewSupervisor(stack, table, id, peripheral.Options{
		AdvertiseInterval: cfg.Advertising.Interval,
		Session:           peripheral.SessionOptions{NotifyInterval: *interval},
	})
	if err != nil {
		log.Fatalf("supervisor: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*pushes+5)*(*interval))
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- sup.Run(ctx) }()

	if err := script(ctx, stack, table, *pushes, *interval); err != nil {
		fmt.Printf("Error: %v\n", err)
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		fmt.Printf("Device stopped: %v\n", err)
	}
	st := stack.Stats()
	fmt.Printf("\nAdvertisements: %d  Connections: %d  Replies: %d/%d  Notifications: %d\n",
		st.Advertisements, st.Connections, st.Replies, st.Events, st.Notifications)
}

func script(ctx context.Context, stack *sim.Stack, table *attr.Table, pushes int, interval time.Duration) error {
	status := table.ByName(attr.HealthStatus)
	led := table.ByName(attr.LEDState)
	central := stack.NewCentral("11:22:33:44:55:66")

	fmt.Println("Connecting...")
	if err := central.Connect(ctx); err != nil {
		return err
	}
	fmt.Println("Connected")

	if err := central.Write(ctx, led.Handle, attr.EncodeBool(true)); err != nil {
		return err
	}
	fmt.Printf("Wrote led = true, device sees %v\n", led.Bool())

	v, err := central.Read(ctx, status.Handle)
	if err != nil {
		return err
	}
	fmt.Printf("Read status = % x\n", v)

	start := time.Now()
	for i := 0; i < pushes; i++ {
		select {
		case n := <-central.Notifications():
			fmt.Printf("Notification %d after %s: handle %d = % x\n", i+1, time.Since(start).Round(time.Millisecond), n.Handle, n.Value)
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := central.Disconnect(ctx, link.ReasonRemoteTerminated); err != nil {
		return err
	}
	fmt.Println("Disconnected")

	wait := time.Duration(0)
	for stack.Stats().Advertisements < 2 && wait < time.Second {
		time.Sleep(10 * time.Millisecond)
		wait += 10 * time.Millisecond
	}
	fmt.Printf("Re-advertising after %s\n", wait)

	select {
	case n := <-central.Notifications():
		return fmt.Errorf("unexpected notification after disconnect: %+v", n)
	case <-time.After(interval + interval/2):
	}
	fmt.Println("No notifications after disconnect")
	return nil
}
