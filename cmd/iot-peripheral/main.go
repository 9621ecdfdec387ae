package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chaz8081/iot-peripheral/internal/ble/attr"
	"github.com/chaz8081/iot-peripheral/internal/ble/identity"
	"github.com/chaz8081/iot-peripheral/internal/ble/link"
	"github.com/chaz8081/iot-peripheral/internal/ble/sim"
	"github.com/chaz8081/iot-peripheral/internal/ble/tinygo"
	"github.com/chaz8081/iot-peripheral/internal/config"
	"github.com/chaz8081/iot-peripheral/internal/peripheral"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "path to config file (default: ~/.config/iot-peripheral/config.yaml)")
	backend := flag.String("backend", "", "link backend: sim or tinygo (overrides config)")
	initConfig := flag.Bool("init", false, "write the default config file and exit")
	flag.Parse()

	if *initConfig {
		path, err := config.WriteDefault()
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		if path == "" {
			log.Printf("Config already exists at %s", config.DefaultConfigPath())
		} else {
			log.Printf("Wrote %s", path)
		}
		return
	}

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config validation: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.LogLevel),
	})))

	id, err := cfg.Identity()
	if err != nil {
		log.Fatalf("identity: %v", err)
	}
	trigger, err := peripheral.ParseTrigger(cfg.Notifier.Trigger)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	table, err := attr.NewDefault(cfg.Device.GAPName)
	if err != nil {
		log.Fatalf("attribute table: %v", err)
	}

	stack, err := newStack(cfg.Backend, table)
	if err != nil {
		log.Fatalf("Failed to initialize %s backend: %v", cfg.Backend, err)
	}
	if cfg.Backend == "tinygo" && trigger == peripheral.TriggerRead {
		slog.Warn("[supervisor] the host stack answers reads itself; status notifications need notifier.trigger: connect")
	}

	sup, err := peripheral.NewSupervisor(stack, table, id, peripheral.Options{
		AdvertiseInterval: cfg.Advertising.Interval,
		RetryDelay:        cfg.Advertising.RetryDelay,
		RetryMax:          cfg.Advertising.RetryMax,
		Session: peripheral.SessionOptions{
			NotifyInterval: cfg.Notifier.Interval,
			Trigger:        trigger,
		},
	})
	if err != nil {
		log.Fatalf("supervisor: %v", err)
	}

	printBanner(cfg, id, table)

	// Signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Ready! Ctrl+C to quit.")
	err = sup.Run(ctx)
	if ctx.Err() != nil {
		log.Println("Goodbye!")
		return
	}
	if errors.Is(err, link.ErrFatal) {
		log.Fatalf("FATAL: %v", err)
	}
	log.Fatalf("ERROR: %v", err)
}

func newStack(backend string, table *attr.Table) (link.Stack, error) {
	switch backend {
	case "tinygo":
		radio, err := tinygo.NewDefaultRadio()
		if err != nil {
			return nil, err
		}
		return tinygo.New(radio, table)
	default:
		return sim.New(table), nil
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}

	// Try default config path
	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		log.Printf("Config loaded from %s", defaultPath)
		return cfg, nil
	}

	// No config file, use defaults
	log.Println("No config file found, using defaults")
	return config.Default(), nil
}

// printBanner displays the startup configuration summary.
func printBanner(cfg *config.Config, id identity.Identity, table *attr.Table) {
	fmt.Println("=== iot-peripheral ===")
	fmt.Printf("  Name:     %s\n", id.Name)
	fmt.Printf("  Address:  %s\n", id.Address)
	fmt.Printf("  Backend:  %s\n", cfg.Backend)
	fmt.Printf("  Advert:   every %s\n", cfg.Advertising.Interval)
	fmt.Printf("  Notify:   every %s (on %s)\n", cfg.Notifier.Interval, cfg.Notifier.Trigger)
	for _, e := range table.Entries() {
		fmt.Printf("  Handle:   %s\n", e)
	}
	fmt.Printf("  Log:      %s\n", cfg.LogLevel)
	fmt.Println("======================")
}
