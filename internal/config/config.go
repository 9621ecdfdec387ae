package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/iot-peripheral/internal/ble/adv"
	"github.com/chaz8081/iot-peripheral/internal/ble/identity"
)

// Config holds all device configuration.
type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Advertising AdvertisingConfig `yaml:"advertising"`
	Notifier    NotifierConfig    `yaml:"notifier"`
	Backend     string            `yaml:"backend"` // "sim" or "tinygo"
	LogLevel    string            `yaml:"log_level"`

	// Credentials come from the environment only and are never written out.
	Credentials Credentials `yaml:"-"`
}

// DeviceConfig holds the device identity.
type DeviceConfig struct {
	Name    string `yaml:"name"`     // advertised local name
	GAPName string `yaml:"gap_name"` // GAP device name characteristic
	Address string `yaml:"address"`
	// AddressSeedFile, when set, names a file whose contents derive the
	// address instead of Address.
	AddressSeedFile string `yaml:"address_seed_file"`
}

// AdvertisingConfig holds advertising settings.
type AdvertisingConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	RetryMax   time.Duration `yaml:"retry_max"`
}

// NotifierConfig holds status notification settings.
type NotifierConfig struct {
	Interval time.Duration `yaml:"interval"`
	Trigger  string        `yaml:"trigger"` // "read" or "connect"
}

// Credentials are network secrets provisioned alongside the firmware.
type Credentials struct {
	SSID     string
	Password string
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "iot-peripheral")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:    "Trouble Example",
			GAPName: "TrouBLE",
			Address: "ff:8f:1a:05:e4:ff",
		},
		Advertising: AdvertisingConfig{
			Interval: adv.DefaultInterval,
			RetryMax: 5 * time.Second,
		},
		Notifier: NotifierConfig{
			Interval: 2 * time.Second,
			Trigger:  "read",
		},
		Backend:     "sim",
		LogLevel:    "info",
		Credentials: credentialsFromEnv(),
	}
}

func credentialsFromEnv() Credentials {
	return Credentials{
		SSID:     envOr("SSID", "ssid"),
		Password: envOr("PASSWORD", "password"),
	}
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in address_seed_file is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Device.AddressSeedFile = expandTilde(cfg.Device.AddressSeedFile)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.Name == "" {
		return fmt.Errorf("device.name must not be empty")
	}
	if len(c.Device.Name) > adv.MaxNameLength {
		return fmt.Errorf("device.name must be at most %d bytes to fit the scan response, got %d", adv.MaxNameLength, len(c.Device.Name))
	}
	if c.Device.GAPName == "" {
		return fmt.Errorf("device.gap_name must not be empty")
	}
	if c.Device.AddressSeedFile == "" {
		addr, err := identity.ParseAddress(c.Device.Address)
		if err != nil {
			return fmt.Errorf("device.address: %w", err)
		}
		if !addr.IsStaticRandom() {
			return fmt.Errorf("device.address must be a static random address, got %s", addr)
		}
	}

	if c.Advertising.Interval <= 0 {
		return fmt.Errorf("advertising.interval must be > 0")
	}
	if c.Advertising.RetryDelay < 0 || c.Advertising.RetryMax < 0 {
		return fmt.Errorf("advertising.retry_delay and advertising.retry_max must not be negative")
	}

	if c.Notifier.Interval <= 0 {
		return fmt.Errorf("notifier.interval must be > 0")
	}
	switch c.Notifier.Trigger {
	case "read", "connect":
	default:
		return fmt.Errorf("notifier.trigger must be \"read\" or \"connect\", got %q", c.Notifier.Trigger)
	}

	switch c.Backend {
	case "sim", "tinygo":
	default:
		return fmt.Errorf("backend must be \"sim\" or \"tinygo\", got %q", c.Backend)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}

	return nil
}

// Identity returns the device identity, deriving the address from the seed
// file when one is configured.
func (c *Config) Identity() (identity.Identity, error) {
	if c.Device.AddressSeedFile != "" {
		seed, err := os.ReadFile(c.Device.AddressSeedFile)
		if err != nil {
			return identity.Identity{}, fmt.Errorf("reading address seed: %w", err)
		}
		return identity.Derive(c.Device.Name, []byte(strings.TrimSpace(string(seed))))
	}
	addr, err := identity.ParseAddress(c.Device.Address)
	if err != nil {
		return identity.Identity{}, err
	}
	return identity.New(c.Device.Name, addr)
}

const defaultConfigTemplate = `# iot-peripheral configuration
device:
  name: %q
  gap_name: %q
  address: %q
  # address_seed_file: ~/.config/iot-peripheral/seed
advertising:
  interval: %s
  retry_delay: %s
  retry_max: %s
notifier:
  interval: %s
  trigger: %s
backend: %s
log_level: %s
`

// WriteDefault writes the default config to DefaultConfigPath if no file
// exists there yet. It returns the path written, or "" if a file was
// already present.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	d := Default()
	content := fmt.Sprintf(defaultConfigTemplate,
		d.Device.Name, d.Device.GAPName, d.Device.Address,
		d.Advertising.Interval, d.Advertising.RetryDelay, d.Advertising.RetryMax,
		d.Notifier.Interval, d.Notifier.Trigger,
		d.Backend, d.LogLevel,
	)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// ParseLogLevel maps a log_level value to a slog level, defaulting to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
