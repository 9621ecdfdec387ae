package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.Name != "Trouble Example" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "Trouble Example")
	}
	if cfg.Device.GAPName != "TrouBLE" {
		t.Errorf("Device.GAPName = %q, want %q", cfg.Device.GAPName, "TrouBLE")
	}
	if cfg.Device.Address != "ff:8f:1a:05:e4:ff" {
		t.Errorf("Device.Address = %q", cfg.Device.Address)
	}
	if cfg.Advertising.Interval != 20*time.Millisecond {
		t.Errorf("Advertising.Interval = %v, want 20ms", cfg.Advertising.Interval)
	}
	if cfg.Advertising.RetryDelay != 0 {
		t.Errorf("Advertising.RetryDelay = %v, want 0", cfg.Advertising.RetryDelay)
	}
	if cfg.Notifier.Interval != 2*time.Second {
		t.Errorf("Notifier.Interval = %v, want 2s", cfg.Notifier.Interval)
	}
	if cfg.Notifier.Trigger != "read" {
		t.Errorf("Notifier.Trigger = %q, want %q", cfg.Notifier.Trigger, "read")
	}
	if cfg.Backend != "sim" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "sim")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
device:
  name: Porch Sensor
  address: c0:11:22:33:44:55
advertising:
  interval: 100ms
  retry_delay: 250ms
notifier:
  interval: 5s
  trigger: connect
backend: tinygo
log_level: debug
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "Porch Sensor" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "Porch Sensor")
	}
	if cfg.Device.GAPName != "TrouBLE" {
		t.Errorf("Device.GAPName = %q, want default %q", cfg.Device.GAPName, "TrouBLE")
	}
	if cfg.Device.Address != "c0:11:22:33:44:55" {
		t.Errorf("Device.Address = %q", cfg.Device.Address)
	}
	if cfg.Advertising.Interval != 100*time.Millisecond {
		t.Errorf("Advertising.Interval = %v, want 100ms", cfg.Advertising.Interval)
	}
	if cfg.Advertising.RetryDelay != 250*time.Millisecond {
		t.Errorf("Advertising.RetryDelay = %v, want 250ms", cfg.Advertising.RetryDelay)
	}
	if cfg.Notifier.Interval != 5*time.Second {
		t.Errorf("Notifier.Interval = %v, want 5s", cfg.Notifier.Interval)
	}
	if cfg.Notifier.Trigger != "connect" {
		t.Errorf("Notifier.Trigger = %q, want %q", cfg.Notifier.Trigger, "connect")
	}
	if cfg.Backend != "tinygo" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "tinygo")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("device:\n  address_seed_file: ~/seed\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := filepath.Join(tmpHome, "seed")
	if cfg.Device.AddressSeedFile != want {
		t.Errorf("AddressSeedFile = %q, want %q", cfg.Device.AddressSeedFile, want)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Load() should return error for missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("advertising:\n  interval: soon\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should reject a duration it cannot parse")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty name",
			modify:  func(c *Config) { c.Device.Name = "" },
			wantErr: true,
		},
		{
			name:    "name too long for the scan response",
			modify:  func(c *Config) { c.Device.Name = strings.Repeat("x", 30) },
			wantErr: true,
		},
		{
			name:    "empty gap name",
			modify:  func(c *Config) { c.Device.GAPName = "" },
			wantErr: true,
		},
		{
			name:    "malformed address",
			modify:  func(c *Config) { c.Device.Address = "ff:8f:1a" },
			wantErr: true,
		},
		{
			name:    "public address",
			modify:  func(c *Config) { c.Device.Address = "00:11:22:33:44:55" },
			wantErr: true,
		},
		{
			name: "seed file replaces the address",
			modify: func(c *Config) {
				c.Device.Address = ""
				c.Device.AddressSeedFile = "/etc/iot-peripheral/seed"
			},
			wantErr: false,
		},
		{
			name:    "zero advertising interval",
			modify:  func(c *Config) { c.Advertising.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "negative retry delay",
			modify:  func(c *Config) { c.Advertising.RetryDelay = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero notifier interval",
			modify:  func(c *Config) { c.Notifier.Interval = 0 },
			wantErr: true,
		},
		{
			name:    "invalid trigger",
			modify:  func(c *Config) { c.Notifier.Trigger = "boot" },
			wantErr: true,
		},
		{
			name:    "invalid backend",
			modify:  func(c *Config) { c.Backend = "hci" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.LogLevel = "invalid" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("SSID", "home-net")
	t.Setenv("PASSWORD", "hunter2")
	cfg := Default()
	if cfg.Credentials.SSID != "home-net" || cfg.Credentials.Password != "hunter2" {
		t.Errorf("Credentials = %+v", cfg.Credentials)
	}
}

func TestCredentialsDefaults(t *testing.T) {
	t.Setenv("SSID", "")
	os.Unsetenv("SSID")
	t.Setenv("PASSWORD", "")
	os.Unsetenv("PASSWORD")
	cfg := Default()
	if cfg.Credentials.SSID != "ssid" || cfg.Credentials.Password != "password" {
		t.Errorf("Credentials = %+v, want placeholders", cfg.Credentials)
	}
}

func TestIdentity(t *testing.T) {
	cfg := Default()
	id, err := cfg.Identity()
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if id.Name != "Trouble Example" || id.Address.String() != "ff:8f:1a:05:e4:ff" {
		t.Errorf("Identity() = %v", id)
	}
}

func TestIdentityFromSeedFile(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed")
	if err := os.WriteFile(seed, []byte("device-0001\n"), 0600); err != nil {
		t.Fatalf("failed to write seed: %v", err)
	}
	cfg := Default()
	cfg.Device.AddressSeedFile = seed

	a, err := cfg.Identity()
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if !a.Address.IsStaticRandom() || a.Address.String() == cfg.Device.Address {
		t.Errorf("derived address = %v", a.Address)
	}
	b, _ := cfg.Identity()
	if a.Address != b.Address {
		t.Error("derivation must be stable")
	}

	cfg.Device.AddressSeedFile = filepath.Join(t.TempDir(), "missing")
	if _, err := cfg.Identity(); err == nil {
		t.Error("Identity() should fail for a missing seed file")
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	// Use a temp dir as fake home to avoid touching real config
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "iot-peripheral", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# iot-peripheral") {
		t.Error("written config should start with header comment")
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("written config does not validate: %v", err)
	}
	if cfg.Advertising.Interval != 20*time.Millisecond || cfg.Notifier.Interval != 2*time.Second {
		t.Errorf("written config intervals = %v, %v", cfg.Advertising.Interval, cfg.Notifier.Interval)
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "iot-peripheral")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	existingContent := []byte("backend: tinygo\n")
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty string for existing file", path)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(existingContent) {
		t.Error("WriteDefault() should not overwrite existing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
