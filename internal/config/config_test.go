package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const sampleConfig = `
server:
  port: 9090
farm:
  placement: least_loaded
  machines:
    - name: prusa-xl
      capacity: {x: 300, y: 200, z: 400}
      config:
        nozzle: "0.4"
    - name: mk4
      capacity: {x: 100, y: 150, z: 350}
webhooks:
  retry_delay: 2s
  targets:
    - url: http://example.invalid/hook
      secret: s3cret
      events: [job_admitted, job_rejected]
logging:
  level: debug
  format: text
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "farm.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("expected default read timeout to survive, got %v", cfg.Server.ReadTimeout)
	}
	if cfg.Farm.Placement != "least_loaded" {
		t.Errorf("expected least_loaded, got %s", cfg.Farm.Placement)
	}
	if len(cfg.Farm.Machines) != 2 {
		t.Fatalf("expected 2 machines, got %d", len(cfg.Farm.Machines))
	}
	m := cfg.Farm.Machines[0]
	if m.Name != "prusa-xl" || m.Capacity != (CapacityConfig{X: 300, Y: 200, Z: 400}) {
		t.Errorf("unexpected first machine: %+v", m)
	}
	if m.Config["nozzle"] != "0.4" {
		t.Errorf("expected nozzle 0.4, got %q", m.Config["nozzle"])
	}
	if cfg.Webhooks.RetryDelay != 2*time.Second {
		t.Errorf("expected retry delay 2s, got %v", cfg.Webhooks.RetryDelay)
	}
	if cfg.Webhooks.RetryCount != 3 {
		t.Errorf("expected default retry count 3, got %d", cfg.Webhooks.RetryCount)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Farm.Placement != "earliest_available" {
		t.Errorf("expected default placement, got %s", cfg.Farm.Placement)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FARM_PORT", "7000")
	t.Setenv("FARM_PLACEMENT", "round_robin")
	t.Setenv("FARM_LOG_LEVEL", "warn")

	cfg := LoadFromEnv()
	if cfg.Server.Port != 7000 {
		t.Errorf("expected port 7000, got %d", cfg.Server.Port)
	}
	if cfg.Farm.Placement != "round_robin" {
		t.Errorf("expected round_robin, got %s", cfg.Farm.Placement)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected warn, got %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server port"},
		{"bad placement", func(c *Config) { c.Farm.Placement = "best_fit" }, "placement"},
		{"unnamed machine", func(c *Config) {
			c.Farm.Machines = []MachineConfig{{Capacity: CapacityConfig{X: 1, Y: 1, Z: 1}}}
		}, "name is required"},
		{"duplicate machine", func(c *Config) {
			m := MachineConfig{Name: "a", Capacity: CapacityConfig{X: 1, Y: 1, Z: 1}}
			c.Farm.Machines = []MachineConfig{m, m}
		}, "duplicate"},
		{"zero capacity", func(c *Config) {
			c.Farm.Machines = []MachineConfig{{Name: "a", Capacity: CapacityConfig{X: 1, Z: 1}}}
		}, "capacity"},
		{"short secret", func(c *Config) {
			c.Auth = AuthConfig{Enabled: true, JWTSecret: "short", PasswordHash: "x", TokenTTL: time.Hour}
		}, "jwt secret"},
		{"missing hash", func(c *Config) {
			c.Auth = AuthConfig{Enabled: true, JWTSecret: strings.Repeat("k", 32), TokenTTL: time.Hour}
		}, "password hash"},
		{"webhook event", func(c *Config) {
			c.Webhooks.Targets = []WebhookTarget{{URL: "http://x", Events: []string{"job_started"}}}
		}, "unknown event"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "log level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
