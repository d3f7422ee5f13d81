package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Farm      FarmConfig      `yaml:"farm"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Auth      AuthConfig      `yaml:"auth"`
	Webhooks  WebhooksConfig  `yaml:"webhooks"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type FarmConfig struct {
	Placement string          `yaml:"placement"`
	Machines  []MachineConfig `yaml:"machines"`
}

type MachineConfig struct {
	Name     string            `yaml:"name"`
	Capacity CapacityConfig    `yaml:"capacity"`
	Config   map[string]string `yaml:"config"`
}

type CapacityConfig struct {
	X uint32 `yaml:"x"`
	Y uint32 `yaml:"y"`
	Z uint32 `yaml:"z"`
}

type SchedulerConfig struct {
	QueueSize int `yaml:"queue_size"`
}

type AuthConfig struct {
	Enabled      bool          `yaml:"enabled"`
	JWTSecret    string        `yaml:"jwt_secret"`
	PasswordHash string        `yaml:"password_hash"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

type WebhooksConfig struct {
	Targets     []WebhookTarget `yaml:"targets"`
	RetryCount  int             `yaml:"retry_count"`
	RetryDelay  time.Duration   `yaml:"retry_delay"`
	Timeout     time.Duration   `yaml:"timeout"`
	WorkerCount int             `yaml:"worker_count"`
	QueueSize   int             `yaml:"queue_size"`
}

type WebhookTarget struct {
	Name   string   `yaml:"name"`
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret"`
	Events []string `yaml:"events"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var validPlacements = map[string]bool{
	"first_machine":      true,
	"round_robin":        true,
	"least_loaded":       true,
	"earliest_available": true,
}

var validEvents = map[string]bool{
	"job_admitted":    true,
	"batch_opened":    true,
	"job_rejected":    true,
	"job_removed":     true,
	"machine_removed": true,
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Farm: FarmConfig{
			Placement: "earliest_available",
		},
		Scheduler: SchedulerConfig{
			QueueSize: 64,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Webhooks: WebhooksConfig{
			RetryCount:  3,
			RetryDelay:  5 * time.Second,
			Timeout:     10 * time.Second,
			WorkerCount: 2,
			QueueSize:   100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the yaml file at configPath over the defaults. A missing file is
// not an error.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields from FARM_* environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("FARM_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	if v := os.Getenv("FARM_PLACEMENT"); v != "" {
		c.Farm.Placement = v
	}

	if v := os.Getenv("FARM_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}

	if v := os.Getenv("FARM_PASSWORD_HASH"); v != "" {
		c.Auth.PasswordHash = v
	}

	if v := os.Getenv("FARM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv("FARM_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if !validPlacements[c.Farm.Placement] {
		return fmt.Errorf("invalid placement policy: %s (valid: first_machine, round_robin, least_loaded, earliest_available)", c.Farm.Placement)
	}

	names := make(map[string]bool, len(c.Farm.Machines))
	for i, m := range c.Farm.Machines {
		if m.Name == "" {
			return fmt.Errorf("machine %d: name is required", i)
		}
		if names[m.Name] {
			return fmt.Errorf("machine %d: duplicate name %q", i, m.Name)
		}
		names[m.Name] = true
		if m.Capacity.X == 0 || m.Capacity.Y == 0 || m.Capacity.Z == 0 {
			return fmt.Errorf("machine %q: capacity must be positive on every axis", m.Name)
		}
	}

	if c.Scheduler.QueueSize < 1 {
		return fmt.Errorf("scheduler queue size must be at least 1")
	}

	if c.Auth.Enabled {
		if len(c.Auth.JWTSecret) < 16 {
			return fmt.Errorf("jwt secret must be at least 16 characters when auth is enabled")
		}
		if c.Auth.PasswordHash == "" {
			return fmt.Errorf("password hash is required when auth is enabled")
		}
		if c.Auth.TokenTTL <= 0 {
			return fmt.Errorf("token ttl must be positive")
		}
	}

	for i, t := range c.Webhooks.Targets {
		if t.URL == "" {
			return fmt.Errorf("webhook %d: url is required", i)
		}
		for _, e := range t.Events {
			if !validEvents[e] {
				return fmt.Errorf("webhook %d: unknown event %q", i, e)
			}
		}
	}

	if c.Webhooks.RetryCount < 0 {
		return fmt.Errorf("webhook retry count must be non-negative")
	}

	if c.Webhooks.RetryDelay < 0 {
		return fmt.Errorf("webhook retry delay must be non-negative")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":  true,
		"text":  true,
		"plain": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text, plain)", c.Logging.Format)
	}

	return nil
}
