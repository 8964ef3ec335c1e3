package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backends the bridge server can drive.
const (
	BackendEcho = "echo"
	BackendPTY  = "pty"
)

// Config holds all application configuration.
type Config struct {
	Client    ClientConfig
	Bridge    BridgeConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ClientConfig holds session manager and terminal client settings.
type ClientConfig struct {
	URL            string        `envconfig:"COPILOT_URL" default:"ws://localhost:3000"`
	Token          string        `envconfig:"COPILOT_TOKEN"`
	ConnectTimeout time.Duration `envconfig:"COPILOT_CONNECT_TIMEOUT" default:"30s"`
	RetryMax       int           `envconfig:"COPILOT_RETRY_MAX" default:"3"`
	RetryDelay     time.Duration `envconfig:"COPILOT_RETRY_DELAY" default:"2s"`
	ProfilesPath   string        `envconfig:"COPILOT_PROFILES"`
	Profile        string        `envconfig:"COPILOT_PROFILE"`
}

// BridgeConfig holds reference bridge server settings.
type BridgeConfig struct {
	Host    string `envconfig:"BRIDGE_HOST" default:"0.0.0.0"`
	Port    string `envconfig:"BRIDGE_PORT" default:"3000"`
	APIKey  string `envconfig:"BRIDGE_API_KEY"`
	Backend string `envconfig:"BRIDGE_BACKEND" default:"echo"`
	Command string `envconfig:"BRIDGE_COMMAND" default:"copilot"`
	TLSCert string `envconfig:"BRIDGE_TLS_CERT"`
	TLSKey  string `envconfig:"BRIDGE_TLS_KEY"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-IP limits for WebSocket upgrades on the bridge.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			URL:            "ws://localhost:3000",
			ConnectTimeout: 30 * time.Second,
			RetryMax:       3,
			RetryDelay:     2 * time.Second,
		},
		Bridge: BridgeConfig{
			Host:    "0.0.0.0",
			Port:    "3000",
			Backend: BackendEcho,
			Command: "copilot",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
	}
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Client.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("COPILOT_CONNECT_TIMEOUT must be positive, got %s", c.Client.ConnectTimeout))
	}
	if c.Client.RetryMax < 0 {
		errs = append(errs, fmt.Errorf("COPILOT_RETRY_MAX must not be negative, got %d", c.Client.RetryMax))
	}
	if c.Client.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("COPILOT_RETRY_DELAY must not be negative, got %s", c.Client.RetryDelay))
	}
	switch c.Bridge.Backend {
	case BackendEcho, BackendPTY:
	default:
		errs = append(errs, fmt.Errorf("BRIDGE_BACKEND must be %q or %q, got %q", BackendEcho, BackendPTY, c.Bridge.Backend))
	}
	if (c.Bridge.TLSCert == "") != (c.Bridge.TLSKey == "") {
		errs = append(errs, errors.New("BRIDGE_TLS_CERT and BRIDGE_TLS_KEY must be set together"))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive when rate limiting is enabled"))
	}
	return errors.Join(errs...)
}

// Addr returns the bridge listen address.
func (b BridgeConfig) Addr() string {
	return b.Host + ":" + b.Port
}

// TLS reports whether the bridge serves wss.
func (b BridgeConfig) TLS() bool {
	return b.TLSCert != "" && b.TLSKey != ""
}
