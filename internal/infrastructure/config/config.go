package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Logging       LogConfig
	RateLimit     RateLimitConfig
	Terminal      TerminalConfig
	Resolver      ResolverConfig
	Orchestration OrchestrationConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// TerminalConfig holds session and PTY tuning.
type TerminalConfig struct {
	Term           string        `envconfig:"TERMINAL_TERM" default:"xterm-256color"`
	GracePeriod    time.Duration `envconfig:"TERMINAL_GRACE_PERIOD" default:"5s"`
	JoinTimeout    time.Duration `envconfig:"TERMINAL_JOIN_TIMEOUT" default:"10s"`
	WriteTimeout   time.Duration `envconfig:"TERMINAL_WRITE_TIMEOUT" default:"2s"`
	DrainTimeout   time.Duration `envconfig:"TERMINAL_DRAIN_TIMEOUT" default:"250ms"`
	PingInterval   time.Duration `envconfig:"TERMINAL_PING_INTERVAL" default:"30s"`
	ReadBufferSize int           `envconfig:"TERMINAL_READ_BUFFER" default:"8192"`
	MaxMessageSize int64         `envconfig:"TERMINAL_MAX_MESSAGE_SIZE" default:"1048576"`
}

// ResolverConfig holds command resolution settings.
//
// Builtins maps well-known target names to executables, e.g.
// RESOLVER_BUILTINS="top:top,htop:/usr/bin/htop".
type ResolverConfig struct {
	DefaultShell  string            `envconfig:"RESOLVER_DEFAULT_SHELL" default:"/bin/sh"`
	DevRoot       string            `envconfig:"RESOLVER_DEV_ROOT"`
	ArchDirs      []string          `envconfig:"RESOLVER_ARCH_DIRS"`
	Builtins      map[string]string `envconfig:"RESOLVER_BUILTINS"`
	CompanionAddr string            `envconfig:"RESOLVER_COMPANION_ADDR" default:"localhost:4000"`
	QueryTimeout  time.Duration     `envconfig:"RESOLVER_QUERY_TIMEOUT" default:"3s"`
}

// OrchestrationConfig selects the deployment state source.
// URL wins over StateFile; with neither, no managed targets exist.
type OrchestrationConfig struct {
	URL              string        `envconfig:"ORCHESTRATION_URL"`
	StateFile        string        `envconfig:"ORCHESTRATION_STATE_FILE"`
	Timeout          time.Duration `envconfig:"ORCHESTRATION_TIMEOUT" default:"3s"`
	FailureThreshold uint32        `envconfig:"ORCHESTRATION_FAILURE_THRESHOLD" default:"5"`
	Cooldown         time.Duration `envconfig:"ORCHESTRATION_COOLDOWN" default:"30s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
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
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Terminal: TerminalConfig{
			Term:           "xterm-256color",
			GracePeriod:    5 * time.Second,
			JoinTimeout:    10 * time.Second,
			WriteTimeout:   2 * time.Second,
			DrainTimeout:   250 * time.Millisecond,
			PingInterval:   30 * time.Second,
			ReadBufferSize: 8192,
			MaxMessageSize: 1 << 20,
		},
		Resolver: ResolverConfig{
			DefaultShell:  "/bin/sh",
			CompanionAddr: "localhost:4000",
			QueryTimeout:  3 * time.Second,
		},
		Orchestration: OrchestrationConfig{
			Timeout:          3 * time.Second,
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		},
	}
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}
