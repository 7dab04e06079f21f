package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Server config
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())

	// Logging config
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	// Rate limit config
	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)

	// Terminal config
	assert.Equal(t, "xterm-256color", cfg.Terminal.Term)
	assert.Equal(t, 5*time.Second, cfg.Terminal.GracePeriod)
	assert.Equal(t, 8192, cfg.Terminal.ReadBufferSize)

	// Resolver config
	assert.Equal(t, "/bin/sh", cfg.Resolver.DefaultShell)
	assert.Equal(t, 3*time.Second, cfg.Resolver.QueryTimeout)

	// Orchestration config
	assert.Empty(t, cfg.Orchestration.URL)
	assert.Equal(t, uint32(5), cfg.Orchestration.FailureThreshold)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.Terminal, cfg.Terminal)
	assert.Equal(t, want.Orchestration, cfg.Orchestration)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":                     "9000",
		"HOST":                     "127.0.0.1",
		"ALLOWED_ORIGINS":          "http://localhost:3000,https://dash.example.com",
		"LOG_LEVEL":                "debug",
		"LOG_DEV":                  "true",
		"RATE_LIMIT_RPS":           "500",
		"RATE_LIMIT_ENABLED":       "false",
		"TERMINAL_GRACE_PERIOD":    "2s",
		"TERMINAL_TERM":            "xterm",
		"RESOLVER_DEFAULT_SHELL":   "/bin/bash",
		"RESOLVER_BUILTINS":        "top:top,htop:/usr/bin/htop",
		"RESOLVER_ARCH_DIRS":       "bin/linux_amd64,bin",
		"ORCHESTRATION_URL":        "http://orchestrator:4000",
		"ORCHESTRATION_STATE_FILE": "/etc/termrelay/state.yaml",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, []string{"http://localhost:3000", "https://dash.example.com"}, cfg.Server.AllowedOrigins)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)

	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)

	assert.Equal(t, 2*time.Second, cfg.Terminal.GracePeriod)
	assert.Equal(t, "xterm", cfg.Terminal.Term)

	assert.Equal(t, "/bin/bash", cfg.Resolver.DefaultShell)
	assert.Equal(t, map[string]string{"top": "top", "htop": "/usr/bin/htop"}, cfg.Resolver.Builtins)
	assert.Equal(t, []string{"bin/linux_amd64", "bin"}, cfg.Resolver.ArchDirs)

	assert.Equal(t, "http://orchestrator:4000", cfg.Orchestration.URL)
	assert.Equal(t, "/etc/termrelay/state.yaml", cfg.Orchestration.StateFile)
}

func TestLoggingConfig(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		dev       string
		wantLevel string
		wantDev   bool
	}{
		{"default values", "", "", "info", false},
		{"debug level", "debug", "", "debug", false},
		{"development mode", "", "true", "info", true},
		{"error level production", "error", "false", "error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.level != "" {
				t.Setenv("LOG_LEVEL", tt.level)
			}
			if tt.dev != "" {
				t.Setenv("LOG_DEV", tt.dev)
			}

			cfg := LoadOrDefault()

			assert.Equal(t, tt.wantLevel, cfg.Logging.Level)
			assert.Equal(t, tt.wantDev, cfg.Logging.Development)
		})
	}
}

func TestLoadOrDefaultOnInvalidValue(t *testing.T) {
	t.Setenv("TERMINAL_GRACE_PERIOD", "forever")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 5*time.Second, cfg.Terminal.GracePeriod)
}
