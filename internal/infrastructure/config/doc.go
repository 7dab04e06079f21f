// Package config provides 12-factor configuration management for the terminal relay.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override selected values for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP listen address and allowed websocket origins
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting configuration
//   - Terminal: PTY buffer sizes, grace period, keepalive
//   - Resolver: Shell fallback, builtin targets, development root
//   - Orchestration: Where managed deployment state comes from
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Relay listening on %s\n", cfg.Server.Addr())
//
// Environment Variables:
//   - PORT, HOST, ALLOWED_ORIGINS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - TERMINAL_GRACE_PERIOD, TERMINAL_JOIN_TIMEOUT, TERMINAL_TERM, ...
//   - RESOLVER_DEFAULT_SHELL, RESOLVER_BUILTINS, RESOLVER_DEV_ROOT, ...
//   - ORCHESTRATION_URL, ORCHESTRATION_STATE_FILE, ORCHESTRATION_TIMEOUT
package config
