// Package main is the entry point for the terminal relay.
//
// The relay serves interactive terminals over websockets. A client that
// connects to /terminal/<target> and sends a join frame gets a freshly
// launched process behind a pseudo-terminal; the process lives exactly as
// long as the connection.
//
// Targets:
//   - shell: the user's login shell ($SHELL, else RESOLVER_DEFAULT_SHELL)
//   - builtins: names mapped to commands by RESOLVER_BUILTINS
//   - managed apps: entries in the orchestration state, located under
//     their install or development directories, then PATH
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Run the relay
//	./server serve --port 8000
//
//	# Development mode (colored logs, debug level)
//	./server serve --dev --log-level debug
//
//	# See what a target resolves to without launching it
//	./server resolve dashboard
//
//	# Use this terminal as the client
//	./server attach shell --url ws://localhost:8000
//
// Graceful Shutdown:
//
// On SIGINT or SIGTERM the server stops accepting connections, ends every
// live session (terminate, then kill after TERMINAL_GRACE_PERIOD) and
// drains in-flight requests.
package main
