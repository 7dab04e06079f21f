// Package http provides the relay's plain HTTP endpoints.
//
// Routes:
//   - GET /                     service identity
//   - GET /health               liveness
//   - GET /metrics              Prometheus metrics
//   - GET /resolve/:target      dry-run command resolution
//   - GET /ui/terminal/:target  browser terminal page (xterm.js)
//
// The websocket endpoint lives in package ws.
package http
