// Package ws relays terminal sessions over WebSocket.
//
// One connection carries one session. The first frame must be a join
// within the join timeout; the server answers joined or join_failed.
// After that:
//
// Message Types (Client → Server):
//   - input: keystrokes, utf8 text or base64 bytes
//   - resize: new viewport size
//
// Message Types (Server → Client):
//   - output: base64 PTY bytes, in production order
//   - exit: final message, followed by a normal close frame
//
// A single writer goroutine sends outbound frames and pings. Any read
// failure or peer close ends the session and terminates its process.
// Malformed frames after the join are logged and ignored.
//
// Example Usage:
//
//	handler := ws.NewHandler(manager, ws.DefaultOptions(), metrics, log)
//	router.GET("/terminal/:target", handler.HandleTerminal)
package ws
