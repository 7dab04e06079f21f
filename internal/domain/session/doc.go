// Package session runs terminal session actors.
//
// An Actor owns exactly one launched process. Its single goroutine selects
// over three sources:
//   - the inbox: Input is written to the process, Resize applied to the PTY
//   - process events: Output is forwarded opaquely, Exited ends the session
//   - a close request from the peer
//
// Lifecycle:
//
//	Joining -> Active -> Terminating -> Closed
//
// Join resolves and launches synchronously; any failure returns a
// *JoinError and no actor. Close from Active hangs up the process, waits up to the
// grace period for the exit, then kills and releases the process. The last
// message on Outbound is always Exited, after which the channel closes.
//
// Example Usage:
//
//	mgr := session.NewManager(res, session.NewPTYLauncher(launcher), session.DefaultOptions(), metrics, log)
//	actor, err := mgr.Join(ctx, "shell", 80, 24)
//	if err != nil {
//		return err
//	}
//	defer actor.Close()
//
//	_ = actor.Send(ctx, session.Input{Data: []byte("echo hi\n")})
//	for msg := range actor.Outbound() {
//		...
//	}
package session
