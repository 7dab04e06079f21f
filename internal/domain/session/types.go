package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/domain/resolver"
	"github.com/GriffinCanCode/termrelay/internal/providers/terminal"
	"github.com/GriffinCanCode/termrelay/internal/shared/id"
)

// ErrClosed is returned when sending to an actor that has finished.
var ErrClosed = errors.New("session closed")

// ErrInvalidViewport is returned for a join with negative or oversized dimensions.
var ErrInvalidViewport = errors.New("invalid viewport")

// State is the lifecycle phase of an actor.
type State int32

const (
	StateJoining State = iota
	StateActive
	StateTerminating
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateTerminating:
		return "terminating"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Viewport is a character grid size.
type Viewport struct {
	Cols int
	Rows int
}

// Session identifies one client to process pairing.
type Session struct {
	Key       id.SessionKey
	Target    string
	Viewport  Viewport
	CreatedAt time.Time
}

// Inbound is a message from the peer: Input or Resize.
type Inbound interface {
	isInbound()
}

// Input is keystroke bytes for the process.
type Input struct {
	Data []byte
}

// Resize requests a new viewport.
type Resize struct {
	Cols int
	Rows int
}

func (Input) isInbound()  {}
func (Resize) isInbound() {}

// Outbound is a message for the peer: Output or Exited.
type Outbound interface {
	isOutbound()
}

// Output is raw process output.
type Output struct {
	Data []byte
}

// Exited is the last message of a session.
type Exited struct {
	Reason string
}

func (Output) isOutbound() {}
func (Exited) isOutbound() {}

// JoinError reports a failed join. Reason is suitable for the peer.
type JoinError struct {
	Reason string
	Err    error
}

func (e *JoinError) Error() string {
	return "join failed: " + e.Reason
}

func (e *JoinError) Unwrap() error {
	return e.Err
}

func joinError(err error) *JoinError {
	return &JoinError{Reason: err.Error(), Err: err}
}

// Resolver produces the launch spec for a target.
type Resolver interface {
	Resolve(ctx context.Context, target string) (resolver.CommandSpec, error)
}

// Handle is the actor's view of a launched process.
type Handle interface {
	PID() int
	TTY() string
	Write(b []byte) error
	Resize(cols, rows int) error
	Terminate() error
	Kill() error
	Events() <-chan terminal.Event
	Close() error
}

// Launcher starts a process for a resolved spec.
type Launcher interface {
	Launch(ctx context.Context, spec resolver.CommandSpec, cols, rows int) (Handle, error)
}

type ptyLauncher struct {
	launcher *terminal.Launcher
}

// NewPTYLauncher adapts a terminal.Launcher.
func NewPTYLauncher(l *terminal.Launcher) Launcher {
	return ptyLauncher{launcher: l}
}

func (l ptyLauncher) Launch(ctx context.Context, spec resolver.CommandSpec, cols, rows int) (Handle, error) {
	proc, err := l.launcher.Launch(ctx, spec, cols, rows)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

func joinResult(err error) string {
	var launchErr *terminal.LaunchError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidViewport):
		return "invalid_viewport"
	case errors.Is(err, resolver.ErrNotFound):
		return "not_found"
	case errors.Is(err, resolver.ErrMissingBinary):
		return "missing_binary"
	case errors.As(err, &launchErr):
		return "launch_error"
	default:
		return "error"
	}
}

func panicReason(r any) string {
	return fmt.Sprintf("internal error: %v", r)
}
