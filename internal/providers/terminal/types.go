package terminal

import (
	"errors"
	"fmt"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/config"
)

var (
	// ErrNotRunning is returned by operations on a process that has exited.
	ErrNotRunning = errors.New("process not running")
	// ErrInvalidSize is returned for non-positive or oversized dimensions.
	ErrInvalidSize = errors.New("invalid terminal size")
	// ErrWriteTimeout is returned when the input queue stayed full for
	// WriteTimeout. The child is alive but not reading; the write may be retried.
	ErrWriteTimeout = errors.New("write queue full")
	// ErrNotExecutable is returned when the command path cannot be executed.
	ErrNotExecutable = errors.New("not an executable file")
)

// LaunchError describes a failed launch.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// Event is emitted by a Process: zero or more Output, then one Exited.
type Event interface {
	isEvent()
}

// Output is a chunk of bytes read from the PTY, in read order.
type Output struct {
	Data []byte
}

// Exited is the final event of a process.
type Exited struct {
	Status ExitStatus
}

func (Output) isEvent() {}
func (Exited) isEvent() {}

// ExitStatus describes how a process ended.
type ExitStatus struct {
	Code   int
	Signal string
	Reason string
}

// Options tunes the launcher.
type Options struct {
	Term           string
	WriteTimeout   time.Duration
	DrainTimeout   time.Duration
	ReadBufferSize int
	WriteQueue     int
	EventBuffer    int
}

// DefaultOptions returns the launcher defaults.
func DefaultOptions() Options {
	return Options{
		Term:           "xterm-256color",
		WriteTimeout:   2 * time.Second,
		DrainTimeout:   250 * time.Millisecond,
		ReadBufferSize: 8192,
		WriteQueue:     64,
		EventBuffer:    64,
	}
}

// OptionsFromConfig maps terminal configuration to launcher options.
func OptionsFromConfig(cfg config.TerminalConfig) Options {
	opts := DefaultOptions()
	opts.Term = cfg.Term
	opts.WriteTimeout = cfg.WriteTimeout
	opts.DrainTimeout = cfg.DrainTimeout
	opts.ReadBufferSize = cfg.ReadBufferSize
	return opts
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Term == "" {
		o.Term = d.Term
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = d.WriteTimeout
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = d.DrainTimeout
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = d.ReadBufferSize
	}
	if o.WriteQueue <= 0 {
		o.WriteQueue = d.WriteQueue
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = d.EventBuffer
	}
	return o
}
