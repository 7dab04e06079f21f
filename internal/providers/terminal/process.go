package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/shared/utils"
	"github.com/creack/pty"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Process is a running command attached to a PTY. It is owned by exactly
// one caller; Events must be drained until it closes or Close is called.
type Process struct {
	cmd  *exec.Cmd
	ptmx *os.File
	tty  string
	opts Options
	log  *logging.Logger

	events   chan Event
	writes   chan []byte
	released chan struct{}
	waitDone chan struct{}
	readDone chan struct{}
	done     chan struct{}

	running   atomic.Bool
	closeOnce sync.Once

	mu         sync.Mutex
	cols, rows int
	failReason string
}

func newProcess(cmd *exec.Cmd, ptmx *os.File, tty string, cols, rows int, opts Options, log *logging.Logger) *Process {
	p := &Process{
		cmd:      cmd,
		ptmx:     ptmx,
		tty:      tty,
		opts:     opts,
		log:      log.With(zap.Int("pid", cmd.Process.Pid)),
		events:   make(chan Event, opts.EventBuffer),
		writes:   make(chan []byte, opts.WriteQueue),
		released: make(chan struct{}),
		waitDone: make(chan struct{}),
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
		cols:     cols,
		rows:     rows,
	}
	p.running.Store(true)

	go p.readLoop()
	go p.writeLoop()
	go p.waitLoop()

	return p
}

// PID returns the child's process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// TTY returns the subordinate device name, e.g. /dev/pts/3.
func (p *Process) TTY() string {
	return p.tty
}

// Size returns the last accepted window size.
func (p *Process) Size() (cols, rows int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cols, p.rows
}

// Running reports whether the child has not yet been reaped.
func (p *Process) Running() bool {
	return p.running.Load()
}

// Events yields Output chunks in read order, then one Exited, then closes.
func (p *Process) Events() <-chan Event {
	return p.events
}

// Done is closed once all process goroutines have finished.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Write queues b for the child's input. Writes are applied in call order.
// A failed PTY write terminates the child; the failure becomes the exit reason.
func (p *Process) Write(b []byte) error {
	if !p.Running() {
		return ErrNotRunning
	}
	buf := make([]byte, len(b))
	copy(buf, b)

	timer := time.NewTimer(p.opts.WriteTimeout)
	defer timer.Stop()

	select {
	case p.writes <- buf:
		return nil
	case <-p.waitDone:
		return ErrNotRunning
	case <-p.released:
		return ErrNotRunning
	case <-timer.C:
		return ErrWriteTimeout
	}
}

// Resize changes the PTY window size.
func (p *Process) Resize(cols, rows int) error {
	if err := utils.ValidateViewport(cols, rows); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSize, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.Running() {
		return ErrNotRunning
	}
	if err := pty.Setsize(p.ptmx, winsize(cols, rows)); err != nil {
		return fmt.Errorf("set size: %w", err)
	}
	p.cols, p.rows = cols, rows
	return nil
}

// Terminate hangs up the child's process group, then sends it SIGTERM.
// Interactive shells ignore SIGTERM but exit on SIGHUP.
func (p *Process) Terminate() error {
	if err := p.signal(unix.SIGHUP); err != nil {
		return err
	}
	if err := p.signal(unix.SIGTERM); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return nil
}

// Kill sends SIGKILL to the child's process group.
func (p *Process) Kill() error {
	return p.signal(unix.SIGKILL)
}

func (p *Process) signal(sig syscall.Signal) error {
	if !p.Running() {
		return ErrNotRunning
	}
	// The child leads its own session, so its pid is also its group id.
	if err := unix.Kill(-p.PID(), sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return ErrNotRunning
		}
		return fmt.Errorf("signal %s: %w", unix.SignalName(sig), err)
	}
	return nil
}

// Close releases the process. A live child is killed first. Close waits
// for the process goroutines and is safe to call more than once.
func (p *Process) Close() error {
	p.closeOnce.Do(func() {
		if p.Running() {
			if err := p.Kill(); err != nil && !errors.Is(err, ErrNotRunning) {
				p.log.Warn("Failed to kill process", zap.Error(err))
			}
		}
		close(p.released)
	})
	<-p.done
	return nil
}

func (p *Process) emit(ev Event) bool {
	select {
	case p.events <- ev:
		return true
	case <-p.released:
		return false
	}
}

func (p *Process) readLoop() {
	defer close(p.readDone)

	buf := make([]byte, p.opts.ReadBufferSize)
	for {
		n, err := p.ptmx.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !p.emit(Output{Data: chunk}) {
				return
			}
		}
		if err != nil {
			// EIO once the last subordinate fd is closed
			return
		}
	}
}

func (p *Process) writeLoop() {
	for {
		select {
		case b := <-p.writes:
			if _, err := p.ptmx.Write(b); err != nil {
				p.failWrite(err)
				return
			}
		case <-p.waitDone:
			return
		case <-p.released:
			return
		}
	}
}

func (p *Process) failWrite(err error) {
	select {
	case <-p.waitDone:
		return
	default:
	}

	p.mu.Lock()
	if p.failReason == "" {
		p.failReason = "write failed: " + err.Error()
	}
	p.mu.Unlock()

	p.log.Warn("PTY write failed, terminating process", zap.Error(err))
	if err := p.Terminate(); err != nil && !errors.Is(err, ErrNotRunning) {
		p.log.Warn("Failed to terminate process", zap.Error(err))
	}
}

func (p *Process) waitLoop() {
	defer close(p.done)

	waitErr := p.cmd.Wait()

	p.mu.Lock()
	p.running.Store(false)
	reason := p.failReason
	p.mu.Unlock()
	close(p.waitDone)

	status := exitStatus(p.cmd.ProcessState, waitErr)
	if reason != "" {
		status.Reason = reason + " (" + status.Reason + ")"
	}

	// Let the reader drain what the child wrote before it exited.
	drain := time.NewTimer(p.opts.DrainTimeout)
	select {
	case <-p.readDone:
	case <-drain.C:
	case <-p.released:
	}
	drain.Stop()

	if err := p.ptmx.Close(); err != nil {
		p.log.Debug("PTY close failed", zap.Error(err))
	}
	<-p.readDone

	p.log.Info("Process exited",
		zap.Int("code", status.Code),
		zap.String("signal", status.Signal),
		zap.String("reason", status.Reason))

	p.emit(Exited{Status: status})
	close(p.events)
}

func exitStatus(state *os.ProcessState, waitErr error) ExitStatus {
	if state == nil {
		return ExitStatus{Code: -1, Reason: fmt.Sprintf("wait failed: %v", waitErr)}
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		return ExitStatus{
			Code:   -1,
			Signal: unix.SignalName(sig),
			Reason: "terminated by " + unix.SignalName(sig),
		}
	}
	code := state.ExitCode()
	if code == 0 {
		return ExitStatus{Code: 0, Reason: "process exited"}
	}
	return ExitStatus{Code: code, Reason: fmt.Sprintf("process exited with status %d", code)}
}
