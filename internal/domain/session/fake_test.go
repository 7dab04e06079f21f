package session

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/termrelay/internal/domain/resolver"
	"github.com/GriffinCanCode/termrelay/internal/providers/terminal"
)

type fakeResolver struct {
	specs map[string]resolver.CommandSpec
}

func (r fakeResolver) Resolve(_ context.Context, target string) (resolver.CommandSpec, error) {
	spec, ok := r.specs[target]
	if !ok {
		return resolver.CommandSpec{}, &resolver.ResolutionError{Target: target, Kind: resolver.ErrNotFound}
	}
	return spec, nil
}

type fakeLauncher struct {
	mu      sync.Mutex
	handles []*fakeHandle
	sizes   [][2]int
	err     error
	prepare func(*fakeHandle)
}

func (l *fakeLauncher) Launch(_ context.Context, spec resolver.CommandSpec, cols, rows int) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, &terminal.LaunchError{Path: spec.Path, Err: l.err}
	}
	h := newFakeHandle(len(l.handles) + 100)
	if l.prepare != nil {
		l.prepare(h)
	}
	l.handles = append(l.handles, h)
	l.sizes = append(l.sizes, [2]int{cols, rows})
	return h, nil
}

func (l *fakeLauncher) launched() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.handles)
}

type fakeHandle struct {
	pid    int
	events chan terminal.Event

	mu          sync.Mutex
	writes      []byte
	writeErr    error
	stallWrites int
	resizeErr   error
	panicWrite  bool
	ignoreTerm  bool
	terminated  int
	killed      int
	closed      int

	exitOnce sync.Once
}

func newFakeHandle(pid int) *fakeHandle {
	return &fakeHandle{pid: pid, events: make(chan terminal.Event, 16)}
}

func (h *fakeHandle) PID() int    { return h.pid }
func (h *fakeHandle) TTY() string { return "/dev/pts/fake" }

func (h *fakeHandle) Events() <-chan terminal.Event { return h.events }

func (h *fakeHandle) Write(b []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panicWrite {
		panic("write exploded")
	}
	if h.writeErr != nil {
		return h.writeErr
	}
	if h.stallWrites > 0 {
		h.stallWrites--
		return terminal.ErrWriteTimeout
	}
	h.writes = append(h.writes, b...)
	return nil
}

func (h *fakeHandle) Resize(cols, rows int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.resizeErr
}

func (h *fakeHandle) Terminate() error {
	h.mu.Lock()
	h.terminated++
	ignore := h.ignoreTerm
	h.mu.Unlock()
	if !ignore {
		h.exit(terminal.ExitStatus{Code: -1, Signal: "SIGTERM", Reason: "terminated by SIGTERM"})
	}
	return nil
}

func (h *fakeHandle) Kill() error {
	h.mu.Lock()
	h.killed++
	h.mu.Unlock()
	h.exit(terminal.ExitStatus{Code: -1, Signal: "SIGKILL", Reason: "terminated by SIGKILL"})
	return nil
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	h.closed++
	h.mu.Unlock()
	h.closeEvents()
	return nil
}

func (h *fakeHandle) output(s string) {
	h.events <- terminal.Output{Data: []byte(s)}
}

func (h *fakeHandle) exit(status terminal.ExitStatus) {
	h.exitOnce.Do(func() {
		h.events <- terminal.Exited{Status: status}
		close(h.events)
	})
}

// closeEvents ends the stream without an Exited event.
func (h *fakeHandle) closeEvents() {
	h.exitOnce.Do(func() {
		close(h.events)
	})
}

func (h *fakeHandle) counts() (terminated, killed, closed int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.terminated, h.killed, h.closed
}

func (h *fakeHandle) written() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return string(h.writes)
}
