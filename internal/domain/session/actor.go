package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termrelay/internal/providers/terminal"
	"go.uber.org/zap"
)

// exit causes, as recorded in metrics
const (
	causeProcessExit = "process_exit"
	causePeerClosed  = "peer_closed"
	causeWriteError  = "write_error"
	causeUnknown     = "unknown"
	causePanic       = "panic"
)

// Actor owns one process for the lifetime of one session. A single
// goroutine serves it; all process operations happen there.
type Actor struct {
	proc    Handle
	grace   time.Duration
	retry   time.Duration
	metrics *monitoring.Metrics
	log     *logging.Logger

	inbox     chan Inbound
	outbox    chan Outbound
	closeReq  chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	state atomic.Int32

	// pending is input the process queue could not take yet. While it is
	// set the inbox is not read, so senders block.
	pending []byte

	mu      sync.Mutex
	session Session
}

func newActor(sess Session, proc Handle, opts Options, metrics *monitoring.Metrics, log *logging.Logger) *Actor {
	a := &Actor{
		proc:     proc,
		grace:    opts.GracePeriod,
		retry:    opts.WriteRetry,
		metrics:  metrics,
		log:      log,
		inbox:    make(chan Inbound, opts.InboxSize),
		outbox:   make(chan Outbound, opts.OutboxSize),
		closeReq: make(chan struct{}),
		done:     make(chan struct{}),
		session:  sess,
	}
	a.setState(StateActive)
	if metrics != nil {
		metrics.IncSessionsActive()
	}

	go a.run()
	return a
}

// Session returns a snapshot of the session.
func (a *Actor) Session() Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// State returns the current lifecycle phase.
func (a *Actor) State() State {
	return State(a.state.Load())
}

// Outbound yields Output messages, then one Exited, then closes.
func (a *Actor) Outbound() <-chan Outbound {
	return a.outbox
}

// Done is closed when the actor has released its process.
func (a *Actor) Done() <-chan struct{} {
	return a.done
}

// Send delivers msg to the actor. It blocks while the inbox is full.
func (a *Actor) Send(ctx context.Context, msg Inbound) error {
	if a.State() >= StateTerminating {
		return ErrClosed
	}
	select {
	case a.inbox <- msg:
		return nil
	case <-a.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the process, waiting up to the grace period before
// killing it, and returns once the actor has finished. Closing a closed
// actor is a no-op.
func (a *Actor) Close() error {
	a.closeOnce.Do(func() {
		close(a.closeReq)
	})
	<-a.done
	return nil
}

func (a *Actor) setState(s State) {
	a.state.Store(int32(s))
}

func (a *Actor) run() {
	defer close(a.done)
	defer close(a.outbox)

	reason, cause := a.serve()

	a.setState(StateTerminating)
	a.emit(Exited{Reason: reason})
	a.release(cause)
	a.log.Info("Session closed", zap.String("reason", reason), zap.String("cause", cause))
}

// serve runs the active loop. A panic is converted into an exit after
// the child is killed.
func (a *Actor) serve() (reason, cause string) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("Session actor panicked", zap.Any("panic", r), zap.Stack("stack"))
			a.kill()
			reason, cause = panicReason(r), causePanic
		}
	}()
	return a.loop()
}

func (a *Actor) loop() (reason, cause string) {
	events := a.proc.Events()

	var retry *time.Ticker
	defer func() {
		if retry != nil {
			retry.Stop()
		}
	}()

	for {
		inbox := a.inbox
		var retryC <-chan time.Time
		if a.pending != nil {
			inbox = nil
			if retry == nil {
				retry = time.NewTicker(a.retry)
			}
			retryC = retry.C
		} else if retry != nil {
			retry.Stop()
			retry = nil
		}

		select {
		case msg := <-inbox:
			if err := a.handle(msg); err != nil {
				a.log.Warn("Input failed, treating process as dead", zap.Error(err))
				return a.terminate("input failed: "+err.Error(), causeWriteError)
			}

		case <-retryC:
			if err := a.flush(); err != nil {
				a.log.Warn("Input failed, treating process as dead", zap.Error(err))
				return a.terminate("input failed: "+err.Error(), causeWriteError)
			}

		case ev, ok := <-events:
			if !ok {
				return causeUnknown, causeUnknown
			}
			switch ev := ev.(type) {
			case terminal.Output:
				a.forward(ev.Data)
			case terminal.Exited:
				return ev.Status.Reason, causeProcessExit
			}

		case <-a.closeReq:
			return a.terminate("session closed", causePeerClosed)
		}
	}
}

func (a *Actor) handle(msg Inbound) error {
	switch msg := msg.(type) {
	case Input:
		if len(msg.Data) == 0 {
			return nil
		}
		a.pending = msg.Data
		return a.flush()
	case Resize:
		if err := a.proc.Resize(msg.Cols, msg.Rows); err != nil {
			a.log.Warn("Resize rejected", zap.Int("cols", msg.Cols), zap.Int("rows", msg.Rows), zap.Error(err))
			if a.metrics != nil {
				a.metrics.IncResizesRejected()
			}
			return nil
		}
		a.mu.Lock()
		a.session.Viewport = Viewport{Cols: msg.Cols, Rows: msg.Rows}
		a.mu.Unlock()
	default:
		a.log.Debug("Ignoring unknown inbound message")
	}
	return nil
}

// flush hands pending input to the process. A full process queue is not an
// error: the input stays pending and is retried while output keeps flowing.
func (a *Actor) flush() error {
	err := a.proc.Write(a.pending)
	if errors.Is(err, terminal.ErrWriteTimeout) {
		a.log.Debug("Process not reading input, holding back", zap.Int("bytes", len(a.pending)))
		if a.metrics != nil {
			a.metrics.IncInputStalls()
		}
		return nil
	}
	if err != nil {
		return err
	}
	if a.metrics != nil {
		a.metrics.AddBytesIn(len(a.pending))
	}
	a.pending = nil
	return nil
}

func (a *Actor) forward(data []byte) {
	if a.metrics != nil {
		a.metrics.AddBytesOut(len(data))
	}
	a.emit(Output{Data: data})
}

// terminate signals the process and waits up to the grace period for its
// exit, then kills it.
func (a *Actor) terminate(reason, cause string) (string, string) {
	a.setState(StateTerminating)

	if err := a.proc.Terminate(); err != nil && !errors.Is(err, terminal.ErrNotRunning) {
		a.log.Warn("Terminate failed", zap.Error(err))
	}

	timer := time.NewTimer(a.grace)
	defer timer.Stop()

	events := a.proc.Events()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return reason, cause
			}
			switch ev := ev.(type) {
			case terminal.Output:
				a.forward(ev.Data)
			case terminal.Exited:
				return reason + ": " + ev.Status.Reason, cause
			}
		case <-timer.C:
			a.log.Warn("Process ignored termination, killing", zap.Duration("grace", a.grace))
			a.kill()
			return reason + ": killed after grace period", cause
		}
	}
}

func (a *Actor) kill() {
	if err := a.proc.Kill(); err != nil && !errors.Is(err, terminal.ErrNotRunning) {
		a.log.Warn("Kill failed", zap.Error(err))
	}
}

// emit blocks until the peer takes msg, unless the session is closing, in
// which case msg is dropped when the outbox is full.
func (a *Actor) emit(msg Outbound) {
	select {
	case a.outbox <- msg:
	case <-a.closeReq:
		select {
		case a.outbox <- msg:
		default:
		}
	}
}

func (a *Actor) release(cause string) {
	if err := a.proc.Close(); err != nil {
		a.log.Warn("Process release failed", zap.Error(err))
	}
	a.setState(StateClosed)
	if a.metrics != nil {
		a.metrics.DecSessionsActive()
		a.metrics.RecordExit(cause)
	}
}
