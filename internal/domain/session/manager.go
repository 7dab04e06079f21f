package session

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/config"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termrelay/internal/shared/id"
	"github.com/GriffinCanCode/termrelay/internal/shared/utils"
	"go.uber.org/zap"
)

// Options tunes actors created by a Manager.
type Options struct {
	// GracePeriod bounds the wait for exit after Terminate before Kill.
	GracePeriod time.Duration
	// WriteRetry is how often input held back by a full process queue is retried.
	WriteRetry  time.Duration
	InboxSize   int
	OutboxSize  int
}

// DefaultOptions returns the actor defaults.
func DefaultOptions() Options {
	return Options{
		GracePeriod: 5 * time.Second,
		WriteRetry:  50 * time.Millisecond,
		InboxSize:   64,
		OutboxSize:  256,
	}
}

// OptionsFromConfig maps terminal configuration to actor options.
func OptionsFromConfig(cfg config.TerminalConfig) Options {
	opts := DefaultOptions()
	opts.GracePeriod = cfg.GracePeriod
	return opts
}

// Manager creates session actors. It keeps no registry of live sessions;
// each actor is owned by whoever joined it.
type Manager struct {
	resolver Resolver
	launcher Launcher
	opts     Options
	metrics  *monitoring.Metrics
	log      *logging.Logger
}

// NewManager creates a manager. metrics may be nil.
func NewManager(res Resolver, launcher Launcher, opts Options, metrics *monitoring.Metrics, log *logging.Logger) *Manager {
	d := DefaultOptions()
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = d.GracePeriod
	}
	if opts.WriteRetry <= 0 {
		opts.WriteRetry = d.WriteRetry
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = d.InboxSize
	}
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = d.OutboxSize
	}
	if log == nil {
		log = logging.NewNop()
	}

	return &Manager{
		resolver: res,
		launcher: launcher,
		opts:     opts,
		metrics:  metrics,
		log:      log.Named("session"),
	}
}

// Join resolves target and launches it at the requested viewport. A zero
// dimension takes the default. On failure no process is left running and
// the error is a *JoinError.
func (m *Manager) Join(ctx context.Context, target string, cols, rows int) (*Actor, error) {
	start := time.Now()

	actor, err := m.join(ctx, target, cols, rows)
	if m.metrics != nil {
		m.metrics.RecordJoin(joinResult(err), time.Since(start))
	}
	if err != nil {
		m.log.Info("Join failed", zap.String("target", target), zap.Error(err))
		return nil, joinError(err)
	}
	return actor, nil
}

func (m *Manager) join(ctx context.Context, target string, cols, rows int) (*Actor, error) {
	cols, rows = utils.ViewportOrDefault(cols, rows)
	if err := utils.ValidateViewport(cols, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidViewport, err)
	}

	spec, err := m.resolver.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}

	proc, err := m.launcher.Launch(ctx, spec, cols, rows)
	if err != nil {
		return nil, err
	}

	sess := Session{
		Key:       id.NewSessionKey(target),
		Target:    target,
		Viewport:  Viewport{Cols: cols, Rows: rows},
		CreatedAt: time.Now(),
	}
	log := m.log.With(
		zap.String("session", sess.Key.String()),
		zap.String("target", target),
		zap.Int("pid", proc.PID()),
	)

	actor := newActor(sess, proc, m.opts, m.metrics, log)
	log.Info("Session joined", zap.String("tty", proc.TTY()), zap.Int("cols", cols), zap.Int("rows", rows))
	return actor, nil
}
