package orchestration

import (
	"context"
	"errors"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/infrastructure/config"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/monitoring"
	"go.uber.org/zap"
)

// ErrUnavailable reports that the deployment state could not be read.
var ErrUnavailable = errors.New("orchestration state unavailable")

// AppState is the orchestrator's view of one managed deployment.
type AppState struct {
	Name             string            `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Version          string            `json:"version,omitempty" yaml:"version,omitempty" toml:"version,omitempty"`
	Status           string            `json:"status,omitempty" yaml:"status,omitempty" toml:"status,omitempty"`
	InstallationPath string            `json:"installation_path" yaml:"installation_path" toml:"installation_path"`
	Health           string            `json:"health,omitempty" yaml:"health,omitempty" toml:"health,omitempty"`
	Binary           string            `json:"binary,omitempty" yaml:"binary,omitempty" toml:"binary,omitempty"`
	Env              map[string]string `json:"env,omitempty" yaml:"env,omitempty" toml:"env,omitempty"`
}

// State maps target names to deployment entries.
type State map[string]AppState

// Lookup returns the entry for name with its Name populated.
func (s State) Lookup(name string) (AppState, bool) {
	app, ok := s[name]
	if !ok {
		return AppState{}, false
	}
	if app.Name == "" {
		app.Name = name
	}
	return app, true
}

// StateSource answers the current deployment state. Implementations are
// read-only and safe for concurrent use.
type StateSource interface {
	CurrentState(ctx context.Context) (State, error)
}

// StaticSource serves a fixed state.
type StaticSource struct {
	state State
}

// NewStaticSource copies state into a new source.
func NewStaticSource(state State) *StaticSource {
	copied := make(State, len(state))
	for name, app := range state {
		copied[name] = app
	}
	return &StaticSource{state: copied}
}

// CurrentState returns the configured state.
func (s *StaticSource) CurrentState(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.state, nil
}

// Instrumented records query outcomes for another source.
type Instrumented struct {
	source  StateSource
	metrics *monitoring.Metrics
}

// Instrument wraps source with metrics. A nil metrics returns source unchanged.
func Instrument(source StateSource, metrics *monitoring.Metrics) StateSource {
	if metrics == nil {
		return source
	}
	return &Instrumented{source: source, metrics: metrics}
}

// CurrentState delegates and records the result.
func (i *Instrumented) CurrentState(ctx context.Context) (State, error) {
	start := time.Now()
	state, err := i.source.CurrentState(ctx)
	result := "success"
	if err != nil {
		result = "error"
	}
	i.metrics.RecordStateQuery(result, time.Since(start))
	return state, err
}

// NewFromConfig selects a source: URL first, then state file, else empty.
func NewFromConfig(cfg config.OrchestrationConfig, log *logging.Logger) StateSource {
	switch {
	case cfg.URL != "":
		log.Info("Using orchestration service", zap.String("url", cfg.URL))
		return NewHTTPSource(cfg)
	case cfg.StateFile != "":
		log.Info("Using orchestration state file", zap.String("path", cfg.StateFile))
		return NewFileSource(cfg.StateFile)
	default:
		log.Info("No orchestration source configured, managed targets disabled")
		return NewStaticSource(nil)
	}
}
