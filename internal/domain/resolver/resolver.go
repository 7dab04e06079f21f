package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/domain/orchestration"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/config"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/shared/utils"
	"go.uber.org/zap"
)

// ShellTarget is the generic interactive shell.
const ShellTarget = "shell"

// CommandSpec describes how to launch a target.
type CommandSpec struct {
	Path string
	Args []string
	// Env is overlaid on the relay's own environment; entries win on collision.
	Env map[string]string
	// Dir is the working directory; empty inherits the relay's.
	Dir string
}

// Options configures a Resolver.
type Options struct {
	DefaultShell  string
	Term          string
	DevRoot       string
	ArchDirs      []string
	Builtins      map[string]string
	CompanionAddr string
	QueryTimeout  time.Duration
}

// OptionsFromConfig maps configuration to resolver options.
func OptionsFromConfig(cfg config.ResolverConfig, term string) Options {
	return Options{
		DefaultShell:  cfg.DefaultShell,
		Term:          term,
		DevRoot:       cfg.DevRoot,
		ArchDirs:      cfg.ArchDirs,
		Builtins:      cfg.Builtins,
		CompanionAddr: cfg.CompanionAddr,
		QueryTimeout:  cfg.QueryTimeout,
	}
}

// Resolver maps target names to launch specs.
type Resolver struct {
	opts   Options
	source orchestration.StateSource
	log    *logging.Logger

	getenv     func(string) string
	homeDir    func() (string, error)
	executable func(string) bool
}

// New creates a resolver. A nil source disables managed targets.
func New(opts Options, source orchestration.StateSource, log *logging.Logger) *Resolver {
	if opts.DefaultShell == "" {
		opts.DefaultShell = "/bin/sh"
	}
	if opts.Term == "" {
		opts.Term = "xterm-256color"
	}
	if len(opts.ArchDirs) == 0 {
		opts.ArchDirs = DefaultArchDirs
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = 3 * time.Second
	}
	if source == nil {
		source = orchestration.NewStaticSource(nil)
	}
	if log == nil {
		log = logging.NewNop()
	}

	return &Resolver{
		opts:       opts,
		source:     source,
		log:        log.Named("resolver"),
		getenv:     os.Getenv,
		homeDir:    os.UserHomeDir,
		executable: IsExecutable,
	}
}

// Resolve produces the launch spec for target. Failures are *ResolutionError.
func (r *Resolver) Resolve(ctx context.Context, target string) (CommandSpec, error) {
	if err := utils.ValidateTargetName(target); err != nil {
		return CommandSpec{}, notFound(target, err)
	}

	if target == ShellTarget {
		return r.resolveShell(target)
	}
	if value, ok := r.opts.Builtins[target]; ok {
		return r.resolveBuiltin(target, value)
	}
	return r.resolveManaged(ctx, target)
}

func (r *Resolver) resolveShell(target string) (CommandSpec, error) {
	shell := r.getenv("SHELL")
	if shell == "" || !r.executable(shell) {
		shell = r.opts.DefaultShell
	}
	if !r.executable(shell) {
		return CommandSpec{}, missingBinary(target, fmt.Errorf("shell %s is not executable", shell))
	}

	spec := CommandSpec{
		Path: shell,
		Args: []string{"-l"},
		Env:  map[string]string{"TERM": r.opts.Term},
	}
	if home, err := r.homeDir(); err == nil {
		if info, err := os.Stat(home); err == nil && info.IsDir() {
			spec.Dir = home
		}
	}
	return spec, nil
}

func (r *Resolver) resolveBuiltin(target, value string) (CommandSpec, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return CommandSpec{}, missingBinary(target, errors.New("empty builtin command"))
	}

	path, err := r.lookPath(fields[0])
	if err != nil {
		return CommandSpec{}, missingBinary(target, err)
	}

	return CommandSpec{
		Path: path,
		Args: fields[1:],
		Env: map[string]string{
			"TERM":           r.opts.Term,
			"COMPANION_ADDR": r.opts.CompanionAddr,
		},
	}, nil
}

func (r *Resolver) lookPath(binary string) (string, error) {
	if strings.ContainsRune(binary, filepath.Separator) {
		if !r.executable(binary) {
			return "", fmt.Errorf("%s is not executable", binary)
		}
		return binary, nil
	}
	paths := Expand(Candidates(binary, nil, nil, filepath.SplitList(r.getenv("PATH"))))
	if path, ok := SelectCandidate(paths, r.executable); ok {
		return path, nil
	}
	return "", fmt.Errorf("%s: %w", binary, exec.ErrNotFound)
}

func (r *Resolver) resolveManaged(ctx context.Context, target string) (CommandSpec, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.QueryTimeout)
	defer cancel()

	state, err := r.source.CurrentState(ctx)
	if err != nil {
		r.log.Warn("Orchestration state query failed", zap.String("target", target), zap.Error(err))
		return CommandSpec{}, notFound(target, err)
	}

	app, ok := state.Lookup(target)
	if !ok {
		return CommandSpec{}, notFound(target, nil)
	}

	binary := target
	if app.Binary != "" {
		binary = filepath.Base(app.Binary)
	}

	var devDir string
	if r.opts.DevRoot != "" {
		devDir = filepath.Join(r.opts.DevRoot, target)
	}

	candidates := Candidates(binary,
		[]string{app.InstallationPath, devDir},
		r.opts.ArchDirs,
		filepath.SplitList(r.getenv("PATH")),
	)
	path, ok := SelectCandidate(Expand(candidates), r.executable)
	if !ok {
		return CommandSpec{}, missingBinary(target, fmt.Errorf("searched %d locations for %s", len(candidates), binary))
	}

	env := map[string]string{"TERM": r.opts.Term}
	for k, v := range app.Env {
		env[k] = v
	}

	r.log.Debug("Resolved managed target",
		zap.String("target", target),
		zap.String("path", path),
		zap.String("version", app.Version))

	return CommandSpec{
		Path: path,
		Env:  env,
		Dir:  app.InstallationPath,
	}, nil
}
