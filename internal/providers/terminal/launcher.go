package terminal

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/termrelay/internal/domain/resolver"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/shared/utils"
	"github.com/creack/pty"
	"go.uber.org/zap"
)

// Launcher spawns commands attached to fresh pseudo-terminals.
type Launcher struct {
	opts    Options
	log     *logging.Logger
	environ func() []string
}

// NewLauncher creates a launcher.
func NewLauncher(opts Options, log *logging.Logger) *Launcher {
	if log == nil {
		log = logging.NewNop()
	}
	return &Launcher{
		opts:    opts.withDefaults(),
		log:     log.Named("launcher"),
		environ: os.Environ,
	}
}

// Launch starts spec on a new PTY sized cols x rows. The window size is
// applied before the child starts. Failures are *LaunchError.
func (l *Launcher) Launch(ctx context.Context, spec resolver.CommandSpec, cols, rows int) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: err}
	}
	if err := utils.ValidateViewport(cols, rows); err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: fmt.Errorf("%w: %v", ErrInvalidSize, err)}
	}
	if err := checkExecutable(spec.Path); err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: err}
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: fmt.Errorf("allocate pty: %w", err)}
	}
	// The subordinate side belongs to the child once it starts.
	defer tty.Close()

	if err := pty.Setsize(ptmx, winsize(cols, rows)); err != nil {
		ptmx.Close()
		return nil, &LaunchError{Path: spec.Path, Err: fmt.Errorf("set size: %w", err)}
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = mergeEnv(l.environ(), spec.Env, l.opts.Term, cols, rows)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Setctty: true}

	if err := cmd.Start(); err != nil {
		ptmx.Close()
		return nil, &LaunchError{Path: spec.Path, Err: fmt.Errorf("start: %w", err)}
	}

	proc := newProcess(cmd, ptmx, tty.Name(), cols, rows, l.opts, l.log)

	l.log.Info("Process started",
		zap.String("path", spec.Path),
		zap.Int("pid", proc.PID()),
		zap.String("tty", proc.TTY()),
		zap.Int("cols", cols),
		zap.Int("rows", rows))

	return proc, nil
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() || info.Mode().Perm()&0o111 == 0 {
		return ErrNotExecutable
	}
	return nil
}

func winsize(cols, rows int) *pty.Winsize {
	return &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}
}

// mergeEnv overlays base with overlay, then sets TERM unless the overlay
// did, then COLUMNS and LINES. Base order is kept; keys new to base are
// appended.
func mergeEnv(base []string, overlay map[string]string, term string, cols, rows int) []string {
	values := make(map[string]string, len(base)+len(overlay)+3)
	var order []string
	set := func(key, value string) {
		if _, ok := values[key]; !ok {
			order = append(order, key)
		}
		values[key] = value
	}

	for _, kv := range base {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		set(key, value)
	}

	keys := make([]string, 0, len(overlay))
	for key := range overlay {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		set(key, overlay[key])
	}

	if _, ok := overlay["TERM"]; !ok {
		set("TERM", term)
	}
	set("COLUMNS", strconv.Itoa(cols))
	set("LINES", strconv.Itoa(rows))

	env := make([]string, 0, len(order))
	for _, key := range order {
		env = append(env, key+"="+values[key])
	}
	return env
}
