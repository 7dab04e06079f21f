package resolver

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/GriffinCanCode/termrelay/internal/domain/orchestration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	state orchestration.State
	err   error
	calls int
	wait  bool
}

func (s *stubSource) CurrentState(ctx context.Context) (orchestration.State, error) {
	s.calls++
	if s.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.state, s.err
}

func newTestResolver(t *testing.T, opts Options, source orchestration.StateSource, env map[string]string) *Resolver {
	t.Helper()
	r := New(opts, source, nil)
	r.getenv = func(key string) string { return env[key] }
	r.homeDir = func() (string, error) { return t.TempDir(), nil }
	return r
}

func TestResolveUnknownTarget(t *testing.T) {
	source := &stubSource{state: orchestration.State{}}
	r := newTestResolver(t, Options{}, source, nil)

	_, err := r.Resolve(context.Background(), "nonexistent-target")

	var resErr *ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "nonexistent-target", resErr.Target)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrMissingBinary)
	assert.Equal(t, 1, source.calls)
}

func TestResolveInvalidNames(t *testing.T) {
	source := &stubSource{}
	r := newTestResolver(t, Options{}, source, nil)

	for _, name := range []string{"", "..", "a/b", "semi;colon"} {
		_, err := r.Resolve(context.Background(), name)
		assert.ErrorIs(t, err, ErrNotFound, name)
	}
	assert.Zero(t, source.calls, "invalid names never reach the orchestrator")
}

func TestResolveShell(t *testing.T) {
	dir := t.TempDir()
	userShell := filepath.Join(dir, "zsh")
	writeExecutable(t, userShell)

	r := newTestResolver(t, Options{Term: "xterm"}, nil, map[string]string{"SHELL": userShell})
	spec, err := r.Resolve(context.Background(), ShellTarget)
	require.NoError(t, err)

	assert.Equal(t, userShell, spec.Path)
	assert.Equal(t, []string{"-l"}, spec.Args)
	assert.Equal(t, "xterm", spec.Env["TERM"])
	assert.NotEmpty(t, spec.Dir)
}

func TestResolveShellFallsBackToDefault(t *testing.T) {
	r := newTestResolver(t, Options{DefaultShell: "/bin/sh"}, nil, map[string]string{"SHELL": "/nonexistent/shell"})
	spec, err := r.Resolve(context.Background(), ShellTarget)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", spec.Path)

	r = newTestResolver(t, Options{DefaultShell: "/nonexistent/sh"}, nil, nil)
	_, err = r.Resolve(context.Background(), ShellTarget)
	assert.ErrorIs(t, err, ErrMissingBinary)
}

func TestResolveBuiltin(t *testing.T) {
	bin := t.TempDir()
	writeExecutable(t, filepath.Join(bin, "monitor"))

	opts := Options{
		Builtins:      map[string]string{"top": "monitor -d 1", "ghost": "not-installed"},
		CompanionAddr: "localhost:4100",
	}
	source := &stubSource{}
	r := newTestResolver(t, opts, source, map[string]string{"PATH": bin})

	spec, err := r.Resolve(context.Background(), "top")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(bin, "monitor"), spec.Path)
	assert.Equal(t, []string{"-d", "1"}, spec.Args)
	assert.Equal(t, "localhost:4100", spec.Env["COMPANION_ADDR"])
	assert.Equal(t, "xterm-256color", spec.Env["TERM"])

	_, err = r.Resolve(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrMissingBinary)
	assert.Zero(t, source.calls)
}

func TestResolveManagedSearchOrder(t *testing.T) {
	install := t.TempDir()
	devRoot := t.TempDir()
	pathDir := t.TempDir()
	arch := runtime.GOOS + "_" + runtime.GOARCH

	source := &stubSource{state: orchestration.State{
		"dashboard": {InstallationPath: install, Env: map[string]string{"TERM": "vt100", "MODE": "relay"}},
	}}
	r := newTestResolver(t, Options{DevRoot: devRoot}, source, map[string]string{"PATH": pathDir})

	resolve := func() string {
		spec, err := r.Resolve(context.Background(), "dashboard")
		require.NoError(t, err)
		return spec.Path
	}

	writeExecutable(t, filepath.Join(pathDir, "dashboard"))
	assert.Equal(t, filepath.Join(pathDir, "dashboard"), resolve())

	writeExecutable(t, filepath.Join(devRoot, "dashboard", "bin", "dashboard"))
	assert.Equal(t, filepath.Join(devRoot, "dashboard", "bin", "dashboard"), resolve())

	writeExecutable(t, filepath.Join(install, "bin", "dashboard"))
	assert.Equal(t, filepath.Join(install, "bin", "dashboard"), resolve())

	writeExecutable(t, filepath.Join(install, "bin", arch, "dashboard"))
	assert.Equal(t, filepath.Join(install, "bin", arch, "dashboard"), resolve())

	spec, err := r.Resolve(context.Background(), "dashboard")
	require.NoError(t, err)
	assert.Equal(t, install, spec.Dir)
	assert.Equal(t, "vt100", spec.Env["TERM"], "deployment env wins")
	assert.Equal(t, "relay", spec.Env["MODE"])
}

func TestResolveManagedSkipsNonExecutable(t *testing.T) {
	install := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(install, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(install, "bin", "worker"), nil, 0o644))
	writeExecutable(t, filepath.Join(install, "worker"))

	source := &stubSource{state: orchestration.State{"worker": {InstallationPath: install}}}
	r := newTestResolver(t, Options{}, source, nil)

	spec, err := r.Resolve(context.Background(), "worker")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(install, "worker"), spec.Path)
}

func TestResolveManagedBinaryName(t *testing.T) {
	install := t.TempDir()
	writeExecutable(t, filepath.Join(install, "bin", "api-server"))

	source := &stubSource{state: orchestration.State{"api": {InstallationPath: install, Binary: "api-server"}}}
	r := newTestResolver(t, Options{}, source, nil)

	spec, err := r.Resolve(context.Background(), "api")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(install, "bin", "api-server"), spec.Path)
}

func TestResolveManagedMissingBinary(t *testing.T) {
	source := &stubSource{state: orchestration.State{"api": {InstallationPath: t.TempDir()}}}
	r := newTestResolver(t, Options{}, source, nil)

	_, err := r.Resolve(context.Background(), "api")
	assert.ErrorIs(t, err, ErrMissingBinary)
}

func TestResolveQueryFailure(t *testing.T) {
	cause := errors.New("connection refused")
	r := newTestResolver(t, Options{}, &stubSource{err: cause}, nil)

	_, err := r.Resolve(context.Background(), "api")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, cause)
}

func TestResolveQueryTimeout(t *testing.T) {
	r := newTestResolver(t, Options{QueryTimeout: 20 * time.Millisecond}, &stubSource{wait: true}, nil)

	start := time.Now()
	_, err := r.Resolve(context.Background(), "api")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
