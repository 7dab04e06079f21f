package resolver

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidatesOrder(t *testing.T) {
	got := Candidates("app",
		[]string{"/opt/app", "/home/dev/src/app"},
		[]string{"bin/${GOOS}_${GOARCH}", "bin"},
		[]string{"/usr/local/bin", "/usr/bin"},
	)

	arch := runtime.GOOS + "_" + runtime.GOARCH
	want := []Candidate{
		{Root: "/opt/app", Pattern: "bin/" + arch + "/app"},
		{Root: "/opt/app", Pattern: "bin/app"},
		{Root: "/home/dev/src/app", Pattern: "bin/" + arch + "/app"},
		{Root: "/home/dev/src/app", Pattern: "bin/app"},
		{Root: "/usr/local/bin", Pattern: "app"},
		{Root: "/usr/bin", Pattern: "app"},
	}
	assert.Equal(t, want, got)
}

func TestCandidatesSkipsEmptyRootsAndBadPatterns(t *testing.T) {
	got := Candidates("app", []string{"", "/opt/app"}, []string{"bin/[", "."}, nil)
	assert.Equal(t, []Candidate{{Root: "/opt/app", Pattern: "app"}}, got)
}

func TestSelectCandidateFirstMatchWins(t *testing.T) {
	paths := []string{"/a", "/b", "/c"}
	exists := map[string]bool{"/b": true, "/c": true}

	var checked []string
	got, ok := SelectCandidate(paths, func(p string) bool {
		checked = append(checked, p)
		return exists[p]
	})

	assert.True(t, ok)
	assert.Equal(t, "/b", got)
	assert.Equal(t, []string{"/a", "/b"}, checked, "selection stops at the first match")

	_, ok = SelectCandidate(paths, func(string) bool { return false })
	assert.False(t, ok)
	_, ok = SelectCandidate(nil, func(string) bool { return true })
	assert.False(t, ok)
}

func TestExpandArchDir(t *testing.T) {
	assert.Equal(t, "bin/"+runtime.GOOS+"-"+runtime.GOARCH, ExpandArchDir("bin/${GOOS}-${GOARCH}"))
	assert.Equal(t, "bin/${OTHER}", ExpandArchDir("bin/${OTHER}"))
}

func TestExpandGlobs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"dist/v2", "dist/v1"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
		writeExecutable(t, filepath.Join(root, dir, "app"))
	}

	got := Expand([]Candidate{
		{Root: root, Pattern: "bin/app"},
		{Root: root, Pattern: "dist/*/app"},
	})
	assert.Equal(t, []string{
		filepath.Join(root, "bin", "app"),
		filepath.Join(root, "dist", "v1", "app"),
		filepath.Join(root, "dist", "v2", "app"),
	}, got)
}

func TestIsExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "exe")
	writeExecutable(t, exe)
	plain := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(plain, nil, 0o644))

	assert.True(t, IsExecutable(exe))
	assert.False(t, IsExecutable(plain))
	assert.False(t, IsExecutable(dir), "directories are not candidates")
	assert.False(t, IsExecutable(filepath.Join(dir, "missing")))
}

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
}
