package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalURL(t *testing.T) {
	tests := []struct {
		base    string
		target  string
		want    string
		wantErr bool
	}{
		{"ws://localhost:8000", "shell", "ws://localhost:8000/terminal/shell", false},
		{"http://relay:8000/", "top", "ws://relay:8000/terminal/top", false},
		{"https://relay.example.com/base", "dashboard", "wss://relay.example.com/base/terminal/dashboard", false},
		{"ftp://relay", "shell", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := terminalURL(tt.base, tt.target)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCommand(t *testing.T) {
	t.Setenv("SHELL", "/bin/sh")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"resolve", "shell"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `"path": "/bin/sh"`)
	assert.Contains(t, out.String(), `"-l"`)
}

func TestResolveCommandUnknownTarget(t *testing.T) {
	rootCmd.SetArgs([]string{"resolve", "no-such-target"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}
