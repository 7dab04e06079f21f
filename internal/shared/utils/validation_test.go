package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTargetName(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{"shell", "shell", false},
		{"dotted", "api.v2", false},
		{"mixed", "My_App-01", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"slash", "a/b", true},
		{"traversal", "../etc", true},
		{"space", "my app", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("a", MaxTargetLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTargetName(tt.target)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateViewport(t *testing.T) {
	assert.NoError(t, ValidateViewport(80, 24))
	assert.NoError(t, ValidateViewport(1, 1))
	assert.NoError(t, ValidateViewport(MaxViewportValue, MaxViewportValue))

	assert.Error(t, ValidateViewport(0, 24))
	assert.Error(t, ValidateViewport(80, 0))
	assert.Error(t, ValidateViewport(-1, 24))
	assert.Error(t, ValidateViewport(80, -5))
	assert.Error(t, ValidateViewport(MaxViewportValue+1, 24))
}

func TestViewportOrDefault(t *testing.T) {
	cols, rows := ViewportOrDefault(0, 0)
	assert.Equal(t, DefaultCols, cols)
	assert.Equal(t, DefaultRows, rows)

	cols, rows = ViewportOrDefault(120, 0)
	assert.Equal(t, 120, cols)
	assert.Equal(t, DefaultRows, rows)

	cols, rows = ViewportOrDefault(-3, 40)
	assert.Equal(t, -3, cols)
	assert.Equal(t, 40, rows)
}
