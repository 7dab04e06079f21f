package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Size limits (in bytes)
const (
	MaxFrameSize     = 1 * 1024 * 1024 // 1MB - maximum websocket frame accepted from a client
	MaxTargetLength  = 128
	MaxViewportValue = 65535 // window sizes are uint16 on every platform we support
)

// Viewport defaults when a client omits dimensions
const (
	DefaultCols = 80
	DefaultRows = 24
)

// TargetNamePattern allows alphanumeric, dots, hyphens, and underscores
var TargetNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateTargetName checks that a target name is safe to use as a path
// component. Target names end up joined onto install and development
// directories, so traversal components are rejected.
func ValidateTargetName(name string) error {
	if err := ValidateString(name, "target", 1, MaxTargetLength, true); err != nil {
		return err
	}

	if !TargetNamePattern.MatchString(name) {
		return fmt.Errorf("target contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)")
	}

	if name == "." || name == ".." {
		return fmt.Errorf("target cannot be a path component")
	}

	return nil
}

// ValidateViewport rejects non-positive or oversized terminal dimensions.
func ValidateViewport(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", cols, rows)
	}
	if cols > MaxViewportValue || rows > MaxViewportValue {
		return fmt.Errorf("viewport %dx%d exceeds maximum %d", cols, rows, MaxViewportValue)
	}
	return nil
}

// ViewportOrDefault substitutes the default size for zero dimensions.
// Negative values are passed through so ValidateViewport can reject them.
func ViewportOrDefault(cols, rows int) (int, int) {
	if cols == 0 {
		cols = DefaultCols
	}
	if rows == 0 {
		rows = DefaultRows
	}
	return cols, rows
}
