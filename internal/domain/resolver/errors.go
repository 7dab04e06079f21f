package resolver

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the target name is unknown.
	ErrNotFound = errors.New("target not found")
	// ErrMissingBinary means the target is known but no executable was located.
	ErrMissingBinary = errors.New("binary not found")
)

// ResolutionError describes why a target could not be resolved.
// Kind is ErrNotFound or ErrMissingBinary; Err is the underlying cause, if any.
type ResolutionError struct {
	Target string
	Kind   error
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("resolve %q: %v", e.Target, e.Kind)
	}
	return fmt.Sprintf("resolve %q: %v: %v", e.Target, e.Kind, e.Err)
}

func (e *ResolutionError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func notFound(target string, cause error) error {
	return &ResolutionError{Target: target, Kind: ErrNotFound, Err: cause}
}

func missingBinary(target string, cause error) error {
	return &ResolutionError{Target: target, Kind: ErrMissingBinary, Err: cause}
}
