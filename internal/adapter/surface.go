package adapter

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// TerminalSurface renders onto a real terminal file, typically os.Stdout.
type TerminalSurface struct {
	*os.File
}

// NewTerminalSurface wraps f.
func NewTerminalSurface(f *os.File) *TerminalSurface {
	return &TerminalSurface{File: f}
}

// Size reports the terminal's current dimensions.
func (t *TerminalSurface) Size() (Size, error) {
	cols, rows, err := term.GetSize(int(t.Fd()))
	if err != nil {
		return Size{}, err
	}
	return Size{Cols: cols, Rows: rows}, nil
}

// WatchSizes emits the surface size on every SIGWINCH until ctx is done.
// Identical consecutive sizes are suppressed.
func WatchSizes(ctx context.Context, surface Surface) <-chan Size {
	sizes := make(chan Size, 1)
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)

	go func() {
		defer signal.Stop(winch)
		defer close(sizes)

		last, _ := surface.Size()
		for {
			select {
			case <-ctx.Done():
				return
			case <-winch:
				size, err := surface.Size()
				if err != nil || size == last {
					continue
				}
				last = size
				select {
				case sizes <- size:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return sizes
}

// RawMode puts the terminal behind fd into raw mode and returns a
// function restoring the previous state.
func RawMode(fd int) (func(), error) {
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	return func() { _ = term.Restore(fd, state) }, nil
}
