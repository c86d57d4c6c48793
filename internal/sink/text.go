package sink

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Text writes each payload followed by a newline.
type Text struct {
	mu     sync.Mutex
	w      io.WriteCloser
	prefix string
	closed bool
	lines  int64
}

// NewText creates a Text sink over w. Close closes w.
func NewText(w io.WriteCloser) *Text {
	return &Text{w: w}
}

// NewPrefixedText creates a Text sink that prepends prefix to every line.
func NewPrefixedText(w io.WriteCloser, prefix string) *Text {
	return &Text{w: w, prefix: prefix}
}

// Write writes payload and a trailing newline.
func (t *Text) Write(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(t.w, t.prefix+payload+"\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	t.lines++
	return nil
}

// Close closes the underlying writer once.
func (t *Text) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.w.Close()
}

// Lines returns the number of lines written.
func (t *Text) Lines() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lines
}

// NopCloser wraps w so that Close does nothing, for shared writers such as stdout.
func NopCloser(w io.Writer) io.WriteCloser {
	return nopCloser{w}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
