package fork

import (
	"context"
	"sync"
)

// PassThrough is a minimal in-process pipe. It is a Sink on one side and a
// forkable input channel on the other, so forks can be chained.
type PassThrough[T any] struct {
	ch chan T

	mu     sync.RWMutex
	closed bool
}

// NewPassThrough creates a pipe holding at most size pending items.
// Sizes below 1 use 1, keeping buffering minimal.
func NewPassThrough[T any](size int) *PassThrough[T] {
	if size < 1 {
		size = 1
	}
	return &PassThrough[T]{ch: make(chan T, size)}
}

// Write blocks until the item is accepted or ctx is done.
func (p *PassThrough[T]) Write(ctx context.Context, v T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case p.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close ends the stream. Readers drain pending items and then see the
// channel closed. Close is idempotent.
func (p *PassThrough[T]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}

// Out returns the read side of the pipe.
func (p *PassThrough[T]) Out() <-chan T {
	return p.ch
}
