package sink

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("sink closed")

// Collector keeps every payload in memory.
type Collector[V any] struct {
	mu     sync.Mutex
	items  []V
	closed bool
	done   chan struct{}
}

// NewCollector creates an empty Collector.
func NewCollector[V any]() *Collector[V] {
	return &Collector[V]{done: make(chan struct{})}
}

// Write appends v.
func (c *Collector[V]) Write(ctx context.Context, v V) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	c.items = append(c.items, v)
	return nil
}

// Close marks the collector finished.
func (c *Collector[V]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

// Items returns a copy of the collected payloads.
func (c *Collector[V]) Items() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]V, len(c.items))
	copy(out, c.items)
	return out
}

// Done is closed by Close.
func (c *Collector[V]) Done() <-chan struct{} {
	return c.done
}
