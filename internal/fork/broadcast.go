package fork

import "context"

// envelope tags a payload with its destination while it travels the shared sequence.
type envelope[K comparable, V any] struct {
	key     K
	payload V
}

// broadcaster publishes every envelope to every subscribed filter channel.
// It is owned by the gate goroutine: subscribe, publish and close are never
// called concurrently.
type broadcaster[K comparable, V any] struct {
	size   int
	subs   []chan envelope[K, V]
	closed bool
}

func newBroadcaster[K comparable, V any](size int) *broadcaster[K, V] {
	if size < 1 {
		size = 1
	}
	return &broadcaster[K, V]{size: size}
}

// subscribe adds a channel that receives every envelope published from now on.
func (b *broadcaster[K, V]) subscribe() <-chan envelope[K, V] {
	ch := make(chan envelope[K, V], b.size)
	b.subs = append(b.subs, ch)
	return ch
}

// publish delivers env to each subscriber in subscription order, blocking
// while a subscriber's queue is full.
func (b *broadcaster[K, V]) publish(ctx context.Context, env envelope[K, V]) error {
	for _, ch := range b.subs {
		select {
		case ch <- env:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// close signals end of input to every subscriber.
func (b *broadcaster[K, V]) close() {
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
}
