package fork

import (
	"context"
	"log/slog"
	"sync"
)

// registry maps each destination key to its filter channel. Entries are
// created by the gate goroutine only and live until the fork terminates.
type registry[K comparable, V any] struct {
	bus      *broadcaster[K, V]
	resolver func() Resolver[K, V]
	report   func(error)
	logger   *slog.Logger
	wg       *sync.WaitGroup

	// mu guards entries and order against Stats readers.
	mu      sync.RWMutex
	entries map[K]*filter[K, V]
	order   []*filter[K, V]
}

func newRegistry[K comparable, V any](
	bus *broadcaster[K, V],
	resolver func() Resolver[K, V],
	report func(error),
	wg *sync.WaitGroup,
	logger *slog.Logger,
) *registry[K, V] {
	return &registry[K, V]{
		bus:      bus,
		resolver: resolver,
		report:   report,
		logger:   logger,
		wg:       wg,
		entries:  make(map[K]*filter[K, V]),
	}
}

// getOrCreate returns the filter for key, creating, resolving and starting
// it on first sight. The resolver has returned before this does.
func (r *registry[K, V]) getOrCreate(ctx context.Context, key K) *filter[K, V] {
	// Reads without the lock are safe: this goroutine is the only writer.
	if f, ok := r.entries[key]; ok {
		return f
	}

	f := newFilter(key, r.bus.subscribe(), r.report, r.logger)
	f.resolve(r.resolver())

	r.mu.Lock()
	r.entries[key] = f
	r.order = append(r.order, f)
	r.mu.Unlock()

	r.wg.Add(1)
	go f.run(ctx, r.wg.Done)

	r.logger.Info("destination created", "destination", key, "state", f.State().String())
	return f
}

// snapshot returns the filters in creation order.
func (r *registry[K, V]) snapshot() []*filter[K, V] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*filter[K, V], len(r.order))
	copy(out, r.order)
	return out
}
