package fork

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Fork classifies records from one input channel and routes them to
// lazily resolved per-destination sinks.
type Fork[T any, K comparable, V any] struct {
	id       string
	cfg      Config
	logger   *slog.Logger
	input    <-chan T
	classify ClassifyFunc[T, K, V]

	mu       sync.RWMutex
	resolver Resolver[K, V]
	started  bool

	bus      *broadcaster[K, V]
	registry *registry[K, V]
	filters  sync.WaitGroup

	// Errors are queued so reporting never blocks routing.
	errQueue *GrowableBuffer[error]
	errs     chan error

	// Lifecycle
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// Stats
	received       atomic.Int64
	unrouted       atomic.Int64
	classifyErrors atomic.Int64
	published      atomic.Int64
}

// New creates a Fork reading from input. Routing starts with Start; the
// resolver should be set with Pipe before that.
func New[T any, K comparable, V any](cfg Config, input <-chan T, classify ClassifyFunc[T, K, V], logger *slog.Logger) (*Fork[T, K, V], error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if classify == nil {
		return nil, ErrNilClassifier
	}
	if cfg.QueueSize < 1 {
		cfg.QueueSize = 1
	}
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	logger = logger.With("fork", cfg.Name, "fork_id", id)

	f := &Fork[T, K, V]{
		id:       id,
		cfg:      cfg,
		logger:   logger,
		input:    input,
		classify: classify,
		bus:      newBroadcaster[K, V](cfg.QueueSize),
		errQueue: NewGrowableBuffer[error](4),
		errs:     make(chan error),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	f.registry = newRegistry(f.bus, f.currentResolver, f.report, &f.filters, logger)
	return f, nil
}

// Pipe sets the resolver used to obtain each destination's sink.
// Later calls replace it, but destinations already resolved keep their sink;
// calling Pipe once routing has begun is a caller error.
func (f *Fork[T, K, V]) Pipe(resolver Resolver[K, V]) error {
	if resolver == nil {
		return ErrResolverNotFunc
	}

	f.mu.Lock()
	started := f.started
	f.resolver = resolver
	f.mu.Unlock()

	if started {
		f.logger.Warn("resolver replaced after routing started; existing destinations keep their sinks")
	}
	return nil
}

// Start begins routing records.
func (f *Fork[T, K, V]) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	f.started = true
	hasResolver := f.resolver != nil
	f.mu.Unlock()

	f.ctx, f.cancel = context.WithCancel(ctx)

	go f.pumpErrors()
	go f.route()

	f.logger.Info("fork started",
		"queue_size", f.cfg.QueueSize,
		"resolver", hasResolver,
	)
	return nil
}

// Stop cancels routing and waits for every destination to finish, bounded by ctx.
// If the fork already finished on its own, errors still queued stay readable
// from Errors until it closes. Otherwise queued errors are discarded.
func (f *Fork[T, K, V]) Stop(ctx context.Context) error {
	f.stopOnce.Do(func() {
		f.logger.Info("stopping fork")

		if f.cancel == nil {
			close(f.stopped)
			return
		}

		select {
		case <-f.done:
			f.cancel()
			f.logger.Info("fork stopped")
			return
		default:
		}

		f.cancel()
		select {
		case <-f.done:
			f.logger.Info("fork stopped")
		case <-ctx.Done():
			f.logger.Warn("fork stop timed out")
		}
		close(f.stopped)
	})
	return nil
}

// Wait blocks until the input is exhausted (or routing is cancelled) and
// every destination has closed its sink.
func (f *Fork[T, K, V]) Wait() {
	<-f.done
}

// Done is closed once the fork has finished.
func (f *Fork[T, K, V]) Done() <-chan struct{} {
	return f.done
}

// Errors returns the channel of asynchronous errors. It is closed after the
// fork finishes and every queued error has been received. Errors still
// queued when Stop cancels routing are discarded.
func (f *Fork[T, K, V]) Errors() <-chan error {
	return f.errs
}

// ID returns the unique id of this fork instance.
func (f *Fork[T, K, V]) ID() string {
	return f.id
}

// Stats returns current fork statistics.
func (f *Fork[T, K, V]) Stats() Stats {
	filters := f.registry.snapshot()
	dests := make([]DestinationStats, 0, len(filters))
	seen := make(map[string]int, len(filters))
	for _, flt := range filters {
		ds := flt.stats()
		// Distinct keys may print alike; later ones get a "#n" suffix.
		if n := seen[ds.Key]; n > 0 {
			seen[ds.Key] = n + 1
			ds.Key = fmt.Sprintf("%s#%d", ds.Key, n+1)
		} else {
			seen[ds.Key] = 1
		}
		dests = append(dests, ds)
	}

	return Stats{
		ID:                 f.id,
		Name:               f.cfg.Name,
		RecordsReceived:    f.received.Load(),
		RecordsUnrouted:    f.unrouted.Load(),
		ClassifyErrors:     f.classifyErrors.Load(),
		EnvelopesPublished: f.published.Load(),
		Destinations:       dests,
	}
}

func (f *Fork[T, K, V]) currentResolver() Resolver[K, V] {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.resolver
}

func (f *Fork[T, K, V]) report(err error) {
	f.errQueue.Send(err)
}

// route is the gate loop: one record is fully routed before the next is read.
func (f *Fork[T, K, V]) route() {
	defer func() {
		f.bus.close()
		f.filters.Wait()
		f.errQueue.Close()
		close(f.done)
	}()

	for {
		select {
		case <-f.ctx.Done():
			return
		case record, ok := <-f.input:
			if !ok {
				f.logger.Info("input exhausted",
					"records", f.received.Load(),
					"destinations", len(f.registry.snapshot()),
				)
				return
			}
			if err := f.routeRecord(record); err != nil {
				return
			}
		}
	}
}

// routeRecord classifies one record, creates any new destinations, then
// publishes one envelope per route. It only fails when routing is cancelled.
func (f *Fork[T, K, V]) routeRecord(record T) error {
	f.received.Add(1)

	result, err := f.classify(record)
	if err != nil {
		f.classifyErrors.Add(1)
		f.logger.Warn("failed to classify record", "error", err)
		f.report(&ClassifyError{Record: record, Err: err})
		return nil
	}

	routes := result.Routes()
	if len(routes) == 0 {
		f.unrouted.Add(1)
		return nil
	}

	// Every destination exists before any envelope of this record is published.
	for _, rt := range routes {
		f.registry.getOrCreate(f.ctx, rt.Key)
	}

	for _, rt := range routes {
		if err := f.bus.publish(f.ctx, envelope[K, V]{key: rt.Key, payload: rt.Payload}); err != nil {
			return err
		}
		f.published.Add(1)
	}
	return nil
}

// pumpErrors moves queued errors to the Errors channel.
func (f *Fork[T, K, V]) pumpErrors() {
	defer close(f.errs)

	for {
		err, ok := f.errQueue.Receive()
		if !ok {
			return
		}
		select {
		case f.errs <- err:
		case <-f.stopped:
			return
		}
	}
}
