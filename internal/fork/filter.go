package fork

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"
)

// filter forwards the payloads addressed to one destination to its sink.
type filter[K comparable, V any] struct {
	key    K
	in     <-chan envelope[K, V]
	sink   Sink[V]
	report func(error)
	logger *slog.Logger

	state     atomic.Int32
	forwarded atomic.Int64
	discarded atomic.Int64
	dropped   atomic.Int64
}

func newFilter[K comparable, V any](key K, in <-chan envelope[K, V], report func(error), logger *slog.Logger) *filter[K, V] {
	return &filter[K, V]{
		key:    key,
		in:     in,
		report: report,
		logger: logger,
	}
}

// resolve obtains and wires the downstream sink. It runs on the gate
// goroutine before the filter starts consuming.
func (f *filter[K, V]) resolve(resolver Resolver[K, V]) {
	f.state.Store(int32(StateResolving))

	if resolver == nil {
		f.fail(ErrNoResolver)
		return
	}

	sink, err := callResolver(resolver, f.key)
	if err != nil {
		f.fail(fmt.Errorf("%w: %w", ErrNotWritable, err))
		return
	}
	if isNil(sink) {
		f.fail(ErrNotWritable)
		return
	}

	f.sink = sink
	f.state.Store(int32(StateWired))
	f.logger.Debug("destination wired", "destination", f.key)
}

func callResolver[K comparable, V any](resolver Resolver[K, V], key K) (sink Sink[V], err error) {
	defer func() {
		if r := recover(); r != nil {
			sink, err = nil, fmt.Errorf("resolver panic: %v", r)
		}
	}()
	return resolver(key)
}

// isNil reports whether s is nil or holds a nil pointer, func, map, chan,
// slice or interface.
func isNil(s any) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return v.IsNil()
	}
	return false
}

func (f *filter[K, V]) write(ctx context.Context, payload V) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return f.sink.Write(ctx, payload)
}

func (f *filter[K, V]) close() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return f.sink.Close()
}

// run consumes the shared sequence until it ends, then closes the sink.
func (f *filter[K, V]) run(ctx context.Context, done func()) {
	defer done()

	for env := range f.in {
		if env.key != f.key {
			f.discarded.Add(1)
			continue
		}
		if f.State() != StateWired {
			f.dropped.Add(1)
			continue
		}
		if err := f.write(ctx, env.payload); err != nil {
			f.dropped.Add(1)
			if ctx.Err() != nil {
				continue
			}
			f.fail(fmt.Errorf("write: %w", err))
			continue
		}
		f.forwarded.Add(1)
	}

	if f.sink == nil {
		return
	}
	if err := f.close(); err != nil {
		f.report(&DestinationError{Key: f.key, Err: fmt.Errorf("close: %w", err)})
	}
}

// fail moves the filter to its terminal failed state and reports err once.
func (f *filter[K, V]) fail(err error) {
	f.state.Store(int32(StateFailed))
	f.logger.Warn("destination failed", "destination", f.key, "error", err)
	f.report(&DestinationError{Key: f.key, Err: err})
}

// State returns the current lifecycle state.
func (f *filter[K, V]) State() State {
	return State(f.state.Load())
}

func (f *filter[K, V]) stats() DestinationStats {
	return DestinationStats{
		Key:       fmt.Sprint(f.key),
		State:     f.State(),
		Forwarded: f.forwarded.Load(),
		Discarded: f.discarded.Load(),
		Dropped:   f.dropped.Load(),
	}
}
