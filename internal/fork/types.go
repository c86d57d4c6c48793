package fork

import (
	"context"
	"errors"
	"fmt"
)

// Errors
var (
	ErrNoResolver      = errors.New("no downstream resolver defined")
	ErrNotWritable     = errors.New("resolved destination is not writable")
	ErrResolverNotFunc = errors.New("resolver must be a function")
	ErrNilInput        = errors.New("input is not forkable")
	ErrNilClassifier   = errors.New("classify function is required")
	ErrAlreadyStarted  = errors.New("fork already started")
	ErrClosed          = errors.New("pass-through closed")
)

// Config holds configuration for a Fork.
type Config struct {
	// Name identifies the fork in logs and metrics.
	Name string

	// QueueSize is the capacity of each filter channel. Default: 1
	QueueSize int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Name:      "fork",
		QueueSize: 1,
	}
}

// Sink receives the payloads routed to one destination.
type Sink[V any] interface {
	// Write delivers a payload. It may block to apply backpressure.
	Write(ctx context.Context, v V) error

	// Close signals end of input for this destination.
	Close() error
}

// Resolver maps a destination key to its downstream sink.
// It is called at most once per key.
type Resolver[K comparable, V any] func(key K) (Sink[V], error)

// ClassifyFunc maps an input record to the destinations it is routed to.
type ClassifyFunc[T any, K comparable, V any] func(record T) (Result[K, V], error)

// DestinationError is reported when a destination cannot be wired or delivered to.
type DestinationError struct {
	Key any
	Err error
}

func (e *DestinationError) Error() string {
	return fmt.Sprintf("destination %v: %v", e.Key, e.Err)
}

func (e *DestinationError) Unwrap() error {
	return e.Err
}

// ClassifyError is reported when the classify function rejects a record.
// The record is skipped and routing continues.
type ClassifyError struct {
	Record any
	Err    error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("classify record: %v", e.Err)
}

func (e *ClassifyError) Unwrap() error {
	return e.Err
}

// State is the lifecycle state of a filter channel.
type State int32

const (
	StateCreated State = iota
	StateResolving
	StateWired
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateResolving:
		return "resolving"
	case StateWired:
		return "wired"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stats contains runtime statistics.
type Stats struct {
	ID                 string
	Name               string
	RecordsReceived    int64
	RecordsUnrouted    int64
	ClassifyErrors     int64
	EnvelopesPublished int64
	Destinations       []DestinationStats
}

// DestinationStats contains statistics for one filter channel.
type DestinationStats struct {
	Key       string // fmt.Sprint of the key, suffixed "#n" when it collides with an earlier key
	State     State
	Forwarded int64 // Payloads written to the sink
	Discarded int64 // Envelopes addressed to other destinations
	Dropped   int64 // Own payloads not delivered (failed state)
}
