package sink

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/rickgao/forkstream/internal/connection"
)

// WebSocket sends each payload as one text frame.
// Frames sent by the peer are read and discarded so that control frames
// keep being processed.
type WebSocket struct {
	client connection.Client
	url    string
	logger *slog.Logger

	inbound   atomic.Int64
	done      chan struct{}
	closeOnce sync.Once
}

// DialWebSocket connects to cfg.URL and returns a sink writing to it.
func DialWebSocket(ctx context.Context, cfg connection.ClientConfig, logger *slog.Logger) (*WebSocket, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := connection.NewClient(cfg, logger)
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect websocket sink: %w", err)
	}
	return NewWebSocket(client, cfg.URL, logger), nil
}

// NewWebSocket wraps an already connected client.
func NewWebSocket(client connection.Client, url string, logger *slog.Logger) *WebSocket {
	if logger == nil {
		logger = slog.Default()
	}
	w := &WebSocket{
		client: client,
		url:    url,
		logger: logger.With("sink", "websocket", "url", url),
		done:   make(chan struct{}),
	}
	go w.discardInbound()
	return w
}

// discardInbound drains frames nobody consumes until the connection ends.
func (w *WebSocket) discardInbound() {
	for {
		select {
		case <-w.done:
			return
		case _, ok := <-w.client.Messages():
			if !ok {
				return
			}
			w.inbound.Add(1)
		}
	}
}

// Inbound returns the number of frames received from the peer and discarded.
func (w *WebSocket) Inbound() int64 {
	return w.inbound.Load()
}

// Write sends payload. A connection error observed since the last write is
// returned instead.
func (w *WebSocket) Write(ctx context.Context, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case err := <-w.client.Errors():
		return fmt.Errorf("websocket %s: %w", w.url, err)
	default:
	}

	if err := w.client.Send([]byte(payload)); err != nil {
		return fmt.Errorf("send to %s: %w", w.url, err)
	}
	return nil
}

// Close closes the connection.
func (w *WebSocket) Close() error {
	w.closeOnce.Do(func() { close(w.done) })
	w.logger.Debug("closing websocket sink", "inbound", w.Inbound())
	return w.client.Close()
}
