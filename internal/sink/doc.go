// Package sink implements destination sinks for forked streams.
//
// Sinks:
//   - Collector: in-memory, for tests and inspection
//   - Text: newline-delimited payloads to any io.WriteCloser (files, stdout)
//   - Postgres: batched inserts through a pgx pool
//   - WebSocket: one text frame per payload
//
// Every sink satisfies fork.Sink: Write may block to apply backpressure and
// Close marks the end of the destination's stream.
package sink
