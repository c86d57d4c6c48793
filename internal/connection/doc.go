// Package connection implements the WebSocket client used by network
// inputs and outputs.
//
// The client:
//   - Dials a WebSocket URL with optional bearer authentication
//   - Serializes writes and applies a write deadline
//   - Delivers received text frames in order, with backpressure
//   - Pings the peer periodically and reports stale connections
package connection
