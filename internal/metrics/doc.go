// Package metrics exposes fork statistics as Prometheus metrics.
//
// Key metrics:
//   - Records received, unrouted, and failing classification
//   - Envelopes published to filter channels
//   - Per-destination forwarded, discarded, and dropped payloads
//   - Per-destination filter state
package metrics
