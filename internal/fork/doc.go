// Package fork implements the dynamic demultiplexing stage.
//
// A Fork:
//   - Reads records from a single ordered input channel
//   - Classifies each record into one or more destinations
//   - Lazily creates one filter channel per destination, resolving its sink on first sight
//   - Broadcasts tagged envelopes to every filter, which forwards only its own payloads
//   - Reports resolution and delivery failures on a shared error channel
//
// Fan-out is ordered and synchronous across destinations: every filter queue holds a
// single pending envelope by default, so a slow sink on one destination stalls delivery
// to all of them. Order within a destination always matches emission order.
package fork
