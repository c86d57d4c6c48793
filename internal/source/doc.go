// Package source turns external inputs into ordered record channels that
// can be forked. Every source closes its channel at end of input.
package source
