// Package metrics instruments the update dispatcher and read aggregator.
//
// It follows the same shape used twice elsewhere in this codebase's sibling
// projects: a small internal Sink interface, a no-op implementation used
// when the caller doesn't opt in, and a Prometheus-backed implementation
// registered on demand. Callers that don't want metrics pay nothing beyond
// a handful of no-op interface calls on the hot path.
package metrics
