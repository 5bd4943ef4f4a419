// Package http exposes a runtime over a small chi debug API: state inspection, transition
// requests, the subscription table, an SSE stream of phase events and Prometheus metrics.
package http
