// Package health probes the /health endpoint a bridge serves next to its
// WebSocket. The terminal client uses it for the -probe flag and the /health
// command; connection management never depends on it.
package health
