// Package http provides the bridge's plain HTTP endpoints: service info on
// GET /, the health probe on GET /health and counters on GET /stats.
package http
