// Package main is the reference Copilot CLI bridge.
//
// The bridge accepts WebSocket connections from the Android app or the
// terminal client, greets each with a welcome envelope and relays chat text
// and key tokens to a backend:
//
//	Phone / terminal client → Bridge (ws://host:3000) → echo | copilot (pty)
//
// Endpoints:
//   - ws://host:port and ws://host:port/ws: the session socket
//   - GET /health: status, timestamp, live connections, version
//   - GET /stats: message and connection counters
//   - GET /metrics: Prometheus
//
// Configuration:
//   - Environment variables (BRIDGE_*, LOG_*, RATE_LIMIT_*)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Echo backend, useful for trying the app
//	./bridge -port 3000 -qr
//
//	# Drive the real CLI behind an API key, over TLS
//	./bridge -backend pty -command copilot -api-key s3cret -tls-cert cert.pem -tls-key key.pem
//
// Signals:
//   - SIGINT, SIGTERM: close every client with 1001, then exit
package main
