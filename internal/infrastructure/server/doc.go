// Package server assembles the Copilot CLI bridge.
//
// This package wires together:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, tracing, metrics, CORS, rate limiting)
//   - The WebSocket handler and its per-connection backend
//   - Prometheus metrics on /metrics
//
// Routes:
//   - GET /        service info, or WebSocket upgrade
//   - GET /ws      WebSocket upgrade
//   - GET /health  {"status":"ok","timestamp":...,"connections":N,"version":...}
//   - GET /stats   message and connection counters
//   - GET /metrics Prometheus exposition
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg, version, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
