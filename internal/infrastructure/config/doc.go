// Package config provides 12-factor configuration for the client and the
// reference bridge.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags override environment variables.
//
// Configuration Sections:
//   - Client: server URL, bearer token, connect deadline, retry budget, profiles
//   - Bridge: listen address, API key, backend (echo|pty), TLS material
//   - Logging: log level and output format
//   - RateLimit: per-IP limits on WebSocket upgrades
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Connecting to %s\n", cfg.Client.URL)
//
// Environment Variables:
//   - COPILOT_URL, COPILOT_TOKEN, COPILOT_CONNECT_TIMEOUT
//   - COPILOT_RETRY_MAX, COPILOT_RETRY_DELAY, COPILOT_PROFILES, COPILOT_PROFILE
//   - BRIDGE_HOST, BRIDGE_PORT, BRIDGE_API_KEY, BRIDGE_BACKEND, BRIDGE_COMMAND
//   - BRIDGE_TLS_CERT, BRIDGE_TLS_KEY
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
