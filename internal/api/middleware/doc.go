// Package middleware provides the HTTP middleware in front of the bridge.
//
// Middleware stack includes:
//   - CORS: browsers may read /, /health and /stats; WebSocket upgrades allowed
//   - RateLimit: per-IP token buckets on WebSocket upgrades, idle buckets evicted
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
