/*
Package monitoring provides Prometheus metrics for the session manager and the
reference bridge.

# Overview

One Metrics value is created per process component and owns its own registry,
so tests can create as many as they like without duplicate-registration
panics.

# Metrics

Client side:
  - copilot_session_connect_attempts_total{result}
  - copilot_session_connect_duration_seconds
  - copilot_session_retries_total
  - copilot_session_errors_total{kind}
  - copilot_session_state{state}

Bridge side:
  - copilot_bridge_http_requests_total{method,path,status}
  - copilot_bridge_http_request_duration_seconds{method,path}
  - copilot_ws_connections

Both:
  - copilot_ws_messages_total{direction,type}
  - copilot_uptime_seconds

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", monitoring.GinHandler(metrics))
*/
package monitoring
