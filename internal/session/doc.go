// Package session owns the single WebSocket connection between this client and
// a Copilot CLI bridge.
//
// A Manager drives the connection through four states:
//
//	DISCONNECTED --Connect--> CONNECTING --open--> CONNECTED
//	      ^                       |                    |
//	      |                    failure             close/error
//	      |                       v                    v
//	      +------Disconnect------ ERROR <--------------+
//
// Failures are classified into a Kind. Only timeouts, resets and unreachable
// networks are retried, at most Policy.MaxRetries times with a flat delay.
// Every connect starts a new lineage; events raised by an older lineage are
// discarded, so a late close can never overwrite the state of a newer connect.
//
// Send and SendCommand only queue envelopes; a per-socket writer goroutine
// puts them on the wire, so a peer that stops reading never blocks a caller.
//
// Observer callbacks run on one dispatcher goroutine per Manager. They are
// never invoked concurrently and never while the Manager holds its lock, so an
// observer may call back into the Manager.
package session
