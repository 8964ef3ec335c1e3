// Package ws accepts client connections on the bridge.
//
// Each connection gets its own backend. The first frame from the bridge is a
// welcome envelope carrying a clientId and a sessionId. When an API key is
// configured the client must send an auth envelope first; a missing or wrong
// key gets an error envelope and close code 1008.
//
// Message Types (Client → Bridge):
//   - auth: {"type":"auth","apiKey":"..."}
//   - message: text typed into the backend
//   - command: key token (^C, <TAB>, ...) translated to control bytes
//
// Message Types (Bridge → Client):
//   - welcome: sent once, after authentication
//   - response: backend output
//   - error: "invalid JSON", "unknown message type" or a backend failure
//
// Example Usage:
//
//	factory, _ := backend.NewFactory(backend.KindEcho, "")
//	handler := ws.NewHandler(factory, nil, logger, metrics)
//	router.GET("/ws", handler.HandleConnection)
package ws
