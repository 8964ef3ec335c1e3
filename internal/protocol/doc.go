// Package protocol defines the JSON envelope exchanged between the client and a
// Copilot CLI bridge.
//
// Every frame is a UTF-8 text frame holding one JSON object:
//
//	{"type": "message", "message": "hello", "sessionId": "sess_01J..."}
//
// Message Types (Client → Bridge):
//   - auth: optional first frame carrying the bearer token in apiKey
//   - message: chat text
//   - command: a key token such as ^C or <TAB>
//
// Message Types (Bridge → Client):
//   - welcome: greeting sent once after the handshake, may carry clientId/sessionId
//   - response: answer to a prior message or command
//   - error: failure text in the error field
//
// Unknown types are not an encoding error. Decode reports them with
// ErrUnknownType so the caller can surface the raw payload instead.
package protocol
