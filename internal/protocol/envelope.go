package protocol

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Message types from client to bridge
const (
	TypeMessage = "message"
	TypeCommand = "command"
	TypeAuth    = "auth"
)

// Message types from bridge to client
const (
	TypeWelcome  = "welcome"
	TypeResponse = "response"
	TypeError    = "error"
)

var (
	ErrNotJSON     = errors.New("payload is not a JSON object")
	ErrUnknownType = errors.New("unknown envelope type")
)

// codec matches encoding/json output byte for byte (HTML escaping, sorted map keys).
var codec = sonic.ConfigStd

// Envelope is the JSON unit exchanged over the socket.
type Envelope struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Error     string `json:"error,omitempty"`
	APIKey    string `json:"apiKey,omitempty"`
	ClientID  string `json:"clientId,omitempty"`
}

// Known reports whether t is one of the envelope types this package defines.
func Known(t string) bool {
	switch t {
	case TypeWelcome, TypeMessage, TypeCommand, TypeResponse, TypeError, TypeAuth:
		return true
	}
	return false
}

// Text returns the meaningful payload for the envelope's type.
func (e Envelope) Text() string {
	if e.Type == TypeError {
		return e.Error
	}
	return e.Message
}

func NewMessage(text, sessionID string) Envelope {
	return Envelope{Type: TypeMessage, Message: text, SessionID: sessionID}
}

func NewCommand(command, sessionID string) Envelope {
	return Envelope{Type: TypeCommand, Message: command, SessionID: sessionID}
}

func NewResponse(text, sessionID string) Envelope {
	return Envelope{Type: TypeResponse, Message: text, SessionID: sessionID}
}

func NewError(text, sessionID string) Envelope {
	return Envelope{Type: TypeError, Error: text, SessionID: sessionID}
}

func NewWelcome(greeting, clientID, sessionID string) Envelope {
	return Envelope{Type: TypeWelcome, Message: greeting, ClientID: clientID, SessionID: sessionID}
}

// NewAuth builds the optional handshake envelope sent before any application traffic.
func NewAuth(token string) Envelope {
	return Envelope{Type: TypeAuth, APIKey: token}
}

// Encode serializes an envelope to a JSON text frame.
func Encode(env Envelope) ([]byte, error) {
	data, err := codec.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", env.Type, err)
	}
	return data, nil
}

// Decode parses a text frame. A payload that is JSON but does not carry a known
// type returns the parsed envelope together with ErrUnknownType so callers can
// still fall back to the raw text.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if !codec.Valid(data) {
		return env, ErrNotJSON
	}
	if err := codec.Unmarshal(data, &env); err != nil {
		// Valid JSON that is not an object, or fields of the wrong kind.
		return Envelope{}, fmt.Errorf("%w: %v", ErrUnknownType, err)
	}
	if !Known(env.Type) {
		return env, ErrUnknownType
	}
	return env, nil
}
