package console

import (
	"strings"

	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
)

// Action is what a typed line asks the client to do.
type Action int

const (
	ActionNone Action = iota
	ActionChat
	ActionCommand
	ActionQuit
	ActionStatus
	ActionSession
	ActionHealth
	ActionReconnect
)

// Input is a parsed line.
type Input struct {
	Action Action
	// Text is the chat text, the command token or the session id.
	Text string
}

var keyCommands = map[string]string{
	"/ctrl-c": protocol.CommandInterrupt,
	"/ctrl-d": protocol.CommandEOF,
	"/tab":    protocol.CommandTab,
	"/esc":    protocol.CommandEscape,
	"/enter":  protocol.CommandEnter,
	"/up":     protocol.CommandUp,
	"/down":   protocol.CommandDown,
	"/left":   protocol.CommandLeft,
	"/right":  protocol.CommandRight,
}

// ParseInput maps a typed line to an Action. Lines that are not client
// commands, including unrecognized slash commands, are chat text for the CLI.
func ParseInput(line string) Input {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Input{Action: ActionNone}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Input{Action: ActionChat, Text: line}
	}

	name, arg, _ := strings.Cut(trimmed, " ")
	if token, ok := keyCommands[name]; ok && arg == "" {
		return Input{Action: ActionCommand, Text: token}
	}
	switch name {
	case "/quit", "/exit":
		return Input{Action: ActionQuit}
	case "/status":
		return Input{Action: ActionStatus}
	case "/session":
		return Input{Action: ActionSession, Text: strings.TrimSpace(arg)}
	case "/health":
		return Input{Action: ActionHealth}
	case "/reconnect":
		return Input{Action: ActionReconnect}
	}
	return Input{Action: ActionChat, Text: line}
}
