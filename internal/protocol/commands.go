package protocol

// Command tokens carried in the message field of a "command" envelope. They are
// short printable stand-ins for terminal keys; the bridge translates them into
// control bytes for the CLI it drives.
const (
	CommandInterrupt = "^C"
	CommandEOF       = "^D"
	CommandTab       = "<TAB>"
	CommandEscape    = "<ESC>"
	CommandEnter     = "<ENTER>"
	CommandUp        = "<UP>"
	CommandDown      = "<DOWN>"
	CommandLeft      = "<LEFT>"
	CommandRight     = "<RIGHT>"
)

var controlBytes = map[string][]byte{
	CommandInterrupt: {0x03},
	CommandEOF:       {0x04},
	CommandTab:       {'\t'},
	CommandEscape:    {0x1b},
	CommandEnter:     {'\r'},
	CommandUp:        []byte("\x1b[A"),
	CommandDown:      []byte("\x1b[B"),
	CommandRight:     []byte("\x1b[C"),
	CommandLeft:      []byte("\x1b[D"),
}

// ControlBytes returns the terminal input for a command token. Unknown tokens
// are passed through literally.
func ControlBytes(token string) []byte {
	if b, ok := controlBytes[token]; ok {
		out := make([]byte, len(b))
		copy(out, b)
		return out
	}
	return []byte(token)
}
