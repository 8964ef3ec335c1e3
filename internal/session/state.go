package session

// State is the connection state of a Manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

var stateNames = [...]string{
	StateDisconnected: "DISCONNECTED",
	StateConnecting:   "CONNECTING",
	StateConnected:    "CONNECTED",
	StateError:        "ERROR",
}

// AllStates lists every state in declaration order.
func AllStates() []State {
	return []State{StateDisconnected, StateConnecting, StateConnected, StateError}
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

func stateLabels() []string {
	all := AllStates()
	labels := make([]string, len(all))
	for i, s := range all {
		labels[i] = s.String()
	}
	return labels
}
