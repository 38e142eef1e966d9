package supervisor

// ConnectionState is the externally observable transport state.
type ConnectionState int32

const (
	// StateDisconnected means no transport is open and no dial is in
	// progress. A reconnect attempt may be scheduled.
	StateDisconnected ConnectionState = iota

	// StateConnecting means a dial is in progress.
	StateConnecting

	// StateConnected means the transport is open and the read loop is
	// running.
	StateConnected

	// StateError means the reconnection bound was exhausted. The supervisor
	// stays here until Reconnect or Connect is called explicitly.
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}
