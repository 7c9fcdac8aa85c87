package client

import "sync/atomic"

// State is a session lifecycle state. Sessions move strictly forward:
// Idle, Connecting, Handshaking, Streaming, Disconnected.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateHandshaking
	StateStreaming
	StateDisconnected
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateHandshaking:
		return "Handshaking"
	case StateStreaming:
		return "Streaming"
	case StateDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// stateVar holds the current state with atomic access.
type stateVar struct {
	v atomic.Int32
}

func (s *stateVar) get() State {
	return State(s.v.Load())
}

func (s *stateVar) set(next State) {
	s.v.Store(int32(next))
}
