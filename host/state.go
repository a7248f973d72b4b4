// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package host

import "sync/atomic"

// State represents the session lifecycle state.
type State uint32

// Session states. Disconnected is terminal: a stopped session is not
// restarted, the caller builds a new one.
const (
	StateIdle State = iota
	StateConnecting
	StateSubscribing
	StateOnline
	StateStopping
	StateDisconnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateSubscribing:
		return "subscribing"
	case StateOnline:
		return "online"
	case StateStopping:
		return "stopping"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// stateManager handles atomic state transitions.
type stateManager struct {
	state uint32
}

func newStateManager() *stateManager {
	return &stateManager{state: uint32(StateIdle)}
}

func (sm *stateManager) get() State {
	return State(atomic.LoadUint32(&sm.state))
}

func (sm *stateManager) set(s State) {
	atomic.StoreUint32(&sm.state, uint32(s))
}

// transition attempts to move from expected to new state.
func (sm *stateManager) transition(from, to State) bool {
	return atomic.CompareAndSwapUint32(&sm.state, uint32(from), uint32(to))
}

// transitionFrom attempts to move to the new state from any of the expected
// states, returning the state it moved from.
func (sm *stateManager) transitionFrom(to State, from ...State) (State, bool) {
	for _, f := range from {
		if sm.transition(f, to) {
			return f, true
		}
	}
	return sm.get(), false
}
