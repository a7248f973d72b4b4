// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package payload holds the Sparkplug B payload value types used by the
// host session: the STATE certificate payload and the tabular metric
// containers. These are plain data holders; protocol behavior lives in the
// host and reorder packages.
package payload

import "encoding/json"

// State is the payload of a host STATE message (birth/death certificate).
// The wire form is exactly {"online":<bool>,"timestamp":<unix-millis>}.
type State struct {
	Online    bool  `json:"online"`
	Timestamp int64 `json:"timestamp"`
}

// Encode serializes the state certificate to its JSON wire form.
func (s State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeState parses a STATE payload.
func DecodeState(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, err
	}
	return s, nil
}
