// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package payload

import "encoding/json"

// Payload is the envelope carried by birth, death and telemetry messages.
// Seq is the 8-bit Sparkplug sequence counter; it is a pointer so that a
// payload without a sequence field is distinguishable from seq 0.
type Payload struct {
	Timestamp *uint64  `json:"timestamp,omitempty"`
	Metrics   []Metric `json:"metrics,omitempty"`
	Seq       *uint64  `json:"seq,omitempty"`
	UUID      string   `json:"uuid,omitempty"`
	Body      []byte   `json:"body,omitempty"`
}

// Decode parses a payload envelope.
func Decode(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Encode serializes the payload envelope.
func (p *Payload) Encode() ([]byte, error) {
	return json.Marshal(p)
}

// SeqNumber returns the payload's sequence number reduced to the Sparkplug
// 8-bit field range, and whether the payload carries one at all.
func (p *Payload) SeqNumber() (uint8, bool) {
	if p == nil || p.Seq == nil {
		return 0, false
	}
	return uint8(*p.Seq % 256), true
}
