// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import (
	"errors"
	"fmt"
	"strings"
)

// MessageType is the closed set of Sparkplug B message types.
type MessageType uint8

// Sparkplug B message types.
const (
	NBirth MessageType = iota // edge node birth certificate
	NDeath                    // edge node death certificate
	DBirth                    // device birth certificate
	DDeath                    // device death certificate
	NData                     // edge node telemetry
	DData                     // device telemetry
	NCmd                      // edge node command
	DCmd                      // device command
	State                     // host/edge online state announcement
)

// ErrUnknownMessageType is returned when a topic's message-type segment is
// outside the closed Sparkplug enumeration.
var ErrUnknownMessageType = errors.New("unknown sparkplug message type")

// String returns the canonical uppercase wire name of the message type.
func (m MessageType) String() string {
	switch m {
	case NBirth:
		return "NBIRTH"
	case NDeath:
		return "NDEATH"
	case DBirth:
		return "DBIRTH"
	case DDeath:
		return "DDEATH"
	case NData:
		return "NDATA"
	case DData:
		return "DDATA"
	case NCmd:
		return "NCMD"
	case DCmd:
		return "DCMD"
	case State:
		return "STATE"
	default:
		return "UNKNOWN"
	}
}

// ParseMessageType resolves a topic segment to its MessageType.
// Matching is case-insensitive; the canonical form is uppercase.
func ParseMessageType(s string) (MessageType, error) {
	switch strings.ToUpper(s) {
	case "NBIRTH":
		return NBirth, nil
	case "NDEATH":
		return NDeath, nil
	case "DBIRTH":
		return DBirth, nil
	case "DDEATH":
		return DDeath, nil
	case "NDATA":
		return NData, nil
	case "DDATA":
		return DData, nil
	case "NCMD":
		return NCmd, nil
	case "DCMD":
		return DCmd, nil
	case "STATE":
		return State, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMessageType, s)
	}
}

// IsDeviceMessage reports whether the type addresses a device under an
// edge node.
func (m MessageType) IsDeviceMessage() bool {
	return m == DBirth || m == DDeath || m == DData || m == DCmd
}

// IsEdgeNodeMessage reports whether the type addresses an edge node itself.
func (m MessageType) IsEdgeNodeMessage() bool {
	return m == NBirth || m == NDeath || m == NData || m == NCmd
}
