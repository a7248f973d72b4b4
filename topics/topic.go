// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedTopic is returned when a topic string does not match any
// Sparkplug segment layout.
var ErrMalformedTopic = errors.New("malformed sparkplug topic")

// Address is the structured form of a Sparkplug topic. Exactly one of
// (GroupID+EdgeNodeID[+DeviceID]) or HostID is populated, determined by
// whether Type is State.
type Address struct {
	Version    Version
	Type       MessageType
	GroupID    string
	EdgeNodeID string
	DeviceID   string
	HostID     string
}

// Descriptor returns the edge node descriptor "group/node", with the device
// ID appended when present. STATE addresses have no descriptor.
func (a Address) Descriptor() string {
	if a.Type == State {
		return ""
	}
	if a.DeviceID != "" {
		return a.GroupID + "/" + a.EdgeNodeID + "/" + a.DeviceID
	}
	return a.GroupID + "/" + a.EdgeNodeID
}

// NodeDescriptor returns "group/node" regardless of a device segment, for
// keying per-edge-node state.
func (a Address) NodeDescriptor() string {
	return a.GroupID + "/" + a.EdgeNodeID
}

// String re-encodes the address to its topic form.
func (a Address) String() string {
	if a.Type == State {
		return HostState(a.Version, a.HostID)
	}
	if a.DeviceID != "" {
		return Device(a.Version, a.GroupID, a.Type, a.EdgeNodeID, a.DeviceID)
	}
	return EdgeNode(a.Version, a.GroupID, a.Type, a.EdgeNodeID)
}

// Wildcard returns the filter matching every topic under the version's
// namespace.
func Wildcard(v Version) string {
	return v.Namespace() + "/#"
}

// HostState returns the STATE topic for a host application.
func HostState(v Version, hostID string) string {
	return v.Namespace() + "/STATE/" + hostID
}

// EdgeNode returns the topic for an edge node message.
//
// Encoding is pure concatenation: identifiers are not validated here, so an
// empty ID yields a topic with an empty segment. Callers validate with
// ValidateElement before building topics from external input.
func EdgeNode(v Version, groupID string, mt MessageType, edgeNodeID string) string {
	return v.Namespace() + "/" + groupID + "/" + mt.String() + "/" + edgeNodeID
}

// Device returns the topic for a device message under an edge node.
func Device(v Version, groupID string, mt MessageType, edgeNodeID, deviceID string) string {
	return EdgeNode(v, groupID, mt, edgeNodeID) + "/" + deviceID
}

// Parse splits a topic string into its structured Address.
//
// The namespace and message-type segments match case-insensitively; all
// identifier segments are case-sensitive and are not validated, mirroring
// whatever the encoder produced (including empty segments). Layouts:
//
//	<ns>/STATE/<hostID>
//	<ns>/<groupID>/<TYPE>/<edgeNodeID>[/<deviceID>]
func Parse(topic string) (Address, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return Address{}, fmt.Errorf("%w: %q has %d segments, need at least 3", ErrMalformedTopic, topic, len(parts))
	}

	version, err := VersionFromNamespace(parts[0])
	if err != nil {
		return Address{}, err
	}

	// STATE topics carry the message type in the second segment; all other
	// types carry it in the third. Probe the second segment first.
	if mt, err := ParseMessageType(parts[1]); err == nil && mt == State {
		if len(parts) != 3 {
			return Address{}, fmt.Errorf("%w: STATE topic %q must have exactly 3 segments", ErrMalformedTopic, topic)
		}
		return Address{Version: version, Type: State, HostID: parts[2]}, nil
	}

	if len(parts) != 4 && len(parts) != 5 {
		return Address{}, fmt.Errorf("%w: %q has %d segments, need 4 or 5", ErrMalformedTopic, topic, len(parts))
	}

	mt, err := ParseMessageType(parts[2])
	if err != nil {
		return Address{}, err
	}
	if mt == State {
		return Address{}, fmt.Errorf("%w: STATE in group position of %q", ErrMalformedTopic, topic)
	}

	addr := Address{
		Version:    version,
		Type:       mt,
		GroupID:    parts[1],
		EdgeNodeID: parts[3],
	}
	if len(parts) == 5 {
		addr.DeviceID = parts[4]
	}
	return addr, nil
}
