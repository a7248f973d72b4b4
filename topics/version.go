// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package topics implements the Sparkplug B topic namespace: identifier
// validation, topic construction and topic parsing. Encoding and decoding
// are a bijection over the structured Address form; neither side validates
// identifier content (that is ValidateElement's job on the construction
// path), so degenerate addresses with empty segments round-trip unchanged.
package topics

import (
	"errors"
	"fmt"
	"strings"
)

// Version identifies a supported Sparkplug protocol version.
type Version uint8

// Supported versions.
const (
	// V300 is Sparkplug B v3.0.0, namespace "spBv1.0".
	V300 Version = iota
)

// ErrUnknownNamespace is returned when a topic's namespace segment does not
// match any supported Sparkplug version.
var ErrUnknownNamespace = errors.New("unknown sparkplug namespace")

// Namespace returns the topic namespace prefix for the version.
func (v Version) Namespace() string {
	switch v {
	case V300:
		return "spBv1.0"
	default:
		return "unknown"
	}
}

// String returns the namespace form of the version.
func (v Version) String() string {
	return v.Namespace()
}

// VersionFromNamespace resolves a namespace segment back to its Version.
// Matching is case-insensitive.
func VersionFromNamespace(ns string) (Version, error) {
	switch strings.ToLower(ns) {
	case "spbv1.0":
		return V300, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownNamespace, ns)
	}
}
