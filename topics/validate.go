// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package topics

import (
	"errors"
	"fmt"
	"strings"
)

// Common validation errors.
var ErrInvalidElement = errors.New("invalid topic element: empty or contains reserved characters")

// ValidateElement checks that a caller-supplied identifier (group ID, edge
// node ID, host ID) is usable as a Sparkplug topic segment. It rejects empty
// or all-whitespace values and the MQTT reserved characters '+', '/' and '#'.
//
// Validation applies only when constructing topics from identifiers. Parse
// never re-validates segments; it mirrors whatever the publisher produced.
func ValidateElement(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrInvalidElement, field)
	}
	if strings.ContainsAny(value, "+/#") {
		return fmt.Errorf("%w: %s must not contain '+', '/' or '#'", ErrInvalidElement, field)
	}
	return nil
}
