// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package host

import "errors"

// Session errors.
var (
	// Configuration errors.
	ErrEmptyHostID         = errors.New("host application ID cannot be empty")
	ErrNilTransport        = errors.New("transport cannot be nil")
	ErrNegativeTimeout     = errors.New("reorder timeout cannot be negative")
	ErrUnsupportedProtocol = errors.New("unsupported MQTT protocol version (must be 4 or 5)")

	// Lifecycle errors.
	ErrAlreadyStarted  = errors.New("session already started")
	ErrNotStarted      = errors.New("session not started")
	ErrConnectFailed   = errors.New("connect failed")
	ErrSubscribeFailed = errors.New("subscribe failed")
	ErrPublishFailed   = errors.New("publish failed")
)
