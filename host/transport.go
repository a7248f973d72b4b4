// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package host

import "context"

// Will is the message registered at connect time that the broker publishes
// on the session's behalf if the connection drops uncleanly. The session
// uses it to carry the host's death certificate.
type Will struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// ConnectOptions carries the session-level connect parameters the transport
// must honor.
type ConnectOptions struct {
	// CleanStart requests clean-session (MQTT 3.1.1) or clean-start
	// (MQTT 5.0) semantics, depending on ProtocolVersion.
	CleanStart      bool
	ProtocolVersion byte
	Will            *Will
}

// Transport is the publish/subscribe collaborator the session drives. All
// calls block until the broker acknowledges the operation or ctx is done;
// the session never retries a failed call.
//
// Inbound messages are the transport's concern: implementations route them
// to Session.HandleMessage.
type Transport interface {
	Connect(ctx context.Context, opts ConnectOptions) error
	Subscribe(ctx context.Context, filter string, qos byte) error
	Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error
	Disconnect(ctx context.Context) error
}
