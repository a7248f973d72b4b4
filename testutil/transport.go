// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides an in-memory transport for exercising the host
// session without a broker.
package testutil

import (
	"context"
	"sync"

	"github.com/absmach/sparkhost/host"
)

// Subscription records one Subscribe call.
type Subscription struct {
	Filter string
	QoS    byte
}

// Publish records one Publish call.
type Publish struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// Transport is a scriptable, recording implementation of host.Transport.
// The zero value succeeds on every operation.
type Transport struct {
	mu sync.Mutex

	// Scripted failures. FailSubscribe fails only the named filter.
	ConnectErr    error
	SubscribeErr  error
	FailSubscribe map[string]error
	PublishErr    error
	DisconnectErr error

	connected     bool
	connects      []host.ConnectOptions
	subscriptions []Subscription
	publishes     []Publish
	disconnects   int
}

var _ host.Transport = (*Transport)(nil)

// Connect records the connect options.
func (t *Transport) Connect(_ context.Context, opts host.ConnectOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connects = append(t.connects, opts)
	if t.ConnectErr != nil {
		return t.ConnectErr
	}
	t.connected = true
	return nil
}

// Subscribe records the subscription.
func (t *Transport) Subscribe(_ context.Context, filter string, qos byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.FailSubscribe[filter]; ok {
		return err
	}
	if t.SubscribeErr != nil {
		return t.SubscribeErr
	}
	t.subscriptions = append(t.subscriptions, Subscription{Filter: filter, QoS: qos})
	return nil
}

// Publish records the publish.
func (t *Transport) Publish(_ context.Context, topic string, payload []byte, qos byte, retain bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.PublishErr != nil {
		return t.PublishErr
	}
	t.publishes = append(t.publishes, Publish{Topic: topic, Payload: payload, QoS: qos, Retain: retain})
	return nil
}

// Disconnect records the disconnect.
func (t *Transport) Disconnect(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disconnects++
	t.connected = false
	return t.DisconnectErr
}

// Connected reports whether the transport is currently connected.
func (t *Transport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Connects returns the recorded connect options.
func (t *Transport) Connects() []host.ConnectOptions {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]host.ConnectOptions(nil), t.connects...)
}

// Subscriptions returns the recorded subscriptions in call order.
func (t *Transport) Subscriptions() []Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Subscription(nil), t.subscriptions...)
}

// Filters returns just the subscribed topic filters in call order.
func (t *Transport) Filters() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	filters := make([]string, 0, len(t.subscriptions))
	for _, sub := range t.subscriptions {
		filters = append(filters, sub.Filter)
	}
	return filters
}

// Publishes returns the recorded publishes in call order.
func (t *Transport) Publishes() []Publish {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Publish(nil), t.publishes...)
}

// Disconnects returns how many times Disconnect was called.
func (t *Transport) Disconnects() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disconnects
}
