// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"log/slog"
	"time"

	"github.com/absmach/sparkhost/payload"
	"github.com/absmach/sparkhost/topics"
)

// Default values.
const (
	DefaultReorderTimeout  = 5 * time.Second
	DefaultProtocolVersion = 4 // MQTT 3.1.1
	DefaultQoS             = 1 // Sparkplug STATE flows require at-least-once
)

// Message is an inbound Sparkplug message handed to the OnMessage callback,
// already classified by topic.
type Message struct {
	Address topics.Address
	Topic   string
	Payload []byte
}

// Options configures a host application session.
type Options struct {
	// HostID is the Sparkplug host application ID. Required; it must pass
	// topic element validation since it becomes a topic segment.
	HostID string

	// Version selects the Sparkplug namespace. Currently only V300.
	Version topics.Version

	// ProtocolVersion is the MQTT sub-version the transport negotiates:
	// 4 for MQTT 3.1.1, 5 for MQTT 5.0.
	ProtocolVersion byte

	// Subscriptions are the topic filters to subscribe on start, in order.
	// The session de-duplicates them, strips the host's own state topic,
	// and appends the wildcard and state topics per the Sparkplug rules.
	Subscriptions []string

	// AlwaysSubscribeWildcard forces the namespace wildcard subscription
	// even when explicit subscriptions are configured.
	AlwaysSubscribeWildcard bool

	// EnableOrdering turns on per-edge-node sequence reordering of
	// NDATA/DDATA messages.
	EnableOrdering bool

	// ReorderTimeout bounds how long a sequence gap may stay unresolved
	// before a rebirth request is signalled.
	ReorderTimeout time.Duration

	// QoS used for subscriptions. STATE publishes and the will message are
	// always at-least-once regardless of this setting.
	QoS byte

	// OnMessage receives inbound Sparkplug messages, in sequence order when
	// ordering is enabled.
	OnMessage func(Message)

	// OnHostState receives STATE announcements from other hosts and nodes.
	OnHostState func(hostID string, s payload.State)

	// OnRebirthRequest fires when a node's sequence gap outlived the
	// reorder timeout; the caller is expected to command a rebirth.
	OnRebirthRequest func(groupID, edgeNodeID string)

	// Logger used by the session. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewOptions creates Options with sensible defaults.
func NewOptions() *Options {
	return &Options{
		Version:         topics.V300,
		ProtocolVersion: DefaultProtocolVersion,
		ReorderTimeout:  DefaultReorderTimeout,
		QoS:             DefaultQoS,
	}
}

// SetHostID sets the host application ID.
func (o *Options) SetHostID(id string) *Options {
	o.HostID = id
	return o
}

// SetProtocolVersion sets the MQTT protocol version (4 or 5).
func (o *Options) SetProtocolVersion(v byte) *Options {
	o.ProtocolVersion = v
	return o
}

// SetSubscriptions sets the configured topic filters.
func (o *Options) SetSubscriptions(filters ...string) *Options {
	o.Subscriptions = filters
	return o
}

// SetAlwaysSubscribeWildcard forces the namespace wildcard subscription.
func (o *Options) SetAlwaysSubscribeWildcard(always bool) *Options {
	o.AlwaysSubscribeWildcard = always
	return o
}

// SetOrdering enables sequence reordering with the given gap timeout.
func (o *Options) SetOrdering(enable bool, timeout time.Duration) *Options {
	o.EnableOrdering = enable
	o.ReorderTimeout = timeout
	return o
}

// SetOnMessage sets the inbound message callback.
func (o *Options) SetOnMessage(fn func(Message)) *Options {
	o.OnMessage = fn
	return o
}

// SetOnHostState sets the host STATE callback.
func (o *Options) SetOnHostState(fn func(hostID string, s payload.State)) *Options {
	o.OnHostState = fn
	return o
}

// SetOnRebirthRequest sets the rebirth request callback.
func (o *Options) SetOnRebirthRequest(fn func(groupID, edgeNodeID string)) *Options {
	o.OnRebirthRequest = fn
	return o
}

// SetLogger sets the session logger.
func (o *Options) SetLogger(log *slog.Logger) *Options {
	o.Logger = log
	return o
}

// Validate checks the options for errors.
func (o *Options) Validate() error {
	if o.HostID == "" {
		return ErrEmptyHostID
	}
	if err := topics.ValidateElement(o.HostID, "host application ID"); err != nil {
		return err
	}
	if o.ReorderTimeout < 0 {
		return ErrNegativeTimeout
	}
	if o.QoS == 0 {
		o.QoS = DefaultQoS
	}
	return nil
}

// stateTopic returns the host's own STATE topic.
func (o *Options) stateTopic() string {
	return topics.HostState(o.Version, o.HostID)
}

// normalizedSubscriptions builds the final subscribe list: configured
// filters with duplicates and the host's own state topic removed, the
// namespace wildcard when nothing else is configured (or always, when
// forced), and the host's own state topic appended last.
func (o *Options) normalizedSubscriptions() []string {
	stateTopic := o.stateTopic()
	wildcard := topics.Wildcard(o.Version)

	seen := make(map[string]bool, len(o.Subscriptions))
	out := make([]string, 0, len(o.Subscriptions)+2)
	for _, sub := range o.Subscriptions {
		if sub == stateTopic || seen[sub] {
			continue
		}
		seen[sub] = true
		out = append(out, sub)
	}

	if (len(out) == 0 || o.AlwaysSubscribeWildcard) && !seen[wildcard] {
		out = append(out, wildcard)
	}

	return append(out, stateTopic)
}
