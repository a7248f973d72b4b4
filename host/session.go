// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package host implements the Sparkplug B host application session: the
// connect → will → subscribe → birth startup sequence, the mirrored death →
// disconnect shutdown, and inbound message classification with optional
// per-edge-node sequence reordering.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/absmach/sparkhost/payload"
	"github.com/absmach/sparkhost/reorder"
	"github.com/absmach/sparkhost/topics"
)

// Session is a Sparkplug B host application session over a generic pub/sub
// transport. It owns the birth/death certificate lifecycle and routes every
// inbound message by its parsed topic. A session runs at most once:
// Start → Stop, no automatic reconnection.
type Session struct {
	opts      *Options
	transport Transport
	log       *slog.Logger
	state     *stateManager
	metrics   *Metrics

	// Sequence reordering (nil when ordering is disabled).
	buf *reorder.Buffer

	// Live sequence windows, tracked for the windows gauge.
	windowsMu sync.Mutex
	windows   map[string]bool
}

// New creates a session from validated options and a transport.
func New(opts *Options, transport Transport) (*Session, error) {
	if transport == nil {
		return nil, ErrNilTransport
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	metrics, err := NewMetrics()
	if err != nil {
		return nil, err
	}

	s := &Session{
		opts:      opts,
		transport: transport,
		log:       log.With("host_id", opts.HostID),
		state:     newStateManager(),
		metrics:   metrics,
		windows:   make(map[string]bool),
	}

	if opts.EnableOrdering {
		s.buf = reorder.New(opts.ReorderTimeout, s.deliverOrdered, s.reorderTimedOut)
	}

	return s, nil
}

// State returns the current session state.
func (s *Session) State() State {
	return s.state.get()
}

// Start brings the session online: connect with the death certificate
// registered as will message, subscribe to the normalized filter list, then
// publish the birth certificate. The will and birth payloads share a single
// timestamp captured at the top of the call. Steps run strictly in order;
// the first failure aborts the attempt and is returned to the caller, who
// owns any retry of the whole sequence.
func (s *Session) Start(ctx context.Context) error {
	if !s.state.transition(StateIdle, StateConnecting) {
		return ErrAlreadyStarted
	}

	cleanStart, err := cleanStartFor(s.opts.ProtocolVersion)
	if err != nil {
		s.state.set(StateIdle)
		return err
	}

	// One timestamp for both certificates: the will payload registered at
	// connect and the birth published last must be byte-identical apart
	// from the online flag.
	ts := time.Now().UnixMilli()
	stateTopic := s.opts.stateTopic()

	death, err := payload.State{Online: false, Timestamp: ts}.Encode()
	if err != nil {
		s.state.set(StateIdle)
		return err
	}

	s.log.Info("connecting", "clean_start", cleanStart, "protocol_version", s.opts.ProtocolVersion)
	connOpts := ConnectOptions{
		CleanStart:      cleanStart,
		ProtocolVersion: s.opts.ProtocolVersion,
		Will: &Will{
			Topic:   stateTopic,
			Payload: death,
			QoS:     DefaultQoS,
			Retain:  true,
		},
	}
	if err := s.transport.Connect(ctx, connOpts); err != nil {
		s.state.set(StateIdle)
		return fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	s.state.set(StateSubscribing)
	for _, filter := range s.opts.normalizedSubscriptions() {
		if err := s.transport.Subscribe(ctx, filter, s.opts.QoS); err != nil {
			s.state.set(StateIdle)
			return fmt.Errorf("%w: %q: %w", ErrSubscribeFailed, filter, err)
		}
		s.log.Debug("subscribed", "filter", filter)
	}

	birth, err := payload.State{Online: true, Timestamp: ts}.Encode()
	if err != nil {
		s.state.set(StateIdle)
		return err
	}
	if err := s.transport.Publish(ctx, stateTopic, birth, DefaultQoS, true); err != nil {
		s.state.set(StateIdle)
		return fmt.Errorf("%w: birth certificate: %w", ErrPublishFailed, err)
	}

	s.state.set(StateOnline)
	s.log.Info("session online", "state_topic", stateTopic)
	return nil
}

// Stop takes the session offline: publish the death certificate with a
// fresh timestamp, then disconnect. It is safe to call after a partially
// failed Start; the death publish is skipped unless the session reached
// Online, but the transport is always disconnected. The death timestamp is
// deliberately captured at stop time and does not match the will's.
func (s *Session) Stop(ctx context.Context) error {
	from, ok := s.state.transitionFrom(StateStopping, StateOnline, StateSubscribing, StateConnecting, StateIdle)
	if !ok {
		return ErrNotStarted
	}

	var publishErr error
	if from == StateOnline {
		death, err := payload.State{Online: false, Timestamp: time.Now().UnixMilli()}.Encode()
		if err == nil {
			err = s.transport.Publish(ctx, s.opts.stateTopic(), death, DefaultQoS, true)
		}
		if err != nil {
			publishErr = fmt.Errorf("%w: death certificate: %w", ErrPublishFailed, err)
			s.log.Error("death certificate publish failed", "error", err)
		}
	}

	// Disconnect even if the death publish failed: leaving the connection
	// up would let the stale birth certificate outlive the session.
	disconnectErr := s.transport.Disconnect(ctx)

	if s.buf != nil {
		s.buf.Close()
	}
	s.state.set(StateDisconnected)
	s.log.Info("session stopped")

	return errors.Join(publishErr, disconnectErr)
}

// HandleMessage routes one inbound transport message through the topic
// parser and, when ordering is enabled, the sequence reorder buffer.
// Transport implementations call it for every received message.
func (s *Session) HandleMessage(topic string, data []byte) {
	addr, err := topics.Parse(topic)
	if err != nil {
		s.metrics.RecordParseError()
		s.log.Debug("dropping message with unparseable topic", "topic", topic, "error", err)
		return
	}
	s.metrics.RecordReceived(addr.Type.String())

	if addr.Type == topics.State {
		st, err := payload.DecodeState(data)
		if err != nil {
			s.log.Warn("undecodable STATE payload", "topic", topic, "error", err)
			return
		}
		if s.opts.OnHostState != nil {
			s.opts.OnHostState(addr.HostID, st)
		}
		return
	}

	msg := Message{Address: addr, Topic: topic, Payload: data}
	if s.buf == nil {
		s.deliver(msg)
		return
	}

	descriptor := addr.NodeDescriptor()
	switch addr.Type {
	case topics.NBirth:
		seq, ok := s.seqOf(data)
		if !ok {
			s.log.Warn("NBIRTH without sequence number, ordering disabled for node", "node", descriptor)
			s.deliver(msg)
			return
		}
		s.trackWindow(descriptor, true)
		s.buf.Birth(descriptor, seq, reorder.Message{Address: addr, Topic: topic, Payload: data, Seq: seq})
	case topics.NDeath:
		s.trackWindow(descriptor, false)
		s.buf.Death(descriptor)
		s.deliver(msg)
	case topics.NData, topics.DData:
		seq, ok := s.seqOf(data)
		if !ok {
			s.log.Warn("telemetry without sequence number bypasses ordering", "topic", topic)
			s.deliver(msg)
			return
		}
		s.buf.Data(descriptor, seq, reorder.Message{Address: addr, Topic: topic, Payload: data, Seq: seq})
	default:
		s.deliver(msg)
	}
}

// cleanStartFor maps the MQTT sub-version to its session-reset flag:
// clean-session for 3.1.1, clean-start for 5.0. A host application always
// starts clean; any other version is an unsupported configuration.
func cleanStartFor(version byte) (bool, error) {
	switch version {
	case 4, 5:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %d", ErrUnsupportedProtocol, version)
	}
}

func (s *Session) deliver(msg Message) {
	s.metrics.RecordDelivered()
	if s.opts.OnMessage != nil {
		s.opts.OnMessage(msg)
	}
}

// deliverOrdered is the reorder buffer's delivery callback.
func (s *Session) deliverOrdered(msg reorder.Message) {
	s.deliver(Message{Address: msg.Address, Topic: msg.Topic, Payload: msg.Payload})
}

// reorderTimedOut is the reorder buffer's gap-expiry callback: surface a
// rebirth request for the node so the caller can command a resend of its
// birth state.
func (s *Session) reorderTimedOut(descriptor string) {
	s.metrics.RecordReorderTimeout(descriptor)
	s.log.Warn("sequence gap unresolved, requesting rebirth", "node", descriptor)

	groupID, edgeNodeID, _ := splitDescriptor(descriptor)
	if s.opts.OnRebirthRequest != nil {
		s.opts.OnRebirthRequest(groupID, edgeNodeID)
	}
}

func (s *Session) seqOf(data []byte) (uint8, bool) {
	p, err := payload.Decode(data)
	if err != nil {
		return 0, false
	}
	return p.SeqNumber()
}

// trackWindow keeps the active-windows gauge in step with births/deaths.
func (s *Session) trackWindow(descriptor string, open bool) {
	s.windowsMu.Lock()
	defer s.windowsMu.Unlock()
	if open && !s.windows[descriptor] {
		s.windows[descriptor] = true
		s.metrics.RecordWindowOpened()
	} else if !open && s.windows[descriptor] {
		delete(s.windows, descriptor)
		s.metrics.RecordWindowClosed()
	}
}

// splitDescriptor splits "group/node" back into its parts.
func splitDescriptor(descriptor string) (groupID, edgeNodeID string, ok bool) {
	return strings.Cut(descriptor, "/")
}
