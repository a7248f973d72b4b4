// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package transport provides the MQTT implementation of the host session's
// transport interface, built on eclipse/paho.mqtt.golang.
package transport

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/absmach/sparkhost/host"
)

// Default values.
const (
	DefaultKeepAlive      = 60 * time.Second
	DefaultConnectTimeout = 10 * time.Second

	// disconnectQuiesce is how long paho waits for in-flight work on
	// disconnect, in milliseconds.
	disconnectQuiesce = 250
)

// Transport errors.
var (
	ErrNotConnected = errors.New("mqtt transport not connected")
	ErrMQTT5        = errors.New("MQTT 5.0 is not supported by this transport")
)

// Config holds MQTT transport settings.
type Config struct {
	// Addr is the broker address, host:port or a full URL (tcp://, ssl://,
	// ws://). A bare host:port connects over plain TCP.
	Addr string

	// ClientID identifies this client to the broker. A random suffix-based
	// ID is generated when empty.
	ClientID string

	Username string
	Password string

	KeepAlive      time.Duration
	ConnectTimeout time.Duration
}

// Handler receives every inbound message from the broker.
type Handler func(topic string, payload []byte)

// MQTT implements host.Transport over a paho MQTT client. Automatic
// reconnection is disabled: the session treats a lost connection as fatal
// and the caller owns any retry, so the will message fires as intended.
type MQTT struct {
	cfg     Config
	log     *slog.Logger
	handler Handler

	mu     sync.Mutex
	client mqtt.Client
}

var _ host.Transport = (*MQTT)(nil)

// NewMQTT creates an MQTT transport. The handler must be registered with
// SetHandler before Connect.
func NewMQTT(cfg Config, log *slog.Logger) *MQTT {
	if cfg.KeepAlive == 0 {
		cfg.KeepAlive = DefaultKeepAlive
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &MQTT{cfg: cfg, log: log}
}

// SetHandler registers the inbound message handler.
func (m *MQTT) SetHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

// Connect establishes the broker connection with the session's will message
// registered.
func (m *MQTT) Connect(ctx context.Context, opts host.ConnectOptions) error {
	if opts.ProtocolVersion == 5 {
		return ErrMQTT5
	}

	clientID := m.cfg.ClientID
	if clientID == "" {
		clientID = "sparkhost-" + uuid.NewString()[:8]
	}

	addr := m.cfg.Addr
	if !strings.Contains(addr, "://") {
		addr = "tcp://" + addr
	}

	copts := mqtt.NewClientOptions().
		AddBroker(addr).
		SetClientID(clientID).
		SetProtocolVersion(uint(opts.ProtocolVersion)).
		SetCleanSession(opts.CleanStart).
		SetKeepAlive(m.cfg.KeepAlive).
		SetConnectTimeout(m.cfg.ConnectTimeout).
		SetOrderMatters(true).
		SetAutoReconnect(false).
		SetDefaultPublishHandler(m.route)

	if m.cfg.Username != "" {
		copts.SetUsername(m.cfg.Username)
		copts.SetPassword(m.cfg.Password)
	}
	if opts.Will != nil {
		copts.SetBinaryWill(opts.Will.Topic, opts.Will.Payload, opts.Will.QoS, opts.Will.Retain)
	}
	copts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		m.log.Warn("mqtt connection lost", "error", err)
	})

	client := mqtt.NewClient(copts)
	if err := wait(ctx, client.Connect()); err != nil {
		return err
	}

	m.mu.Lock()
	m.client = client
	m.mu.Unlock()
	m.log.Info("mqtt connected", "addr", addr, "client_id", clientID)
	return nil
}

// Subscribe subscribes to a topic filter, routing matches to the handler.
func (m *MQTT) Subscribe(ctx context.Context, filter string, qos byte) error {
	client, err := m.connected()
	if err != nil {
		return err
	}
	return wait(ctx, client.Subscribe(filter, qos, m.route))
}

// Publish publishes a message and waits for the broker acknowledgment.
func (m *MQTT) Publish(ctx context.Context, topic string, payload []byte, qos byte, retain bool) error {
	client, err := m.connected()
	if err != nil {
		return err
	}
	return wait(ctx, client.Publish(topic, qos, retain, payload))
}

// Disconnect closes the broker connection. Calling it on a transport that
// never connected, or whose connection already dropped, is a no-op.
func (m *MQTT) Disconnect(context.Context) error {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.mu.Unlock()

	if client != nil && client.IsConnected() {
		client.Disconnect(disconnectQuiesce)
	}
	return nil
}

func (m *MQTT) connected() (mqtt.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil, ErrNotConnected
	}
	return m.client, nil
}

func (m *MQTT) route(_ mqtt.Client, msg mqtt.Message) {
	m.mu.Lock()
	handler := m.handler
	m.mu.Unlock()
	if handler != nil {
		handler(msg.Topic(), msg.Payload())
	}
}

// wait blocks on a paho token until completion or context cancellation.
func wait(ctx context.Context, tok mqtt.Token) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tok.Done():
		return tok.Error()
	}
}
