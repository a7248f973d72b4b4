// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds OpenTelemetry metric instruments for the host session.
type Metrics struct {
	meter metric.Meter

	// Counters
	messagesReceived  metric.Int64Counter
	messagesDelivered metric.Int64Counter
	parseErrors       metric.Int64Counter
	reorderTimeouts   metric.Int64Counter

	// UpDownCounters (gauges)
	sequenceWindows metric.Int64UpDownCounter
}

// NewMetrics creates a Metrics instance with all instruments initialized.
// Instruments are registered against the global meter provider, which is a
// no-op unless the embedding process installs one.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		meter: otel.Meter("sparkplug-host"),
	}

	var err error

	m.messagesReceived, err = m.meter.Int64Counter(
		"sparkplug.messages.received.total",
		metric.WithDescription("Total Sparkplug messages received, by message type"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messagesReceived counter: %w", err)
	}

	m.messagesDelivered, err = m.meter.Int64Counter(
		"sparkplug.messages.delivered.total",
		metric.WithDescription("Total messages delivered to the application in order"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messagesDelivered counter: %w", err)
	}

	m.parseErrors, err = m.meter.Int64Counter(
		"sparkplug.topic.parse.errors.total",
		metric.WithDescription("Total inbound messages dropped for unparseable topics"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create parseErrors counter: %w", err)
	}

	m.reorderTimeouts, err = m.meter.Int64Counter(
		"sparkplug.reorder.timeouts.total",
		metric.WithDescription("Total sequence gaps that expired and triggered a rebirth request"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reorderTimeouts counter: %w", err)
	}

	m.sequenceWindows, err = m.meter.Int64UpDownCounter(
		"sparkplug.sequence.windows.active",
		metric.WithDescription("Number of edge nodes with an active sequence window"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sequenceWindows gauge: %w", err)
	}

	return m, nil
}

// RecordReceived records an inbound message by Sparkplug message type.
func (m *Metrics) RecordReceived(messageType string) {
	m.messagesReceived.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("type", messageType),
	))
}

// RecordDelivered records a message delivered to the application.
func (m *Metrics) RecordDelivered() {
	m.messagesDelivered.Add(context.Background(), 1)
}

// RecordParseError records an inbound message dropped for a bad topic.
func (m *Metrics) RecordParseError() {
	m.parseErrors.Add(context.Background(), 1)
}

// RecordReorderTimeout records an expired sequence gap.
func (m *Metrics) RecordReorderTimeout(descriptor string) {
	m.reorderTimeouts.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("edge_node", descriptor),
	))
}

// RecordWindowOpened records a new edge node sequence window.
func (m *Metrics) RecordWindowOpened() {
	m.sequenceWindows.Add(context.Background(), 1)
}

// RecordWindowClosed records a destroyed edge node sequence window.
func (m *Metrics) RecordWindowClosed() {
	m.sequenceWindows.Add(context.Background(), -1)
}
