// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package reorder restores per-edge-node sequence order for Sparkplug
// telemetry. Each edge node gets its own window keyed by descriptor; windows
// are independent and individually locked, so different nodes can make
// progress concurrently while operations on one node stay serialized.
package reorder

import (
	"sync"
	"time"

	"github.com/absmach/sparkhost/topics"
)

// Message is a sequenced inbound message held by the buffer.
type Message struct {
	Address topics.Address
	Topic   string
	Payload []byte
	Seq     uint8
}

// Buffer reorders telemetry messages per edge node, tolerating transport
// reordering up to the configured timeout. When a gap is not resolved in
// time the buffer emits a single timeout signal for the node and resets its
// window; ordering resumes from that node's next birth.
//
// The deliver and onTimeout callbacks are invoked from the calling goroutine
// or the window's timer goroutine. Deliver runs with the node's window lock
// held, so it must not call back into the Buffer for the same node.
type Buffer struct {
	timeout   time.Duration
	deliver   func(Message)
	onTimeout func(descriptor string)

	mu    sync.Mutex
	nodes map[string]*window
}

// window tracks ordering state for a single edge node.
type window struct {
	mu       sync.Mutex
	expected uint8
	awaiting bool // no birth seen since the last reset
	pending  map[uint8]Message
	timer    *time.Timer
	gen      uint64 // invalidates stale timer fires after reset/drain
}

// New creates a Buffer. Timeout bounds how long a gap may stay unresolved
// before the node's window is reset and onTimeout fires.
func New(timeout time.Duration, deliver func(Message), onTimeout func(descriptor string)) *Buffer {
	return &Buffer{
		timeout:   timeout,
		deliver:   deliver,
		onTimeout: onTimeout,
		nodes:     make(map[string]*window),
	}
}

// Birth resets or creates the node's window. The birth message itself is
// delivered and the expected sequence is re-established from the birth's own
// sequence field; any previously buffered messages are discarded.
func (b *Buffer) Birth(descriptor string, seq uint8, msg Message) {
	b.mu.Lock()
	w, ok := b.nodes[descriptor]
	if !ok {
		w = &window{pending: make(map[uint8]Message)}
		b.nodes[descriptor] = w
	}
	b.mu.Unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopTimer()
	w.pending = make(map[uint8]Message)
	w.awaiting = false
	b.deliver(msg)
	w.expected = seq + 1
}

// Death destroys the node's window. The death message itself is not routed
// through the buffer.
func (b *Buffer) Death(descriptor string) {
	b.mu.Lock()
	w := b.nodes[descriptor]
	delete(b.nodes, descriptor)
	b.mu.Unlock()

	if w != nil {
		w.mu.Lock()
		w.stopTimer()
		w.mu.Unlock()
	}
}

// Data handles a sequenced telemetry message. In-order messages are
// delivered immediately and drain any contiguous buffered successors;
// out-of-order messages are buffered and arm the gap deadline if one is not
// already running. Messages for nodes without an established window (no
// birth seen yet, or reset after a timeout) pass through undelayed.
func (b *Buffer) Data(descriptor string, seq uint8, msg Message) {
	b.mu.Lock()
	w := b.nodes[descriptor]
	b.mu.Unlock()

	if w == nil {
		b.deliver(msg)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.awaiting {
		b.deliver(msg)
		return
	}

	if seq != w.expected {
		w.pending[seq] = msg
		if w.timer == nil {
			gen := w.gen
			w.timer = time.AfterFunc(b.timeout, func() { b.expire(descriptor, gen) })
		}
		return
	}

	b.deliver(msg)
	w.expected++ // uint8 arithmetic: 255 wraps to 0
	for {
		next, ok := w.pending[w.expected]
		if !ok {
			break
		}
		delete(w.pending, w.expected)
		b.deliver(next)
		w.expected++
	}
	if len(w.pending) == 0 {
		w.stopTimer()
	}
}

// Close destroys all windows and cancels their deadlines.
func (b *Buffer) Close() {
	b.mu.Lock()
	nodes := b.nodes
	b.nodes = make(map[string]*window)
	b.mu.Unlock()

	for _, w := range nodes {
		w.mu.Lock()
		w.stopTimer()
		w.mu.Unlock()
	}
}

// expire fires when a gap outlived the timeout. A window that was reset,
// drained or rebirthed since the timer was armed carries a newer generation
// and the fire is ignored.
func (b *Buffer) expire(descriptor string, gen uint64) {
	b.mu.Lock()
	w := b.nodes[descriptor]
	b.mu.Unlock()
	if w == nil {
		return
	}

	w.mu.Lock()
	if w.gen != gen || w.timer == nil {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.gen++
	w.pending = make(map[uint8]Message)
	w.awaiting = true
	w.mu.Unlock()

	b.onTimeout(descriptor)
}

// stopTimer cancels an armed deadline. Callers hold w.mu.
func (w *window) stopTimer() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.gen++
}
