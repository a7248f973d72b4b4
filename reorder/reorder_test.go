// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package reorder_test

import (
	"sync"
	"testing"
	"time"

	"github.com/absmach/sparkhost/reorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	seqs     []uint8
	timeouts []string
}

func (r *recorder) deliver(msg reorder.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, msg.Seq)
}

func (r *recorder) timeout(descriptor string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeouts = append(r.timeouts, descriptor)
}

func (r *recorder) delivered() []uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint8(nil), r.seqs...)
}

func (r *recorder) timedOut() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.timeouts...)
}

func msg(seq uint8) reorder.Message {
	return reorder.Message{Seq: seq}
}

func TestInOrderDelivery(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(time.Second, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Birth("g/n", 0, msg(0))
	for seq := uint8(1); seq <= 4; seq++ {
		buf.Data("g/n", seq, msg(seq))
	}

	assert.Equal(t, []uint8{0, 1, 2, 3, 4}, rec.delivered())
	assert.Empty(t, rec.timedOut())
}

func TestReordersWithinWindow(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(time.Second, rec.deliver, rec.timeout)
	defer buf.Close()

	// Birth at seq 4 establishes expected seq 5.
	buf.Birth("g/n", 4, msg(4))
	for _, seq := range []uint8{7, 5, 6, 8} {
		buf.Data("g/n", seq, msg(seq))
	}

	assert.Equal(t, []uint8{4, 5, 6, 7, 8}, rec.delivered())
	assert.Empty(t, rec.timedOut())
}

func TestSequenceWrapsAt256(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(time.Second, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Birth("g/n", 254, msg(254))
	buf.Data("g/n", 255, msg(255))
	// 0 is the immediate successor of 255, not a 255-message gap.
	buf.Data("g/n", 0, msg(0))
	buf.Data("g/n", 1, msg(1))

	assert.Equal(t, []uint8{254, 255, 0, 1}, rec.delivered())
	assert.Empty(t, rec.timedOut())
}

func TestReorderAcrossWrap(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(time.Second, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Birth("g/n", 254, msg(254))
	buf.Data("g/n", 0, msg(0))
	buf.Data("g/n", 255, msg(255))

	assert.Equal(t, []uint8{254, 255, 0}, rec.delivered())
}

func TestGapTimeoutEmitsSingleSignalAndResets(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(20*time.Millisecond, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Birth("g/n", 0, msg(0))
	buf.Data("g/n", 3, msg(3)) // gap: expected 1

	require.Eventually(t, func() bool {
		return len(rec.timedOut()) == 1
	}, time.Second, 5*time.Millisecond)

	// No further signals for the same unresolved gap.
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, []string{"g/n"}, rec.timedOut())

	// The buffered message was discarded on reset.
	assert.Equal(t, []uint8{0}, rec.delivered())

	// Until the next birth, arrivals pass through without reordering.
	buf.Data("g/n", 9, msg(9))
	assert.Equal(t, []uint8{0, 9}, rec.delivered())

	// The next birth re-establishes the expected sequence.
	buf.Birth("g/n", 10, msg(10))
	buf.Data("g/n", 11, msg(11))
	assert.Equal(t, []uint8{0, 9, 10, 11}, rec.delivered())
	assert.Equal(t, []string{"g/n"}, rec.timedOut())
}

func TestGapResolvedBeforeTimeout(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(50*time.Millisecond, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Birth("g/n", 0, msg(0))
	buf.Data("g/n", 2, msg(2))
	buf.Data("g/n", 1, msg(1))

	assert.Equal(t, []uint8{0, 1, 2}, rec.delivered())

	// The deadline was cleared when the buffer drained.
	time.Sleep(120 * time.Millisecond)
	assert.Empty(t, rec.timedOut())
}

func TestBirthDiscardsBufferedState(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(time.Second, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Birth("g/n", 0, msg(0))
	buf.Data("g/n", 5, msg(5)) // buffered

	buf.Birth("g/n", 0, msg(0))
	buf.Data("g/n", 1, msg(1))

	// The stale seq-5 message never surfaces after the rebirth.
	assert.Equal(t, []uint8{0, 0, 1}, rec.delivered())
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.timedOut())
}

func TestDeathDestroysWindow(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(20*time.Millisecond, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Birth("g/n", 0, msg(0))
	buf.Data("g/n", 5, msg(5)) // arms the deadline
	buf.Death("g/n")

	// The armed deadline was cancelled along with the window.
	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.timedOut())

	// Without a window, messages pass straight through.
	buf.Data("g/n", 42, msg(42))
	assert.Equal(t, []uint8{0, 42}, rec.delivered())
}

func TestNodesAreIndependent(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(time.Second, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Birth("g/a", 0, msg(0))
	buf.Birth("g/b", 0, msg(100))

	// Gap on node a must not hold up in-order delivery on node b.
	buf.Data("g/a", 2, msg(2))
	buf.Data("g/b", 101, msg(101))

	assert.Equal(t, []uint8{0, 100, 101}, rec.delivered())

	buf.Data("g/a", 1, msg(1))
	assert.Equal(t, []uint8{0, 100, 101, 1, 2}, rec.delivered())
}

func TestPassThroughBeforeFirstBirth(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(time.Second, rec.deliver, rec.timeout)
	defer buf.Close()

	buf.Data("g/n", 7, msg(7))
	assert.Equal(t, []uint8{7}, rec.delivered())
}

func TestConcurrentNodes(t *testing.T) {
	rec := &recorder{}
	buf := reorder.New(time.Second, rec.deliver, rec.timeout)
	defer buf.Close()

	descriptors := []string{"g/a", "g/b", "g/c", "g/d"}
	for _, d := range descriptors {
		buf.Birth(d, 0, msg(0))
	}

	var wg sync.WaitGroup
	for _, d := range descriptors {
		wg.Add(1)
		go func(d string) {
			defer wg.Done()
			for seq := uint8(1); seq <= 50; seq++ {
				buf.Data(d, seq, msg(seq))
			}
		}(d)
	}
	wg.Wait()

	// 4 births plus 4x50 data messages, none lost or duplicated.
	assert.Len(t, rec.delivered(), 4+4*50)
	assert.Empty(t, rec.timedOut())
}
