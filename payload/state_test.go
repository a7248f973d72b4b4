// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package payload_test

import (
	"testing"

	"github.com/absmach/sparkhost/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateWireForm(t *testing.T) {
	data, err := payload.State{Online: true, Timestamp: 1724900000000}.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"online":true,"timestamp":1724900000000}`, string(data))

	data, err = payload.State{Online: false, Timestamp: 0}.Encode()
	require.NoError(t, err)
	// Both fields are always present, even at their zero values.
	assert.JSONEq(t, `{"online":false,"timestamp":0}`, string(data))
}

func TestDecodeState(t *testing.T) {
	st, err := payload.DecodeState([]byte(`{"online":true,"timestamp":1724900000000}`))
	require.NoError(t, err)
	assert.True(t, st.Online)
	assert.Equal(t, int64(1724900000000), st.Timestamp)

	_, err = payload.DecodeState([]byte(`not json`))
	assert.Error(t, err)
}

func TestSeqNumber(t *testing.T) {
	p, err := payload.Decode([]byte(`{"seq":5,"metrics":[{"name":"temp","value":21.5}]}`))
	require.NoError(t, err)
	seq, ok := p.SeqNumber()
	require.True(t, ok)
	assert.Equal(t, uint8(5), seq)

	// Sequence values are reduced to the 8-bit field range.
	p, err = payload.Decode([]byte(`{"seq":256}`))
	require.NoError(t, err)
	seq, ok = p.SeqNumber()
	require.True(t, ok)
	assert.Equal(t, uint8(0), seq)

	p, err = payload.Decode([]byte(`{"metrics":[]}`))
	require.NoError(t, err)
	_, ok = p.SeqNumber()
	assert.False(t, ok)
}
