// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizedSubscriptions(t *testing.T) {
	tests := []struct {
		name string
		opts func(*Options)
		want []string
	}{
		{
			name: "empty list gets wildcard then state topic",
			opts: func(o *Options) {},
			want: []string{"spBv1.0/#", "spBv1.0/STATE/h"},
		},
		{
			name: "own state topic is dropped, then re-appended once at the end",
			opts: func(o *Options) {
				o.Subscriptions = []string{"spBv1.0/STATE/h", "spBv1.0/g/NDATA/e"}
			},
			want: []string{"spBv1.0/g/NDATA/e", "spBv1.0/STATE/h"},
		},
		{
			name: "duplicates collapse to first occurrence",
			opts: func(o *Options) {
				o.Subscriptions = []string{"a/b", "c/d", "a/b"}
			},
			want: []string{"a/b", "c/d", "spBv1.0/STATE/h"},
		},
		{
			name: "wildcard forced alongside explicit filters",
			opts: func(o *Options) {
				o.Subscriptions = []string{"spBv1.0/g/NDATA/e"}
				o.AlwaysSubscribeWildcard = true
			},
			want: []string{"spBv1.0/g/NDATA/e", "spBv1.0/#", "spBv1.0/STATE/h"},
		},
		{
			name: "forced wildcard not duplicated when already configured",
			opts: func(o *Options) {
				o.Subscriptions = []string{"spBv1.0/#"}
				o.AlwaysSubscribeWildcard = true
			},
			want: []string{"spBv1.0/#", "spBv1.0/STATE/h"},
		},
		{
			name: "only own state topic configured falls back to wildcard",
			opts: func(o *Options) {
				o.Subscriptions = []string{"spBv1.0/STATE/h"}
			},
			want: []string{"spBv1.0/#", "spBv1.0/STATE/h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOptions().SetHostID("h")
			tt.opts(o)
			assert.Equal(t, tt.want, o.normalizedSubscriptions())
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	o := NewOptions()
	assert.ErrorIs(t, o.Validate(), ErrEmptyHostID)

	o.SetHostID("bad/host")
	assert.Error(t, o.Validate())

	o.SetHostID("host-1")
	require.NoError(t, o.Validate())
	assert.Equal(t, byte(DefaultQoS), o.QoS)

	o.ReorderTimeout = -1
	assert.ErrorIs(t, o.Validate(), ErrNegativeTimeout)
}

func TestCleanStartFor(t *testing.T) {
	for _, v := range []byte{4, 5} {
		clean, err := cleanStartFor(v)
		require.NoError(t, err)
		assert.True(t, clean)
	}

	_, err := cleanStartFor(3)
	assert.ErrorIs(t, err, ErrUnsupportedProtocol)
}
