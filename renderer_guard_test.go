package csm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in   string
		want Backend
	}{
		{"", BackendWGPU},
		{"wgpu", BackendWGPU},
		{"WebGPU", BackendWGPU},
		{"gl", BackendGL},
		{" OpenGL ", BackendGL},
	}
	for _, tc := range tests {
		got, err := ParseBackend(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseBackend("metal")
	assert.Error(t, err)
}

func TestBackendGuard(t *testing.T) {
	g := NewBackendGuard(nil)
	assert.Equal(t, Backend(""), g.Installed())

	g.Install(BackendWGPU)
	g.Install(BackendWGPU)
	assert.Equal(t, BackendWGPU, g.Installed())

	assert.Panics(t, func() { g.Install(BackendGL) })
	assert.Equal(t, BackendWGPU, g.Installed())
}

func TestLoggerOrNop(t *testing.T) {
	l := OrNop(nil)
	require.NotNil(t, l)
	assert.False(t, l.DebugEnabled())

	d := NewDefaultLogger("", false)
	assert.Same(t, d, OrNop(d))
	d.SetDebug(true)
	assert.True(t, d.DebugEnabled())
}
