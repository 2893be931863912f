package csm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendWGPU, cfg.Backend)
	assert.Equal(t, uint32(cascade.DefaultResolution), cfg.Shadows.Resolution)
	assert.Equal(t, float32(cascade.DefaultDepthMargin), cfg.Shadows.DepthMargin)
	assert.True(t, cfg.Shadows.ReversedZ)
	assert.Len(t, cfg.Cascades, cascade.CascadeCount)
	assert.Nil(t, cfg.Cascades[3].Far)
	assert.Len(t, cfg.Lights, 2)
	assert.Equal(t, cascade.WebGPUReversedZ, cfg.Convention())
}

func TestLoadOverlay(t *testing.T) {
	path := writeConfig(t, `
backend: opengl
shadows:
  resolution: 1024
cascades:
  - { far: 10 }
  - { near: 10 }
debug:
  show_overlay: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendGL, cfg.Backend)
	assert.Equal(t, uint32(1024), cfg.Shadows.Resolution)
	// untouched keys keep their defaults
	assert.Equal(t, float32(20), cfg.Shadows.DepthMargin)
	assert.True(t, cfg.Debug.ShowOverlay)
	require.Len(t, cfg.Cascades, 2)
	assert.Equal(t, cascade.OpenGLReversedZ, cfg.Convention())
	assert.Equal(t, core.ClipNegOneToOne, cfg.NewCamera().Clip)

	b := cascade.NewBounds()
	require.NoError(t, cfg.ApplyCascades(b))

	tests := []struct {
		index     int
		near, far float32
	}{
		{0, 0.1, 10},
		{1, 10, 400},
		{2, 0.1, 400},
		{3, 0.1, 400},
	}
	for _, tc := range tests {
		near, far := b.Resolve(tc.index, cfg.Camera.Near, cfg.Camera.Far)
		assert.Equal(t, tc.near, near, "cascade %d near", tc.index)
		assert.Equal(t, tc.far, far, "cascade %d far", tc.index)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "zero resolution", body: "shadows: { resolution: 0 }"},
		{name: "unknown backend", body: "backend: vulkan"},
		{name: "inverted camera", body: "camera: { near: 10, far: 1 }"},
		{name: "inverted cascade", body: "cascades: [ { near: 50, far: 10 } ]"},
		{name: "too many cascades", body: "cascades: [ {}, {}, {}, {}, {} ]"},
		{name: "too many lights", body: "lights: [ {direction: [0,0,-1]}, {direction: [0,0,-1]}, {direction: [0,0,-1]} ]"},
		{name: "light without direction", body: "lights: [ {direction: [0,0,0]} ]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDirectionalLights(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	lights := cfg.DirectionalLights()
	require.Len(t, lights, 2)
	assert.True(t, lights[0].CastsShadows)
	assert.False(t, lights[1].CastsShadows)
	assert.InDelta(t, 1, lights[0].Direction.Len(), 1e-5)
	assert.Equal(t, float32(3), lights[0].Intensity)
}
