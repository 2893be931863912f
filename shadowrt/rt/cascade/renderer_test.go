package cascade

import (
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// splitBounds slices the 100 unit test camera into four bands.
func splitBounds(t *testing.T) *Bounds {
	t.Helper()
	b := NewBounds()
	splits := []float32{0.1, 5, 40, 70, 100}
	for i := 0; i < CascadeCount; i++ {
		require.NoError(t, b.Set(i, ptr(splits[i]), ptr(splits[i+1])))
	}
	return b
}

func initialBinding() (TargetBinding, Viewport) {
	return TargetBinding{
			Color:   []Target{&fakeTarget{name: "hdr"}},
			Depth:   &fakeTarget{name: "scene-depth"},
			Storage: []Target{&fakeTarget{name: "gbuffer"}},
		},
		Viewport{Width: 1280, Height: 720, MaxDepth: 1}
}

func sunDown() core.DirectionalLight {
	return core.NewDirectionalLight(mgl32.Vec3{0, 0, -1}, true)
}

func TestRenderDrawsVisibleCasters(t *testing.T) {
	dev := newFakeDevice()
	dev.bound, dev.viewport = initialBinding()
	before, beforeVP := dev.bound.Clone(), dev.viewport

	targets := newFakeTargets(1024)
	r := NewRenderer(NewBuilder(splitBounds(t), WebGPUReversedZ), targets, nil)

	// At y=0 the origin is 20 units in front of the camera, inside cascade 1.
	visible := &fakeCaster{bounds: unitBoxAt(0, 0, 0), casts: true}
	distant := &fakeCaster{bounds: unitBoxAt(500, 0, 0), casts: true}
	optedOut := &fakeCaster{bounds: unitBoxAt(0, 0, 0), casts: false}
	grass := &fakeFoliage{box: unitBoxAt(0, 0, 0)}
	scene := &fakeScene{
		casters: []ShadowCaster{visible, distant, optedOut},
		foliage: []FoliageBatch{grass},
	}

	r.Render(dev, scene, testCamera(), []core.DirectionalLight{sunDown()})

	assert.Equal(t, 1, visible.draws)
	assert.Zero(t, distant.draws)
	assert.Zero(t, optedOut.draws)
	assert.Equal(t, 1, grass.draws)
	require.Len(t, grass.buffers, 1)
	assert.Same(t, dev.buffer, grass.buffers[0])

	require.Len(t, visible.viewports, 1)
	assert.Equal(t, Viewport{Width: 1024, Height: 1024, MaxDepth: 1}, visible.viewports[0])
	assert.Same(t, targets.slots[1], visible.depths[0])

	stats := r.Stats()
	assert.Equal(t, 4, stats.Cascades)
	assert.Equal(t, 1, stats.CasterDraws)
	assert.Equal(t, 7, stats.CastersCulled)
	assert.Equal(t, 1, stats.FoliageDraws)
	assert.Equal(t, 3, stats.FoliageCulled)
	assert.Equal(t, 12, stats.CullQueries)
	assert.Equal(t, [SlotCount]int{0, 2, 0, 0, 0, 0, 0, 0}, stats.DrawsPerSlot)
	assert.Len(t, dev.matrices, 4)

	for ci := 0; ci < CascadeCount; ci++ {
		v, ok := dev.clears[targets.slots[ci]]
		assert.True(t, ok, "cascade %d not cleared", ci)
		assert.Equal(t, float32(0), v)
	}
	assert.Len(t, dev.clears, 4)

	assert.True(t, before.Equal(dev.bound), "binding not restored: %+v", dev.bound)
	assert.Equal(t, beforeVP, dev.viewport)
	assert.Equal(t, "unbind", dev.ops[0])
	assert.Equal(t, []string{"bind", "viewport"}, dev.ops[len(dev.ops)-2:])

	last := r.LastCascades()
	assert.False(t, last[0][1].Degenerate)
	assert.Equal(t, dev.matrices[1], last[0][1].Matrix)
	for ci := 0; ci < CascadeCount; ci++ {
		assert.True(t, last[1][ci].Degenerate)
	}
}

func TestRenderDegenerateCascadesRestoreState(t *testing.T) {
	dev := newFakeDevice()
	dev.bound, dev.viewport = initialBinding()
	before, beforeVP := dev.bound.Clone(), dev.viewport

	// Collapsed and inverted ranges alike are skipped.
	bounds := NewBounds()
	for i := 0; i < CascadeCount; i++ {
		if i%2 == 0 {
			require.NoError(t, bounds.Set(i, ptr(5), ptr(5)))
		} else {
			require.NoError(t, bounds.Set(i, ptr(50), ptr(10)))
		}
	}
	log := &recordingLogger{}
	r := NewRenderer(NewBuilder(bounds, WebGPUReversedZ), newFakeTargets(512), log)

	caster := &fakeCaster{bounds: unitBoxAt(0, 0, 0), casts: true}
	grass := &fakeFoliage{box: unitBoxAt(0, 0, 0)}
	scene := &fakeScene{casters: []ShadowCaster{caster}, foliage: []FoliageBatch{grass}}
	lights := []core.DirectionalLight{sunDown(), sunDown()}

	r.Render(dev, scene, testCamera(), lights)

	assert.Zero(t, caster.draws)
	assert.Zero(t, grass.draws)
	assert.Empty(t, dev.matrices)
	assert.Zero(t, r.Culler.Queries())
	assert.Equal(t, SlotCount, r.Stats().Degenerate)
	assert.Zero(t, r.Stats().Cascades)
	assert.Len(t, dev.clears, SlotCount)

	assert.True(t, before.Equal(dev.bound))
	assert.Equal(t, beforeVP, dev.viewport)

	// Degenerate transitions are logged once, not every frame.
	assert.Len(t, log.lines, SlotCount)
	r.Render(dev, scene, testCamera(), lights)
	assert.Len(t, log.lines, SlotCount)

	// Skipped slots pack a depth range the shading pass ignores.
	packed := NewPacker(r.Builder).PackInfos(lights, r.LastCascades())
	for i, rec := range packed {
		assert.LessOrEqual(t, rec.DepthRange[1], rec.DepthRange[0], "slot %d", i)
		assert.Equal(t, mgl32.Ident4(), rec.Matrix, "slot %d", i)
	}
}

func TestRenderRestoresStateWhenDrawPanics(t *testing.T) {
	dev := newFakeDevice()
	dev.bound, dev.viewport = initialBinding()
	before, beforeVP := dev.bound.Clone(), dev.viewport

	r := NewRenderer(NewBuilder(splitBounds(t), WebGPUReversedZ), newFakeTargets(1024), nil)
	caster := &panickingCaster{fakeCaster{bounds: unitBoxAt(0, 0, 0), casts: true}}
	scene := &fakeScene{casters: []ShadowCaster{caster}}

	assert.Panics(t, func() {
		r.Render(dev, scene, testCamera(), []core.DirectionalLight{sunDown()})
	})
	assert.Equal(t, 1, caster.draws)
	assert.True(t, before.Equal(dev.bound), "binding not restored: %+v", dev.bound)
	assert.Equal(t, beforeVP, dev.viewport)
	assert.Equal(t, []string{"bind", "viewport"}, dev.ops[len(dev.ops)-2:])
}

func TestRenderEmptySceneRestoresState(t *testing.T) {
	dev := newFakeDevice()
	dev.bound, dev.viewport = initialBinding()
	before, beforeVP := dev.bound.Clone(), dev.viewport

	r := NewRenderer(NewBuilder(nil, WebGPUReversedZ), newFakeTargets(256), nil)
	r.Render(dev, &fakeScene{}, testCamera(), nil)

	assert.Empty(t, dev.clears)
	assert.True(t, before.Equal(dev.bound))
	assert.Equal(t, beforeVP, dev.viewport)
}

func TestRenderSkipsNonCastingAndExtraLights(t *testing.T) {
	dev := newFakeDevice()
	targets := newFakeTargets(256)
	r := NewRenderer(NewBuilder(nil, WebGPUReversedZ), targets, nil)

	off := sunDown()
	off.CastsShadows = false
	lights := []core.DirectionalLight{off, sunDown(), sunDown()}

	r.Render(dev, &fakeScene{}, testCamera(), lights)

	assert.Len(t, dev.clears, CascadeCount)
	for ci := 0; ci < CascadeCount; ci++ {
		_, skipped := dev.clears[targets.slots[SlotIndex(0, ci)]]
		assert.False(t, skipped)
		_, cleared := dev.clears[targets.slots[SlotIndex(1, ci)]]
		assert.True(t, cleared)
	}
	assert.Equal(t, CascadeCount, r.Stats().Cascades)
}

func TestTargetBindingEqual(t *testing.T) {
	a, _ := initialBinding()
	b := a.Clone()
	assert.True(t, a.Equal(b))

	b.Color[0] = &fakeTarget{name: "other"}
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(TargetBinding{}))
	assert.True(t, TargetBinding{}.Equal(TargetBinding{}))
}
