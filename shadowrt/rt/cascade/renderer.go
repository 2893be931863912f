package cascade

import (
	"github.com/gekko3d/csm/shadowrt/rt/core"
)

// Logger is the subset of the application logger the renderer uses.
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any) {}

// Stats counts the work done by the last Render call.
type Stats struct {
	Cascades       int
	Degenerate     int
	CasterDraws    int
	CastersCulled  int
	FoliageDraws   int
	FoliageCulled  int
	CullQueries    int
	DrawsPerSlot   [SlotCount]int
	DepthRangeSlot [SlotCount][2]float32
}

// Renderer draws every shadow-casting light's cascades into their depth
// targets. Render leaves the device's target binding and viewport as it found
// them.
type Renderer struct {
	Builder *Builder
	Culler  *Culler
	Targets DepthTargets
	Log     Logger

	last       [MaxDirLights][CascadeCount]Info
	degenerate [MaxDirLights][CascadeCount]bool
	stats      Stats
}

func NewRenderer(builder *Builder, targets DepthTargets, log Logger) *Renderer {
	if log == nil {
		log = nopLogger{}
	}
	r := &Renderer{
		Builder: builder,
		Culler:  NewCuller(),
		Targets: targets,
		Log:     log,
	}
	r.resetLast()
	return r
}

// stateScope restores the device's binding and viewport when released.
type stateScope struct {
	dev      Device
	targets  TargetBinding
	viewport Viewport
}

func beginStateScope(dev Device) stateScope {
	return stateScope{
		dev:      dev,
		targets:  dev.BoundTargets().Clone(),
		viewport: dev.Viewport(),
	}
}

func (s stateScope) release() {
	s.dev.BindTargets(s.targets)
	s.dev.SetViewport(s.viewport)
}

// Render draws the shadow pass for up to MaxDirLights lights. Lights that do
// not cast shadows are skipped, as are degenerate cascades.
func (r *Renderer) Render(dev Device, scene Scene, cam Camera, lights []core.DirectionalLight) {
	scope := beginStateScope(dev)
	defer scope.release()

	r.stats = Stats{}
	r.resetLast()
	r.Culler.ResetQueries()

	// Shadow targets may be bound as color or storage elsewhere this frame.
	dev.UnbindWritable()

	res := float32(r.Targets.Resolution())
	vp := Viewport{Width: res, Height: res, MinDepth: 0, MaxDepth: 1}

	for li := 0; li < min(len(lights), MaxDirLights); li++ {
		light := lights[li]
		if !light.CastsShadows {
			continue
		}
		for ci := 0; ci < CascadeCount; ci++ {
			r.renderCascade(dev, scene, cam, light, li, ci, vp)
		}
	}
	r.stats.CullQueries = r.Culler.Queries()
}

func (r *Renderer) renderCascade(dev Device, scene Scene, cam Camera, light core.DirectionalLight, li, ci int, vp Viewport) {
	slot := SlotIndex(li, ci)
	target := r.Targets.Slot(li, ci)

	dev.BindTargets(TargetBinding{Depth: target})
	dev.ClearDepth(target, r.Builder.Convention.ClearDepth())
	dev.SetViewport(vp)

	info := r.Builder.Compute(light, ci, cam)
	r.last[li][ci] = info
	r.stats.DepthRangeSlot[slot] = [2]float32{info.Near, info.Far}

	if info.Degenerate != r.degenerate[li][ci] {
		r.degenerate[li][ci] = info.Degenerate
		if info.Degenerate {
			r.Log.Debugf("cascade %d of light %d is degenerate (near=%.3f far=%.3f), skipping", ci, li, info.Near, info.Far)
		} else {
			r.Log.Debugf("cascade %d of light %d active again (near=%.3f far=%.3f)", ci, li, info.Near, info.Far)
		}
	}
	if info.Degenerate {
		r.stats.Degenerate++
		return
	}
	r.stats.Cascades++

	dev.SetLightSpaceMatrix(info.Matrix)
	r.Culler.SetVolume(info.Volume)

	for _, caster := range scene.ShadowCasters() {
		if !caster.ShouldCastShadows() {
			continue
		}
		if r.Culler.ShouldBeCulled(caster.ShadowBounds()) {
			r.stats.CastersCulled++
			continue
		}
		caster.Draw(dev)
		r.stats.CasterDraws++
		r.stats.DrawsPerSlot[slot]++
	}

	lightSpace := dev.LightSpaceBuffer()
	for _, batch := range scene.FoliageBatches() {
		if r.Culler.ShouldBeCulled(batch.BoundingBox()) {
			r.stats.FoliageCulled++
			continue
		}
		batch.DrawShadows(lightSpace)
		r.stats.FoliageDraws++
		r.stats.DrawsPerSlot[slot]++
	}
}

func (r *Renderer) resetLast() {
	for li := range r.last {
		for ci := range r.last[li] {
			r.last[li][ci] = Info{Degenerate: true, Volume: core.EmptyOBB()}
		}
	}
}

// LastCascades returns what the previous Render computed per light and
// cascade. Lights that were skipped report degenerate entries.
func (r *Renderer) LastCascades() [MaxDirLights][CascadeCount]Info {
	return r.last
}

func (r *Renderer) Stats() Stats {
	return r.stats
}
