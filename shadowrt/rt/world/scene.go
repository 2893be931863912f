package world

import (
	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"
)

// Scene is the demo world. It owns the ECS and exposes casters and foliage
// to the shadow renderer.
type Scene struct {
	world *ecs.World

	renderMap    *ecs.Map2[core.Transform, Renderable]
	renderFilter *ecs.Filter2[core.Transform, Renderable]
	spinMap      *ecs.Map1[Spinner]
	spinFilter   *ecs.Filter2[core.Transform, Spinner]
	foliageMap   *ecs.Map1[FoliageRef]
	foliageQuery *ecs.Filter1[FoliageRef]

	casterPool []caster
	casters    []cascade.ShadowCaster
	foliage    []cascade.FoliageBatch
	drawables  []Drawable
}

var _ cascade.Scene = (*Scene)(nil)

func NewScene() *Scene {
	world := ecs.NewWorld()
	return &Scene{
		world:        world,
		renderMap:    ecs.NewMap2[core.Transform, Renderable](world),
		renderFilter: ecs.NewFilter2[core.Transform, Renderable](world),
		spinMap:      ecs.NewMap1[Spinner](world),
		spinFilter:   ecs.NewFilter2[core.Transform, Spinner](world),
		foliageMap:   ecs.NewMap1[FoliageRef](world),
		foliageQuery: ecs.NewFilter1[FoliageRef](world),
	}
}

// SpawnMesh adds a renderable entity. local is the mesh's object-space box.
func (s *Scene) SpawnMesh(mesh cascade.Mesh, local core.AABB, t core.Transform, color [4]float32, castsShadows bool) ecs.Entity {
	r := Renderable{Mesh: mesh, Local: local, Color: color, CastsShadows: castsShadows}
	return s.renderMap.NewEntity(&t, &r)
}

func (s *Scene) SpawnFoliage(batch cascade.FoliageBatch) ecs.Entity {
	return s.foliageMap.NewEntity(&FoliageRef{Batch: batch})
}

// Spin makes an existing renderable entity rotate every Update.
func (s *Scene) Spin(e ecs.Entity, axis mgl32.Vec3, speed float32) {
	if !s.world.Alive(e) {
		return
	}
	s.spinMap.Add(e, &Spinner{Axis: axis.Normalize(), Speed: speed})
}

func (s *Scene) Remove(e ecs.Entity) {
	if !s.world.Alive(e) {
		return
	}
	s.world.RemoveEntity(e)
}

func (s *Scene) Transform(e ecs.Entity) *core.Transform {
	if !s.world.Alive(e) {
		return nil
	}
	t, _ := s.renderMap.Get(e)
	return t
}

// Update advances spinning entities by dt seconds.
func (s *Scene) Update(dt float32) {
	query := s.spinFilter.Query()
	for query.Next() {
		t, spin := query.Get()
		step := mgl32.QuatRotate(spin.Speed*dt, spin.Axis)
		t.Rotation = step.Mul(t.Rotation).Normalize()
	}
}

// ShadowCasters snapshots every renderable. The returned slice is reused by
// the next call.
func (s *Scene) ShadowCasters() []cascade.ShadowCaster {
	s.casterPool = s.casterPool[:0]
	query := s.renderFilter.Query()
	for query.Next() {
		t, r := query.Get()
		s.casterPool = append(s.casterPool, caster{transform: *t, renderable: *r})
	}

	s.casters = s.casters[:0]
	for i := range s.casterPool {
		s.casters = append(s.casters, &s.casterPool[i])
	}
	return s.casters
}

func (s *Scene) FoliageBatches() []cascade.FoliageBatch {
	s.foliage = s.foliage[:0]
	query := s.foliageQuery.Query()
	for query.Next() {
		ref := query.Get()
		if ref.Batch != nil {
			s.foliage = append(s.foliage, ref.Batch)
		}
	}
	return s.foliage
}

// Drawables resolves every renderable for the lit pass, shadow casting or not.
func (s *Scene) Drawables() []Drawable {
	s.drawables = s.drawables[:0]
	query := s.renderFilter.Query()
	for query.Next() {
		t, r := query.Get()
		s.drawables = append(s.drawables, Drawable{Mesh: r.Mesh, Model: t.ObjectToWorld(), Color: r.Color})
	}
	return s.drawables
}

// Bounds encloses every renderable and foliage batch.
func (s *Scene) Bounds() core.AABB {
	b := core.EmptyAABB()
	query := s.renderFilter.Query()
	for query.Next() {
		t, r := query.Get()
		ob := t.WorldBounds(r.Local)
		if ob.IsEmpty() {
			continue
		}
		for _, c := range ob.Corners() {
			b = b.Extend(c)
		}
	}
	fq := s.foliageQuery.Query()
	for fq.Next() {
		ref := fq.Get()
		if ref.Batch == nil {
			continue
		}
		fb := ref.Batch.BoundingBox()
		if fb.IsEmpty() {
			continue
		}
		b = b.Extend(fb.Min).Extend(fb.Max)
	}
	return b
}
