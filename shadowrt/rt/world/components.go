package world

import (
	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderable attaches an uploaded mesh to an entity.
type Renderable struct {
	Mesh         cascade.Mesh
	Local        core.AABB
	Color        [4]float32
	CastsShadows bool
}

// Spinner rotates an entity around Axis at Speed radians per second.
type Spinner struct {
	Axis  mgl32.Vec3
	Speed float32
}

// FoliageRef holds an instanced foliage batch. Foliage always casts.
type FoliageRef struct {
	Batch cascade.FoliageBatch
}

// Drawable is one renderable resolved to world space for the lit pass.
type Drawable struct {
	Mesh  cascade.Mesh
	Model mgl32.Mat4
	Color [4]float32
}

// caster is a per-frame snapshot of a renderable entity.
type caster struct {
	transform  core.Transform
	renderable Renderable
}

func (c *caster) ShouldCastShadows() bool { return c.renderable.CastsShadows }

func (c *caster) ShadowBounds() core.Bounds {
	return c.transform.WorldBounds(c.renderable.Local)
}

func (c *caster) Draw(dev cascade.Device) {
	dev.DrawMesh(c.renderable.Mesh, c.transform.ObjectToWorld())
}
