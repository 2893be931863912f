package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t *Transform) ObjectToWorld() mgl32.Mat4 {
	// M = T * R * S
	translate := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	rotate := t.Rotation.Mat4()
	scale := mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z())

	return translate.Mul4(rotate).Mul4(scale)
}

// WorldBounds places a local-space box into the world as an oriented box.
// Unlike AABB.Transform this keeps rotated casters tight for cascade culling.
func (t *Transform) WorldBounds(local AABB) OBB {
	return OBBFromLocal(local, t.ObjectToWorld())
}

// WorldSphere returns a sphere enclosing the transformed local box.
func (t *Transform) WorldSphere(local AABB) Sphere {
	if local.IsEmpty() {
		return Sphere{Radius: -1}
	}
	s := max(abs32(t.Scale.X()), abs32(t.Scale.Y()), abs32(t.Scale.Z()))
	center := t.ObjectToWorld().Mul4x1(local.WorldCenter().Vec4(1.0)).Vec3()
	return Sphere{Center: center, Radius: local.HalfExtents().Len() * s}
}
