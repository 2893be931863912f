package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is a primitive shape that can be tested against a cascade volume.
// Implemented by AABB, OBB and Sphere.
type Bounds interface {
	// WorldCenter is used for debug display and sorting only.
	WorldCenter() mgl32.Vec3
}

// AABB is an axis-aligned box. Min > Max on any axis means empty.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func EmptyAABB() AABB {
	inf := float32(1e20)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b AABB) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

func (b AABB) WorldCenter() mgl32.Vec3 { return b.Min.Add(b.Max).Mul(0.5) }

func (b AABB) HalfExtents() mgl32.Vec3 { return b.Max.Sub(b.Min).Mul(0.5) }

// Extend grows the box to include p.
func (b AABB) Extend(p mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{min(b.Min.X(), p.X()), min(b.Min.Y(), p.Y()), min(b.Min.Z(), p.Z())},
		Max: mgl32.Vec3{max(b.Max.X(), p.X()), max(b.Max.Y(), p.Y()), max(b.Max.Z(), p.Z())},
	}
}

func (b AABB) Corners() [8]mgl32.Vec3 {
	minB, maxB := b.Min, b.Max
	return [8]mgl32.Vec3{
		{minB.X(), minB.Y(), minB.Z()},
		{maxB.X(), minB.Y(), minB.Z()},
		{minB.X(), maxB.Y(), minB.Z()},
		{maxB.X(), maxB.Y(), minB.Z()},
		{minB.X(), minB.Y(), maxB.Z()},
		{maxB.X(), minB.Y(), maxB.Z()},
		{minB.X(), maxB.Y(), maxB.Z()},
		{maxB.X(), maxB.Y(), maxB.Z()},
	}
}

// Transform returns the conservative axis-aligned box around b transformed by m.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out = out.Extend(m.Mul4x1(c.Vec4(1.0)).Vec3())
	}
	return out
}

// ToOBB returns the same box as an oriented box with world axes.
func (b AABB) ToOBB() OBB {
	if b.IsEmpty() {
		return EmptyOBB()
	}
	return OBB{
		Center:      b.WorldCenter(),
		Axes:        [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		HalfExtents: b.HalfExtents(),
	}
}

// OBB is an oriented box. Axes are orthonormal. Negative half extents mean empty.
type OBB struct {
	Center      mgl32.Vec3
	Axes        [3]mgl32.Vec3
	HalfExtents mgl32.Vec3
}

func EmptyOBB() OBB {
	return OBB{
		Axes:        [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		HalfExtents: mgl32.Vec3{-1, -1, -1},
	}
}

func (o OBB) IsEmpty() bool {
	return o.HalfExtents.X() < 0 || o.HalfExtents.Y() < 0 || o.HalfExtents.Z() < 0
}

func (o OBB) WorldCenter() mgl32.Vec3 { return o.Center }

// OBBFromLocal builds the world-space box of a local-space AABB placed by an
// affine transform m. Scale is folded into the extents.
func OBBFromLocal(local AABB, m mgl32.Mat4) OBB {
	if local.IsEmpty() {
		return EmptyOBB()
	}
	center := m.Mul4x1(local.WorldCenter().Vec4(1.0)).Vec3()
	half := local.HalfExtents()
	var o OBB
	o.Center = center
	for i := 0; i < 3; i++ {
		col := m.Col(i).Vec3()
		l := col.Len()
		if l > 0 {
			o.Axes[i] = col.Mul(1.0 / l)
		} else {
			o.Axes[i] = mgl32.Vec3{}
			o.Axes[i][i] = 1
		}
		o.HalfExtents[i] = half[i] * l
	}
	return o
}

func (o OBB) Corners() [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 8; i++ {
		sx, sy, sz := float32(-1), float32(-1), float32(-1)
		if i&1 != 0 {
			sx = 1
		}
		if i&2 != 0 {
			sy = 1
		}
		if i&4 != 0 {
			sz = 1
		}
		out[i] = o.Center.
			Add(o.Axes[0].Mul(sx * o.HalfExtents.X())).
			Add(o.Axes[1].Mul(sy * o.HalfExtents.Y())).
			Add(o.Axes[2].Mul(sz * o.HalfExtents.Z()))
	}
	return out
}

// Contains reports whether p lies inside the box, allowing eps slack per axis.
func (o OBB) Contains(p mgl32.Vec3, eps float32) bool {
	if o.IsEmpty() {
		return false
	}
	d := p.Sub(o.Center)
	for i := 0; i < 3; i++ {
		if abs32(d.Dot(o.Axes[i])) > o.HalfExtents[i]+eps {
			return false
		}
	}
	return true
}

// Matrix maps the unit cube [-0.5,0.5]^3 onto the box.
func (o OBB) Matrix() mgl32.Mat4 {
	rot := mgl32.Mat4FromCols(o.Axes[0].Vec4(0), o.Axes[1].Vec4(0), o.Axes[2].Vec4(0), mgl32.Vec4{0, 0, 0, 1})
	size := o.HalfExtents.Mul(2)
	return mgl32.Translate3D(o.Center.X(), o.Center.Y(), o.Center.Z()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(size.X(), size.Y(), size.Z()))
}

type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

func (s Sphere) WorldCenter() mgl32.Vec3 { return s.Center }

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
