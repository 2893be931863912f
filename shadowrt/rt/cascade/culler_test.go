package cascade

import (
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type unknownBounds struct{}

func (unknownBounds) WorldCenter() mgl32.Vec3 { return mgl32.Vec3{1e6, 1e6, 1e6} }

func TestShouldBeCulled(t *testing.T) {
	// A 2x2x2 box at the origin rotated 45 degrees around Z.
	rot := mgl32.HomogRotate3DZ(mgl32.DegToRad(45))
	volume := core.OBBFromLocal(core.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}, rot)

	c := NewCuller()
	c.SetVolume(volume)

	tests := []struct {
		name   string
		bounds core.Bounds
		culled bool
	}{
		{name: "AABB inside", bounds: unitBoxAt(0, 0, 0), culled: false},
		{name: "AABB far away", bounds: unitBoxAt(10, 0, 0), culled: true},
		// The rotated corner reaches sqrt(2) along X; a box starting at 1.3 overlaps it.
		{name: "AABB partial overlap", bounds: core.AABB{Min: mgl32.Vec3{1.3, -0.1, -0.1}, Max: mgl32.Vec3{3, 0.1, 0.1}}, culled: false},
		// Along the diagonal the volume's face is at distance 1; an AABB corner
		// sitting just outside it is separated by the volume's own face axis.
		{name: "AABB beside the face", bounds: core.AABB{Min: mgl32.Vec3{0.8, 0.8, -0.1}, Max: mgl32.Vec3{2, 2, 0.1}}, culled: true},
		{name: "AABB pointer", bounds: &core.AABB{Min: mgl32.Vec3{-0.1, -0.1, -0.1}, Max: mgl32.Vec3{0.1, 0.1, 0.1}}, culled: false},
		{name: "empty AABB", bounds: core.EmptyAABB(), culled: true},
		{name: "OBB touching", bounds: core.OBB{
			Center:      mgl32.Vec3{0, 0, 2},
			Axes:        [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			HalfExtents: mgl32.Vec3{0.5, 0.5, 1},
		}, culled: false},
		{name: "OBB above", bounds: core.OBB{
			Center:      mgl32.Vec3{0, 0, 3.5},
			Axes:        [3]mgl32.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
			HalfExtents: mgl32.Vec3{5, 5, 1},
		}, culled: true},
		{name: "empty OBB", bounds: core.EmptyOBB(), culled: true},
		{name: "sphere overlapping edge", bounds: core.Sphere{Center: mgl32.Vec3{2, 0, 0}, Radius: 0.7}, culled: false},
		{name: "sphere outside", bounds: core.Sphere{Center: mgl32.Vec3{2, 0, 0}, Radius: 0.5}, culled: true},
		{name: "sphere pointer", bounds: &core.Sphere{Center: mgl32.Vec3{0, 0, 0}, Radius: 0.1}, culled: false},
		{name: "negative radius", bounds: core.Sphere{Radius: -1}, culled: true},
		{name: "unknown primitive", bounds: unknownBounds{}, culled: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.ShouldBeCulled(tc.bounds); got != tc.culled {
				t.Errorf("expected culled=%v, got %v", tc.culled, got)
			}
		})
	}
	assert.Equal(t, len(tests), c.Queries())
}

func TestEmptyVolumeCullsEverything(t *testing.T) {
	c := NewCuller()
	assert.True(t, c.ShouldBeCulled(unitBoxAt(0, 0, 0)))
	assert.True(t, c.ShouldBeCulled(core.Sphere{Radius: 100}))

	c.SetVolume(unitBoxAt(0, 0, 0).ToOBB())
	assert.False(t, c.ShouldBeCulled(unitBoxAt(0, 0, 0)))

	c.ResetQueries()
	assert.Zero(t, c.Queries())
}

func TestOBBOverlapCrossedBars(t *testing.T) {
	// Two long thin bars crossing at the origin; lifting one separates them.
	a := core.OBB{
		Center:      mgl32.Vec3{0, 0, 0},
		Axes:        [3]mgl32.Vec3{mgl32.Vec3{1, 1, 0}.Normalize(), mgl32.Vec3{-1, 1, 0}.Normalize(), {0, 0, 1}},
		HalfExtents: mgl32.Vec3{5, 0.1, 0.1},
	}
	b := core.OBB{
		Center:      mgl32.Vec3{0, 0, 0},
		Axes:        [3]mgl32.Vec3{{0, 1, 0}, {0, 0, 1}, {1, 0, 0}},
		HalfExtents: mgl32.Vec3{5, 0.1, 0.1},
	}
	assert.True(t, obbOverlap(a, b))

	b.Center = mgl32.Vec3{0, 0, 1}
	assert.False(t, obbOverlap(a, b))
	assert.False(t, obbOverlap(b, a))
}
