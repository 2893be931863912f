package world

import (
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMesh struct{ n uint32 }

func (m fakeMesh) IndexCount() uint32 { return m.n }

type fakeFoliage struct{ box core.AABB }

func (f *fakeFoliage) BoundingBox() core.AABB            { return f.box }
func (f *fakeFoliage) DrawShadows(lightSpace cascade.Buffer) {}

type drawCall struct {
	mesh  cascade.Mesh
	model mgl32.Mat4
}

// recordingDevice implements only what caster.Draw touches.
type recordingDevice struct {
	cascade.Device
	draws []drawCall
}

func (d *recordingDevice) DrawMesh(mesh cascade.Mesh, model mgl32.Mat4) {
	d.draws = append(d.draws, drawCall{mesh, model})
}

func unitBox() core.AABB {
	return core.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
}

func at(x, y, z float32) core.Transform {
	t := core.NewTransform()
	t.Position = mgl32.Vec3{x, y, z}
	return *t
}

func TestShadowCasters(t *testing.T) {
	s := NewScene()
	mesh := fakeMesh{36}
	s.SpawnMesh(mesh, unitBox(), at(10, 0, 0), [4]float32{1, 0, 0, 1}, true)
	s.SpawnMesh(mesh, unitBox(), at(-10, 0, 0), [4]float32{0, 1, 0, 1}, false)

	casters := s.ShadowCasters()
	require.Len(t, casters, 2)

	var casting int
	dev := &recordingDevice{}
	for _, c := range casters {
		if !c.ShouldCastShadows() {
			continue
		}
		casting++
		obb, ok := c.ShadowBounds().(core.OBB)
		require.True(t, ok)
		assert.Equal(t, mgl32.Vec3{10, 0, 0}, obb.Center)
		c.Draw(dev)
	}
	assert.Equal(t, 1, casting)
	require.Len(t, dev.draws, 1)
	assert.Equal(t, cascade.Mesh(mesh), dev.draws[0].mesh)
	assert.Equal(t, mgl32.Translate3D(10, 0, 0), dev.draws[0].model)
}

func TestDrawablesIncludeNonCasters(t *testing.T) {
	s := NewScene()
	s.SpawnMesh(fakeMesh{6}, unitBox(), at(0, 0, 0), [4]float32{1, 1, 1, 1}, false)
	s.SpawnMesh(fakeMesh{6}, unitBox(), at(0, 5, 0), [4]float32{1, 1, 1, 1}, true)

	d := s.Drawables()
	assert.Len(t, d, 2)
}

func TestFoliageAndBounds(t *testing.T) {
	s := NewScene()
	assert.True(t, s.Bounds().IsEmpty())

	s.SpawnMesh(fakeMesh{36}, unitBox(), at(0, 0, 0), [4]float32{1, 1, 1, 1}, true)
	f := &fakeFoliage{box: core.AABB{Min: mgl32.Vec3{5, 5, 0}, Max: mgl32.Vec3{8, 9, 1}}}
	s.SpawnFoliage(f)
	s.SpawnFoliage(&fakeFoliage{box: core.EmptyAABB()})

	batches := s.FoliageBatches()
	require.Len(t, batches, 2)

	b := s.Bounds()
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, b.Min)
	assert.Equal(t, mgl32.Vec3{8, 9, 1}, b.Max)
}

func TestSpinAndRemove(t *testing.T) {
	s := NewScene()
	e := s.SpawnMesh(fakeMesh{36}, unitBox(), at(0, 0, 0), [4]float32{1, 1, 1, 1}, true)
	s.Spin(e, mgl32.Vec3{0, 0, 2}, mgl32.DegToRad(90))

	s.Update(1)
	tr := s.Transform(e)
	require.NotNil(t, tr)
	x := tr.Rotation.Rotate(mgl32.Vec3{1, 0, 0})
	assert.InDelta(t, 0, x.X(), 1e-5)
	assert.InDelta(t, 1, x.Y(), 1e-5)

	s.Remove(e)
	assert.Nil(t, s.Transform(e))
	assert.Empty(t, s.ShadowCasters())
	s.Remove(e)
}
