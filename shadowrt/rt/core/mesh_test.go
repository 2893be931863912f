package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestMeshComputeBounds(t *testing.T) {
	m := MeshData{Vertices: []Vertex{
		{Position: [3]float32{-1, 2, 0}},
		{Position: [3]float32{3, -4, 5}},
	}}
	m.ComputeBounds()
	assert.Equal(t, mgl32.Vec3{-1, -4, 0}, m.Bounds.Min)
	assert.Equal(t, mgl32.Vec3{3, 2, 5}, m.Bounds.Max)

	var empty MeshData
	empty.ComputeBounds()
	assert.True(t, empty.Bounds.IsEmpty())
}

func TestFoliagePatchBounds(t *testing.T) {
	blade := AABB{Min: mgl32.Vec3{-0.5, -0.5, 0}, Max: mgl32.Vec3{0.5, 0.5, 1}}
	p := FoliagePatch{Instances: [][4]float32{
		{0, 0, 0, 1},
		{10, 0, 0, 2},
	}}
	p.ComputeBounds(blade)
	assert.Equal(t, mgl32.Vec3{-0.5, -1, 0}, p.Bounds.Min)
	assert.Equal(t, mgl32.Vec3{11, 1, 2}, p.Bounds.Max)

	p.ComputeBounds(EmptyAABB())
	assert.True(t, p.Bounds.IsEmpty())
}
