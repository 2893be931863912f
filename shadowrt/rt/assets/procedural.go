package assets

import (
	"math/rand/v2"

	"github.com/gekko3d/csm/shadowrt/rt/core"
)

// Cube returns a unit box scaled to size, centred on the origin, with flat
// per-face normals.
func Cube(sizeX, sizeY, sizeZ float32) core.MeshData {
	hx, hy, hz := sizeX/2, sizeY/2, sizeZ/2
	faces := []struct {
		normal [3]float32
		corner [4][3]float32
	}{
		{[3]float32{1, 0, 0}, [4][3]float32{{hx, -hy, -hz}, {hx, hy, -hz}, {hx, hy, hz}, {hx, -hy, hz}}},
		{[3]float32{-1, 0, 0}, [4][3]float32{{-hx, hy, -hz}, {-hx, -hy, -hz}, {-hx, -hy, hz}, {-hx, hy, hz}}},
		{[3]float32{0, 1, 0}, [4][3]float32{{hx, hy, -hz}, {-hx, hy, -hz}, {-hx, hy, hz}, {hx, hy, hz}}},
		{[3]float32{0, -1, 0}, [4][3]float32{{-hx, -hy, -hz}, {hx, -hy, -hz}, {hx, -hy, hz}, {-hx, -hy, hz}}},
		{[3]float32{0, 0, 1}, [4][3]float32{{-hx, -hy, hz}, {hx, -hy, hz}, {hx, hy, hz}, {-hx, hy, hz}}},
		{[3]float32{0, 0, -1}, [4][3]float32{{-hx, hy, -hz}, {hx, hy, -hz}, {hx, -hy, -hz}, {-hx, -hy, -hz}}},
	}

	m := core.MeshData{Name: "cube"}
	for _, f := range faces {
		base := uint32(len(m.Vertices))
		for _, c := range f.corner {
			m.Vertices = append(m.Vertices, core.Vertex{Position: c, Normal: f.normal})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	m.ComputeBounds()
	return m
}

// Plane is a flat quad in the XY plane facing +Z.
func Plane(sizeX, sizeY float32) core.MeshData {
	hx, hy := sizeX/2, sizeY/2
	n := [3]float32{0, 0, 1}
	m := core.MeshData{
		Name: "plane",
		Vertices: []core.Vertex{
			{Position: [3]float32{-hx, -hy, 0}, Normal: n},
			{Position: [3]float32{hx, -hy, 0}, Normal: n},
			{Position: [3]float32{hx, hy, 0}, Normal: n},
			{Position: [3]float32{-hx, hy, 0}, Normal: n},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	m.ComputeBounds()
	return m
}

// Blade is a single grass blade: two tapered quads crossed at right angles,
// rooted at the origin and one unit tall.
func Blade() core.MeshData {
	const w, h = 0.08, 1.0
	m := core.MeshData{Name: "blade"}
	for _, side := range [][3]float32{{1, 0, 0}, {0, 1, 0}} {
		n := [3]float32{side[1], side[0], 0}
		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices,
			core.Vertex{Position: [3]float32{-w * side[0], -w * side[1], 0}, Normal: n},
			core.Vertex{Position: [3]float32{w * side[0], w * side[1], 0}, Normal: n},
			core.Vertex{Position: [3]float32{0, 0, h}, Normal: n},
		)
		m.Indices = append(m.Indices, base, base+1, base+2)
	}
	m.ComputeBounds()
	return m
}

// ScatterFoliage places count blades inside a square of the given extent
// around center. The layout depends only on seed.
func ScatterFoliage(seed uint64, count int, center [3]float32, extent float32, blade core.AABB) core.FoliagePatch {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	p := core.FoliagePatch{Instances: make([][4]float32, 0, max(count, 0))}
	for i := 0; i < count; i++ {
		x := center[0] + (rng.Float32()-0.5)*extent
		y := center[1] + (rng.Float32()-0.5)*extent
		s := 0.6 + rng.Float32()*0.8
		p.Instances = append(p.Instances, [4]float32{x, y, center[2], s})
	}
	p.ComputeBounds(blade)
	return p
}
