package core

// Vertex is the interleaved layout shared by both backends: position then normal.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
}

// VertexStride is the byte size of Vertex.
const VertexStride = 24

// MeshData is CPU-side geometry ready for upload.
type MeshData struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	Bounds   AABB
}

// ComputeBounds refreshes Bounds from the vertex positions.
func (m *MeshData) ComputeBounds() {
	b := EmptyAABB()
	for _, v := range m.Vertices {
		b = b.Extend(v.Position)
	}
	m.Bounds = b
}

// FoliagePatch is a set of instanced blades. Each instance is xyz offset and
// a uniform scale in w.
type FoliagePatch struct {
	Instances [][4]float32
	Bounds    AABB
}

// ComputeBounds encloses every instance, grown by bladeBounds scaled per instance.
func (p *FoliagePatch) ComputeBounds(bladeBounds AABB) {
	b := EmptyAABB()
	if bladeBounds.IsEmpty() {
		p.Bounds = b
		return
	}
	for _, inst := range p.Instances {
		offset := [3]float32{inst[0], inst[1], inst[2]}
		s := inst[3]
		for _, c := range bladeBounds.Corners() {
			b = b.Extend(c.Mul(s).Add(offset))
		}
	}
	p.Bounds = b
}
