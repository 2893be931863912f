package glbackend

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

type Mesh struct {
	Name       string
	VAO        uint32
	VBO        uint32
	EBO        uint32
	Bounds     core.AABB
	indexCount uint32
}

func NewMesh(data *core.MeshData) (*Mesh, error) {
	if len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return nil, fmt.Errorf("mesh %q has no geometry", data.Name)
	}
	m := &Mesh{Name: data.Name, Bounds: data.Bounds, indexCount: uint32(len(data.Indices))}

	gl.GenVertexArrays(1, &m.VAO)
	gl.BindVertexArray(m.VAO)

	gl.GenBuffers(1, &m.VBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.VBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(data.Vertices)*core.VertexStride, gl.Ptr(data.Vertices), gl.STATIC_DRAW)
	setMeshAttributes()

	gl.GenBuffers(1, &m.EBO)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.EBO)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data.Indices)*4, gl.Ptr(data.Indices), gl.STATIC_DRAW)

	gl.BindVertexArray(0)
	return m, nil
}

// setMeshAttributes describes core.Vertex for the bound ARRAY_BUFFER.
func setMeshAttributes() {
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, core.VertexStride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, core.VertexStride, gl.PtrOffset(12))
}

func (m *Mesh) IndexCount() uint32 { return m.indexCount }

func (m *Mesh) Release() {
	if m.EBO != 0 {
		gl.DeleteBuffers(1, &m.EBO)
		m.EBO = 0
	}
	if m.VBO != 0 {
		gl.DeleteBuffers(1, &m.VBO)
		m.VBO = 0
	}
	if m.VAO != 0 {
		gl.DeleteVertexArrays(1, &m.VAO)
		m.VAO = 0
	}
}

// Foliage is an instanced blade batch with its own vertex array.
type Foliage struct {
	dev         *Device
	Blade       *Mesh
	VAO         uint32
	InstanceVBO uint32
	count       uint32
	bounds      core.AABB
}

func (d *Device) NewFoliage(blade *Mesh, patch *core.FoliagePatch) (*Foliage, error) {
	if len(patch.Instances) == 0 {
		return nil, fmt.Errorf("foliage patch has no instances")
	}
	f := &Foliage{dev: d, Blade: blade, count: uint32(len(patch.Instances)), bounds: patch.Bounds}

	gl.GenVertexArrays(1, &f.VAO)
	gl.BindVertexArray(f.VAO)

	gl.BindBuffer(gl.ARRAY_BUFFER, blade.VBO)
	setMeshAttributes()
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, blade.EBO)

	gl.GenBuffers(1, &f.InstanceVBO)
	gl.BindBuffer(gl.ARRAY_BUFFER, f.InstanceVBO)
	gl.BufferData(gl.ARRAY_BUFFER, len(patch.Instances)*16, gl.Ptr(patch.Instances), gl.STATIC_DRAW)
	gl.EnableVertexAttribArray(2)
	gl.VertexAttribPointer(2, 4, gl.FLOAT, false, 16, gl.PtrOffset(0))
	gl.VertexAttribDivisor(2, 1)

	gl.BindVertexArray(0)
	return f, nil
}

func (f *Foliage) BoundingBox() core.AABB { return f.bounds }

func (f *Foliage) DrawShadows(lightSpace cascade.Buffer) {
	f.dev.drawFoliage(f, lightSpace)
}

func (f *Foliage) Release() {
	if f.InstanceVBO != 0 {
		gl.DeleteBuffers(1, &f.InstanceVBO)
		f.InstanceVBO = 0
	}
	if f.VAO != 0 {
		gl.DeleteVertexArrays(1, &f.VAO)
		f.VAO = 0
	}
}
