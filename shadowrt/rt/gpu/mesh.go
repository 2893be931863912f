package gpu

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
)

// Mesh is an uploaded indexed triangle list in the core.Vertex layout.
type Mesh struct {
	Name         string
	VertexBuffer *wgpu.Buffer
	IndexBuffer  *wgpu.Buffer
	Bounds       core.AABB
	indexCount   uint32
}

func NewMesh(device *wgpu.Device, data *core.MeshData) (*Mesh, error) {
	if len(data.Vertices) == 0 || len(data.Indices) == 0 {
		return nil, fmt.Errorf("mesh %q has no geometry", data.Name)
	}
	vb, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    data.Name + " VB",
		Contents: verticesToBytes(data.Vertices),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("mesh %q vertex buffer: %w", data.Name, err)
	}
	ib, err := device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    data.Name + " IB",
		Contents: indicesToBytes(data.Indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		vb.Release()
		return nil, fmt.Errorf("mesh %q index buffer: %w", data.Name, err)
	}
	return &Mesh{
		Name:         data.Name,
		VertexBuffer: vb,
		IndexBuffer:  ib,
		Bounds:       data.Bounds,
		indexCount:   uint32(len(data.Indices)),
	}, nil
}

func (m *Mesh) IndexCount() uint32 { return m.indexCount }

func (m *Mesh) bind(pass *wgpu.RenderPassEncoder) {
	pass.SetVertexBuffer(0, m.VertexBuffer, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(m.IndexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
}

func (m *Mesh) Release() {
	if m.VertexBuffer != nil {
		m.VertexBuffer.Release()
		m.VertexBuffer = nil
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Release()
		m.IndexBuffer = nil
	}
}
