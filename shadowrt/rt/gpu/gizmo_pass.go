package gpu

import (
	"unsafe"

	"github.com/gekko3d/csm/shadowrt/rt/core"
	"github.com/gekko3d/csm/shadowrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// GizmoVertex matches the WGSL VertexInput
type GizmoVertex struct {
	Pos [3]float32
}

// GizmoInstance matches the WGSL instance attributes
type GizmoInstance struct {
	ModelMat mgl32.Mat4
	Color    [4]float32
}

var gizmoShapes = []core.GizmoType{core.GizmoLine, core.GizmoCube}

// GizmoRenderPass draws the debug overlay: cascade slice wireframes and
// culling volumes.
type GizmoRenderPass struct {
	Pipeline       *wgpu.RenderPipeline
	BindGroup      *wgpu.BindGroup
	CameraBuffer   *wgpu.Buffer
	VertexBuffer   *wgpu.Buffer
	VertexCount    uint32
	ShapeOffsets   map[core.GizmoType]uint32
	ShapeCounts    map[core.GizmoType]uint32
	InstanceBuffer *wgpu.Buffer
	InstanceCap    uint32
	GizmosByShape  map[core.GizmoType][]GizmoInstance
	Device         *wgpu.Device
}

func NewGizmoRenderPass(device *wgpu.Device, format wgpu.TextureFormat) (*GizmoRenderPass, error) {
	shaderModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "GizmoShader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.GizmoWGSL},
	})
	if err != nil {
		return nil, err
	}
	defer shaderModule.Release()

	bgl, err := device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "GizmoCameraBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: 64,
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	defer bgl.Release()

	pipelineLayout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return nil, err
	}
	defer pipelineLayout.Release()

	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "GizmoPipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     shaderModule,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: uint64(unsafe.Sizeof(GizmoVertex{})),
					StepMode:    wgpu.VertexStepModeVertex,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					},
				},
				{
					ArrayStride: uint64(unsafe.Sizeof(GizmoInstance{})),
					StepMode:    wgpu.VertexStepModeInstance,
					Attributes: []wgpu.VertexAttribute{
						{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 3},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 4},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 5},
						{Format: wgpu.VertexFormatFloat32x4, Offset: 64, ShaderLocation: 6},
					},
				},
			},
		},
		Fragment: &wgpu.FragmentState{
			Module:     shaderModule,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
					Blend: &wgpu.BlendState{
						Color: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorSrcAlpha,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
						Alpha: wgpu.BlendComponent{
							Operation: wgpu.BlendOperationAdd,
							SrcFactor: wgpu.BlendFactorOne,
							DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyLineList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		// Drawn in the overlay pass, which has no depth attachment.
		DepthStencil: nil,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, err
	}

	p := &GizmoRenderPass{
		Pipeline:      pipeline,
		Device:        device,
		ShapeOffsets:  make(map[core.GizmoType]uint32),
		ShapeCounts:   make(map[core.GizmoType]uint32),
		GizmosByShape: make(map[core.GizmoType][]GizmoInstance),
	}

	vertices := p.buildShapes()
	p.VertexCount = uint32(len(vertices))
	vSize := uint64(len(vertices) * int(unsafe.Sizeof(GizmoVertex{})))
	p.VertexBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "GizmoUnitVertexBuffer",
		Size:  vSize,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	device.GetQueue().WriteBuffer(p.VertexBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&vertices[0])), vSize))

	p.CameraBuffer, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "GizmoCamera",
		Size:  64,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	p.BindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "GizmoCameraBG",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.CameraBuffer, Size: 64},
		},
	})
	if err != nil {
		p.Release()
		return nil, err
	}

	return p, nil
}

// buildShapes lays out the unit shapes back to back and records where each starts.
func (p *GizmoRenderPass) buildShapes() []GizmoVertex {
	var vertices []GizmoVertex
	addShape := func(t core.GizmoType, shapeVertices []GizmoVertex) {
		p.ShapeOffsets[t] = uint32(len(vertices))
		p.ShapeCounts[t] = uint32(len(shapeVertices))
		vertices = append(vertices, shapeVertices...)
	}

	// Unit line along +Z; instances stretch it from P1 to P2.
	addShape(core.GizmoLine, []GizmoVertex{
		{Pos: [3]float32{0, 0, 0}},
		{Pos: [3]float32{0, 0, 1}},
	})

	// Unit cube -0.5..0.5, 12 edges. Corners use the same x-fastest order as core.AABB.Corners.
	lo, hi := float32(-0.5), float32(0.5)
	corner := func(i int) GizmoVertex {
		v := GizmoVertex{Pos: [3]float32{lo, lo, lo}}
		if i&1 != 0 {
			v.Pos[0] = hi
		}
		if i&2 != 0 {
			v.Pos[1] = hi
		}
		if i&4 != 0 {
			v.Pos[2] = hi
		}
		return v
	}
	edges := [12][2]int{
		{0, 1}, {2, 3}, {4, 5}, {6, 7},
		{0, 2}, {1, 3}, {4, 6}, {5, 7},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	cube := make([]GizmoVertex, 0, 24)
	for _, e := range edges {
		cube = append(cube, corner(e[0]), corner(e[1]))
	}
	addShape(core.GizmoCube, cube)

	return vertices
}

// gizmoInstance converts a gizmo into its instance record. Degenerate lines
// report false.
func gizmoInstance(g core.Gizmo) (GizmoInstance, bool) {
	inst := GizmoInstance{Color: g.Color}
	if g.Type != core.GizmoLine {
		inst.ModelMat = g.ModelMatrix
		return inst, true
	}

	wp1 := g.ModelMatrix.Mul4x1(g.P1.Vec4(1.0)).Vec3()
	wp2 := g.ModelMatrix.Mul4x1(g.P2.Vec4(1.0)).Vec3()
	diff := wp2.Sub(wp1)
	dist := diff.Len()
	if dist < 0.0001 {
		return inst, false
	}
	// Rotation that maps Z+ (unit line axis) to the segment direction
	rot := mgl32.QuatBetweenVectors(mgl32.Vec3{0, 0, 1}, diff.Normalize())
	inst.ModelMat = mgl32.Translate3D(wp1.X(), wp1.Y(), wp1.Z()).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(1, 1, dist))
	return inst, true
}

func (p *GizmoRenderPass) Update(queue *wgpu.Queue, viewProj mgl32.Mat4, gizmos []core.Gizmo) {
	for k := range p.GizmosByShape {
		p.GizmosByShape[k] = p.GizmosByShape[k][:0]
	}
	for _, g := range gizmos {
		if inst, ok := gizmoInstance(g); ok {
			p.GizmosByShape[g.Type] = append(p.GizmosByShape[g.Type], inst)
		}
	}

	var allInstances []GizmoInstance
	for _, shapeType := range gizmoShapes {
		allInstances = append(allInstances, p.GizmosByShape[shapeType]...)
	}
	if len(allInstances) == 0 {
		return
	}

	queue.WriteBuffer(p.CameraBuffer, 0, mat4ToBytes(viewProj))

	instanceCount := uint32(len(allInstances))
	sizeBytes := uint64(len(allInstances) * int(unsafe.Sizeof(GizmoInstance{})))
	if p.InstanceBuffer == nil || p.InstanceCap < instanceCount {
		if p.InstanceBuffer != nil {
			p.InstanceBuffer.Release()
		}
		p.InstanceCap = instanceCount + 128 // Margin
		var err error
		p.InstanceBuffer, err = p.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "GizmoInstanceBuffer",
			Size:  uint64(p.InstanceCap) * uint64(unsafe.Sizeof(GizmoInstance{})),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			p.InstanceBuffer = nil
			p.InstanceCap = 0
			return
		}
	}
	queue.WriteBuffer(p.InstanceBuffer, 0, unsafe.Slice((*byte)(unsafe.Pointer(&allInstances[0])), sizeBytes))
}

func (p *GizmoRenderPass) Draw(pass *wgpu.RenderPassEncoder) {
	if p.InstanceBuffer == nil {
		return
	}

	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.SetVertexBuffer(0, p.VertexBuffer, 0, p.VertexBuffer.GetSize())
	pass.SetVertexBuffer(1, p.InstanceBuffer, 0, p.InstanceBuffer.GetSize())

	var instanceOffset uint32
	for _, shapeType := range gizmoShapes {
		count := uint32(len(p.GizmosByShape[shapeType]))
		if count > 0 {
			pass.Draw(p.ShapeCounts[shapeType], count, p.ShapeOffsets[shapeType], instanceOffset)
		}
		instanceOffset += count
	}
}

func (p *GizmoRenderPass) Release() {
	for _, b := range []*wgpu.Buffer{p.VertexBuffer, p.InstanceBuffer, p.CameraBuffer} {
		if b != nil {
			b.Release()
		}
	}
	p.VertexBuffer, p.InstanceBuffer, p.CameraBuffer = nil, nil, nil
	if p.BindGroup != nil {
		p.BindGroup.Release()
		p.BindGroup = nil
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
		p.Pipeline = nil
	}
}
