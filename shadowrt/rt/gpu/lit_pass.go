package gpu

import (
	"encoding/binary"
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
	"github.com/gekko3d/csm/shadowrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	litCameraSize = 144
	litLightsSize = 96

	// compareBias is added to the fragment's light-space depth before the
	// comparison, toward the light.
	compareBias = 0.0005
)

// LitItem is one mesh drawn by the forward pass.
type LitItem struct {
	Mesh  *Mesh
	Model mgl32.Mat4
	Color [4]float32
}

// LitPass shades the scene with the cascade records and the depth array.
// It is the consumer that exercises everything the shadow pass produces.
type LitPass struct {
	device *wgpu.Device

	layout        *wgpu.BindGroupLayout
	meshPipeline  *wgpu.RenderPipeline
	foliagePipe   *wgpu.RenderPipeline
	cameraBuf     *wgpu.Buffer
	lightsBuf     *wgpu.Buffer
	bindGroup     *wgpu.BindGroup
	depthTex      *wgpu.Texture
	depthView     *wgpu.TextureView
	depthWidth    uint32
	depthHeight   uint32
	shaderBias    float32
	lastDrawCount int
}

func NewLitPass(device *wgpu.Device, format wgpu.TextureFormat, shadows *ShadowSystem, conv cascade.DepthConvention) (*LitPass, error) {
	p := &LitPass{device: device, shaderBias: shaderBias(conv)}
	ok := false
	defer func() {
		if !ok {
			p.Release()
		}
	}()

	var err error
	p.layout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "LitBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: litCameraSize},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: litLightsSize},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: cascadeBufferSize},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeDepth,
					ViewDimension: wgpu.TextureViewDimension2DArray,
				},
			},
			{
				Binding:    4,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("lit layout: %w", err)
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Lit Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.LitWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("lit shader: %w", err)
	}
	defer module.Release()

	p.meshPipeline, err = p.newPipeline(module, format, "vs_mesh",
		[]*wgpu.BindGroupLayout{p.layout, shadows.Map.Pipelines.ModelLayout},
		[]wgpu.VertexBufferLayout{meshVertexLayout(true)})
	if err != nil {
		return nil, err
	}
	p.foliagePipe, err = p.newPipeline(module, format, "vs_foliage",
		[]*wgpu.BindGroupLayout{p.layout},
		[]wgpu.VertexBufferLayout{meshVertexLayout(true), instanceVertexLayout()})
	if err != nil {
		return nil, err
	}

	p.cameraBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Lit Camera",
		Size:  UniformStride,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("lit camera buffer: %w", err)
	}
	p.lightsBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Lit Lights",
		Size:  UniformStride,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("lit lights buffer: %w", err)
	}

	p.bindGroup, err = device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "LitBG",
		Layout: p.layout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.cameraBuf, Size: litCameraSize},
			{Binding: 1, Buffer: p.lightsBuf, Size: litLightsSize},
			{Binding: 2, Buffer: shadows.Cascades.Buffer, Size: cascadeBufferSize},
			{Binding: 3, TextureView: shadows.DepthTexture()},
			{Binding: 4, Sampler: shadows.Map.Sampler},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("lit bind group: %w", err)
	}

	ok = true
	return p, nil
}

func (p *LitPass) newPipeline(module *wgpu.ShaderModule, format wgpu.TextureFormat, entry string, layouts []*wgpu.BindGroupLayout, buffers []wgpu.VertexBufferLayout) (*wgpu.RenderPipeline, error) {
	layout, err := p.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Lit " + entry,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("lit %s layout: %w", entry, err)
	}
	defer layout.Release()

	pipeline, err := p.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Lit " + entry,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: entry,
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("lit %s pipeline: %w", entry, err)
	}
	return pipeline, nil
}

// Resize (re)creates the scene depth buffer.
func (p *LitPass) Resize(w, h uint32) error {
	if w == 0 || h == 0 || (w == p.depthWidth && h == p.depthHeight) {
		return nil
	}
	p.releaseDepth()
	tex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Scene Depth",
		Size:          wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("scene depth texture: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("scene depth view: %w", err)
	}
	p.depthTex, p.depthView = tex, view
	p.depthWidth, p.depthHeight = w, h
	return nil
}

// DepthAttachment clears the scene depth buffer at the start of the main pass.
func (p *LitPass) DepthAttachment() *wgpu.RenderPassDepthStencilAttachment {
	return &wgpu.RenderPassDepthStencilAttachment{
		View:            p.depthView,
		DepthLoadOp:     wgpu.LoadOpClear,
		DepthStoreOp:    wgpu.StoreOpDiscard,
		DepthClearValue: 1.0,
	}
}

// Update uploads the camera and light uniforms for this frame.
func (p *LitPass) Update(queue *wgpu.Queue, viewProj, view mgl32.Mat4, camPos mgl32.Vec3, lights []core.DirectionalLight, ambient [3]float32) {
	queue.WriteBuffer(p.cameraBuf, 0, cameraToBytes(viewProj, view, camPos))
	queue.WriteBuffer(p.lightsBuf, 0, lightsToBytes(lights, ambient, p.shaderBias))
}

// Draw records items and foliage into pass. Model uniforms come from models,
// which must use the model layout of the shadow pipelines.
func (p *LitPass) Draw(pass *wgpu.RenderPassEncoder, queue *wgpu.Queue, models *UniformRing, items []LitItem, foliage []*Foliage) error {
	p.lastDrawCount = 0
	if len(items) > 0 {
		pass.SetPipeline(p.meshPipeline)
		pass.SetBindGroup(0, p.bindGroup, nil)
		for _, it := range items {
			if it.Mesh == nil || it.Mesh.IndexCount() == 0 {
				continue
			}
			off, err := models.Push(queue, modelToBytes(it.Model, it.Color))
			if err != nil {
				return err
			}
			pass.SetBindGroup(1, models.BindGroup(), []uint32{off})
			it.Mesh.bind(pass)
			pass.DrawIndexed(it.Mesh.IndexCount(), 1, 0, 0, 0)
			p.lastDrawCount++
		}
	}
	if len(foliage) > 0 {
		pass.SetPipeline(p.foliagePipe)
		pass.SetBindGroup(0, p.bindGroup, nil)
		for _, f := range foliage {
			f.bind(pass)
			pass.DrawIndexed(f.Blade.IndexCount(), f.count, 0, 0, 0)
			p.lastDrawCount++
		}
	}
	return nil
}

func (p *LitPass) DrawCount() int { return p.lastDrawCount }

func shaderBias(conv cascade.DepthConvention) float32 {
	if conv.Reversed {
		return compareBias
	}
	return -compareBias
}

func cameraToBytes(viewProj, view mgl32.Mat4, pos mgl32.Vec3) []byte {
	buf := make([]byte, litCameraSize)
	putMat4(buf, viewProj)
	putMat4(buf[64:], view)
	putVec4(buf[128:], [4]float32{pos.X(), pos.Y(), pos.Z(), 1})
	return buf
}

// lightsToBytes matches struct Lights in lit.wgsl. The ambient w lane carries
// the signed comparison bias.
func lightsToBytes(lights []core.DirectionalLight, ambient [3]float32, bias float32) []byte {
	buf := make([]byte, litLightsSize)
	n := min(len(lights), cascade.MaxDirLights)
	for i := 0; i < n; i++ {
		l := lights[i]
		casts := float32(0)
		if l.CastsShadows {
			casts = 1
		}
		putVec4(buf[i*32:], [4]float32{l.Direction.X(), l.Direction.Y(), l.Direction.Z(), casts})
		putVec4(buf[i*32+16:], [4]float32{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity, 0})
	}
	putVec4(buf[64:], [4]float32{ambient[0], ambient[1], ambient[2], bias})
	binary.LittleEndian.PutUint32(buf[80:], uint32(n))
	return buf
}

func (p *LitPass) releaseDepth() {
	if p.depthView != nil {
		p.depthView.Release()
		p.depthView = nil
	}
	if p.depthTex != nil {
		p.depthTex.Release()
		p.depthTex = nil
	}
	p.depthWidth, p.depthHeight = 0, 0
}

func (p *LitPass) Release() {
	p.releaseDepth()
	for _, b := range []*wgpu.Buffer{p.cameraBuf, p.lightsBuf} {
		if b != nil {
			b.Release()
		}
	}
	p.cameraBuf, p.lightsBuf = nil, nil
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.meshPipeline != nil {
		p.meshPipeline.Release()
		p.meshPipeline = nil
	}
	if p.foliagePipe != nil {
		p.foliagePipe.Release()
		p.foliagePipe = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
}
