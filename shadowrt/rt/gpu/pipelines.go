package gpu

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
	"github.com/gekko3d/csm/shadowrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	DepthFormat = wgpu.TextureFormatDepth32Float

	lightSpaceSize = 64
)

// DepthBias is the rasterizer bias applied while rendering casters.
// Values are given for a standard depth range and flipped for reversed depth.
type DepthBias struct {
	Constant   int32
	SlopeScale float32
}

func signedBias(conv cascade.DepthConvention, b DepthBias) DepthBias {
	if conv.Reversed {
		return DepthBias{Constant: -b.Constant, SlopeScale: -b.SlopeScale}
	}
	return b
}

func depthCompare(conv cascade.DepthConvention) wgpu.CompareFunction {
	if conv.Reversed {
		return wgpu.CompareFunctionGreater
	}
	return wgpu.CompareFunctionLess
}

// samplerCompare passes when the fragment is at least as close to the light
// as the stored occluder.
func samplerCompare(conv cascade.DepthConvention) wgpu.CompareFunction {
	if conv.Reversed {
		return wgpu.CompareFunctionGreaterEqual
	}
	return wgpu.CompareFunctionLessEqual
}

func meshVertexLayout(withNormal bool) wgpu.VertexBufferLayout {
	attrs := []wgpu.VertexAttribute{
		{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
	}
	if withNormal {
		attrs = append(attrs, wgpu.VertexAttribute{Format: wgpu.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: core.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}

func instanceVertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: 16,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 2},
		},
	}
}

func dynamicUniformLayout(device *wgpu.Device, label string, visibility wgpu.ShaderStage, size uint64) (*wgpu.BindGroupLayout, error) {
	return device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: label,
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: visibility,
				Buffer: wgpu.BufferBindingLayout{
					Type:             wgpu.BufferBindingTypeUniform,
					HasDynamicOffset: true,
					MinBindingSize:   size,
				},
			},
		},
	})
}

// DepthPipelines are the depth-only pipelines of the shadow pass.
type DepthPipelines struct {
	LightLayout *wgpu.BindGroupLayout
	ModelLayout *wgpu.BindGroupLayout
	Caster      *wgpu.RenderPipeline
	Foliage     *wgpu.RenderPipeline
}

func NewDepthPipelines(device *wgpu.Device, conv cascade.DepthConvention, bias DepthBias) (*DepthPipelines, error) {
	p := &DepthPipelines{}
	ok := false
	defer func() {
		if !ok {
			p.Release()
		}
	}()

	var err error
	p.LightLayout, err = dynamicUniformLayout(device, "LightSpaceBGL", wgpu.ShaderStageVertex, lightSpaceSize)
	if err != nil {
		return nil, fmt.Errorf("light space layout: %w", err)
	}
	p.ModelLayout, err = dynamicUniformLayout(device, "ModelBGL", wgpu.ShaderStageVertex, modelUniformSize)
	if err != nil {
		return nil, fmt.Errorf("model layout: %w", err)
	}

	p.Caster, err = newDepthPipeline(device, "Shadow Caster Pipeline", shaders.ShadowDepthWGSL,
		[]*wgpu.BindGroupLayout{p.LightLayout, p.ModelLayout},
		[]wgpu.VertexBufferLayout{meshVertexLayout(false)},
		conv, bias)
	if err != nil {
		return nil, err
	}
	p.Foliage, err = newDepthPipeline(device, "Shadow Foliage Pipeline", shaders.FoliageDepthWGSL,
		[]*wgpu.BindGroupLayout{p.LightLayout},
		[]wgpu.VertexBufferLayout{meshVertexLayout(false), instanceVertexLayout()},
		conv, bias)
	if err != nil {
		return nil, err
	}

	ok = true
	return p, nil
}

func newDepthPipeline(device *wgpu.Device, label, code string, layouts []*wgpu.BindGroupLayout, buffers []wgpu.VertexBufferLayout, conv cascade.DepthConvention, bias DepthBias) (*wgpu.RenderPipeline, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("%s shader: %w", label, err)
	}
	defer module.Release()

	layout, err := device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            label,
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, fmt.Errorf("%s layout: %w", label, err)
	}
	defer layout.Release()

	b := signedBias(conv, bias)
	pipeline, err := device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		// Depth only.
		Fragment: nil,
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:              DepthFormat,
			DepthWriteEnabled:   true,
			DepthCompare:        depthCompare(conv),
			DepthBias:           b.Constant,
			DepthBiasSlopeScale: b.SlopeScale,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	return pipeline, nil
}

func (p *DepthPipelines) Release() {
	if p.Caster != nil {
		p.Caster.Release()
		p.Caster = nil
	}
	if p.Foliage != nil {
		p.Foliage.Release()
		p.Foliage = nil
	}
	if p.ModelLayout != nil {
		p.ModelLayout.Release()
		p.ModelLayout = nil
	}
	if p.LightLayout != nil {
		p.LightLayout.Release()
		p.LightLayout = nil
	}
}
