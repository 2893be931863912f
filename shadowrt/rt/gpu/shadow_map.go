package gpu

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"

	"github.com/cogentcore/webgpu/wgpu"
)

type ShadowMapConfig struct {
	Resolution uint32
	Convention cascade.DepthConvention
	Bias       DepthBias
}

// ShadowMap is one Depth32Float texture with a layer per (light, cascade)
// slot. Layers are rendered through per-layer views and sampled through a
// single 2D-array view.
type ShadowMap struct {
	Texture   *wgpu.Texture
	Sampler   *wgpu.Sampler
	Pipelines *DepthPipelines

	arrayView  *wgpu.TextureView
	slots      [cascade.SlotCount]*RenderTarget
	resolution uint32
}

// NewShadowMap allocates every shadow resource. On failure everything created
// so far is released.
func NewShadowMap(device *wgpu.Device, cfg ShadowMapConfig) (*ShadowMap, error) {
	if cfg.Resolution == 0 {
		return nil, fmt.Errorf("shadow map resolution must be positive")
	}
	sm := &ShadowMap{resolution: cfg.Resolution}
	ok := false
	defer func() {
		if !ok {
			sm.Release()
		}
	}()

	var err error
	sm.Texture, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Shadow Depth Array",
		Size: wgpu.Extent3D{
			Width:              cfg.Resolution,
			Height:             cfg.Resolution,
			DepthOrArrayLayers: cascade.SlotCount,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("creating shadow depth texture: %w", err)
	}

	sm.arrayView, err = sm.Texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Shadow Depth Array View",
		Format:          DepthFormat,
		Dimension:       wgpu.TextureViewDimension2DArray,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: cascade.SlotCount,
		Aspect:          wgpu.TextureAspectDepthOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("creating shadow depth array view: %w", err)
	}

	for li := 0; li < cascade.MaxDirLights; li++ {
		for ci := 0; ci < cascade.CascadeCount; ci++ {
			slot := cascade.SlotIndex(li, ci)
			view, err := sm.Texture.CreateView(&wgpu.TextureViewDescriptor{
				Label:           slotName(li, ci),
				Format:          DepthFormat,
				Dimension:       wgpu.TextureViewDimension2D,
				BaseMipLevel:    0,
				MipLevelCount:   1,
				BaseArrayLayer:  uint32(slot),
				ArrayLayerCount: 1,
				Aspect:          wgpu.TextureAspectDepthOnly,
			})
			if err != nil {
				return nil, fmt.Errorf("creating view for %s: %w", slotName(li, ci), err)
			}
			sm.slots[slot] = &RenderTarget{
				Name:   slotName(li, ci),
				View:   view,
				Layer:  slot,
				Width:  cfg.Resolution,
				Height: cfg.Resolution,
			}
		}
	}

	sm.Sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Shadow Comparison Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       samplerCompare(cfg.Convention),
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("creating shadow comparison sampler: %w", err)
	}

	sm.Pipelines, err = NewDepthPipelines(device, cfg.Convention, cfg.Bias)
	if err != nil {
		return nil, fmt.Errorf("creating shadow pipelines: %w", err)
	}

	ok = true
	return sm, nil
}

func slotName(light, cascadeIndex int) string {
	return fmt.Sprintf("shadow-l%d-c%d", light, cascadeIndex)
}

// Slot returns the render target for a slot, or nil when out of range.
func (sm *ShadowMap) Slot(light, cascadeIndex int) cascade.Target {
	if light < 0 || light >= cascade.MaxDirLights || cascadeIndex < 0 || cascadeIndex >= cascade.CascadeCount {
		return nil
	}
	return sm.slots[cascade.SlotIndex(light, cascadeIndex)]
}

func (sm *ShadowMap) Resolution() uint32 { return sm.resolution }

// DepthTexture is the 2D-array view the shading pass samples.
func (sm *ShadowMap) DepthTexture() *wgpu.TextureView { return sm.arrayView }

func (sm *ShadowMap) Release() {
	if sm.Pipelines != nil {
		sm.Pipelines.Release()
		sm.Pipelines = nil
	}
	if sm.Sampler != nil {
		sm.Sampler.Release()
		sm.Sampler = nil
	}
	for i, t := range sm.slots {
		if t != nil && t.View != nil {
			t.View.Release()
		}
		sm.slots[i] = nil
	}
	if sm.arrayView != nil {
		sm.arrayView.Release()
		sm.arrayView = nil
	}
	if sm.Texture != nil {
		sm.Texture.Release()
		sm.Texture = nil
	}
}
