package glbackend

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// RenderTarget is one framebuffer. Shadow slots attach a single layer of the
// depth array and carry that layer as their slot index.
type RenderTarget struct {
	Name   string
	FBO    uint32
	Layer  int
	Width  uint32
	Height uint32
}

func (t *RenderTarget) Label() string { return t.Name }

// ShadowMap is a GL_TEXTURE_2D_ARRAY of depth with one framebuffer per layer.
type ShadowMap struct {
	DepthTex   uint32
	slots      [cascade.SlotCount]*RenderTarget
	resolution uint32
}

func NewShadowMap(resolution uint32, conv cascade.DepthConvention) (*ShadowMap, error) {
	if resolution == 0 {
		return nil, fmt.Errorf("shadow map resolution must be positive")
	}
	sm := &ShadowMap{resolution: resolution}
	size := int32(resolution)

	gl.GenTextures(1, &sm.DepthTex)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, sm.DepthTex)
	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, gl.DEPTH_COMPONENT32F,
		size, size, cascade.SlotCount, 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	// Hardware PCF: texture() returns the filtered comparison result.
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_COMPARE_MODE, gl.COMPARE_REF_TO_TEXTURE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_COMPARE_FUNC, int32(compareFunc(conv)))
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)

	for li := 0; li < cascade.MaxDirLights; li++ {
		for ci := 0; ci < cascade.CascadeCount; ci++ {
			slot := cascade.SlotIndex(li, ci)
			t := &RenderTarget{
				Name:   fmt.Sprintf("shadow-l%d-c%d", li, ci),
				Layer:  slot,
				Width:  resolution,
				Height: resolution,
			}
			gl.GenFramebuffers(1, &t.FBO)
			gl.BindFramebuffer(gl.FRAMEBUFFER, t.FBO)
			gl.FramebufferTextureLayer(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, sm.DepthTex, 0, int32(slot))
			gl.DrawBuffer(gl.NONE)
			gl.ReadBuffer(gl.NONE)
			status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
			sm.slots[slot] = t
			if status != gl.FRAMEBUFFER_COMPLETE {
				gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
				sm.Release()
				return nil, fmt.Errorf("shadow FBO %s incomplete: status=0x%X", t.Name, status)
			}
		}
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	return sm, nil
}

func (sm *ShadowMap) Slot(light, cascadeIndex int) cascade.Target {
	if light < 0 || light >= cascade.MaxDirLights || cascadeIndex < 0 || cascadeIndex >= cascade.CascadeCount {
		return nil
	}
	return sm.slots[cascade.SlotIndex(light, cascadeIndex)]
}

func (sm *ShadowMap) Resolution() uint32 { return sm.resolution }

// DepthTexture is the array texture the shading pass samples.
func (sm *ShadowMap) DepthTexture() uint32 { return sm.DepthTex }

func (sm *ShadowMap) Release() {
	for i, t := range sm.slots {
		if t != nil && t.FBO != 0 {
			gl.DeleteFramebuffers(1, &t.FBO)
		}
		sm.slots[i] = nil
	}
	if sm.DepthTex != 0 {
		gl.DeleteTextures(1, &sm.DepthTex)
		sm.DepthTex = 0
	}
}
