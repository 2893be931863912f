package gpu

import (
	"fmt"

	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShadowSystem owns the WebGPU side of cascaded shadows: the depth array,
// the recording context, the renderer and the packed cascade buffer.
type ShadowSystem struct {
	Map      *ShadowMap
	Context  *Context
	Renderer *cascade.Renderer
	Packer   *cascade.Packer
	Cascades *CascadeBuffer

	queue *wgpu.Queue
	log   csm.Logger
}

func NewShadowSystem(device *wgpu.Device, cfg ShadowMapConfig, builder *cascade.Builder, log csm.Logger) (*ShadowSystem, error) {
	log = csm.OrNop(log)
	s := &ShadowSystem{queue: device.GetQueue(), log: log}
	ok := false
	defer func() {
		if !ok {
			s.Release()
		}
	}()

	var err error
	s.Map, err = NewShadowMap(device, cfg)
	if err != nil {
		return nil, err
	}
	s.Context, err = NewContext(device, s.Map.Pipelines)
	if err != nil {
		return nil, fmt.Errorf("creating shadow context: %w", err)
	}
	s.Cascades, err = NewCascadeBuffer(device)
	if err != nil {
		return nil, err
	}
	s.Renderer = cascade.NewRenderer(builder, s.Map, log)
	s.Packer = cascade.NewPacker(builder)

	log.Infof("Shadow map: %d slots of %dx%d, reversed=%v", cascade.SlotCount, cfg.Resolution, cfg.Resolution, cfg.Convention.Reversed)
	ok = true
	return s, nil
}

// Render records the shadow pass into encoder and uploads the cascade
// records computed for it.
func (s *ShadowSystem) Render(encoder *wgpu.CommandEncoder, scene cascade.Scene, cam cascade.Camera, lights []core.DirectionalLight) error {
	s.Context.Begin(encoder)
	s.Renderer.Render(s.Context, scene, cam, lights)
	err := s.Context.Flush()
	s.Cascades.Upload(s.queue, s.Packer.PackInfos(lights, s.Renderer.LastCascades()))
	return err
}

// DepthTexture is the sampled 2D-array view of every slot.
func (s *ShadowSystem) DepthTexture() *wgpu.TextureView { return s.Map.DepthTexture() }

// PackedCascadeBuffer recomputes the records for cam and lights, uploads
// them and returns the shared buffer.
func (s *ShadowSystem) PackedCascadeBuffer(cam cascade.Camera, lights []core.DirectionalLight) *wgpu.Buffer {
	s.Cascades.Upload(s.queue, s.Packer.Pack(cam, lights))
	return s.Cascades.Buffer
}

func (s *ShadowSystem) Release() {
	if s.Cascades != nil {
		s.Cascades.Release()
		s.Cascades = nil
	}
	if s.Context != nil {
		s.Context.Release()
		s.Context = nil
	}
	if s.Map != nil {
		s.Map.Release()
		s.Map = nil
	}
}
