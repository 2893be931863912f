package glbackend

import (
	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
)

type ShadowConfig struct {
	Resolution uint32
	Convention cascade.DepthConvention
	SlopeBias  float32
	DepthBias  int32
}

// ShadowSystem is the OpenGL counterpart of gpu.ShadowSystem.
type ShadowSystem struct {
	Map      *ShadowMap
	Device   *Device
	Renderer *cascade.Renderer
	Packer   *cascade.Packer
	Cascades *CascadeBuffer

	log csm.Logger
}

// NewShadowSystem needs a current GL context.
func NewShadowSystem(cfg ShadowConfig, builder *cascade.Builder, log csm.Logger) (*ShadowSystem, error) {
	log = csm.OrNop(log)
	sm, err := NewShadowMap(cfg.Resolution, cfg.Convention)
	if err != nil {
		return nil, err
	}
	dev, err := NewDevice(cfg.Convention, cfg.SlopeBias, cfg.DepthBias)
	if err != nil {
		sm.Release()
		return nil, err
	}
	s := &ShadowSystem{
		Map:      sm,
		Device:   dev,
		Renderer: cascade.NewRenderer(builder, sm, log),
		Packer:   cascade.NewPacker(builder),
		Cascades: NewCascadeBuffer(),
		log:      log,
	}
	log.Infof("Shadow map (gl): %d slots of %dx%d, reversed=%v", cascade.SlotCount, cfg.Resolution, cfg.Resolution, cfg.Convention.Reversed)
	return s, nil
}

// Render draws every cascade and uploads the records computed for them.
func (s *ShadowSystem) Render(scene cascade.Scene, cam cascade.Camera, lights []core.DirectionalLight) {
	s.Device.Draws = 0
	s.Renderer.Render(s.Device, scene, cam, lights)
	s.Device.EndShadowState()
	s.Cascades.Upload(s.Packer.PackInfos(lights, s.Renderer.LastCascades()))
}

func (s *ShadowSystem) DepthTexture() uint32 { return s.Map.DepthTexture() }

// PackedCascadeBuffer recomputes and uploads the records, returning the UBO name.
func (s *ShadowSystem) PackedCascadeBuffer(cam cascade.Camera, lights []core.DirectionalLight) uint32 {
	s.Cascades.Upload(s.Packer.Pack(cam, lights))
	return s.Cascades.ID
}

func (s *ShadowSystem) Release() {
	if s.Cascades != nil {
		s.Cascades.Release()
		s.Cascades = nil
	}
	if s.Device != nil {
		s.Device.Release()
		s.Device = nil
	}
	if s.Map != nil {
		s.Map.Release()
		s.Map = nil
	}
}
