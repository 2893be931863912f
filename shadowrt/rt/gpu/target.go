package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RenderTarget is one attachable view. Depth slices of the shadow map carry
// their array layer, which doubles as the cascade slot index.
type RenderTarget struct {
	Name   string
	View   *wgpu.TextureView
	Layer  int
	Width  uint32
	Height uint32
}

func (t *RenderTarget) Label() string { return t.Name }
