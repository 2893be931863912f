package gpu

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
)

// Foliage is an instanced batch of one blade mesh. It draws its own depth
// pass through the Context that created it.
type Foliage struct {
	ctx       *Context
	Blade     *Mesh
	Instances *wgpu.Buffer
	count     uint32
	bounds    core.AABB
}

func (c *Context) NewFoliage(blade *Mesh, patch *core.FoliagePatch) (*Foliage, error) {
	if len(patch.Instances) == 0 {
		return nil, fmt.Errorf("foliage patch has no instances")
	}
	buf, err := c.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "Foliage Instances",
		Contents: instancesToBytes(patch.Instances),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return nil, fmt.Errorf("foliage instance buffer: %w", err)
	}
	return &Foliage{
		ctx:       c,
		Blade:     blade,
		Instances: buf,
		count:     uint32(len(patch.Instances)),
		bounds:    patch.Bounds,
	}, nil
}

func (f *Foliage) BoundingBox() core.AABB { return f.bounds }

func (f *Foliage) InstanceCount() uint32 { return f.count }

// DrawShadows renders the batch with the light-space matrix held by lightSpace.
func (f *Foliage) DrawShadows(lightSpace cascade.Buffer) {
	f.ctx.drawFoliage(f, lightSpace)
}

func (f *Foliage) bind(pass *wgpu.RenderPassEncoder) {
	f.Blade.bind(pass)
	pass.SetVertexBuffer(1, f.Instances, 0, wgpu.WholeSize)
}

func (f *Foliage) Release() {
	if f.Instances != nil {
		f.Instances.Release()
		f.Instances = nil
	}
}
