package gpu

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
)

// LightSpace is the light-space uniform of one slot, bound with a dynamic offset.
type LightSpace struct {
	ring   *UniformRing
	Offset uint32
}

func (l *LightSpace) Label() string { return fmt.Sprintf("light-space@%d", l.Offset) }

// Context gives the shadow renderer an immediate-mode device over a WebGPU
// command encoder. Render passes open lazily on the first draw into the
// bound depth target; a depth clear is folded into that pass's load op.
// Targets cleared but never drawn get an empty clearing pass in Flush.
type Context struct {
	device    *wgpu.Device
	queue     *wgpu.Queue
	pipelines *DepthPipelines

	lightSpace *UniformRing
	models     *UniformRing
	current    LightSpace

	encoder    *wgpu.CommandEncoder
	pass       *wgpu.RenderPassEncoder
	passTarget *RenderTarget
	bound      cascade.TargetBinding
	viewport   cascade.Viewport
	clears     map[*RenderTarget]float32
	err        error

	Passes int
	Draws  int
}

func NewContext(device *wgpu.Device, pipelines *DepthPipelines) (*Context, error) {
	lightSpace, err := NewUniformRing(device, "LightSpace Uniforms", pipelines.LightLayout, lightSpaceSize, cascade.SlotCount)
	if err != nil {
		return nil, err
	}
	models, err := NewUniformRing(device, "Model Uniforms", pipelines.ModelLayout, modelUniformSize, 256)
	if err != nil {
		lightSpace.Release()
		return nil, err
	}
	c := &Context{
		device:     device,
		queue:      device.GetQueue(),
		pipelines:  pipelines,
		lightSpace: lightSpace,
		models:     models,
		clears:     make(map[*RenderTarget]float32),
	}
	c.current.ring = lightSpace
	return c, nil
}

// Begin starts recording into encoder. The previous frame must be submitted.
func (c *Context) Begin(encoder *wgpu.CommandEncoder) {
	c.encoder = encoder
	c.models.Reset()
	c.err = nil
	c.Passes = 0
	c.Draws = 0
}

// Flush closes the open pass and performs pending clears. The encoder is
// released from the context; errors seen while recording are returned.
func (c *Context) Flush() error {
	c.endPass()

	targets := make([]*RenderTarget, 0, len(c.clears))
	for t := range c.clears {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Layer < targets[j].Layer })
	for _, t := range targets {
		c.openPass(t)
		c.endPass()
	}

	c.encoder = nil
	err := c.err
	c.err = nil
	return err
}

func (c *Context) BoundTargets() cascade.TargetBinding { return c.bound }

func (c *Context) BindTargets(b cascade.TargetBinding) {
	if c.pass != nil && b.Depth != cascade.Target(c.passTarget) {
		c.endPass()
	}
	c.bound = b.Clone()
}

// UnbindWritable drops every binding; the shadow pass only writes depth.
func (c *Context) UnbindWritable() {
	c.endPass()
	c.bound = cascade.TargetBinding{}
}

func (c *Context) Viewport() cascade.Viewport { return c.viewport }

func (c *Context) SetViewport(v cascade.Viewport) {
	c.viewport = v
	if c.pass != nil {
		c.applyViewport()
	}
}

func (c *Context) ClearDepth(t cascade.Target, value float32) {
	rt, ok := t.(*RenderTarget)
	if !ok || rt == nil {
		return
	}
	if c.passTarget == rt {
		c.endPass()
	}
	c.clears[rt] = value
}

// SetLightSpaceMatrix writes m into the uniform slot of the bound depth layer.
func (c *Context) SetLightSpaceMatrix(m mgl32.Mat4) {
	slot := 0
	if rt, ok := c.bound.Depth.(*RenderTarget); ok && rt != nil {
		slot = rt.Layer
	}
	c.current.Offset = c.lightSpace.Write(c.queue, slot, mat4ToBytes(m))
}

func (c *Context) LightSpaceBuffer() cascade.Buffer {
	ls := c.current
	return &ls
}

func (c *Context) DrawMesh(mesh cascade.Mesh, model mgl32.Mat4) {
	m, ok := mesh.(*Mesh)
	if !ok || m == nil || m.IndexCount() == 0 {
		return
	}
	if !c.ensurePass() {
		return
	}
	off, err := c.models.Push(c.queue, modelToBytes(model, [4]float32{}))
	if err != nil {
		c.err = errors.Join(c.err, err)
		return
	}
	c.pass.SetPipeline(c.pipelines.Caster)
	c.pass.SetBindGroup(0, c.lightSpace.BindGroup(), []uint32{c.current.Offset})
	c.pass.SetBindGroup(1, c.models.BindGroup(), []uint32{off})
	m.bind(c.pass)
	c.pass.DrawIndexed(m.IndexCount(), 1, 0, 0, 0)
	c.Draws++
}

func (c *Context) drawFoliage(f *Foliage, lightSpace cascade.Buffer) {
	ls, ok := lightSpace.(*LightSpace)
	if !ok || ls == nil || f.count == 0 {
		return
	}
	if !c.ensurePass() {
		return
	}
	c.pass.SetPipeline(c.pipelines.Foliage)
	c.pass.SetBindGroup(0, ls.ring.BindGroup(), []uint32{ls.Offset})
	f.bind(c.pass)
	c.pass.DrawIndexed(f.Blade.IndexCount(), f.count, 0, 0, 0)
	c.Draws++
}

// Models exposes the per-draw model ring so other passes in the same frame
// can share it.
func (c *Context) Models() *UniformRing { return c.models }

func (c *Context) ensurePass() bool {
	if c.pass != nil {
		return true
	}
	rt, ok := c.bound.Depth.(*RenderTarget)
	if !ok || rt == nil {
		return false
	}
	return c.openPass(rt)
}

func (c *Context) openPass(rt *RenderTarget) bool {
	if c.encoder == nil {
		return false
	}
	att := &wgpu.RenderPassDepthStencilAttachment{
		View:         rt.View,
		DepthLoadOp:  wgpu.LoadOpLoad,
		DepthStoreOp: wgpu.StoreOpStore,
	}
	if v, pending := c.clears[rt]; pending {
		att.DepthLoadOp = wgpu.LoadOpClear
		att.DepthClearValue = v
		delete(c.clears, rt)
	}
	c.pass = c.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:                  rt.Name,
		DepthStencilAttachment: att,
	})
	c.passTarget = rt
	c.Passes++
	c.applyViewport()
	return true
}

func (c *Context) applyViewport() {
	v := clampViewport(c.viewport, c.passTarget.Width, c.passTarget.Height)
	c.pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
}

func (c *Context) endPass() {
	if c.pass == nil {
		return
	}
	if err := c.pass.End(); err != nil {
		c.err = errors.Join(c.err, fmt.Errorf("ending pass %s: %w", c.passTarget.Name, err))
	}
	c.pass.Release()
	c.pass = nil
	c.passTarget = nil
}

// clampViewport fits v inside a w x h target. An empty viewport covers the target.
func clampViewport(v cascade.Viewport, w, h uint32) cascade.Viewport {
	fw, fh := float32(w), float32(h)
	if v.Width <= 0 || v.Height <= 0 {
		return cascade.Viewport{Width: fw, Height: fh, MinDepth: 0, MaxDepth: 1}
	}
	v.X = min(max(v.X, 0), fw)
	v.Y = min(max(v.Y, 0), fh)
	v.Width = min(v.Width, fw-v.X)
	v.Height = min(v.Height, fh-v.Y)
	v.MinDepth = min(max(v.MinDepth, 0), 1)
	v.MaxDepth = min(max(v.MaxDepth, v.MinDepth), 1)
	return v
}

func (c *Context) Release() {
	c.endPass()
	c.models.Release()
	c.lightSpace.Release()
}
