package glbackend

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/shaders"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// Device implements cascade.Device on the current OpenGL context. Every call
// takes effect immediately, so the light-space block can be overwritten per
// cascade.
type Device struct {
	conv       cascade.DepthConvention
	bound      cascade.TargetBinding
	viewport   cascade.Viewport
	lightSpace *UniformBuffer

	casterProg  uint32
	foliageProg uint32
	modelLoc    int32

	offsetFactor float32
	offsetUnits  float32

	fbWidth, fbHeight uint32

	Draws int
}

func NewDevice(conv cascade.DepthConvention, slopeBias float32, constantBias int32) (*Device, error) {
	d := &Device{conv: conv}
	d.offsetFactor, d.offsetUnits = polygonOffset(conv, slopeBias, constantBias)

	var err error
	d.casterProg, err = newProgram(shaders.ShadowDepthVert, shaders.DepthFrag)
	if err != nil {
		return nil, fmt.Errorf("shadow caster program: %w", err)
	}
	d.foliageProg, err = newProgram(shaders.FoliageDepthVert, shaders.DepthFrag)
	if err != nil {
		gl.DeleteProgram(d.casterProg)
		return nil, fmt.Errorf("shadow foliage program: %w", err)
	}
	bindBlock(d.casterProg, "LightSpace", lightSpaceBinding)
	bindBlock(d.foliageProg, "LightSpace", lightSpaceBinding)
	d.modelLoc = uniform(d.casterProg, "model")

	d.lightSpace = newUniformBuffer("LightSpace", lightSpaceBinding, 64)
	return d, nil
}

// SetFramebufferSize records the window size used when nothing is bound.
func (d *Device) SetFramebufferSize(w, h int) {
	d.fbWidth, d.fbHeight = uint32(max(w, 0)), uint32(max(h, 0))
}

func (d *Device) BoundTargets() cascade.TargetBinding { return d.bound }

func (d *Device) BindTargets(b cascade.TargetBinding) {
	d.bound = b.Clone()
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.boundFBO())
}

func (d *Device) UnbindWritable() {
	d.bound = cascade.TargetBinding{}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

func (d *Device) Viewport() cascade.Viewport { return d.viewport }

func (d *Device) SetViewport(v cascade.Viewport) {
	d.viewport = v
	w, h := d.fbWidth, d.fbHeight
	if rt, ok := d.bound.Depth.(*RenderTarget); ok && rt != nil {
		w, h = rt.Width, rt.Height
	}
	x, y, vw, vh := viewportRect(v, w, h)
	gl.Viewport(x, y, vw, vh)
	if v.Width > 0 && v.Height > 0 {
		gl.DepthRangef(v.MinDepth, v.MaxDepth)
	}
}

func (d *Device) ClearDepth(t cascade.Target, value float32) {
	rt, ok := t.(*RenderTarget)
	if !ok || rt == nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.FBO)
	gl.DepthMask(true)
	gl.ClearDepthf(value)
	gl.Clear(gl.DEPTH_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, d.boundFBO())
}

func (d *Device) SetLightSpaceMatrix(m mgl32.Mat4) {
	d.lightSpace.write(mat4Bytes(m))
}

func (d *Device) LightSpaceBuffer() cascade.Buffer { return d.lightSpace }

func (d *Device) DrawMesh(mesh cascade.Mesh, model mgl32.Mat4) {
	m, ok := mesh.(*Mesh)
	if !ok || m == nil || m.IndexCount() == 0 {
		return
	}
	d.depthState()
	gl.UseProgram(d.casterProg)
	d.lightSpace.bind()
	gl.UniformMatrix4fv(d.modelLoc, 1, false, &model[0])
	gl.BindVertexArray(m.VAO)
	gl.DrawElements(gl.TRIANGLES, int32(m.IndexCount()), gl.UNSIGNED_INT, nil)
	gl.BindVertexArray(0)
	d.Draws++
}

func (d *Device) drawFoliage(f *Foliage, lightSpace cascade.Buffer) {
	ub, ok := lightSpace.(*UniformBuffer)
	if !ok || ub == nil || f.count == 0 {
		return
	}
	d.depthState()
	gl.UseProgram(d.foliageProg)
	ub.bind()
	gl.BindVertexArray(f.VAO)
	gl.DrawElementsInstanced(gl.TRIANGLES, int32(f.Blade.IndexCount()), gl.UNSIGNED_INT, nil, int32(f.count))
	gl.BindVertexArray(0)
	d.Draws++
}

// depthState configures a depth-only draw with the caster bias.
func (d *Device) depthState() {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(depthFunc(d.conv))
	gl.DepthMask(true)
	gl.ColorMask(false, false, false, false)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.POLYGON_OFFSET_FILL)
	gl.PolygonOffset(d.offsetFactor, d.offsetUnits)
}

// EndShadowState undoes depthState for passes drawn after the shadow pass.
func (d *Device) EndShadowState() {
	gl.Disable(gl.POLYGON_OFFSET_FILL)
	gl.ColorMask(true, true, true, true)
	gl.DepthRangef(0, 1)
}

func (d *Device) boundFBO() uint32 {
	if rt, ok := d.bound.Depth.(*RenderTarget); ok && rt != nil {
		return rt.FBO
	}
	return 0
}

func (d *Device) Release() {
	if d.lightSpace != nil {
		d.lightSpace.Release()
		d.lightSpace = nil
	}
	if d.casterProg != 0 {
		gl.DeleteProgram(d.casterProg)
		d.casterProg = 0
	}
	if d.foliageProg != 0 {
		gl.DeleteProgram(d.foliageProg)
		d.foliageProg = 0
	}
}
