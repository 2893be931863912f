package glbackend

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
	"github.com/gekko3d/csm/shadowrt/rt/shaders"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

const compareBias = 0.0005

type LitItem struct {
	Mesh  *Mesh
	Model mgl32.Mat4
	Color [4]float32
}

type litProgram struct {
	id         uint32
	viewProj   int32
	view       int32
	model      int32
	albedo     int32
	shadowMaps int32
	lightCount int32
	lightDir   int32
	lightColor int32
	ambient    int32
	shadowBias int32
}

func newLitProgram(vert string) (*litProgram, error) {
	id, err := newProgram(vert, shaders.LitFrag)
	if err != nil {
		return nil, err
	}
	bindBlock(id, "Cascades", cascadesBinding)
	return &litProgram{
		id:         id,
		viewProj:   uniform(id, "viewProj"),
		view:       uniform(id, "view"),
		model:      uniform(id, "model"),
		albedo:     uniform(id, "albedo"),
		shadowMaps: uniform(id, "shadowMaps"),
		lightCount: uniform(id, "lightCount"),
		lightDir:   uniform(id, "lightDirection[0]"),
		lightColor: uniform(id, "lightColor[0]"),
		ambient:    uniform(id, "ambient"),
		shadowBias: uniform(id, "shadowBias"),
	}, nil
}

// lightUniforms flattens up to MaxDirLights lights for the lit programs.
// Direction w is 1 for shadow casters; colors are premultiplied by intensity.
func lightUniforms(lights []core.DirectionalLight) (dirs [cascade.MaxDirLights][4]float32, colors [cascade.MaxDirLights][3]float32, n int32) {
	for i := 0; i < min(len(lights), cascade.MaxDirLights); i++ {
		l := lights[i]
		casts := float32(0)
		if l.CastsShadows {
			casts = 1
		}
		dirs[i] = [4]float32{l.Direction.X(), l.Direction.Y(), l.Direction.Z(), casts}
		colors[i] = [3]float32{l.Color[0] * l.Intensity, l.Color[1] * l.Intensity, l.Color[2] * l.Intensity}
		n++
	}
	return dirs, colors, n
}

func shaderBias(conv cascade.DepthConvention) float32 {
	if conv.Reversed {
		return compareBias
	}
	return -compareBias
}

// LitPass shades meshes and foliage with the cascade records and depth array.
type LitPass struct {
	mesh    *litProgram
	foliage *litProgram
	bias    float32
}

func NewLitPass(conv cascade.DepthConvention) (*LitPass, error) {
	mesh, err := newLitProgram(shaders.LitVert)
	if err != nil {
		return nil, fmt.Errorf("lit mesh program: %w", err)
	}
	foliage, err := newLitProgram(shaders.LitFoliageVert)
	if err != nil {
		gl.DeleteProgram(mesh.id)
		return nil, fmt.Errorf("lit foliage program: %w", err)
	}
	return &LitPass{mesh: mesh, foliage: foliage, bias: shaderBias(conv)}, nil
}

func (p *LitPass) setup(prog *litProgram, viewProj, view mgl32.Mat4, lights []core.DirectionalLight, ambient [3]float32, shadows *ShadowSystem) {
	gl.UseProgram(prog.id)
	gl.UniformMatrix4fv(prog.viewProj, 1, false, &viewProj[0])
	gl.UniformMatrix4fv(prog.view, 1, false, &view[0])

	dirs, colors, n := lightUniforms(lights)
	gl.Uniform1i(prog.lightCount, n)
	gl.Uniform4fv(prog.lightDir, cascade.MaxDirLights, &dirs[0][0])
	gl.Uniform3fv(prog.lightColor, cascade.MaxDirLights, &colors[0][0])
	gl.Uniform3f(prog.ambient, ambient[0], ambient[1], ambient[2])
	gl.Uniform1f(prog.shadowBias, p.bias)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, shadows.DepthTexture())
	gl.Uniform1i(prog.shadowMaps, 0)
	shadows.Cascades.bind()
}

// Draw renders into the currently bound framebuffer.
func (p *LitPass) Draw(items []LitItem, foliage []*Foliage, viewProj, view mgl32.Mat4, lights []core.DirectionalLight, ambient [3]float32, shadows *ShadowSystem) int {
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.DepthMask(true)
	gl.ColorMask(true, true, true, true)
	gl.Disable(gl.POLYGON_OFFSET_FILL)

	draws := 0
	if len(items) > 0 {
		p.setup(p.mesh, viewProj, view, lights, ambient, shadows)
		for _, it := range items {
			if it.Mesh == nil || it.Mesh.IndexCount() == 0 {
				continue
			}
			gl.UniformMatrix4fv(p.mesh.model, 1, false, &it.Model[0])
			gl.Uniform3f(p.mesh.albedo, it.Color[0], it.Color[1], it.Color[2])
			gl.BindVertexArray(it.Mesh.VAO)
			gl.DrawElements(gl.TRIANGLES, int32(it.Mesh.IndexCount()), gl.UNSIGNED_INT, nil)
			draws++
		}
	}
	if len(foliage) > 0 {
		p.setup(p.foliage, viewProj, view, lights, ambient, shadows)
		for _, f := range foliage {
			gl.BindVertexArray(f.VAO)
			gl.DrawElementsInstanced(gl.TRIANGLES, int32(f.Blade.IndexCount()), gl.UNSIGNED_INT, nil, int32(f.count))
			draws++
		}
	}
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
	return draws
}

func (p *LitPass) Release() {
	if p.mesh != nil {
		gl.DeleteProgram(p.mesh.id)
		p.mesh = nil
	}
	if p.foliage != nil {
		gl.DeleteProgram(p.foliage.id)
		p.foliage = nil
	}
}
