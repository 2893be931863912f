package app

import (
	"fmt"
	"strings"

	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
	"github.com/gekko3d/csm/shadowrt/rt/glbackend"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// GLApp drives the demo on OpenGL 4.1 core. The window must have been
// created with a GL context (see WindowHints).
type GLApp struct {
	*Base

	Shadows *glbackend.ShadowSystem
	Lit     *glbackend.LitPass

	width, height int
	meshes        []*glbackend.Mesh
	foliage       []*glbackend.Foliage
	items         []glbackend.LitItem
	titleTime     float64
	litDraws      int
}

var _ Runner = (*GLApp)(nil)

func NewGLApp(window *glfw.Window, cfg *csm.Config, log csm.Logger) *GLApp {
	return &GLApp{Base: newBase(window, cfg, log)}
}

// WindowHints requests the context GLApp needs. Call before CreateWindow.
func WindowHints(backend csm.Backend) {
	if backend != csm.BackendGL {
		glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
		return
	}
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
}

func (a *GLApp) Init() error {
	a.Window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("initializing OpenGL: %w", err)
	}
	glfw.SwapInterval(1)
	a.Log.Infof("OpenGL %s", gl.GoStr(gl.GetString(gl.VERSION)))

	a.width, a.height = a.Window.GetFramebufferSize()
	a.resizeCamera(a.width, a.height)

	loaded, err := a.setup()
	if err != nil {
		return err
	}

	conv := a.Cfg.Convention()
	a.Shadows, err = glbackend.NewShadowSystem(glbackend.ShadowConfig{
		Resolution: a.Cfg.Shadows.Resolution,
		Convention: conv,
		SlopeBias:  a.Cfg.Shadows.SlopeBias,
		DepthBias:  a.Cfg.Shadows.DepthBias,
	}, a.Builder, a.Log)
	if err != nil {
		return fmt.Errorf("creating shadow system: %w", err)
	}
	a.Shadows.Device.SetFramebufferSize(a.width, a.height)

	a.Lit, err = glbackend.NewLitPass(conv)
	if err != nil {
		return fmt.Errorf("creating lit pass: %w", err)
	}

	if err := PopulateScene(a.Scene, a, a.Cfg.Scene, a.Library, loaded); err != nil {
		return err
	}

	a.LastTime = glfw.GetTime()
	return nil
}

func (a *GLApp) UploadMesh(data *core.MeshData) (cascade.Mesh, error) {
	m, err := glbackend.NewMesh(data)
	if err != nil {
		return nil, err
	}
	a.meshes = append(a.meshes, m)
	return m, nil
}

func (a *GLApp) UploadFoliage(blade cascade.Mesh, patch *core.FoliagePatch) (cascade.FoliageBatch, error) {
	mesh, ok := blade.(*glbackend.Mesh)
	if !ok {
		return nil, fmt.Errorf("foliage blade is %T, want *glbackend.Mesh", blade)
	}
	f, err := a.Shadows.Device.NewFoliage(mesh, patch)
	if err != nil {
		return nil, err
	}
	a.foliage = append(a.foliage, f)
	return f, nil
}

func (a *GLApp) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.width, a.height = w, h
	a.resizeCamera(w, h)
	a.Shadows.Device.SetFramebufferSize(w, h)
}

func (a *GLApp) Update() {
	a.Profiler.Begin(phaseUpdate)
	a.tick()

	a.items = a.items[:0]
	for _, d := range a.Scene.Drawables() {
		if m, ok := d.Mesh.(*glbackend.Mesh); ok {
			a.items = append(a.items, glbackend.LitItem{Mesh: m, Model: d.Model, Color: d.Color})
		}
	}
	a.Profiler.End(phaseUpdate)
}

func (a *GLApp) Render() {
	a.Profiler.Begin(phaseFrame)

	a.Profiler.Begin(phaseShadow)
	a.Shadows.Render(a.Scene, a.Camera, a.Lights)
	a.Profiler.End(phaseShadow)

	a.Profiler.Begin(phaseLit)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(a.width), int32(a.height))
	gl.ClearColor(0.52, 0.66, 0.85, 1)
	gl.ClearDepth(1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	camView := a.Camera.View()
	viewProj := a.Camera.Projection().Mul4(camView)
	a.litDraws = a.Lit.Draw(a.items, a.foliage, viewProj, camView, a.Lights, a.AmbientLight, a.Shadows)
	a.Profiler.End(phaseLit)

	a.Window.SwapBuffers()
	a.Profiler.End(phaseFrame)

	a.endFrame(a.Shadows.Renderer.Stats(), a.litDraws)
	a.updateTitle()
}

// updateTitle shows the HUD in the window title once per second; this
// backend has no overlay pass.
func (a *GLApp) updateTitle() {
	if !a.ShowOverlay || a.LastRenderTime-a.titleTime < 1.0 {
		return
	}
	a.titleTime = a.LastRenderTime
	lines := a.overlayText(a.Shadows.Renderer)
	if len(lines) > 3 {
		lines = lines[:3]
	}
	a.Window.SetTitle(a.Cfg.Window.Title + " | " + strings.Join(lines, " | "))
}

func (a *GLApp) Release() {
	a.close()
	for _, f := range a.foliage {
		f.Release()
	}
	for _, m := range a.meshes {
		m.Release()
	}
	a.foliage, a.meshes = nil, nil
	if a.Lit != nil {
		a.Lit.Release()
	}
	if a.Shadows != nil {
		a.Shadows.Release()
	}
}
