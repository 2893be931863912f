package app

import (
	"fmt"

	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
	"github.com/gekko3d/csm/shadowrt/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var skyColor = wgpu.Color{R: 0.52, G: 0.66, B: 0.85, A: 1}

// App drives the demo on WebGPU.
type App struct {
	*Base

	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Shadows *gpu.ShadowSystem
	Lit     *gpu.LitPass
	Gizmos  *gpu.GizmoRenderPass
	Text    *gpu.TextPass

	meshes  []*gpu.Mesh
	foliage []*gpu.Foliage
	items   []gpu.LitItem
}

var _ Runner = (*App)(nil)

func NewApp(window *glfw.Window, cfg *csm.Config, log csm.Logger) *App {
	return &App{Base: newBase(window, cfg, log)}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("requesting adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("requesting device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)
	a.resizeCamera(width, height)

	loaded, err := a.setup()
	if err != nil {
		return err
	}

	conv := a.Cfg.Convention()
	a.Shadows, err = gpu.NewShadowSystem(a.Device, gpu.ShadowMapConfig{
		Resolution: a.Cfg.Shadows.Resolution,
		Convention: conv,
		Bias:       gpu.DepthBias{Constant: a.Cfg.Shadows.DepthBias, SlopeScale: a.Cfg.Shadows.SlopeBias},
	}, a.Builder, a.Log)
	if err != nil {
		return fmt.Errorf("creating shadow system: %w", err)
	}

	a.Lit, err = gpu.NewLitPass(a.Device, a.Config.Format, a.Shadows, conv)
	if err != nil {
		return fmt.Errorf("creating lit pass: %w", err)
	}
	if err := a.Lit.Resize(a.Config.Width, a.Config.Height); err != nil {
		return err
	}

	a.Gizmos, err = gpu.NewGizmoRenderPass(a.Device, a.Config.Format)
	if err != nil {
		return fmt.Errorf("creating gizmo pass: %w", err)
	}

	font, err := core.NewHUDFont("", 18)
	if err != nil {
		a.Log.Warnf("Failed to load HUD font: %v", err)
	} else if a.Text, err = gpu.NewTextPass(a.Device, a.Config.Format, font); err != nil {
		a.Log.Warnf("Failed to create text pass: %v", err)
		a.Text = nil
	}

	if err := PopulateScene(a.Scene, a, a.Cfg.Scene, a.Library, loaded); err != nil {
		return err
	}

	a.LastTime = glfw.GetTime()
	return nil
}

func (a *App) UploadMesh(data *core.MeshData) (cascade.Mesh, error) {
	m, err := gpu.NewMesh(a.Device, data)
	if err != nil {
		return nil, err
	}
	a.meshes = append(a.meshes, m)
	return m, nil
}

func (a *App) UploadFoliage(blade cascade.Mesh, patch *core.FoliagePatch) (cascade.FoliageBatch, error) {
	mesh, ok := blade.(*gpu.Mesh)
	if !ok {
		return nil, fmt.Errorf("foliage blade is %T, want *gpu.Mesh", blade)
	}
	f, err := a.Shadows.Context.NewFoliage(mesh, patch)
	if err != nil {
		return nil, err
	}
	a.foliage = append(a.foliage, f)
	return f, nil
}

func (a *App) Resize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	a.Config.Width = uint32(w)
	a.Config.Height = uint32(h)
	a.Surface.Configure(a.Adapter, a.Device, a.Config)
	a.resizeCamera(w, h)
	if err := a.Lit.Resize(uint32(w), uint32(h)); err != nil {
		a.Log.Errorf("Resize: %v", err)
	}
}

func (a *App) Update() {
	a.Profiler.Begin(phaseUpdate)
	a.tick()

	a.items = a.items[:0]
	for _, d := range a.Scene.Drawables() {
		if m, ok := d.Mesh.(*gpu.Mesh); ok {
			a.items = append(a.items, gpu.LitItem{Mesh: m, Model: d.Model, Color: d.Color})
		}
	}
	a.Profiler.End(phaseUpdate)
}

func (a *App) Render() {
	a.Profiler.Begin(phaseFrame)
	defer a.Profiler.End(phaseFrame)

	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	// Shadow pass
	a.Profiler.Begin(phaseShadow)
	if err := a.Shadows.Render(encoder, a.Scene, a.Camera, a.Lights); err != nil {
		a.Log.Errorf("Shadow pass: %v", err)
	}
	a.Profiler.End(phaseShadow)

	// Lit pass
	a.Profiler.Begin(phaseLit)
	camView := a.Camera.View()
	viewProj := a.Camera.Projection().Mul4(camView)
	a.Lit.Update(a.Queue, viewProj, camView, a.Camera.Position, a.Lights, a.AmbientLight)

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: skyColor,
		}},
		DepthStencilAttachment: a.Lit.DepthAttachment(),
	})
	if err := a.Lit.Draw(rPass, a.Queue, a.Shadows.Context.Models(), a.items, a.foliage); err != nil {
		a.Log.Errorf("Lit pass: %v", err)
	}
	if err := rPass.End(); err != nil {
		a.Log.Errorf("Lit pass End failed: %v", err)
	}
	a.Profiler.End(phaseLit)

	// Overlay pass
	if a.ShowOverlay {
		a.Gizmos.Update(a.Queue, viewProj, a.overlayGizmos(a.Shadows.Renderer))
		if a.Text != nil {
			a.Text.SetLines(a.overlayText(a.Shadows.Renderer), 10, 10, [4]float32{1, 1, 0.4, 1})
			a.Text.Update(a.Queue, int(a.Config.Width), int(a.Config.Height))
		}

		oPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
			ColorAttachments: []wgpu.RenderPassColorAttachment{{
				View:    view,
				LoadOp:  wgpu.LoadOpLoad,
				StoreOp: wgpu.StoreOpStore,
			}},
		})
		a.Gizmos.Draw(oPass)
		if a.Text != nil {
			a.Text.Draw(oPass)
		}
		if err := oPass.End(); err != nil {
			a.Log.Errorf("Overlay pass End failed: %v", err)
		}
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Log.Errorf("Encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	a.endFrame(a.Shadows.Renderer.Stats(), a.Lit.DrawCount())
}

func (a *App) Release() {
	a.close()
	for _, f := range a.foliage {
		f.Release()
	}
	for _, m := range a.meshes {
		m.Release()
	}
	a.foliage, a.meshes = nil, nil
	if a.Text != nil {
		a.Text.Release()
	}
	if a.Gizmos != nil {
		a.Gizmos.Release()
	}
	if a.Lit != nil {
		a.Lit.Release()
	}
	if a.Shadows != nil {
		a.Shadows.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
