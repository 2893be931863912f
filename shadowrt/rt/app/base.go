package app

import (
	"fmt"

	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/shadowrt/rt/assets"
	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
	"github.com/gekko3d/csm/shadowrt/rt/world"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// Runner is one graphics backend driving the window.
type Runner interface {
	Init() error
	Resize(w, h int)
	Update()
	Render()
	Release()
	State() *Base
}

// Base is the backend-independent part of the demo: config, camera, lights,
// scene, assets and frame statistics.
type Base struct {
	Window *glfw.Window
	Cfg    *csm.Config
	Log    csm.Logger

	Camera       *core.CameraState
	Lights       []core.DirectionalLight
	AmbientLight [3]float32
	Scene        *world.Scene
	Library      *assets.Library
	Builder      *cascade.Builder

	Profiler *Profiler
	Stats    *StatsRecorder

	MouseCaptured bool
	ShowOverlay   bool

	LastTime       float64
	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
	frame          int
}

func newBase(window *glfw.Window, cfg *csm.Config, log csm.Logger) *Base {
	return &Base{
		Window:       window,
		Cfg:          cfg,
		Log:          csm.OrNop(log),
		Camera:       cfg.NewCamera(),
		Lights:       cfg.DirectionalLights(),
		AmbientLight: [3]float32{0.15, 0.16, 0.2},
		Scene:        world.NewScene(),
		Library:      assets.NewLibrary(),
		Profiler:     NewProfiler(),
		Stats:        NewStatsRecorder(cfg.Debug.StatsCSV, 0),
		ShowOverlay:  cfg.Debug.ShowOverlay,
	}
}

func (b *Base) State() *Base { return b }

// setup builds the cascade builder from config and loads the glTF assets.
// It returns the loaded ids grouped per file.
func (b *Base) setup() ([][]assets.AssetId, error) {
	bounds := cascade.NewBounds()
	if err := b.Cfg.ApplyCascades(bounds); err != nil {
		return nil, err
	}
	b.Builder = cascade.NewBuilder(bounds, b.Cfg.Convention())
	b.Builder.DepthMargin = b.Cfg.Shadows.DepthMargin

	if len(b.Cfg.Assets.GLTF) == 0 {
		return nil, nil
	}
	loader := assets.NewLoader(b.Library, b.Cfg.Assets.LoaderWorkers, assets.LoadGLTF, b.Log)
	defer loader.Close()
	ids, err := loader.LoadAll(b.Cfg.Assets.GLTF)
	if err != nil {
		// partial loads still populate the scene
		b.Log.Warnf("Some assets failed to load: %v", err)
	}
	b.Log.Infof("Loaded %d meshes from %d files", b.Library.Len(), len(b.Cfg.Assets.GLTF))
	return ids, nil
}

func (b *Base) resizeCamera(w, h int) {
	if w > 0 && h > 0 {
		b.Camera.Aspect = float32(w) / float32(h)
	}
}

// tick advances time, camera and scene. It returns the frame delta.
func (b *Base) tick() float32 {
	now := glfw.GetTime()
	dt := float32(now - b.LastTime)
	if b.LastTime == 0 || dt < 0 {
		dt = 0
	}
	b.LastTime = now

	b.moveCamera(dt)
	b.Scene.Update(dt)
	return dt
}

func (b *Base) moveCamera(dt float32) {
	if b.Window == nil || dt == 0 {
		return
	}
	var move mgl32.Vec3
	if b.Window.GetKey(glfw.KeyW) == glfw.Press {
		move[1] += 1
	}
	if b.Window.GetKey(glfw.KeyS) == glfw.Press {
		move[1] -= 1
	}
	if b.Window.GetKey(glfw.KeyD) == glfw.Press {
		move[0] += 1
	}
	if b.Window.GetKey(glfw.KeyA) == glfw.Press {
		move[0] -= 1
	}
	if b.Window.GetKey(glfw.KeySpace) == glfw.Press {
		move[2] += 1
	}
	if b.Window.GetKey(glfw.KeyLeftControl) == glfw.Press {
		move[2] -= 1
	}
	FlyCamera(b.Camera, move, dt)
}

// FlyCamera moves cam by move (right, forward, up) at cam.Speed.
func FlyCamera(cam *core.CameraState, move mgl32.Vec3, dt float32) {
	dir := cam.GetRight().Mul(move[0]).
		Add(cam.GetForward().Mul(move[1])).
		Add(mgl32.Vec3{0, 0, 1}.Mul(move[2]))
	if dir.Len() > 0 {
		cam.Position = cam.Position.Add(dir.Normalize().Mul(cam.Speed * dt))
	}
}

// Look turns the camera by a mouse delta in pixels. Pitch stays short of
// straight up or down.
func Look(cam *core.CameraState, dx, dy float64) {
	cam.Yaw += float32(dx) * cam.Sensitivity
	cam.Pitch -= float32(dy) * cam.Sensitivity
	limit := mgl32.DegToRad(89)
	if cam.Pitch > limit {
		cam.Pitch = limit
	}
	if cam.Pitch < -limit {
		cam.Pitch = -limit
	}
}

// endFrame updates FPS and records stats.
func (b *Base) endFrame(stats cascade.Stats, litDraws int) {
	now := glfw.GetTime()
	if b.LastRenderTime > 0 {
		b.FrameCount++
		b.FPSTime += now - b.LastRenderTime
		if b.FPSTime >= 1.0 {
			b.FPS = float64(b.FrameCount) / b.FPSTime
			b.FrameCount = 0
			b.FPSTime = 0
		}
	}
	b.LastRenderTime = now

	b.Profiler.Count(stats, litDraws)
	b.Stats.Record(b.Profiler.Row(b.frame))
	b.frame++
}

// overlayText returns the HUD lines, or nil when the overlay is hidden.
func (b *Base) overlayText(r *cascade.Renderer) []string {
	if !b.ShowOverlay {
		return nil
	}
	lines := HUDLines(b.FPS, r.Stats(), r.LastCascades(), b.Lights)
	lines = append(lines, b.Profiler.Summary())
	return append(lines, fmt.Sprintf("Camera: %.1f %.1f %.1f", b.Camera.Position.X(), b.Camera.Position.Y(), b.Camera.Position.Z()))
}

func (b *Base) overlayGizmos(r *cascade.Renderer) []core.Gizmo {
	if !b.ShowOverlay {
		return nil
	}
	return CascadeGizmos(b.Lights, r.LastCascades())
}

func (b *Base) close() {
	if err := b.Stats.Close(); err != nil {
		b.Log.Errorf("Failed to write stats: %v", err)
	} else if b.Stats != nil {
		b.Log.Infof("Wrote %d frames of shadow stats to %s", b.Stats.Len(), b.Cfg.Debug.StatsCSV)
	}
}
