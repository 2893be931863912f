package cascade

import (
	"fmt"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

type fakeTarget struct{ name string }

func (t *fakeTarget) Label() string { return t.name }

type fakeBuffer struct{ name string }

func (b *fakeBuffer) Label() string { return b.name }

// fakeDevice records every call the renderer makes.
type fakeDevice struct {
	bound    TargetBinding
	viewport Viewport
	buffer   *fakeBuffer

	clears   map[Target]float32
	matrices []mgl32.Mat4
	ops      []string
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		buffer: &fakeBuffer{name: "light-space"},
		clears: map[Target]float32{},
	}
}

func (d *fakeDevice) BoundTargets() TargetBinding { return d.bound }

func (d *fakeDevice) BindTargets(b TargetBinding) {
	d.bound = b
	d.ops = append(d.ops, "bind")
}

func (d *fakeDevice) UnbindWritable() {
	d.bound.Color = nil
	d.bound.Storage = nil
	d.ops = append(d.ops, "unbind")
}

func (d *fakeDevice) Viewport() Viewport { return d.viewport }

func (d *fakeDevice) SetViewport(v Viewport) {
	d.viewport = v
	d.ops = append(d.ops, "viewport")
}

func (d *fakeDevice) ClearDepth(t Target, value float32) {
	d.clears[t] = value
	d.ops = append(d.ops, "clear "+t.Label())
}

func (d *fakeDevice) SetLightSpaceMatrix(m mgl32.Mat4) {
	d.matrices = append(d.matrices, m)
	d.ops = append(d.ops, "matrix")
}

func (d *fakeDevice) LightSpaceBuffer() Buffer { return d.buffer }

func (d *fakeDevice) DrawMesh(mesh Mesh, model mgl32.Mat4) {
	d.ops = append(d.ops, "draw")
}

type fakeTargets struct {
	slots [SlotCount]*fakeTarget
	res   uint32
}

func newFakeTargets(res uint32) *fakeTargets {
	ft := &fakeTargets{res: res}
	for i := range ft.slots {
		ft.slots[i] = &fakeTarget{name: fmt.Sprintf("shadow-%d", i)}
	}
	return ft
}

func (f *fakeTargets) Slot(light, cascade int) Target { return f.slots[SlotIndex(light, cascade)] }
func (f *fakeTargets) Resolution() uint32            { return f.res }

type fakeCaster struct {
	bounds core.Bounds
	casts  bool
	draws  int

	// device state observed at draw time
	viewports []Viewport
	depths    []Target
}

func (c *fakeCaster) ShouldCastShadows() bool   { return c.casts }
func (c *fakeCaster) ShadowBounds() core.Bounds { return c.bounds }

func (c *fakeCaster) Draw(dev Device) {
	c.draws++
	dev.DrawMesh(nil, mgl32.Ident4())
	c.viewports = append(c.viewports, dev.Viewport())
	c.depths = append(c.depths, dev.BoundTargets().Depth)
}

// panickingCaster fails in the middle of its draw.
type panickingCaster struct{ fakeCaster }

func (c *panickingCaster) Draw(dev Device) {
	c.draws++
	dev.DrawMesh(nil, mgl32.Ident4())
	panic("draw failed")
}

type fakeFoliage struct {
	box     core.AABB
	draws   int
	buffers []Buffer
}

func (f *fakeFoliage) BoundingBox() core.AABB { return f.box }

func (f *fakeFoliage) DrawShadows(lightSpace Buffer) {
	f.draws++
	f.buffers = append(f.buffers, lightSpace)
}

type fakeScene struct {
	casters []ShadowCaster
	foliage []FoliageBatch
}

func (s *fakeScene) ShadowCasters() []ShadowCaster  { return s.casters }
func (s *fakeScene) FoliageBatches() []FoliageBatch { return s.foliage }

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// testCamera looks along +Y from (0,-20,4) with a 100 unit far plane.
func testCamera() *core.CameraState {
	cam := core.NewCameraState()
	cam.FarPlane = 100
	return cam
}

func unitBoxAt(x, y, z float32) core.AABB {
	return core.AABB{Min: mgl32.Vec3{x - 1, y - 1, z - 1}, Max: mgl32.Vec3{x + 1, y + 1, z + 1}}
}

func ptr(v float32) *float32 { return &v }
