package cascade

import (
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// Target is an opaque handle to a render target owned by a backend.
type Target interface {
	Label() string
}

// Buffer is an opaque handle to a GPU buffer owned by a backend.
type Buffer interface {
	Label() string
}

// Mesh is a backend-owned vertex/index buffer pair drawable by the depth pipeline.
type Mesh interface {
	IndexCount() uint32
}

// TargetBinding is the set of targets the device draws into.
type TargetBinding struct {
	Color   []Target
	Depth   Target
	Storage []Target
}

// Clone copies the slices so the binding can outlive later device changes.
func (b TargetBinding) Clone() TargetBinding {
	out := TargetBinding{Depth: b.Depth}
	if b.Color != nil {
		out.Color = append([]Target(nil), b.Color...)
	}
	if b.Storage != nil {
		out.Storage = append([]Target(nil), b.Storage...)
	}
	return out
}

func (b TargetBinding) Equal(o TargetBinding) bool {
	if b.Depth != o.Depth || len(b.Color) != len(o.Color) || len(b.Storage) != len(o.Storage) {
		return false
	}
	for i := range b.Color {
		if b.Color[i] != o.Color[i] {
			return false
		}
	}
	for i := range b.Storage {
		if b.Storage[i] != o.Storage[i] {
			return false
		}
	}
	return true
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// Device is the immediate-mode graphics context the shadow pass draws through.
type Device interface {
	BoundTargets() TargetBinding
	BindTargets(b TargetBinding)
	// UnbindWritable drops every bound target the shadow pass could write to.
	UnbindWritable()
	Viewport() Viewport
	SetViewport(v Viewport)
	ClearDepth(t Target, value float32)
	// SetLightSpaceMatrix uploads the matrix used by subsequent caster draws
	// and by LightSpaceBuffer.
	SetLightSpaceMatrix(m mgl32.Mat4)
	LightSpaceBuffer() Buffer
	// DrawMesh issues a depth-only draw of mesh placed by model.
	DrawMesh(mesh Mesh, model mgl32.Mat4)
}

// Camera supplies the view frustum a cascade slices.
type Camera interface {
	Near() float32
	Far() float32
	View() mgl32.Mat4
	// ProjectionForRange is the camera projection clipped to [near, far].
	ProjectionForRange(near, far float32) mgl32.Mat4
}

// clipSpacer is implemented by cameras that know which NDC depth range their
// projection targets.
type clipSpacer interface {
	ClipSpace() core.ClipSpace
}

// ShadowCaster is a scene object that may draw itself into a depth target.
type ShadowCaster interface {
	ShouldCastShadows() bool
	ShadowBounds() core.Bounds
	Draw(dev Device)
}

// FoliageBatch is an instanced vegetation batch with its own shadow draw.
type FoliageBatch interface {
	BoundingBox() core.AABB
	DrawShadows(lightSpace Buffer)
}

type Scene interface {
	ShadowCasters() []ShadowCaster
	FoliageBatches() []FoliageBatch
}

// DepthTargets owns one square depth target per (light, cascade) slot.
type DepthTargets interface {
	Slot(light, cascade int) Target
	Resolution() uint32
}
