package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ClipSpace is the NDC depth range a projection maps into.
type ClipSpace int

const (
	// ClipZeroToOne is the WebGPU/D3D/Vulkan depth range.
	ClipZeroToOne ClipSpace = iota
	// ClipNegOneToOne is the OpenGL depth range.
	ClipNegOneToOne
)

// NearZ returns the NDC depth of the near plane for a standard (non-reversed) projection.
func (c ClipSpace) NearZ() float32 {
	if c == ClipNegOneToOne {
		return -1
	}
	return 0
}

// FarZ returns the NDC depth of the far plane for a standard projection.
func (c ClipSpace) FarZ() float32 {
	return 1
}

func (c ClipSpace) String() string {
	if c == ClipNegOneToOne {
		return "[-1,1]"
	}
	return "[0,1]"
}

type CameraState struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	Speed       float32
	Sensitivity float32

	FovY      float32 // radians
	Aspect    float32
	NearPlane float32
	FarPlane  float32
	Clip      ClipSpace
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:    mgl32.Vec3{0, -20, 4},
		Yaw:         0,
		Pitch:       0,
		Speed:       10.0,
		Sensitivity: 0.003,
		FovY:        mgl32.DegToRad(60),
		Aspect:      16.0 / 9.0,
		NearPlane:   0.1,
		FarPlane:    400.0,
		Clip:        ClipZeroToOne,
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	// Z-up: Forward in XY plane, Z for pitch
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
	}
}

func (c *CameraState) GetRight() mgl32.Vec3 {
	// Z-up: Right in XY plane
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Yaw))),
		float32(-math.Sin(float64(c.Yaw))),
		0,
	}
}

func (c *CameraState) GetViewMatrix() mgl32.Mat4 {
	forward := c.GetForward()
	eye := c.Position
	target := eye.Add(forward)
	up := mgl32.Vec3{0, 0, 1} // Z-up
	return mgl32.LookAtV(eye, target, up)
}

func (c *CameraState) Near() float32 { return c.NearPlane }
func (c *CameraState) Far() float32 { return c.FarPlane }
func (c *CameraState) View() mgl32.Mat4 { return c.GetViewMatrix() }

func (c *CameraState) ClipSpace() ClipSpace { return c.Clip }

// Projection is the full-range projection used by the main pass.
func (c *CameraState) Projection() mgl32.Mat4 {
	return c.ProjectionForRange(c.NearPlane, c.FarPlane)
}

// ProjectionForRange builds the camera's perspective projection clipped to
// [near, far] instead of the camera's own planes.
func (c *CameraState) ProjectionForRange(near, far float32) mgl32.Mat4 {
	aspect := c.Aspect
	if aspect == 0 {
		aspect = 1.0
	}
	if c.Clip == ClipNegOneToOne {
		return mgl32.Perspective(c.FovY, aspect, near, far)
	}
	return PerspectiveZO(c.FovY, aspect, near, far)
}

// PerspectiveZO is mgl32.Perspective with depth mapped to [0,1].
func PerspectiveZO(fovy, aspect, near, far float32) mgl32.Mat4 {
	f := float32(1.0 / math.Tan(float64(fovy)/2.0))
	nmf := near - far
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far / nmf, -1,
		0, 0, near * far / nmf, 0,
	}
}
