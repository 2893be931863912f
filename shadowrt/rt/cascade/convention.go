package cascade

import (
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// DepthConvention fixes how light-space depth is written. The same value must
// drive the orthographic projection, the depth clear value and the backend's
// depth compare function.
type DepthConvention struct {
	Clip     core.ClipSpace
	Reversed bool
}

var (
	// WebGPUReversedZ maps the near plane to 1 and the far plane to 0 in a [0,1] clip space.
	WebGPUReversedZ = DepthConvention{Clip: core.ClipZeroToOne, Reversed: true}
	// OpenGLReversedZ is reversed depth on a GL context without clip control.
	OpenGLReversedZ = DepthConvention{Clip: core.ClipNegOneToOne, Reversed: true}
)

// ClearDepth is the window-space depth of the far plane.
func (c DepthConvention) ClearDepth() float32 {
	if c.Reversed {
		return 0
	}
	return 1
}

// Ortho builds an off-center orthographic projection for a right-handed view
// space looking down -Z. near and far are distances along the view direction.
func (c DepthConvention) Ortho(left, right, bottom, top, near, far float32) mgl32.Mat4 {
	rml, tmb, fmn := right-left, top-bottom, far-near

	var a, b float32
	switch {
	case c.Clip == core.ClipZeroToOne && c.Reversed:
		a, b = 1/fmn, far/fmn
	case c.Clip == core.ClipZeroToOne:
		a, b = -1/fmn, -near/fmn
	case c.Reversed:
		a, b = 2/fmn, (far+near)/fmn
	default:
		a, b = -2/fmn, -(far+near)/fmn
	}

	return mgl32.Mat4{
		2 / rml, 0, 0, 0,
		0, 2 / tmb, 0, 0,
		0, 0, a, 0,
		-(right + left) / rml, -(top + bottom) / tmb, b, 1,
	}
}
