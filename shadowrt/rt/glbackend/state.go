package glbackend

import (
	"github.com/gekko3d/csm/shadowrt/rt/cascade"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Uniform block binding points shared by every program.
const (
	lightSpaceBinding = 0
	cascadesBinding   = 1
)

// depthFunc is the rasterizer depth test for conv.
func depthFunc(conv cascade.DepthConvention) uint32 {
	if conv.Reversed {
		return gl.GREATER
	}
	return gl.LESS
}

// compareFunc passes when the fragment is at least as close to the light as
// the stored occluder.
func compareFunc(conv cascade.DepthConvention) uint32 {
	if conv.Reversed {
		return gl.GEQUAL
	}
	return gl.LEQUAL
}

// polygonOffset returns (factor, units) for glPolygonOffset. The bias always
// pushes casters away from the light.
func polygonOffset(conv cascade.DepthConvention, slope float32, constant int32) (float32, float32) {
	if conv.Reversed {
		return -slope, -float32(constant)
	}
	return slope, float32(constant)
}

func viewportRect(v cascade.Viewport, w, h uint32) (x, y, width, height int32) {
	if v.Width <= 0 || v.Height <= 0 {
		return 0, 0, int32(w), int32(h)
	}
	return int32(v.X), int32(v.Y), int32(v.Width), int32(v.Height)
}
