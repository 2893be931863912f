package core

import "github.com/go-gl/mathgl/mgl32"

// DirectionalLight is read-only input to the shadow subsystem.
// Direction points from the light into the scene.
type DirectionalLight struct {
	Direction    mgl32.Vec3
	Color        [3]float32
	Intensity    float32
	CastsShadows bool
}

// NewDirectionalLight normalizes direction. A zero direction is kept as is and
// makes every cascade of the light degenerate.
func NewDirectionalLight(direction mgl32.Vec3, castsShadows bool) DirectionalLight {
	if direction.Len() > 0 {
		direction = direction.Normalize()
	}
	return DirectionalLight{
		Direction:    direction,
		Color:        [3]float32{1, 1, 1},
		Intensity:    1.0,
		CastsShadows: castsShadows,
	}
}
