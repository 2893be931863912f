package glbackend

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDepthStateForConvention(t *testing.T) {
	tests := []struct {
		name                string
		conv                cascade.DepthConvention
		depth, compare      uint32
		wantFactor, wantUni float32
	}{
		{"reversed", cascade.OpenGLReversedZ, gl.GREATER, gl.GEQUAL, -2, -3},
		{"standard", cascade.DepthConvention{Clip: core.ClipNegOneToOne}, gl.LESS, gl.LEQUAL, 2, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.depth, depthFunc(tc.conv))
			assert.Equal(t, tc.compare, compareFunc(tc.conv))
			factor, units := polygonOffset(tc.conv, 2, 3)
			assert.Equal(t, tc.wantFactor, factor)
			assert.Equal(t, tc.wantUni, units)
		})
	}
	assert.Greater(t, shaderBias(cascade.OpenGLReversedZ), float32(0))
}

func TestViewportRect(t *testing.T) {
	x, y, w, h := viewportRect(cascade.Viewport{}, 800, 600)
	assert.Equal(t, [4]int32{0, 0, 800, 600}, [4]int32{x, y, w, h})

	x, y, w, h = viewportRect(cascade.Viewport{X: 4, Y: 8, Width: 2048, Height: 2048, MaxDepth: 1}, 800, 600)
	assert.Equal(t, [4]int32{4, 8, 2048, 2048}, [4]int32{x, y, w, h})
}

func TestCStr(t *testing.T) {
	assert.Equal(t, "model\x00", cstr("model"))
	assert.Equal(t, "model\x00", cstr("model\x00"))
}

func TestLightUniforms(t *testing.T) {
	sun := core.NewDirectionalLight(mgl32.Vec3{0, 0, -2}, true)
	sun.Intensity = 3
	moon := core.NewDirectionalLight(mgl32.Vec3{1, 0, 0}, false)
	dirs, colors, n := lightUniforms([]core.DirectionalLight{sun, moon, sun})

	assert.Equal(t, int32(cascade.MaxDirLights), n)
	assert.Equal(t, [4]float32{0, 0, -1, 1}, dirs[0])
	assert.Equal(t, [4]float32{1, 0, 0, 0}, dirs[1])
	assert.Equal(t, [3]float32{3, 3, 3}, colors[0])

	_, _, n = lightUniforms(nil)
	assert.Equal(t, int32(0), n)
}

func TestMat4Bytes(t *testing.T) {
	buf := mat4Bytes(mgl32.Translate3D(7, 8, 9))
	assert.Len(t, buf, 64)
	assert.Equal(t, float32(8), math.Float32frombits(binary.LittleEndian.Uint32(buf[13*4:])))
}
