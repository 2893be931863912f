package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestAlignment(t *testing.T) {
	assert.Equal(t, uint64(0), alignUp(0, 256))
	assert.Equal(t, uint64(256), alignUp(1, 256))
	assert.Equal(t, uint64(256), alignUp(256, 256))
	assert.Equal(t, uint64(640), cascadeBufferSize)

	assert.Equal(t, uint32(0), ringOffset(0))
	assert.Equal(t, uint32(3*256), ringOffset(3))
	assert.LessOrEqual(t, uint64(modelUniformSize), uint64(UniformStride))
}

func TestClampViewport(t *testing.T) {
	tests := []struct {
		name string
		in   cascade.Viewport
		want cascade.Viewport
	}{
		{
			name: "empty covers target",
			in:   cascade.Viewport{},
			want: cascade.Viewport{Width: 512, Height: 256, MinDepth: 0, MaxDepth: 1},
		},
		{
			name: "inside is unchanged",
			in:   cascade.Viewport{X: 10, Y: 20, Width: 100, Height: 50, MinDepth: 0, MaxDepth: 1},
			want: cascade.Viewport{X: 10, Y: 20, Width: 100, Height: 50, MinDepth: 0, MaxDepth: 1},
		},
		{
			name: "oversized is cropped",
			in:   cascade.Viewport{X: 500, Y: -5, Width: 2048, Height: 2048, MinDepth: -1, MaxDepth: 2},
			want: cascade.Viewport{X: 500, Y: 0, Width: 12, Height: 256, MinDepth: 0, MaxDepth: 1},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, clampViewport(tc.in, 512, 256))
		})
	}
}

func TestDepthConventionMapping(t *testing.T) {
	bias := DepthBias{Constant: 2, SlopeScale: 1.5}

	rev := cascade.WebGPUReversedZ
	assert.Equal(t, wgpu.CompareFunctionGreater, depthCompare(rev))
	assert.Equal(t, wgpu.CompareFunctionGreaterEqual, samplerCompare(rev))
	assert.Equal(t, DepthBias{Constant: -2, SlopeScale: -1.5}, signedBias(rev, bias))
	assert.Greater(t, shaderBias(rev), float32(0))

	std := cascade.DepthConvention{Clip: core.ClipZeroToOne}
	assert.Equal(t, wgpu.CompareFunctionLess, depthCompare(std))
	assert.Equal(t, wgpu.CompareFunctionLessEqual, samplerCompare(std))
	assert.Equal(t, bias, signedBias(std, bias))
	assert.Less(t, shaderBias(std), float32(0))
}

func TestModelToBytes(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3)
	buf := modelToBytes(m, [4]float32{0.1, 0.2, 0.3, 1})
	require.Len(t, buf, modelUniformSize)

	// column-major: translation lives in elements 12..14
	assert.Equal(t, float32(1), f32At(buf, 12*4))
	assert.Equal(t, float32(2), f32At(buf, 13*4))
	assert.Equal(t, float32(3), f32At(buf, 14*4))
	assert.Equal(t, float32(0.2), f32At(buf, 64+4))
}

func TestVerticesToBytes(t *testing.T) {
	buf := verticesToBytes([]core.Vertex{
		{Position: [3]float32{1, 2, 3}, Normal: [3]float32{0, 0, 1}},
		{Position: [3]float32{4, 5, 6}, Normal: [3]float32{0, 1, 0}},
	})
	require.Len(t, buf, 2*core.VertexStride)
	assert.Equal(t, float32(3), f32At(buf, 8))
	assert.Equal(t, float32(1), f32At(buf, 20))
	assert.Equal(t, float32(4), f32At(buf, core.VertexStride))
	assert.Equal(t, float32(1), f32At(buf, core.VertexStride+16))

	idx := indicesToBytes([]uint32{0, 1, 70000})
	assert.Equal(t, uint32(70000), binary.LittleEndian.Uint32(idx[8:]))
}

func TestLightsToBytes(t *testing.T) {
	sun := core.NewDirectionalLight(mgl32.Vec3{0, 0, -1}, true)
	sun.Intensity = 2
	fill := core.NewDirectionalLight(mgl32.Vec3{1, 0, 0}, false)
	extra := core.NewDirectionalLight(mgl32.Vec3{0, 1, 0}, true)

	buf := lightsToBytes([]core.DirectionalLight{sun, fill, extra}, [3]float32{0.1, 0.1, 0.1}, 0.0005)
	require.Len(t, buf, litLightsSize)

	assert.Equal(t, float32(-1), f32At(buf, 8))
	assert.Equal(t, float32(1), f32At(buf, 12), "sun casts")
	assert.Equal(t, float32(2), f32At(buf, 16), "color premultiplied by intensity")
	assert.Equal(t, float32(1), f32At(buf, 32))
	assert.Equal(t, float32(0), f32At(buf, 44), "fill does not cast")
	assert.Equal(t, float32(0.0005), f32At(buf, 76))
	// lights past MaxDirLights are dropped
	assert.Equal(t, uint32(cascade.MaxDirLights), binary.LittleEndian.Uint32(buf[80:]))
}

func TestCameraToBytes(t *testing.T) {
	buf := cameraToBytes(mgl32.Ident4(), mgl32.Translate3D(0, 0, -5), mgl32.Vec3{1, 2, 3})
	require.Len(t, buf, litCameraSize)
	assert.Equal(t, float32(1), f32At(buf, 0))
	assert.Equal(t, float32(-5), f32At(buf, 64+14*4))
	assert.Equal(t, float32(3), f32At(buf, 128+8))
	assert.Equal(t, float32(1), f32At(buf, 128+12))
}

func TestGizmoShapes(t *testing.T) {
	p := &GizmoRenderPass{
		ShapeOffsets: make(map[core.GizmoType]uint32),
		ShapeCounts:  make(map[core.GizmoType]uint32),
	}
	vertices := p.buildShapes()
	assert.Len(t, vertices, 2+24)
	assert.Equal(t, uint32(0), p.ShapeOffsets[core.GizmoLine])
	assert.Equal(t, uint32(2), p.ShapeCounts[core.GizmoLine])
	assert.Equal(t, uint32(2), p.ShapeOffsets[core.GizmoCube])
	assert.Equal(t, uint32(24), p.ShapeCounts[core.GizmoCube])

	for _, v := range vertices[2:] {
		for _, c := range v.Pos {
			assert.Equal(t, float32(0.5), float32(math.Abs(float64(c))))
		}
	}
}

func TestGizmoInstance(t *testing.T) {
	line := core.Gizmo{
		Type:        core.GizmoLine,
		ModelMatrix: mgl32.Ident4(),
		P1:          mgl32.Vec3{1, 0, 0},
		P2:          mgl32.Vec3{1, 0, 4},
	}
	inst, ok := gizmoInstance(line)
	require.True(t, ok)
	end := inst.ModelMat.Mul4x1(mgl32.Vec4{0, 0, 1, 1}).Vec3()
	assert.InDelta(t, 1, end.X(), 1e-5)
	assert.InDelta(t, 4, end.Z(), 1e-5)

	line.P2 = line.P1
	_, ok = gizmoInstance(line)
	assert.False(t, ok)

	box := core.BoxGizmo(core.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}.ToOBB(), [4]float32{1, 0, 0, 1})
	require.Len(t, box, 1)
	inst, ok = gizmoInstance(box[0])
	require.True(t, ok)
	assert.Equal(t, box[0].ModelMatrix, inst.ModelMat)
}

func TestTargetLabels(t *testing.T) {
	rt := &RenderTarget{Name: slotName(1, 2), Layer: cascade.SlotIndex(1, 2)}
	assert.Equal(t, "shadow-l1-c2", rt.Label())
	assert.Equal(t, 6, rt.Layer)

	ls := &LightSpace{Offset: ringOffset(rt.Layer)}
	assert.Equal(t, "light-space@1536", ls.Label())
}
