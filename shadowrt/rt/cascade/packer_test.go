package cascade

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackSkipsNonCastingLight(t *testing.T) {
	bounds := splitBounds(t)
	builder := NewBuilder(bounds, WebGPUReversedZ)
	p := NewPacker(builder)

	off := sunDown()
	off.CastsShadows = false
	sun := core.NewDirectionalLight(mgl32.Vec3{0.3, 0.1, -1}, true)
	cam := testCamera()

	records := p.Pack(cam, []core.DirectionalLight{off, sun})
	require.Len(t, records, MaxDirLights*CascadeCount)

	for i := 0; i < CascadeCount; i++ {
		assert.Equal(t, Record{}, records[i], "record %d should be zero", i)
	}
	for ci := 0; ci < CascadeCount; ci++ {
		rec := records[SlotIndex(1, ci)]
		near, far := bounds.Resolve(ci, cam.Near(), cam.Far())
		assert.Equal(t, [2]float32{near, far}, rec.DepthRange)

		info := builder.Compute(sun, ci, cam)
		assert.Equal(t, info.Matrix.Transpose(), rec.Matrix)
	}
}

func TestPackZeroFillsBetweenFrames(t *testing.T) {
	p := NewPacker(NewBuilder(nil, WebGPUReversedZ))
	cam := testCamera()

	both := []core.DirectionalLight{sunDown(), sunDown()}
	records := p.Pack(cam, both)
	assert.NotEqual(t, Record{}, records[0])

	first := both[0]
	first.CastsShadows = false
	records = p.Pack(cam, []core.DirectionalLight{first, both[1]})
	assert.Equal(t, Record{}, records[0])
	assert.NotEqual(t, Record{}, records[SlotIndex(1, 0)])

	records = p.Pack(cam, nil)
	for i, r := range records {
		assert.Equal(t, Record{}, r, "record %d", i)
	}
}

func TestPackInfosMatchesPack(t *testing.T) {
	builder := NewBuilder(splitBounds(t), WebGPUReversedZ)
	lights := []core.DirectionalLight{sunDown()}
	cam := testCamera()

	r := NewRenderer(builder, newFakeTargets(64), nil)
	r.Render(newFakeDevice(), &fakeScene{}, cam, lights)

	fromRender := append([]Record(nil), NewPacker(builder).PackInfos(lights, r.LastCascades())...)
	assert.Equal(t, fromRender, NewPacker(builder).Pack(cam, lights))
}

func TestRecordTransposeForRowVectorShaders(t *testing.T) {
	builder := NewBuilder(nil, WebGPUReversedZ)
	light := sunDown()
	info := builder.Compute(light, 0, testCamera())
	rec := NewPacker(builder).Pack(testCamera(), []core.DirectionalLight{light})[0]

	// WGSL reads the stored columns as the matrix M' and computes pos * M'.
	p := mgl32.Vec4{1, 2, 3, 1}
	var rowMul mgl32.Vec4
	for c := 0; c < 4; c++ {
		rowMul[c] = p.Dot(rec.Matrix.Col(c))
	}
	assert.True(t, rowMul.ApproxEqualThreshold(info.Matrix.Mul4x1(p), 1e-5))
}

func TestEncodeRecords(t *testing.T) {
	records := make([]Record, 2)
	records[1] = Record{DepthRange: [2]float32{5, 40}, Matrix: mgl32.Translate3D(1, 2, 3)}

	buf := EncodeRecords(records)
	require.Len(t, buf, 2*RecordSize)

	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(0), f(0))
	assert.Equal(t, float32(5), f(RecordSize))
	assert.Equal(t, float32(40), f(RecordSize+4))
	// padding stays zero
	assert.Equal(t, float32(0), f(RecordSize+8))
	assert.Equal(t, float32(0), f(RecordSize+12))
	// matrix at offset 16, column-major: translation in elements 12..14
	assert.Equal(t, float32(1), f(RecordSize+16))
	assert.Equal(t, float32(1), f(RecordSize+16+12*4))
	assert.Equal(t, float32(2), f(RecordSize+16+13*4))
	assert.Equal(t, float32(3), f(RecordSize+16+14*4))
}
