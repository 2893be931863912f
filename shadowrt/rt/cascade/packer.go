package cascade

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// RecordSize is the std140/WGSL size of one record:
// vec2 depth_range, 8 bytes padding, mat4x4 at offset 16.
const RecordSize = 80

// Record is one (light, cascade) entry read by the shading pass.
type Record struct {
	DepthRange [2]float32
	// Matrix is the light-space matrix transposed, so shaders compute pos * m.
	Matrix mgl32.Mat4
}

// Packer flattens cascade data into MaxDirLights*CascadeCount records, indexed
// by SlotIndex. Every Pack call starts from zeroed records, so slots of lights
// that do not cast shadows this frame never carry last frame's data.
type Packer struct {
	Builder *Builder
	records [SlotCount]Record
}

func NewPacker(builder *Builder) *Packer {
	return &Packer{Builder: builder}
}

// Pack computes every casting light's cascades and returns the records.
// The returned slice is reused by the next call.
func (p *Packer) Pack(cam Camera, lights []core.DirectionalLight) []Record {
	p.records = [SlotCount]Record{}
	for li := 0; li < min(len(lights), MaxDirLights); li++ {
		if !lights[li].CastsShadows {
			continue
		}
		for ci := 0; ci < CascadeCount; ci++ {
			p.records[SlotIndex(li, ci)] = recordFor(p.Builder.Compute(lights[li], ci, cam))
		}
	}
	return p.records[:]
}

// PackInfos packs cascades a Renderer already computed this frame.
func (p *Packer) PackInfos(lights []core.DirectionalLight, infos [MaxDirLights][CascadeCount]Info) []Record {
	p.records = [SlotCount]Record{}
	for li := 0; li < min(len(lights), MaxDirLights); li++ {
		if !lights[li].CastsShadows {
			continue
		}
		for ci := 0; ci < CascadeCount; ci++ {
			p.records[SlotIndex(li, ci)] = recordFor(infos[li][ci])
		}
	}
	return p.records[:]
}

func recordFor(info Info) Record {
	return Record{
		DepthRange: [2]float32{info.Near, info.Far},
		Matrix:     info.Matrix.Transpose(),
	}
}

// EncodeRecords serializes records in little-endian GPU layout.
func EncodeRecords(records []Record) []byte {
	buf := make([]byte, len(records)*RecordSize)
	for i, r := range records {
		off := i * RecordSize
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(r.DepthRange[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(r.DepthRange[1]))
		for j, v := range r.Matrix {
			binary.LittleEndian.PutUint32(buf[off+16+j*4:], math.Float32bits(v))
		}
	}
	return buf
}
