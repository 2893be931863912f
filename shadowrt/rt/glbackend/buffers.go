package glbackend

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/csm/shadowrt/rt/cascade"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// UniformBuffer is a std140 block bound at a fixed binding point.
type UniformBuffer struct {
	Name    string
	ID      uint32
	Binding uint32
	Size    int
}

func newUniformBuffer(name string, binding uint32, size int) *UniformBuffer {
	ub := &UniformBuffer{Name: name, Binding: binding, Size: size}
	gl.GenBuffers(1, &ub.ID)
	gl.BindBuffer(gl.UNIFORM_BUFFER, ub.ID)
	gl.BufferData(gl.UNIFORM_BUFFER, size, nil, gl.DYNAMIC_DRAW)
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
	return ub
}

func (ub *UniformBuffer) Label() string { return ub.Name }

func (ub *UniformBuffer) write(data []byte) {
	if len(data) == 0 {
		return
	}
	gl.BindBuffer(gl.UNIFORM_BUFFER, ub.ID)
	gl.BufferSubData(gl.UNIFORM_BUFFER, 0, min(len(data), ub.Size), gl.Ptr(data))
	gl.BindBuffer(gl.UNIFORM_BUFFER, 0)
}

func (ub *UniformBuffer) bind() {
	gl.BindBufferBase(gl.UNIFORM_BUFFER, ub.Binding, ub.ID)
}

func (ub *UniformBuffer) Release() {
	if ub.ID != 0 {
		gl.DeleteBuffers(1, &ub.ID)
		ub.ID = 0
	}
}

func mat4Bytes(m mgl32.Mat4) []byte {
	buf := make([]byte, 64)
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// CascadeBuffer is the shared UBO of packed cascade records.
type CascadeBuffer struct {
	*UniformBuffer
}

func NewCascadeBuffer() *CascadeBuffer {
	return &CascadeBuffer{newUniformBuffer("Cascade Records", cascadesBinding, cascade.SlotCount*cascade.RecordSize)}
}

func (b *CascadeBuffer) Upload(records []cascade.Record) {
	if len(records) > cascade.SlotCount {
		records = records[:cascade.SlotCount]
	}
	b.write(cascade.EncodeRecords(records))
}
