package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/go-gl/mathgl/mgl32"
)

// modelUniformSize matches struct Model { matrix: mat4x4<f32>, color: vec4<f32> }.
const modelUniformSize = 80

func mat4ToBytes(m mgl32.Mat4) []byte {
	buf := make([]byte, 64)
	putMat4(buf, m)
	return buf
}

func putMat4(buf []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}

func putVec4(buf []byte, v [4]float32) {
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
}

func modelToBytes(model mgl32.Mat4, color [4]float32) []byte {
	buf := make([]byte, modelUniformSize)
	putMat4(buf, model)
	putVec4(buf[64:], color)
	return buf
}

func verticesToBytes(vertices []core.Vertex) []byte {
	buf := make([]byte, len(vertices)*core.VertexStride)
	for i, v := range vertices {
		off := i * core.VertexStride
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(buf[off+j*4:], math.Float32bits(v.Position[j]))
			binary.LittleEndian.PutUint32(buf[off+12+j*4:], math.Float32bits(v.Normal[j]))
		}
	}
	return buf
}

func indicesToBytes(indices []uint32) []byte {
	buf := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*4:], idx)
	}
	return buf
}

func instancesToBytes(instances [][4]float32) []byte {
	buf := make([]byte, len(instances)*16)
	for i, inst := range instances {
		putVec4(buf[i*16:], inst)
	}
	return buf
}
