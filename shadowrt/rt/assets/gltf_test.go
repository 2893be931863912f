package assets

import (
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTriangleGLB saves a triangle mesh under a translated parent node and a
// scaled child node.
func writeTriangleGLB(t *testing.T) string {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint32{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{"POSITION": pos},
		}},
	}}
	doc.Nodes = []*gltf.Node{
		{
			Name:        "parent",
			Translation: [3]float64{0, 0, 5},
			Rotation:    [4]float64{0, 0, 0, 1},
			Scale:       [3]float64{1, 1, 1},
			Children:    []int{1},
		},
		{
			Name:     "child",
			Mesh:     gltf.Index(0),
			Rotation: [4]float64{0, 0, 0, 1},
			Scale:    [3]float64{2, 2, 2},
		},
	}
	doc.Scenes[0].Nodes = []int{0}

	path := filepath.Join(t.TempDir(), "tri.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestLoadGLTFBakesNodeTransforms(t *testing.T) {
	meshes, err := LoadGLTF(writeTriangleGLB(t))
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	m := meshes[0]
	assert.Equal(t, "tri_p0", m.Name)
	assert.Equal(t, []uint32{0, 1, 2}, m.Indices)
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, m.Bounds.Min)
	assert.Equal(t, mgl32.Vec3{2, 2, 5}, m.Bounds.Max)
	// missing normals default to +Z and stay unit length after scaling
	assert.InDelta(t, 1.0, mgl32.Vec3(m.Vertices[0].Normal).Len(), 1e-5)
	assert.InDelta(t, 1.0, m.Vertices[0].Normal[2], 1e-5)
}

func TestLoadGLTFMissingFile(t *testing.T) {
	_, err := LoadGLTF(filepath.Join(t.TempDir(), "nope.glb"))
	assert.Error(t, err)
}

func TestNodeMatrixDefaults(t *testing.T) {
	m := nodeMatrix(&gltf.Node{})
	assert.True(t, m.ApproxEqual(mgl32.Ident4()))
}
