package assets

import (
	"errors"
	"testing"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLoadAll(t *testing.T) {
	lib := NewLibrary()
	load := func(path string) ([]core.MeshData, error) {
		switch path {
		case "two":
			return []core.MeshData{Cube(1, 1, 1), Plane(1, 1)}, nil
		case "bad":
			return nil, errors.New("corrupt")
		default:
			return []core.MeshData{Blade()}, nil
		}
	}
	l := NewLoader(lib, 3, load, nil)
	defer l.Close()

	ids, err := l.LoadAll([]string{"two", "bad", "one", "another"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "loading bad")

	require.Len(t, ids, 4)
	assert.Len(t, ids[0], 2)
	assert.Empty(t, ids[1])
	assert.Len(t, ids[2], 1)
	assert.Len(t, ids[3], 1)
	assert.Equal(t, 4, lib.Len())

	asset, ok := lib.Mesh(ids[2][0])
	require.True(t, ok)
	assert.Equal(t, "one", asset.Source)
	assert.Equal(t, "blade", asset.Data.Name)
}

func TestLoaderNoPaths(t *testing.T) {
	l := NewLoader(NewLibrary(), 0, nil, nil)
	defer l.Close()

	ids, err := l.LoadAll(nil)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestLibrary(t *testing.T) {
	lib := NewLibrary()
	b := lib.AddMesh("b.glb", Cube(1, 1, 1))
	a := lib.AddMesh("a.glb", Plane(2, 2))
	assert.NotEqual(t, a, b)
	assert.Equal(t, []AssetId{a, b}, lib.IDs())

	asset, ok := lib.Mesh(b)
	require.True(t, ok)
	assert.Equal(t, uint(0), asset.Version())
	assert.False(t, asset.Data.Bounds.IsEmpty())

	require.True(t, lib.ReplaceMesh(b, Cube(4, 4, 4)))
	asset, _ = lib.Mesh(b)
	assert.Equal(t, uint(1), asset.Version())
	assert.InDelta(t, 2.0, asset.Data.Bounds.Max.X(), 1e-6)

	assert.False(t, lib.ReplaceMesh("missing", Cube(1, 1, 1)))
}
