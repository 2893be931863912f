package assets

import (
	"sort"
	"sync"

	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/google/uuid"
)

type AssetId string

func makeAssetId() AssetId {
	return AssetId(uuid.NewString())
}

type MeshAsset struct {
	version uint
	Source  string
	Data    core.MeshData
}

// Library stores CPU-side meshes until a backend uploads them. Safe for
// concurrent use by the loader workers.
type Library struct {
	mu     sync.RWMutex
	meshes map[AssetId]MeshAsset
}

func NewLibrary() *Library {
	return &Library{meshes: make(map[AssetId]MeshAsset)}
}

func (l *Library) AddMesh(source string, data core.MeshData) AssetId {
	id := makeAssetId()
	data.ComputeBounds()
	l.mu.Lock()
	l.meshes[id] = MeshAsset{Source: source, Data: data}
	l.mu.Unlock()
	return id
}

// ReplaceMesh swaps the geometry behind id and bumps its version so
// uploaders know to refresh.
func (l *Library) ReplaceMesh(id AssetId, data core.MeshData) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	asset, ok := l.meshes[id]
	if !ok {
		return false
	}
	data.ComputeBounds()
	asset.Data = data
	asset.version++
	l.meshes[id] = asset
	return true
}

func (l *Library) Mesh(id AssetId) (MeshAsset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	asset, ok := l.meshes[id]
	return asset, ok
}

func (a MeshAsset) Version() uint { return a.version }

func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.meshes)
}

// IDs returns every mesh id ordered by source then name, so uploads happen
// in a stable order between runs.
func (l *Library) IDs() []AssetId {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]AssetId, 0, len(l.meshes))
	for id := range l.meshes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := l.meshes[ids[i]], l.meshes[ids[j]]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Data.Name != b.Data.Name {
			return a.Data.Name < b.Data.Name
		}
		return ids[i] < ids[j]
	})
	return ids
}
