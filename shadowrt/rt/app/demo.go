package app

import (
	"fmt"

	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/shadowrt/rt/assets"
	"github.com/gekko3d/csm/shadowrt/rt/cascade"
	"github.com/gekko3d/csm/shadowrt/rt/core"
	"github.com/gekko3d/csm/shadowrt/rt/world"

	"github.com/go-gl/mathgl/mgl32"
)

// Uploader turns CPU geometry into backend meshes and foliage batches.
type Uploader interface {
	UploadMesh(data *core.MeshData) (cascade.Mesh, error)
	UploadFoliage(blade cascade.Mesh, patch *core.FoliagePatch) (cascade.FoliageBatch, error)
}

var (
	groundColor = [4]float32{0.45, 0.42, 0.38, 1}
	gltfColor   = [4]float32{0.8, 0.8, 0.85, 1}
)

// PopulateScene fills s with the demo layout: a ground plane, a grid of
// boxes of varying height (every third one spinning), foliage patches along
// the diagonal, and any loaded glTF meshes in a row behind the grid.
func PopulateScene(s *world.Scene, up Uploader, cfg csm.SceneConfig, lib *assets.Library, loaded [][]assets.AssetId) error {
	extent := float32(max(cfg.Grid, 1)) * cfg.Spacing

	plane := assets.Plane(extent*4, extent*4)
	groundMesh, err := up.UploadMesh(&plane)
	if err != nil {
		return fmt.Errorf("uploading ground: %w", err)
	}
	s.SpawnMesh(groundMesh, plane.Bounds, at(0, 0, 0, 1), groundColor, false)

	cube := assets.Cube(1, 1, 1)
	cubeMesh, err := up.UploadMesh(&cube)
	if err != nil {
		return fmt.Errorf("uploading cube: %w", err)
	}
	half := float32(cfg.Grid-1) * cfg.Spacing / 2
	for i := 0; i < cfg.Grid; i++ {
		for j := 0; j < cfg.Grid; j++ {
			h := 1 + float32((i*7+j*3)%5)*1.5
			t := at(float32(i)*cfg.Spacing-half, float32(j)*cfg.Spacing-half, h/2, 1)
			t.Scale = mgl32.Vec3{1.5, 1.5, h}
			color := [4]float32{0.5 + 0.5*float32(i)/float32(cfg.Grid), 0.6, 0.5 + 0.5*float32(j)/float32(cfg.Grid), 1}
			e := s.SpawnMesh(cubeMesh, cube.Bounds, t, color, true)
			if (i+j)%3 == 0 {
				s.Spin(e, mgl32.Vec3{0, 0, 1}, 0.5)
			}
		}
	}

	if cfg.FoliagePatches > 0 && cfg.FoliagePerPatch > 0 {
		blade := assets.Blade()
		bladeMesh, err := up.UploadMesh(&blade)
		if err != nil {
			return fmt.Errorf("uploading blade: %w", err)
		}
		for p := 0; p < cfg.FoliagePatches; p++ {
			offset := (float32(p) - float32(cfg.FoliagePatches-1)/2) * cfg.Spacing * 2
			patch := assets.ScatterFoliage(uint64(p+1), cfg.FoliagePerPatch, [3]float32{offset, offset + cfg.Spacing/2, 0}, cfg.Spacing*1.5, blade.Bounds)
			batch, err := up.UploadFoliage(bladeMesh, &patch)
			if err != nil {
				return fmt.Errorf("uploading foliage patch %d: %w", p, err)
			}
			s.SpawnFoliage(batch)
		}
	}

	for row, ids := range loaded {
		for col, id := range ids {
			asset, ok := lib.Mesh(id)
			if !ok {
				continue
			}
			m, err := up.UploadMesh(&asset.Data)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", asset.Source, err)
			}
			t := at(float32(col)*cfg.Spacing-half, half+cfg.Spacing*float32(row+1), 0, 1)
			s.SpawnMesh(m, asset.Data.Bounds, t, gltfColor, true)
		}
	}
	return nil
}

func at(x, y, z, scale float32) core.Transform {
	t := core.NewTransform()
	t.Position = mgl32.Vec3{x, y, z}
	t.Scale = mgl32.Vec3{scale, scale, scale}
	return *t
}
