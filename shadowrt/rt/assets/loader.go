package assets

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/shadowrt/rt/core"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// LoadFunc reads one file into meshes. LoadGLTF is the default.
type LoadFunc func(path string) ([]core.MeshData, error)

// Loader parses asset files on a bounded worker pool and stores the results
// in a Library. Parsing is CPU-only; GPU upload stays on the render thread.
type Loader struct {
	pool    worker.DynamicWorkerPool
	workers int
	load    LoadFunc
	lib     *Library
	log     csm.Logger
}

func NewLoader(lib *Library, workers int, load LoadFunc, log csm.Logger) *Loader {
	if workers <= 0 {
		workers = 1
	}
	if load == nil {
		load = LoadGLTF
	}
	return &Loader{
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers: workers,
		load:    load,
		lib:     lib,
		log:     csm.OrNop(log),
	}
}

// LoadAll parses every path and returns the ids grouped per path, in the
// order given. A failing file does not stop the others; all failures are
// joined into the returned error.
func (l *Loader) LoadAll(paths []string) ([][]AssetId, error) {
	out := make([][]AssetId, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		idx, p := i, path
		l.pool.SubmitTask(worker.Task{
			ID:      idx,
			Payload: p,
			Do: func() (any, error) {
				defer wg.Done()
				start := time.Now()
				meshes, err := l.load(p)
				if err != nil {
					errs[idx] = fmt.Errorf("loading %s: %w", p, err)
					return nil, errs[idx]
				}
				ids := make([]AssetId, 0, len(meshes))
				for _, m := range meshes {
					ids = append(ids, l.lib.AddMesh(p, m))
				}
				out[idx] = ids
				l.log.Debugf("Loaded %s: %d meshes in %s", p, len(meshes), time.Since(start))
				return ids, nil
			},
		})
	}
	wg.Wait()

	err := errors.Join(errs...)
	if err != nil {
		l.log.Warnf("Asset loading finished with errors: %v", err)
	}
	return out, err
}

func (l *Loader) Close() {
	l.pool.Stop()
}
