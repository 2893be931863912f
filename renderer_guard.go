package csm

import (
	"fmt"
	"sync"
)

// BackendGuard records which backend owns the window and device.
// Only one backend may be installed at a time.
type BackendGuard struct {
	mu   sync.Mutex
	name Backend
	log  Logger
}

func NewBackendGuard(log Logger) *BackendGuard {
	return &BackendGuard{log: OrNop(log)}
}

// Install claims the guard for name. Installing the same backend twice is a
// no-op; a different backend panics, since two backends cannot share a window.
func (g *BackendGuard) Install(name Backend) {
	if g == nil {
		panic("BackendGuard.Install: guard is nil")
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.name == "" {
		g.name = name
		g.log.Infof("Backend selected: %s", name)
		return
	}
	if g.name != name {
		g.log.Errorf("Multiple backends installed: %s and %s", g.name, name)
		panic(fmt.Sprintf("Multiple backends installed: %s and %s", g.name, name))
	}
}

// Installed returns the installed backend, or "" if none.
func (g *BackendGuard) Installed() Backend {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.name
}
