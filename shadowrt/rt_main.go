package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/gekko3d/csm"
	"github.com/gekko3d/csm/shadowrt/rt/app"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML file overlaid on the built-in defaults")
	backendFlag := flag.String("backend", "", "Override the configured backend (wgpu or gl)")
	debug := flag.Bool("debug", false, "Show the cascade overlay and enable debug logging")
	statsPath := flag.String("stats", "", "Write per-frame shadow stats to this CSV file on exit")
	flag.Parse()

	cfg, err := csm.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *backendFlag != "" {
		if cfg.Backend, err = csm.ParseBackend(*backendFlag); err != nil {
			fmt.Fprintf(os.Stderr, "backend: %v\n", err)
			os.Exit(2)
		}
	}
	if *debug {
		cfg.Debug.ShowOverlay = true
		cfg.Debug.LogDebug = true
	}
	if *statsPath != "" {
		cfg.Debug.StatsCSV = *statsPath
	}

	log := csm.NewDefaultLogger("csm", cfg.Debug.LogDebug)
	csm.NewBackendGuard(log).Install(cfg.Backend)

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	app.WindowHints(cfg.Backend)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	var runner app.Runner
	if cfg.Backend == csm.BackendGL {
		runner = app.NewGLApp(window, cfg, log)
	} else {
		runner = app.NewApp(window, cfg, log)
	}
	if err := runner.Init(); err != nil {
		log.Errorf("Init failed: %v", err)
		runner.Release()
		os.Exit(1)
	}
	defer runner.Release()

	state := runner.State()
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		runner.Resize(width, height)
	})

	var lastX, lastY float64
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if state.MouseCaptured {
			app.Look(state.Camera, xpos-lastX, ypos-lastY)
		}
		lastX, lastY = xpos, ypos
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyTab:
			state.MouseCaptured = !state.MouseCaptured
			if state.MouseCaptured {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.KeyF1:
			state.ShowOverlay = !state.ShowOverlay
		case glfw.KeyF2:
			state.Log.SetDebug(!state.Log.DebugEnabled())
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		runner.Update()
		runner.Render()
	}
}
