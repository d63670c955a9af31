package main

import (
	"flag"
	"runtime"

	"github.com/gekko3d/gekko2d"
	"github.com/gekko3d/gekko2d/spritert/rt/app"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML renderer config")
	debug := flag.Bool("debug", false, "Enable debug mode (HUD and per-frame logging)")
	flag.Parse()

	settings := gekko2d.DefaultConfig()
	if *configPath != "" {
		var err error
		settings, err = gekko2d.LoadConfig(*configPath)
		if err != nil {
			panic(err)
		}
	}
	settings.Debug = settings.Debug || *debug
	logger := gekko2d.NewDefaultLogger("spritert", settings.Debug)

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(settings.Window.Width, settings.Window.Height, settings.Window.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, settings, logger)
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
		if key == glfw.KeyF3 && action == glfw.Press {
			application.DebugMode = !application.DebugMode
			logger.SetDebug(application.DebugMode)
		}

		if action == glfw.Press || action == glfw.Repeat {
			switch key {
			case glfw.KeyEqual, glfw.KeyKPAdd:
				application.Zoom(1.1)
			case glfw.KeyMinus, glfw.KeyKPSubtract:
				application.Zoom(0.909) // 1/1.1 approx
			case glfw.KeyLeft:
				application.Pan(-8, 0)
			case glfw.KeyRight:
				application.Pan(8, 0)
			case glfw.KeyUp:
				application.Pan(0, 8)
			case glfw.KeyDown:
				application.Pan(0, -8)
			}
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
