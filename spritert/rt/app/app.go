package app

import (
	"fmt"

	"github.com/gekko3d/gekko2d"
	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gpu"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const hudFontSize = 12

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Gfx      *gpu.Device
	Renderer *gekko2d.Renderer
	Scene    *Scene
	HUD      *core.GlyphAtlas

	Settings gekko2d.Config
	Logger   gekko2d.Logger

	LastTime       float64
	LastRenderTime float64
	DebugMode      bool

	FrameCount int
	FPS        float64
	FPSTime    float64
}

func NewApp(window *glfw.Window, settings gekko2d.Config, logger gekko2d.Logger) *App {
	if logger == nil {
		logger = gekko2d.NewNopLogger()
	}
	return &App{
		Window:    window,
		Settings:  settings,
		Logger:    logger,
		DebugMode: settings.Debug,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	a.Gfx, err = gpu.NewDevice(a.Device, format)
	if err != nil {
		return fmt.Errorf("create graphics device: %w", err)
	}

	settings := a.Settings
	settings.Window.Width, settings.Window.Height = width, height
	a.Renderer, err = gekko2d.NewRenderer(a.Gfx, settings, a.Logger)
	if err != nil {
		return err
	}

	a.Scene, err = NewScene(a.Gfx, settings.VirtualWidth, settings.VirtualHeight)
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	a.HUD, err = core.NewDefaultGlyphAtlas(hudFontSize)
	if err == nil {
		err = a.HUD.Upload(a.Gfx)
	}
	if err != nil {
		a.Logger.Warnf("HUD disabled: %v", err)
		a.HUD = nil
	}

	a.LastTime = glfw.GetTime()
	return nil
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
		a.Renderer.Resize(w, h)
	}
}

func (a *App) Update() {
	now := glfw.GetTime()
	a.Scene.Update(float32(now - a.LastTime))
	a.LastTime = now
}

// frame collects the scene plus the HUD text for this frame.
func (a *App) frame() gekko2d.Frame {
	f := gekko2d.Frame{
		Drawables: a.Scene.Drawables,
		Lights:    a.Scene.Lights,
	}
	if !a.DebugMode || a.HUD == nil {
		return f
	}

	view := a.Renderer.Projection()
	left := view.Position[0] - view.VirtualWidth()/2/view.Zoom
	top := view.Position[1] + view.VirtualHeight()/2/view.Zoom
	text := fmt.Sprintf("FPS: %.1f  lights: %d", a.FPS, len(f.Lights))
	glyphs, err := a.HUD.Layout(text, left+4, top-4, 1/view.Zoom, core.NewColor(1, 1, 0, 1))
	if err != nil {
		a.Logger.Debugf("HUD layout: %v", err)
		return f
	}

	f.Drawables = append(append(make([]*core.Drawable, 0, len(f.Drawables)+len(glyphs)), f.Drawables...), glyphs...)
	return f
}

func (a *App) Render() {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	a.Gfx.BeginFrame(view)
	// Errors are logged by the renderer; the frame is still presented.
	_, _ = a.Renderer.RenderFrame(a.frame())
	if err := a.Gfx.EndFrame(); err != nil {
		a.Logger.Errorf("EndFrame failed: %v", err)
	}
	a.Surface.Present()

	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			if a.DebugMode {
				a.Logger.Debugf("fps %.1f\n%s", a.FPS, a.Renderer.Stats())
			}
		}
	}
	a.LastRenderTime = now
}

// Zoom scales the camera by factor, keeping it within a usable range.
func (a *App) Zoom(factor float32) {
	view := a.Renderer.Projection()
	view.Zoom = min(max(view.Zoom*factor, 0.25), 8)
}

// Pan moves the camera by (dx, dy) virtual pixels at the current zoom.
func (a *App) Pan(dx, dy float32) {
	view := a.Renderer.Projection()
	view.Position[0] += dx / view.Zoom
	view.Position[1] += dy / view.Zoom
}

func (a *App) Release() {
	if a.Renderer != nil {
		a.Renderer.Dispose()
	}
	if a.Gfx != nil {
		a.Gfx.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
