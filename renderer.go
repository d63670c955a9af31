package gekko2d

import (
	"fmt"

	"github.com/gekko3d/gekko2d/spritert/rt/batch"
	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"
)

// Frame is everything drawn in one RenderFrame call. Nothing is retained
// after the call returns.
type Frame struct {
	Drawables []*core.Drawable
	Lights    []core.Light
	// Ambient overrides the configured ambient light when set.
	Ambient *core.Color
}

// Renderer wires a device, the shader cache, the camera and the deferred
// light batch together with logging and per-frame statistics.
type Renderer struct {
	cfg      Config
	logger   Logger
	device   gfx.Device
	shaders  *gfx.ShaderCache
	viewport *core.Viewport
	deferred *batch.DeferredLightBatch
	stats    *FrameStats
	frames   uint64
}

func NewRenderer(device gfx.Device, cfg Config, logger Logger) (*Renderer, error) {
	if logger == nil {
		logger = NewNopLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	shaders := gfx.NewShaderCache(device)
	viewport := core.NewViewport(device, cfg.VirtualWidth, cfg.VirtualHeight)
	if cfg.Window.Width > 0 && cfg.Window.Height > 0 {
		viewport.Resize(cfg.Window.Width, cfg.Window.Height)
	}

	deferred, err := batch.NewDeferredLightBatch(device, shaders, viewport, batch.DeferredOptions{
		MaxBufferedQuads: cfg.MaxBufferedQuads,
		MaxLightsPerPass: cfg.MaxLightsPerPass,
	})
	if err != nil {
		shaders.Dispose()
		return nil, fmt.Errorf("create deferred light batch: %w", err)
	}

	logger.Infof("renderer ready: virtual %gx%g, %d quads per batch, %d lights per pass",
		cfg.VirtualWidth, cfg.VirtualHeight, cfg.MaxBufferedQuads, cfg.MaxLightsPerPass)

	return &Renderer{
		cfg:      cfg,
		logger:   logger,
		device:   device,
		shaders:  shaders,
		viewport: viewport,
		deferred: deferred,
		stats:    NewFrameStats(),
	}, nil
}

// Projection is the camera used for every frame. Move or zoom it between
// frames.
func (r *Renderer) Projection() *core.Viewport { return r.viewport }

func (r *Renderer) Resize(width, height int) {
	r.viewport.Resize(width, height)
	r.logger.Debugf("screen resized to %dx%d", width, height)
}

func (r *Renderer) Stats() *FrameStats { return r.stats }

func (r *Renderer) Config() Config { return r.cfg }

// RenderFrame draws one lit frame and returns the number of GPU draw calls.
func (r *Renderer) RenderFrame(f Frame) (int, error) {
	r.frames++
	r.logger.SetFrame(r.frames)
	defer r.logger.SetFrame(0)

	ambient := r.cfg.AmbientColor()
	if f.Ambient != nil {
		ambient = *f.Ambient
	}

	r.stats.Reset()
	r.stats.BeginScope("render")
	calls, err := r.deferred.Render(f.Drawables, f.Lights, ambient, r.viewport.ProjectionMatrix())
	r.stats.EndScope("render")

	r.stats.SetCount(CountGPUCalls, calls)
	r.stats.SetCount(CountDrawables, len(f.Drawables))
	r.stats.SetCount(CountLights, len(f.Lights))

	if err != nil {
		if batch.IsUsageError(err) {
			r.logger.Warnf("%v", err)
		} else {
			r.logger.Errorf("%v", err)
		}
		return calls, err
	}

	r.logger.Debugf("%d drawables, %d lights, %d gpu calls",
		len(f.Drawables), len(f.Lights), calls)
	return calls, nil
}

func (r *Renderer) Dispose() {
	r.deferred.Dispose()
	r.shaders.Dispose()
}
