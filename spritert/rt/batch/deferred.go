package batch

import (
	"errors"
	"fmt"

	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/go-gl/mathgl/mgl32"
)

type DeferredOptions struct {
	// MaxBufferedQuads is the capacity of each pass batch.
	// Zero means DefaultMaxBufferedQuads.
	MaxBufferedQuads int
	// MaxLightsPerPass caps the lights shaded per composite draw.
	// Zero means gfx.MaxLightsPerPass.
	MaxLightsPerPass int
}

// DeferredLightBatch renders a frame in three steps: drawables into an
// offscreen diffuse buffer, their surface maps into a second buffer, then
// a lighting composite of both onto the screen.
type DeferredLightBatch struct {
	device     gfx.Device
	projection core.Projection

	diffuse    *PassBatch
	surface    *PassBatch
	compositor *Compositor
}

func NewDeferredLightBatch(dev gfx.Device, shaders *gfx.ShaderCache, projection core.Projection, opts DeferredOptions) (*DeferredLightBatch, error) {
	if _, _, err := targetSize(projection); err != nil {
		return nil, err
	}
	if opts.MaxBufferedQuads == 0 {
		opts.MaxBufferedQuads = DefaultMaxBufferedQuads
	}
	if opts.MaxLightsPerPass == 0 {
		opts.MaxLightsPerPass = gfx.MaxLightsPerPass
	}

	diffuse, err := NewDiffuseBatch(dev, shaders, opts.MaxBufferedQuads)
	if err != nil {
		return nil, err
	}
	surface, err := NewSurfaceBatch(dev, shaders, opts.MaxBufferedQuads)
	if err != nil {
		diffuse.Dispose()
		return nil, err
	}
	compositor, err := NewCompositor(dev, shaders, opts.MaxLightsPerPass)
	if err != nil {
		diffuse.Dispose()
		surface.Dispose()
		return nil, err
	}

	return &DeferredLightBatch{
		device:     dev,
		projection: projection,
		diffuse:    diffuse,
		surface:    surface,
		compositor: compositor,
	}, nil
}

func targetSize(projection core.Projection) (int, int, error) {
	w, h := int(projection.VirtualWidth()), int(projection.VirtualHeight())
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("virtual resolution %dx%d must be positive", w, h)
	}
	return w, h, nil
}

// Render draws one lit frame and returns the draw calls of all three steps.
// Both offscreen buffers are released before Render returns, whatever the
// outcome.
func (b *DeferredLightBatch) Render(drawables []*core.Drawable, lights []core.Light, ambient core.Color, proj mgl32.Mat4) (int, error) {
	width, height, err := targetSize(b.projection)
	if err != nil {
		return 0, err
	}

	calls := 0

	diffuseTarget, err := b.device.NewRenderTarget(width, height)
	if err != nil {
		return calls, fmt.Errorf("create diffuse target: %w", err)
	}
	defer diffuseTarget.Release()

	diffuse, n, err := renderInto(diffuseTarget, b.diffuse, drawables, proj)
	calls += n
	if err != nil {
		return calls, err
	}

	surfaceTarget, err := b.device.NewRenderTarget(width, height)
	if err != nil {
		return calls, fmt.Errorf("create surface target: %w", err)
	}
	defer surfaceTarget.Release()

	surface, n, err := renderInto(surfaceTarget, b.surface, drawables, proj)
	calls += n
	if err != nil {
		return calls, err
	}

	b.projection.Apply()

	n, err = b.compositor.Render(ambient, lights, diffuse, surface, proj)
	calls += n
	return calls, err
}

// renderInto runs one pass with the target bound and returns its color
// buffer flipped vertically, since render targets store rows bottom-up.
func renderInto(target gfx.RenderTarget, pass *PassBatch, drawables []*core.Drawable, proj mgl32.Mat4) (core.TextureRegion, int, error) {
	target.Begin()
	defer target.End()

	n, err := pass.Render(drawables, proj)

	region := core.NewTextureRegion(target.ColorTexture())
	region.Flip(false, true)
	return region, n, err
}

func (b *DeferredLightBatch) Diffuse() *PassBatch { return b.diffuse }

func (b *DeferredLightBatch) Surface() *PassBatch { return b.surface }

func (b *DeferredLightBatch) Compositor() *Compositor { return b.compositor }

func (b *DeferredLightBatch) Dispose() {
	b.diffuse.Dispose()
	b.surface.Dispose()
	b.compositor.Dispose()
}

// IsUsageError reports whether err comes from calling a batch out of order
// or drawing something that cannot be drawn, as opposed to a device failure.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrAlreadyActive) ||
		errors.Is(err, ErrNotActive) ||
		errors.Is(err, core.ErrTextureNotAssigned) ||
		errors.Is(err, core.ErrSurfaceNotAssigned) ||
		errors.Is(err, ErrSingularProjection)
}
