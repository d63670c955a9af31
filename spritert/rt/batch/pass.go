package batch

import (
	"errors"
	"fmt"

	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawableBatch renders a list of drawables in one begin/end cycle.
type DrawableBatch interface {
	Render(drawables []*core.Drawable, proj mgl32.Mat4) (int, error)
	Dispose()
}

type PassKind int

const (
	PassDiffuse PassKind = iota
	PassSurface
)

func (k PassKind) String() string {
	switch k {
	case PassDiffuse:
		return "diffuse"
	case PassSurface:
		return "surface"
	default:
		return fmt.Sprintf("PassKind(%d)", int(k))
	}
}

// PassBatch is a QuadBatcher bound to the program and texture selection of
// one deferred pass.
type PassBatch struct {
	kind    PassKind
	batcher *QuadBatcher
}

var _ DrawableBatch = (*PassBatch)(nil)

func NewDiffuseBatch(dev gfx.Device, shaders *gfx.ShaderCache, maxQuads int) (*PassBatch, error) {
	return newPassBatch(PassDiffuse, dev, shaders, maxQuads)
}

func NewSurfaceBatch(dev gfx.Device, shaders *gfx.ShaderCache, maxQuads int) (*PassBatch, error) {
	return newPassBatch(PassSurface, dev, shaders, maxQuads)
}

func newPassBatch(kind PassKind, dev gfx.Device, shaders *gfx.ShaderCache, maxQuads int) (*PassBatch, error) {
	fragment := "sprite"
	selector := DiffuseRegion
	if kind == PassSurface {
		fragment = "surface"
		selector = SurfaceRegion
	}

	program, err := shaders.Get("sprite", fragment)
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", kind, err)
	}
	b, err := NewQuadBatcher(dev, program, maxQuads)
	if err != nil {
		return nil, fmt.Errorf("%s pass: %w", kind, err)
	}
	b.SetRegionSelector(selector)
	if kind == PassSurface {
		b.SetColorSelector(SurfaceColor)
	}

	return &PassBatch{kind: kind, batcher: b}, nil
}

// SurfaceRegion prefers the surface map and falls back to the diffuse
// texture, whose alpha then masks a flat normal. Unlit drawables always use
// the diffuse texture so their erase footprint matches what they show.
func SurfaceRegion(d *core.Drawable) (core.TextureRegion, error) {
	if d.Unlit {
		return d.Texture()
	}
	if region, err := d.SurfaceTexture(); err == nil {
		return region, nil
	}
	return d.Texture()
}

// SurfaceColor tells the surface program what it samples: white for a
// normal map, black for a diffuse texture standing in as an alpha mask.
// Alpha carries the corner tint alpha in both cases. Unlit drawables get
// (0, 0, 0, a) and are drawn with gfx.BlendErase.
func SurfaceColor(d *core.Drawable, corner core.Corner) core.Color {
	a := d.CornerColor(corner).A
	if d.Unlit {
		return core.NewColor(0, 0, 0, a)
	}
	if _, err := d.SurfaceTexture(); err == nil {
		return core.NewColor(1, 1, 1, a)
	}
	return core.NewColor(0, 0, 0, a)
}

func (p *PassBatch) Kind() PassKind { return p.kind }

func (p *PassBatch) Batcher() *QuadBatcher { return p.batcher }

// Render draws the drawables in order and returns the pass draw calls.
// A failing drawable does not stop the pass; End still runs and every error
// is returned joined.
//
// In the surface pass unlit drawables erase the surface alpha beneath them,
// so the composite shows their diffuse color even over lit drawables.
func (p *PassBatch) Render(drawables []*core.Drawable, proj mgl32.Mat4) (int, error) {
	if err := p.batcher.SetProjectionMatrix(proj); err != nil {
		return 0, err
	}
	if err := p.batcher.SetBlend(gfx.BlendAlpha); err != nil {
		return 0, err
	}
	if err := p.batcher.Begin(); err != nil {
		return 0, err
	}

	var errs []error
	for i, d := range drawables {
		if p.kind == PassSurface {
			if err := p.batcher.SetBlend(surfaceBlend(d)); err != nil {
				errs = append(errs, fmt.Errorf("%s pass drawable %d: %w", p.kind, i, err))
			}
		}
		if err := p.batcher.Draw(d); err != nil {
			errs = append(errs, fmt.Errorf("%s pass drawable %d: %w", p.kind, i, err))
		}
	}

	if err := p.batcher.End(); err != nil {
		errs = append(errs, err)
	}
	return p.batcher.GPUCalls(), errors.Join(errs...)
}

func surfaceBlend(d *core.Drawable) gfx.BlendState {
	if d.Unlit {
		return gfx.BlendErase
	}
	return gfx.BlendAlpha
}

func (p *PassBatch) Dispose() {
	p.batcher.Dispose()
}
