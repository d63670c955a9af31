package batch

import (
	"testing"

	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx/gfxtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeferred(t *testing.T, opts DeferredOptions) (*gfxtest.Device, *core.Viewport, *DeferredLightBatch) {
	t.Helper()
	dev := gfxtest.NewDevice()
	view := core.NewViewport(dev, 320, 180)
	b, err := NewDeferredLightBatch(dev, gfx.NewShaderCache(dev), view, opts)
	require.NoError(t, err)
	return dev, view, b
}

func TestDeferredLightBatch_TwoSpritesOneLight(t *testing.T) {
	dev, view, b := newTestDeferred(t, DeferredOptions{})
	tex := dev.NewTestTexture(16, 16)
	ds := []*core.Drawable{
		core.NewSprite(core.NewTextureRegion(tex), 50, 50),
		core.NewSprite(core.NewTextureRegion(tex), 150, 90),
	}
	lights := []core.Light{core.NewPointLight(100, 70, 80, core.White)}

	calls, err := b.Render(ds, lights, core.NewColor(0.1, 0.1, 0.2, 1), view.ProjectionMatrix())
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.Len(t, dev.Draws, 3)

	require.Len(t, dev.Targets, 2)
	diffuseTarget, surfaceTarget := dev.Targets[0], dev.Targets[1]
	assert.True(t, dev.AllTargetsReleased())
	assert.Equal(t, 320, diffuseTarget.Width)
	assert.Equal(t, 180, diffuseTarget.Height)
	assert.Equal(t, 1, diffuseTarget.Ends)
	assert.Nil(t, dev.CurrentTarget())

	assert.Equal(t, "sprite/sprite", dev.Draws[0].Program)
	assert.Equal(t, diffuseTarget.ID(), dev.Draws[0].Target)
	assert.Equal(t, "sprite/surface", dev.Draws[1].Program)
	assert.Equal(t, surfaceTarget.ID(), dev.Draws[1].Target)

	composite := dev.Draws[2]
	assert.Equal(t, "light/light", composite.Program)
	assert.Empty(t, composite.Target, "composite lands on the screen")
	assert.Equal(t, diffuseTarget.ColorTexture().ID(), composite.Textures[0])
	assert.Equal(t, surfaceTarget.ColorTexture().ID(), composite.Textures[1])
	assert.Len(t, composite.Arrays[gfx.UniformLightPos], 1)

	for _, d := range dev.Draws {
		assert.Equal(t, view.ProjectionMatrix(), d.Matrix())
	}
	assert.Equal(t, 1, dev.ViewportCalls, "projection applied before compositing")
}

func TestDeferredLightBatch_CompositeSamplesFlippedBuffers(t *testing.T) {
	dev, view, b := newTestDeferred(t, DeferredOptions{})
	ds := []*core.Drawable{core.NewSprite(core.NewTextureRegion(dev.NewTestTexture(8, 8)), 10, 10)}

	_, err := b.Render(ds, nil, core.Black, view.ProjectionMatrix())
	require.NoError(t, err)

	v := dev.Draws[2].Vertices
	// Bottom-left corner samples v = 0 of the flipped buffer.
	assert.Equal(t, float32(0), v[5])
	// Top-left corner samples v = 1.
	assert.Equal(t, float32(1), v[FloatsPerVertex+5])
}

func TestDeferredLightBatch_SurfacePass(t *testing.T) {
	dev, view, b := newTestDeferred(t, DeferredOptions{})
	diffuse := dev.NewTestTexture(16, 16)
	normals := dev.NewTestTexture(16, 16)

	lit := core.NewSprite(core.NewTextureRegion(diffuse), 50, 50)
	lit.SetSurfaceTexture(core.NewTextureRegion(normals))
	unlit := core.NewSprite(core.NewTextureRegion(diffuse), 100, 50)
	unlit.Unlit = true

	calls, err := b.Render([]*core.Drawable{lit, unlit}, nil, core.Black, view.ProjectionMatrix())
	require.NoError(t, err)

	// diffuse: one texture, surface: lit normals then the unlit erase,
	// composite: one pass.
	assert.Equal(t, 4, calls)
	surfaceDraws := dev.DrawsInto(dev.Targets[1])
	require.Len(t, surfaceDraws, 2)
	assert.Equal(t, normals.ID(), surfaceDraws[0].Textures[0])
	assert.Equal(t, gfx.BlendAlpha, surfaceDraws[0].Blend)
	assert.Len(t, surfaceDraws[0].Vertices, FloatsPerQuad)
	assert.Equal(t, diffuse.ID(), surfaceDraws[1].Textures[0])
	assert.Equal(t, gfx.BlendErase, surfaceDraws[1].Blend, "unlit drawable erases surface alpha")

	diffuseDraws := dev.DrawsInto(dev.Targets[0])
	require.Len(t, diffuseDraws, 1)
	assert.Len(t, diffuseDraws[0].Vertices, 2*FloatsPerQuad)
}

func TestDeferredLightBatch_ReleasesTargetsOnFailure(t *testing.T) {
	t.Run("missing texture", func(t *testing.T) {
		dev, view, b := newTestDeferred(t, DeferredOptions{})
		_, err := b.Render([]*core.Drawable{core.NewDrawable()}, nil, core.Black, view.ProjectionMatrix())
		assert.ErrorIs(t, err, core.ErrTextureNotAssigned)
		assert.True(t, IsUsageError(err))
		assert.NotEmpty(t, dev.Targets)
		assert.True(t, dev.AllTargetsReleased())
		assert.Nil(t, dev.CurrentTarget())
	})

	t.Run("device failure", func(t *testing.T) {
		dev, view, b := newTestDeferred(t, DeferredOptions{})
		ds := []*core.Drawable{core.NewSprite(core.NewTextureRegion(dev.NewTestTexture(8, 8)), 0, 0)}
		dev.RenderErr = assert.AnError

		_, err := b.Render(ds, nil, core.Black, view.ProjectionMatrix())
		assert.ErrorIs(t, err, assert.AnError)
		assert.False(t, IsUsageError(err))
		assert.True(t, dev.AllTargetsReleased())
	})

	t.Run("singular projection", func(t *testing.T) {
		dev, view, b := newTestDeferred(t, DeferredOptions{})
		ds := []*core.Drawable{core.NewSprite(core.NewTextureRegion(dev.NewTestTexture(8, 8)), 0, 0)}
		proj := view.ProjectionMatrix()
		proj.Set(0, 0, 0)
		calls, err := b.Render(ds, nil, core.Black, proj)
		assert.ErrorIs(t, err, ErrSingularProjection)
		assert.Equal(t, 2, calls, "offscreen passes already ran")
		require.Len(t, dev.Targets, 2)
		assert.True(t, dev.AllTargetsReleased())
	})

	t.Run("target allocation", func(t *testing.T) {
		dev, view, b := newTestDeferred(t, DeferredOptions{})
		dev.TargetErr = assert.AnError
		_, err := b.Render(nil, nil, core.Black, view.ProjectionMatrix())
		assert.ErrorIs(t, err, assert.AnError)
		assert.Empty(t, dev.Draws)
	})
}

func TestDeferredLightBatch_Options(t *testing.T) {
	_, _, b := newTestDeferred(t, DeferredOptions{})
	assert.Equal(t, DefaultMaxBufferedQuads, b.Diffuse().Batcher().MaxQuads())
	assert.Equal(t, gfx.MaxLightsPerPass, b.Compositor().MaxLights())

	dev, view, b := newTestDeferred(t, DeferredOptions{MaxBufferedQuads: 2, MaxLightsPerPass: 4})
	tex := dev.NewTestTexture(8, 8)
	ds := sprites(tex, 5)

	calls, err := b.Render(ds, makeLights(5), core.Black, view.ProjectionMatrix())
	require.NoError(t, err)
	// 3 diffuse + 3 surface + 2 composite
	assert.Equal(t, 8, calls)

	b.Dispose()
	for _, m := range dev.Meshes {
		assert.True(t, m.Released)
	}
}

func TestNewDeferredLightBatch_InvalidResolution(t *testing.T) {
	dev := gfxtest.NewDevice()
	_, err := NewDeferredLightBatch(dev, gfx.NewShaderCache(dev), core.NewViewport(dev, 0, 180), DeferredOptions{})
	assert.Error(t, err)

	_, err = NewDeferredLightBatch(dev, gfx.NewShaderCache(dev), core.NewViewport(dev, 320, 180), DeferredOptions{MaxLightsPerPass: 99})
	assert.Error(t, err)
	for _, m := range dev.Meshes {
		assert.True(t, m.Released, "partially built batches are disposed")
	}
}
