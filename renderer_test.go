package gekko2d

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx/gfxtest"
)

func newTestRenderer(t *testing.T, cfg Config) (*gfxtest.Device, *Renderer, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	dev := gfxtest.NewDevice()
	r, err := NewRenderer(dev, cfg, NewLoggerTo(&logs, &logs, "test", true))
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	return dev, r, &logs
}

func TestRenderer_RenderFrame(t *testing.T) {
	dev, r, logs := newTestRenderer(t, DefaultConfig())
	tex := dev.NewTestTexture(16, 16)

	frame := Frame{
		Drawables: []*core.Drawable{
			core.NewSprite(core.NewTextureRegion(tex), 10, 10),
			core.NewSprite(core.NewTextureRegion(tex), 40, 20),
		},
		Lights: []core.Light{core.NewPointLight(30, 30, 64, core.White)},
	}

	calls, err := r.RenderFrame(frame)
	if err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 gpu calls, got %d", calls)
	}

	stats := r.Stats()
	if stats.Count(CountGPUCalls) != 3 || stats.Count(CountDrawables) != 2 || stats.Count(CountLights) != 1 {
		t.Errorf("Unexpected stats:\n%s", stats)
	}
	if !strings.Contains(logs.String(), "[test] frame 1 DEBUG: 2 drawables, 1 lights, 3 gpu calls") {
		t.Errorf("Missing frame debug line in %q", logs.String())
	}

	composite := dev.Draws[len(dev.Draws)-1]
	want := DefaultConfig().AmbientColor()
	if got := composite.Vec4s[gfx.UniformAmbient]; got[0] != want.R || got[2] != want.B {
		t.Errorf("Expected configured ambient, got %v", got)
	}
}

func TestRenderer_AmbientOverride(t *testing.T) {
	dev, r, _ := newTestRenderer(t, DefaultConfig())
	red := core.NewColor(1, 0, 0, 1)

	if _, err := r.RenderFrame(Frame{Ambient: &red}); err != nil {
		t.Fatalf("RenderFrame failed: %v", err)
	}
	composite := dev.Draws[len(dev.Draws)-1]
	if got := composite.Vec4s[gfx.UniformAmbient]; got[0] != 1 || got[1] != 0 {
		t.Errorf("Expected red ambient, got %v", got)
	}
}

func TestRenderer_ResizeAppliesViewport(t *testing.T) {
	dev, r, _ := newTestRenderer(t, DefaultConfig())
	r.Resize(640, 360)
	r.Projection().Apply()

	if dev.Viewport != [4]int{0, 0, 640, 360} {
		t.Errorf("Expected full-screen viewport, got %v", dev.Viewport)
	}
}

func TestRenderer_FrameErrors(t *testing.T) {
	dev, r, logs := newTestRenderer(t, DefaultConfig())

	// A drawable without a texture is a caller mistake.
	_, err := r.RenderFrame(Frame{Drawables: []*core.Drawable{core.NewDrawable()}})
	if err == nil {
		t.Fatal("Expected error for drawable without texture")
	}
	if !strings.Contains(logs.String(), "WARN") {
		t.Errorf("Expected usage error logged as warning, got %q", logs.String())
	}
	if !dev.AllTargetsReleased() {
		t.Error("Render targets leaked after failed frame")
	}

	logs.Reset()
	boom := errors.New("device lost")
	dev.RenderErr = boom
	tex := dev.NewTestTexture(4, 4)
	_, err = r.RenderFrame(Frame{Drawables: []*core.Drawable{core.NewSprite(core.NewTextureRegion(tex), 0, 0)}})
	if !errors.Is(err, boom) {
		t.Errorf("Expected device error, got %v", err)
	}
	if !strings.Contains(logs.String(), "ERROR") {
		t.Errorf("Expected device error logged as error, got %q", logs.String())
	}
}

func TestNewRenderer_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxLightsPerPass = 0

	_, err := NewRenderer(gfxtest.NewDevice(), cfg, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
}

func TestRenderer_Dispose(t *testing.T) {
	dev, r, _ := newTestRenderer(t, DefaultConfig())
	r.Dispose()

	for _, m := range dev.Meshes {
		if !m.Released {
			t.Error("Mesh not released on Dispose")
		}
	}
	for _, p := range dev.Programs {
		if !p.Released {
			t.Errorf("Program %s not released on Dispose", p.Name())
		}
	}
}
