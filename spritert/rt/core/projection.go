package core

import (
	"math"

	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/go-gl/mathgl/mgl32"
)

// Projection supplies the camera transform and the virtual resolution the
// offscreen passes are rendered at.
type Projection interface {
	ProjectionMatrix() mgl32.Mat4
	VirtualWidth() float32
	VirtualHeight() float32
	// Apply commits the on-screen viewport to the active render destination.
	Apply()
}

// Viewport is an orthographic camera over a fixed virtual resolution that is
// letterboxed into the real screen.
type Viewport struct {
	target gfx.ViewportSetter

	virtualWidth  float32
	virtualHeight float32
	screenWidth   int
	screenHeight  int

	// Position is the world point at the center of the view.
	Position mgl32.Vec2
	Zoom     float32
}

var _ Projection = (*Viewport)(nil)

// NewViewport creates a camera looking at the center of the virtual area, so
// world (0, 0) is the bottom-left corner of the view.
func NewViewport(target gfx.ViewportSetter, virtualWidth, virtualHeight float32) *Viewport {
	return &Viewport{
		target:        target,
		virtualWidth:  virtualWidth,
		virtualHeight: virtualHeight,
		screenWidth:   int(virtualWidth),
		screenHeight:  int(virtualHeight),
		Position:      mgl32.Vec2{virtualWidth / 2, virtualHeight / 2},
		Zoom:          1,
	}
}

func (v *Viewport) VirtualWidth() float32  { return v.virtualWidth }
func (v *Viewport) VirtualHeight() float32 { return v.virtualHeight }

// Resize records the new framebuffer size in pixels.
func (v *Viewport) Resize(screenWidth, screenHeight int) {
	v.screenWidth = screenWidth
	v.screenHeight = screenHeight
}

func (v *Viewport) ProjectionMatrix() mgl32.Mat4 {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	hw := v.virtualWidth / 2 / zoom
	hh := v.virtualHeight / 2 / zoom
	cx, cy := v.Position[0], v.Position[1]
	return mgl32.Ortho(cx-hw, cx+hw, cy-hh, cy+hh, -1, 1)
}

// ScreenRect is the letterboxed area of the screen, in pixels, that shows
// the virtual resolution with its aspect ratio preserved.
func (v *Viewport) ScreenRect() (x, y, width, height int) {
	if v.virtualWidth <= 0 || v.virtualHeight <= 0 || v.screenWidth <= 0 || v.screenHeight <= 0 {
		return 0, 0, 0, 0
	}
	sw, sh := float64(v.screenWidth), float64(v.screenHeight)
	scale := math.Min(sw/float64(v.virtualWidth), sh/float64(v.virtualHeight))
	w := math.Round(float64(v.virtualWidth) * scale)
	h := math.Round(float64(v.virtualHeight) * scale)
	return int((sw - w) / 2), int((sh - h) / 2), int(w), int(h)
}

func (v *Viewport) Apply() {
	if v.target == nil {
		return
	}
	x, y, w, h := v.ScreenRect()
	v.target.SetViewport(x, y, w, h)
}
