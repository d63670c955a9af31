package core

import (
	"errors"
	"fmt"
)

var (
	ErrTextureNotAssigned = errors.New("texture not assigned")
	ErrSurfaceNotAssigned = errors.New("surface texture not assigned")
)

type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return fmt.Sprintf("Corner(%d)", int(c))
	}
}

// Drawable is one textured quad submitted to the batching core.
// Z only orders drawables; it never produces perspective.
type Drawable struct {
	X, Y, Z  float32
	Rotation float32 // degrees, counter-clockwise

	ScaleX, ScaleY float32

	// Anchor is the normalized point of the quad placed at (X, Y); rotation
	// happens around it.
	AnchorX, AnchorY float32

	// Unlit drawables erase the surface data beneath them, so lighting shows
	// their diffuse color unchanged even over lit drawables.
	Unlit bool

	texture    TextureRegion
	hasTexture bool
	surface    TextureRegion
	hasSurface bool

	colors [4]Color
}

func NewDrawable() *Drawable {
	return &Drawable{
		ScaleX:  1,
		ScaleY:  1,
		AnchorX: 0.5,
		AnchorY: 0.5,
		colors:  [4]Color{White, White, White, White},
	}
}

// NewSprite is a drawable showing the given region, anchored at its center.
func NewSprite(region TextureRegion, x, y float32) *Drawable {
	d := NewDrawable()
	d.X, d.Y = x, y
	d.SetTexture(region)
	return d
}

func (d *Drawable) SetTexture(region TextureRegion) {
	d.texture = region
	d.hasTexture = region.Texture != nil
}

// Texture returns the diffuse region or ErrTextureNotAssigned.
func (d *Drawable) Texture() (TextureRegion, error) {
	if !d.hasTexture {
		return TextureRegion{}, ErrTextureNotAssigned
	}
	return d.texture, nil
}

func (d *Drawable) HasTexture() bool {
	return d.hasTexture
}

// SetSurfaceTexture assigns a normal map rendered by the surface pass.
func (d *Drawable) SetSurfaceTexture(region TextureRegion) {
	d.surface = region
	d.hasSurface = region.Texture != nil
}

// SurfaceTexture returns the surface region or ErrSurfaceNotAssigned.
func (d *Drawable) SurfaceTexture() (TextureRegion, error) {
	if !d.hasSurface {
		return TextureRegion{}, ErrSurfaceNotAssigned
	}
	return d.surface, nil
}

// SetColor tints all four corners.
func (d *Drawable) SetColor(c Color) {
	for i := range d.colors {
		d.colors[i] = c
	}
}

func (d *Drawable) SetCornerColor(corner Corner, c Color) {
	d.colors[corner] = c
}

// Color returns the top-left corner color.
func (d *Drawable) Color() Color {
	return d.colors[TopLeft]
}

func (d *Drawable) CornerColor(corner Corner) Color {
	return d.colors[corner]
}

// Clone returns an independent copy of every field.
func (d *Drawable) Clone() *Drawable {
	c := *d
	return &c
}
