package core

import "github.com/gekko3d/gekko2d/spritert/rt/gfx"

// TextureRegion is a rectangle of a texture in normalized coordinates.
// V grows downwards: (U, V) is the top-left texel, (U2, V2) the bottom-right.
type TextureRegion struct {
	Texture gfx.Texture
	U, V    float32
	U2, V2  float32
	Width   int
	Height  int
}

// NewTextureRegion covers the whole texture.
func NewTextureRegion(tex gfx.Texture) TextureRegion {
	return TextureRegion{
		Texture: tex,
		U:       0, V: 0,
		U2: 1, V2: 1,
		Width:  tex.Width(),
		Height: tex.Height(),
	}
}

// NewSubRegion covers the pixel rectangle (x, y, w, h) of the texture, y
// counted from the top row.
func NewSubRegion(tex gfx.Texture, x, y, w, h int) TextureRegion {
	invW := 1 / float32(tex.Width())
	invH := 1 / float32(tex.Height())
	return TextureRegion{
		Texture: tex,
		U:       float32(x) * invW,
		V:       float32(y) * invH,
		U2:      float32(x+w) * invW,
		V2:      float32(y+h) * invH,
		Width:   w,
		Height:  h,
	}
}

// Flip mirrors the region horizontally and/or vertically by swapping its
// texture coordinates.
func (r *TextureRegion) Flip(x, y bool) {
	if x {
		r.U, r.U2 = r.U2, r.U
	}
	if y {
		r.V, r.V2 = r.V2, r.V
	}
}

func (r TextureRegion) IsFlipY() bool {
	return r.V > r.V2
}
