package core

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var ErrAtlasNotUploaded = errors.New("glyph atlas not uploaded")

const atlasSize = 512

type glyphInfo struct {
	x, y int // top-left pixel in the atlas
	w, h int
	off  [2]float32 // glyph bounds relative to the dot, y down
	adv  float32
}

// TextureCreator uploads images to the device.
type TextureCreator interface {
	NewTexture(img image.Image) (gfx.Texture, error)
}

// GlyphAtlas rasterizes printable ASCII into one texture and lays out
// strings as unlit drawables, so text goes through the same batches as
// sprites.
type GlyphAtlas struct {
	Image   *image.RGBA
	glyphs  map[rune]glyphInfo
	face    font.Face
	texture gfx.Texture
}

// NewDefaultGlyphAtlas uses the Go Regular font.
func NewDefaultGlyphAtlas(fontSize float64) (*GlyphAtlas, error) {
	return NewGlyphAtlas(goregular.TTF, fontSize)
}

func NewGlyphAtlas(fontBytes []byte, fontSize float64) (*GlyphAtlas, error) {
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}

	alpha := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]glyphInfo)

	x, y := 2, 2
	rowHeight := 0

	for r := rune(32); r < 127; r++ {
		bounds, mask, maskp, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}

		w := bounds.Dx()
		h := bounds.Dy()

		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}

		if y+h >= atlasSize {
			break
		}

		draw.Draw(alpha, image.Rect(x, y, x+w, y+h), mask, maskp, draw.Src)

		glyphs[r] = glyphInfo{
			x: x, y: y, w: w, h: h,
			off: [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			adv: float32(adv) / 64.0,
		}

		x += w + 4
		if h > rowHeight {
			rowHeight = h
		}
	}

	// White texels carrying coverage in alpha, so corner colors tint the text.
	rgba := image.NewRGBA(alpha.Rect)
	for i, a := range alpha.Pix {
		rgba.Pix[i*4+0] = 255
		rgba.Pix[i*4+1] = 255
		rgba.Pix[i*4+2] = 255
		rgba.Pix[i*4+3] = a
	}

	return &GlyphAtlas{
		Image:  rgba,
		glyphs: glyphs,
		face:   face,
	}, nil
}

// Upload creates the atlas texture on the device.
func (a *GlyphAtlas) Upload(dev TextureCreator) error {
	tex, err := dev.NewTexture(a.Image)
	if err != nil {
		return fmt.Errorf("upload glyph atlas: %w", err)
	}
	a.texture = tex
	return nil
}

func (a *GlyphAtlas) Texture() gfx.Texture {
	return a.texture
}

func (a *GlyphAtlas) HasGlyph(r rune) bool {
	_, ok := a.glyphs[r]
	return ok
}

func (a *GlyphAtlas) LineHeight(scale float32) float32 {
	return float32(a.face.Metrics().Height.Ceil()) * scale
}

// Layout returns one drawable per visible glyph. (x, y) is the top-left
// corner of the first line in world units with y pointing up.
func (a *GlyphAtlas) Layout(text string, x, y, scale float32, color Color) ([]*Drawable, error) {
	if a.texture == nil {
		return nil, ErrAtlasNotUploaded
	}

	metrics := a.face.Metrics()
	ascent := float32(metrics.Ascent.Ceil())
	lineHeight := float32(metrics.Height.Ceil())

	res := make([]*Drawable, 0, len(text))
	posX := x
	baseline := y - ascent*scale

	for _, r := range text {
		if r == '\n' {
			posX = x
			baseline -= lineHeight * scale
			continue
		}

		g, ok := a.glyphs[r]
		if !ok {
			continue
		}

		if g.w > 0 && g.h > 0 {
			d := NewDrawable()
			d.SetTexture(NewSubRegion(a.texture, g.x, g.y, g.w, g.h))
			d.AnchorX, d.AnchorY = 0, 0
			d.ScaleX, d.ScaleY = scale, scale
			d.X = posX + g.off[0]*scale
			d.Y = baseline - (g.off[1]+float32(g.h))*scale
			d.Unlit = true
			d.SetColor(color)
			res = append(res, d)
		}

		posX += g.adv * scale
	}

	return res, nil
}

// Measure returns the width of the widest line and the total height.
func (a *GlyphAtlas) Measure(text string, scale float32) (float32, float32) {
	lineHeight := float32(a.face.Metrics().Height.Ceil())

	maxW := float32(0)
	currentW := float32(0)
	lines := 1

	for _, r := range text {
		if r == '\n' {
			if currentW > maxW {
				maxW = currentW
			}
			currentW = 0
			lines++
			continue
		}

		g, ok := a.glyphs[r]
		if !ok {
			continue
		}
		currentW += g.adv * scale
	}

	if currentW > maxW {
		maxW = currentW
	}

	return maxW, lineHeight * scale * float32(lines)
}
