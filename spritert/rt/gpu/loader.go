package gpu

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// TextureCreator is the part of gfx.Device needed to upload images.
type TextureCreator interface {
	NewTexture(img image.Image) (gfx.Texture, error)
}

// DecodeImage reads a png, jpeg, gif, bmp or webp image.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// LoadTexture decodes the file at path and uploads it.
func LoadTexture(dev TextureCreator, path string) (gfx.Texture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := DecodeImage(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return dev.NewTexture(img)
}

// rgbaPixels returns tightly packed 8-bit RGBA rows, top row first.
// RGBA and NRGBA images are copied as stored; anything else is converted
// to straight alpha.
func rgbaPixels(img image.Image) []byte {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var pix []byte
	var stride int
	switch src := img.(type) {
	case *image.NRGBA:
		pix, stride = src.Pix[src.PixOffset(b.Min.X, b.Min.Y):], src.Stride
	case *image.RGBA:
		pix, stride = src.Pix[src.PixOffset(b.Min.X, b.Min.Y):], src.Stride
	default:
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
		return dst.Pix
	}

	if stride == w*4 {
		return pix[:w*h*4]
	}
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(out[y*w*4:(y+1)*w*4], pix[y*stride:y*stride+w*4])
	}
	return out
}
