package gpu

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gekko3d/gekko2d/spritert/rt/gfx"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx/gfxtest"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestUniformBlock_Layout(t *testing.T) {
	assert.Equal(t, 608, uniformBlockSize)

	var b uniformBlock
	m := mgl32.Ortho(0, 320, 0, 180, -1, 1)
	assert.True(t, b.setMatrix(gfx.UniformProjTrans, m))
	assert.False(t, b.setMatrix("u_model", m))
	assert.Equal(t, m[0], b.float(offsetProj))
	assert.Equal(t, m[12], b.float(offsetProj+12*4), "column-major translation")

	assert.True(t, b.setVec4(gfx.UniformAmbient, mgl32.Vec4{0.1, 0.2, 0.3, 1}))
	assert.Equal(t, float32(0.3), b.float(offsetAmbient+8))

	assert.True(t, b.setVec4(gfx.UniformResolution, mgl32.Vec4{320, 180, 3, 0}))
	b.setFlipY(true)
	assert.Equal(t, float32(3), b.float(offsetResolution+8))
	assert.Equal(t, float32(-1), b.float(offsetResolution+12))
	b.setFlipY(false)
	assert.Equal(t, float32(1), b.float(offsetResolution+12))

	assert.False(t, b.setVec4("u_unknown", mgl32.Vec4{}))
}

func TestUniformBlock_LightArrays(t *testing.T) {
	var b uniformBlock
	b.setVec4Array(gfx.UniformLightPos, []mgl32.Vec4{{1, 2, 3, 4}, {5, 6, 7, 8}})
	b.setVec4Array(gfx.UniformLightColor, []mgl32.Vec4{{9, 9, 9, 1}})

	assert.Equal(t, float32(1), b.float(offsetLightPos))
	assert.Equal(t, float32(8), b.float(offsetLightPos+16+12))
	assert.Equal(t, float32(9), b.float(offsetLightColor))

	// A shorter array clears stale entries.
	b.setVec4Array(gfx.UniformLightPos, []mgl32.Vec4{{1, 1, 1, 1}})
	assert.Equal(t, float32(0), b.float(offsetLightPos+16))

	// Entries past the block size are dropped.
	many := make([]mgl32.Vec4, gfx.MaxLightsPerPass+4)
	for i := range many {
		many[i] = mgl32.Vec4{float32(i), 0, 0, 0}
	}
	b.setVec4Array(gfx.UniformLightColor, many)
	assert.Equal(t, float32(gfx.MaxLightsPerPass-1), b.float(offsetLightColor+(gfx.MaxLightsPerPass-1)*16))
}

func TestBlendState(t *testing.T) {
	assert.Nil(t, blendState(gfx.BlendDisabled))

	alpha := blendState(gfx.BlendAlpha)
	require.NotNil(t, alpha)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, alpha.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, alpha.Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, alpha.Alpha.SrcFactor)

	erase := blendState(gfx.BlendErase)
	require.NotNil(t, erase)
	assert.Equal(t, wgpu.BlendFactorZero, erase.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOne, erase.Color.DstFactor)
	assert.Equal(t, wgpu.BlendFactorZero, erase.Alpha.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, erase.Alpha.DstFactor)

	add := blendState(gfx.BlendAdditive)
	require.NotNil(t, add)
	assert.Equal(t, wgpu.BlendFactorOne, add.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOne, add.Color.DstFactor)
}

func TestVertexBufferLayout(t *testing.T) {
	l := vertexBufferLayout(gfx.SpriteLayout)
	assert.Equal(t, uint64(24), l.ArrayStride)
	require.Len(t, l.Attributes, 3)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, l.Attributes[0].Format)
	assert.Equal(t, wgpu.VertexFormatUnorm8x4, l.Attributes[1].Format)
	assert.Equal(t, uint64(12), l.Attributes[1].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, l.Attributes[2].Format)
	assert.Equal(t, uint32(2), l.Attributes[2].ShaderLocation)
}

func TestRGBAPixels_SubImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})
	img.Set(2, 2, color.RGBA{0, 0, 255, 255})

	sub := img.SubImage(image.Rect(1, 1, 3, 3))
	pix := rgbaPixels(sub)
	require.Len(t, pix, 2*2*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, pix[0:4])
	assert.Equal(t, []byte{0, 0, 255, 255}, pix[12:16])
}

func TestRGBAPixels_ConvertsOtherModels(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{Y: 128})

	pix := rgbaPixels(gray)
	assert.Equal(t, []byte{0, 0, 0, 255, 128, 128, 128, 255}, pix)
}

func TestDecodeImage(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))

	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, src))
	img, format, err := DecodeImage(&pngBuf)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 3, img.Bounds().Dx())

	var bmpBuf bytes.Buffer
	require.NoError(t, bmp.Encode(&bmpBuf, src))
	_, format, err = DecodeImage(&bmpBuf)
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)

	_, _, err = DecodeImage(bytes.NewReader([]byte("nope")))
	assert.Error(t, err)
}

func TestLoadTexture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprite.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewNRGBA(image.Rect(0, 0, 16, 8))))
	require.NoError(t, f.Close())

	dev := gfxtest.NewDevice()
	tex, err := LoadTexture(dev, path)
	require.NoError(t, err)
	assert.Equal(t, 16, tex.Width())
	assert.Equal(t, 8, tex.Height())

	_, err = LoadTexture(dev, filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestAlign4(t *testing.T) {
	assert.Equal(t, uint64(0), align4(0))
	assert.Equal(t, uint64(12), align4(12))
	assert.Equal(t, uint64(16), align4(14))
}
