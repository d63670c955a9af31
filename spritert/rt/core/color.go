package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Color is a straight-alpha RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

var (
	White       = Color{1, 1, 1, 1}
	Black       = Color{0, 0, 0, 1}
	Transparent = Color{0, 0, 0, 0}
)

func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// ColorFromRGBA8 builds a color from 8-bit channels.
func ColorFromRGBA8(c [4]uint8) Color {
	return Color{
		R: float32(c[0]) / 255,
		G: float32(c[1]) / 255,
		B: float32(c[2]) / 255,
		A: float32(c[3]) / 255,
	}
}

// ToIntBits packs the color as ABGR8888, red in the lowest byte, which is the
// byte order an unorm8x4 vertex attribute reads on little-endian hosts.
func (c Color) ToIntBits() uint32 {
	return uint32(255*clamp01(c.A))<<24 |
		uint32(255*clamp01(c.B))<<16 |
		uint32(255*clamp01(c.G))<<8 |
		uint32(255*clamp01(c.R))
}

// ToFloatBits stores the packed color in a float32 vertex slot. The lowest
// alpha bit is dropped so the bit pattern can never be a NaN.
func (c Color) ToFloatBits() float32 {
	return math.Float32frombits(c.ToIntBits() & 0xfeffffff)
}

func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4{c.R, c.G, c.B, c.A}
}

func (c Color) Scale(s float32) Color {
	return Color{c.R * s, c.G * s, c.B * s, c.A}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
