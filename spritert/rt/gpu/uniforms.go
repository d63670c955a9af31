package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/go-gl/mathgl/mgl32"
)

// uniformBlock mirrors the Uniforms struct shared by every bundled program.
//
//	proj:        mat4x4<f32>              -- 0
//	ambient:     vec4<f32>                -- 64
//	resolution:  vec4<f32>                -- 80  (w: clip y sign)
//	light_pos:   array<vec4<f32>, 16>     -- 96
//	light_color: array<vec4<f32>, 16>     -- 352
//	                                      -> 608 bytes
const (
	offsetProj       = 0
	offsetAmbient    = 64
	offsetResolution = 80
	offsetLightPos   = 96
	offsetLightColor = offsetLightPos + gfx.MaxLightsPerPass*16
	uniformBlockSize = offsetLightColor + gfx.MaxLightsPerPass*16
)

type uniformBlock [uniformBlockSize]byte

func (b *uniformBlock) putFloat(offset int, v float32) {
	binary.LittleEndian.PutUint32(b[offset:], math.Float32bits(v))
}

func (b *uniformBlock) putVec4(offset int, v mgl32.Vec4) {
	for i, f := range v {
		b.putFloat(offset+i*4, f)
	}
}

// setMatrix stores a column-major matrix, which is also WGSL's layout.
func (b *uniformBlock) setMatrix(name string, m mgl32.Mat4) bool {
	if name != gfx.UniformProjTrans {
		return false
	}
	for i, f := range m {
		b.putFloat(offsetProj+i*4, f)
	}
	return true
}

func (b *uniformBlock) setVec4(name string, v mgl32.Vec4) bool {
	switch name {
	case gfx.UniformAmbient:
		b.putVec4(offsetAmbient, v)
	case gfx.UniformResolution:
		b.putVec4(offsetResolution, v)
	default:
		return false
	}
	return true
}

// setVec4Array writes up to MaxLightsPerPass entries and zeroes the rest.
func (b *uniformBlock) setVec4Array(name string, v []mgl32.Vec4) bool {
	var offset int
	switch name {
	case gfx.UniformLightPos:
		offset = offsetLightPos
	case gfx.UniformLightColor:
		offset = offsetLightColor
	default:
		return false
	}
	for i := 0; i < gfx.MaxLightsPerPass; i++ {
		var e mgl32.Vec4
		if i < len(v) {
			e = v[i]
		}
		b.putVec4(offset+i*16, e)
	}
	return true
}

// setFlipY stores the clip-space y sign the vertex stages multiply by.
func (b *uniformBlock) setFlipY(flip bool) {
	sign := float32(1)
	if flip {
		sign = -1
	}
	b.putFloat(offsetResolution+12, sign)
}

func (b *uniformBlock) float(offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}
