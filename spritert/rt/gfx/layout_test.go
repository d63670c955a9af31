package gfx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpriteLayout(t *testing.T) {
	assert.Equal(t, uint64(24), SpriteLayout.Stride)
	assert.Equal(t, 6, SpriteLayout.Floats())
	require.Len(t, SpriteLayout.Attributes, 3)

	assert.Equal(t, VertexAttribute{Location: 0, Offset: 0, Format: VertexFormatFloat3}, SpriteLayout.Attributes[0])
	assert.Equal(t, VertexAttribute{Location: 1, Offset: 12, Format: VertexFormatUnorm8x4}, SpriteLayout.Attributes[1])
	assert.Equal(t, VertexAttribute{Location: 2, Offset: 16, Format: VertexFormatFloat2}, SpriteLayout.Attributes[2])
}

func TestLayoutOf_SkipsUntaggedFields(t *testing.T) {
	type vertex struct {
		Pos     [2]float32 `gekko:"layout" format:"float2" location:"0"`
		Padding [2]float32
		Tint    [4]float32 `gekko:"layout" format:"float4" location:"3"`
	}

	layout, err := LayoutOf(vertex{})
	require.NoError(t, err)
	assert.Equal(t, uint64(32), layout.Stride)
	require.Len(t, layout.Attributes, 2)
	assert.Equal(t, uint64(16), layout.Attributes[1].Offset)
	assert.Equal(t, uint32(3), layout.Attributes[1].Location)
}

func TestLayoutOf_Errors(t *testing.T) {
	_, err := LayoutOf(42)
	assert.Error(t, err)

	type badFormat struct {
		Pos [2]float32 `gekko:"layout" format:"half2" location:"0"`
	}
	_, err = LayoutOf(badFormat{})
	assert.ErrorContains(t, err, "unsupported vertex layout format: half2")

	type badLocation struct {
		Pos [2]float32 `gekko:"layout" format:"float2" location:"x"`
	}
	_, err = LayoutOf(badLocation{})
	assert.ErrorContains(t, err, "bad location")
}
