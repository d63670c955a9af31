package gfx

import (
	"fmt"
	"reflect"
	"strconv"
)

type VertexFormat uint32

const (
	VertexFormatFloat2 VertexFormat = iota
	VertexFormatFloat3
	VertexFormatFloat4
	// VertexFormatUnorm8x4 is a packed RGBA color stored in one 4-byte slot.
	VertexFormatUnorm8x4
)

type VertexAttribute struct {
	Location uint32
	Offset   uint64
	Format   VertexFormat
}

type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// Floats is the number of 4-byte slots per vertex.
func (l VertexLayout) Floats() int {
	return int(l.Stride / 4)
}

// SpriteVertex is one quad corner as laid out in the batch vertex buffer:
// position, packed color, texture coordinates.
type SpriteVertex struct {
	Pos   [3]float32 `gekko:"layout" format:"float3" location:"0"`
	Color float32    `gekko:"layout" format:"unorm8x4" location:"1"`
	UV    [2]float32 `gekko:"layout" format:"float2" location:"2"`
}

// SpriteLayout is the layout shared by every program of the batching core.
var SpriteLayout = mustLayout(SpriteVertex{})

func ParseFormat(name string) (VertexFormat, error) {
	switch name {
	case "float2":
		return VertexFormatFloat2, nil
	case "float3":
		return VertexFormatFloat3, nil
	case "float4":
		return VertexFormatFloat4, nil
	case "unorm8x4":
		return VertexFormatUnorm8x4, nil
	default:
		return 0, fmt.Errorf("unsupported vertex layout format: %s", name)
	}
}

// LayoutOf builds a vertex layout from the `gekko:"layout"` tags of a struct.
// Untagged fields still advance the offset.
func LayoutOf(vertexType any) (VertexLayout, error) {
	t := reflect.TypeOf(vertexType)
	if t == nil || t.Kind() != reflect.Struct {
		return VertexLayout{}, fmt.Errorf("vertex must be a struct, got %v", t)
	}

	var attributes []VertexAttribute
	var offset uint64

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if "layout" == field.Tag.Get("gekko") {
			format, err := ParseFormat(field.Tag.Get("format"))
			if err != nil {
				return VertexLayout{}, fmt.Errorf("field %s: %w", field.Name, err)
			}
			location, err := strconv.Atoi(field.Tag.Get("location"))
			if err != nil {
				return VertexLayout{}, fmt.Errorf("field %s: bad location: %w", field.Name, err)
			}

			attributes = append(attributes, VertexAttribute{
				Location: uint32(location),
				Offset:   offset,
				Format:   format,
			})
		}

		offset += uint64(field.Type.Size())
	}

	return VertexLayout{
		Stride:     offset,
		Attributes: attributes,
	}, nil
}

func mustLayout(vertexType any) VertexLayout {
	layout, err := LayoutOf(vertexType)
	if err != nil {
		panic(err)
	}
	return layout
}
