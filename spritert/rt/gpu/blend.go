package gpu

import (
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/cogentcore/webgpu/wgpu"
)

func blendFactor(f gfx.BlendFactor) wgpu.BlendFactor {
	switch f {
	case gfx.BlendZero:
		return wgpu.BlendFactorZero
	case gfx.BlendOne:
		return wgpu.BlendFactorOne
	case gfx.BlendSrcAlpha:
		return wgpu.BlendFactorSrcAlpha
	case gfx.BlendOneMinusSrcAlpha:
		return wgpu.BlendFactorOneMinusSrcAlpha
	default:
		return wgpu.BlendFactorOne
	}
}

// blendState converts to the pipeline blend descriptor; nil means
// blending is off and fragments overwrite the destination.
func blendState(s gfx.BlendState) *wgpu.BlendState {
	if !s.Enabled {
		return nil
	}
	return &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: blendFactor(s.SrcRGB),
			DstFactor: blendFactor(s.DstRGB),
		},
		Alpha: wgpu.BlendComponent{
			Operation: wgpu.BlendOperationAdd,
			SrcFactor: blendFactor(s.SrcAlpha),
			DstFactor: blendFactor(s.DstAlpha),
		},
	}
}

// topology maps the primitive kind; indexed triangle lists are all the
// batches draw.
func topology(gfx.Primitive) wgpu.PrimitiveTopology {
	return wgpu.PrimitiveTopologyTriangleList
}

func vertexFormat(f gfx.VertexFormat) wgpu.VertexFormat {
	switch f {
	case gfx.VertexFormatFloat2:
		return wgpu.VertexFormatFloat32x2
	case gfx.VertexFormatFloat3:
		return wgpu.VertexFormatFloat32x3
	case gfx.VertexFormatFloat4:
		return wgpu.VertexFormatFloat32x4
	case gfx.VertexFormatUnorm8x4:
		return wgpu.VertexFormatUnorm8x4
	default:
		return wgpu.VertexFormatFloat32
	}
}

func vertexBufferLayout(layout gfx.VertexLayout) wgpu.VertexBufferLayout {
	attrs := make([]wgpu.VertexAttribute, len(layout.Attributes))
	for i, a := range layout.Attributes {
		attrs[i] = wgpu.VertexAttribute{
			Format:         vertexFormat(a.Format),
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		}
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: layout.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}
}
