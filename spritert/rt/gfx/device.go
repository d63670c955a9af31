package gfx

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLightsPerPass is the size of the light arrays in the lighting program's
// uniform block. A composite pass cannot shade more lights than this.
const MaxLightsPerPass = 16

// Uniform names shared by the bundled programs.
const (
	UniformProjTrans  = "u_projTrans"
	UniformAmbient    = "u_ambient"
	UniformResolution = "u_resolution"
	UniformLightPos   = "u_lightPos"
	UniformLightColor = "u_lightColor"
)

type Primitive uint32

const (
	PrimitiveTriangles Primitive = iota
)

// Texture is a sampleable image living on the device.
type Texture interface {
	ID() string
	Width() int
	Height() int
	// Bind makes the texture visible to the next draw on the given unit.
	Bind(unit int)
	Release()
}

// Program is a compiled vertex+fragment shader pair.
type Program interface {
	Name() string
	Begin()
	End()
	SetUniformMatrix(name string, m mgl32.Mat4)
	SetUniformVec4(name string, v mgl32.Vec4)
	SetUniformVec4Array(name string, v []mgl32.Vec4)
	Release()
}

// Mesh is a vertex/index buffer pair with a fixed capacity.
type Mesh interface {
	SetVertices(vertices []float32, offset, count int)
	SetIndices(indices []uint16, offset, count int)
	// Render issues one indexed draw of count indices starting at offset.
	Render(program Program, primitive Primitive, offset, count int) error
	Release()
}

// RenderTarget is an offscreen color buffer. Between Begin and End every
// draw lands in the target instead of the screen.
type RenderTarget interface {
	Begin()
	End()
	ColorTexture() Texture
	Release()
}

// Compiler builds programs from named shader stages.
type Compiler interface {
	CompileProgram(vertexName, fragmentName string) (Program, error)
}

// ViewportSetter commits a viewport rectangle in screen pixels.
type ViewportSetter interface {
	SetViewport(x, y, width, height int)
}

// Device is the graphics collaborator used by the batching core.
type Device interface {
	Compiler
	ViewportSetter

	NewMesh(layout VertexLayout, maxVertices, maxIndices int) (Mesh, error)
	NewTexture(img image.Image) (Texture, error)
	NewRenderTarget(width, height int) (RenderTarget, error)
	SetBlend(state BlendState)
}
