package batch

import (
	"errors"
	"fmt"

	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// DefaultMaxBufferedQuads is the capacity used when none is configured.
	DefaultMaxBufferedQuads = 1500
	// MaxBufferedQuadsLimit keeps every vertex addressable by a uint16 index.
	MaxBufferedQuadsLimit = 16384

	FloatsPerVertex = 6
	VerticesPerQuad = 4
	IndicesPerQuad  = 6
	FloatsPerQuad   = FloatsPerVertex * VerticesPerQuad
)

var (
	ErrAlreadyActive = errors.New("batch is already active")
	ErrNotActive     = errors.New("batch is not active")
)

// RegionSelector picks the texture region a drawable is rendered with.
type RegionSelector func(d *core.Drawable) (core.TextureRegion, error)

// DiffuseRegion selects the drawable's main texture.
func DiffuseRegion(d *core.Drawable) (core.TextureRegion, error) {
	return d.Texture()
}

// ColorSelector picks the vertex color written for one corner.
type ColorSelector func(d *core.Drawable, corner core.Corner) core.Color

// CornerColor writes the drawable's own corner tint.
func CornerColor(d *core.Drawable, corner core.Corner) core.Color {
	return d.CornerColor(corner)
}

// QuadBatcher accumulates textured quads in one vertex buffer and issues a
// draw call only when the texture changes, the buffer is full or the batch
// ends.
type QuadBatcher struct {
	device  gfx.Device
	program gfx.Program
	mesh    gfx.Mesh
	region  RegionSelector
	color   ColorSelector

	vertices []float32
	indices  []uint16
	maxQuads int

	projection mgl32.Mat4
	blend      gfx.BlendState
	active     bool
	gpuCalls   int
	buffered   int
	cached     gfx.Texture
}

// NewQuadBatcher allocates the vertex and index buffers for maxQuads quads.
func NewQuadBatcher(device gfx.Device, program gfx.Program, maxQuads int) (*QuadBatcher, error) {
	if maxQuads <= 0 || maxQuads > MaxBufferedQuadsLimit {
		return nil, fmt.Errorf("max buffered quads %d out of range [1, %d]", maxQuads, MaxBufferedQuadsLimit)
	}

	mesh, err := device.NewMesh(gfx.SpriteLayout, maxQuads*VerticesPerQuad, maxQuads*IndicesPerQuad)
	if err != nil {
		return nil, fmt.Errorf("create quad mesh: %w", err)
	}

	return &QuadBatcher{
		device:     device,
		program:    program,
		mesh:       mesh,
		region:     DiffuseRegion,
		color:      CornerColor,
		vertices:   make([]float32, maxQuads*FloatsPerQuad),
		indices:    quadIndices(maxQuads),
		maxQuads:   maxQuads,
		projection: mgl32.Ident4(),
		blend:      gfx.BlendAlpha,
	}, nil
}

// quadIndices repeats 0,1,2,2,3,0 for every quad, offset by 4 vertices.
func quadIndices(maxQuads int) []uint16 {
	indices := make([]uint16, maxQuads*IndicesPerQuad)
	for i := range indices {
		idx := uint16((i / IndicesPerQuad) * VerticesPerQuad)
		switch i % IndicesPerQuad {
		case 0, 5:
			indices[i] = idx
		case 1:
			indices[i] = idx + 1
		case 2, 3:
			indices[i] = idx + 2
		case 4:
			indices[i] = idx + 3
		}
	}
	return indices
}

// SetRegionSelector changes which texture region Draw uses.
func (b *QuadBatcher) SetRegionSelector(sel RegionSelector) {
	b.region = sel
}

func (b *QuadBatcher) SetColorSelector(sel ColorSelector) {
	b.color = sel
}

func (b *QuadBatcher) Begin() error {
	if b.active {
		return ErrAlreadyActive
	}
	b.gpuCalls = 0
	b.program.Begin()
	b.active = true
	return nil
}

func (b *QuadBatcher) Draw(d *core.Drawable) error {
	if !b.active {
		return ErrNotActive
	}
	region, err := b.region(d)
	if err != nil {
		return fmt.Errorf("drawable can not be rendered: %w", err)
	}

	if b.cached != region.Texture {
		if b.buffered > 0 {
			if err := b.flush(); err != nil {
				return err
			}
		}
		b.cached = region.Texture
	}
	if b.buffered == b.maxQuads {
		if err := b.flush(); err != nil {
			return err
		}
	}

	b.appendVertices(d, region)
	b.buffered++
	return nil
}

func (b *QuadBatcher) End() error {
	if !b.active {
		return ErrNotActive
	}
	err := b.flush()
	b.cached = nil
	b.active = false
	b.program.End()
	return err
}

// SetProjectionMatrix flushes pending quads under the old matrix first.
func (b *QuadBatcher) SetProjectionMatrix(m mgl32.Mat4) error {
	var err error
	if b.active {
		err = b.flush()
	}
	b.projection = m
	return err
}

func (b *QuadBatcher) ProjectionMatrix() mgl32.Mat4 { return b.projection }

// SetBlend changes the blend state of the following quads. Pending quads are
// flushed under the previous state.
func (b *QuadBatcher) SetBlend(state gfx.BlendState) error {
	if state == b.blend {
		return nil
	}
	var err error
	if b.active {
		err = b.flush()
	}
	b.blend = state
	return err
}

func (b *QuadBatcher) Blend() gfx.BlendState { return b.blend }

// GPUCalls is the number of draw calls since the last Begin.
func (b *QuadBatcher) GPUCalls() int { return b.gpuCalls }

func (b *QuadBatcher) Buffered() int { return b.buffered }

func (b *QuadBatcher) Active() bool { return b.active }

func (b *QuadBatcher) MaxQuads() int { return b.maxQuads }

func (b *QuadBatcher) Dispose() {
	b.mesh.Release()
}

func (b *QuadBatcher) appendVertices(d *core.Drawable, region core.TextureRegion) {
	idx := b.buffered * FloatsPerQuad
	c := quadCorners(d, region)

	v := b.vertices
	v[idx] = c[0]
	v[idx+1] = c[1]
	v[idx+2] = d.Z
	v[idx+3] = b.color(d, core.BottomLeft).ToFloatBits()
	v[idx+4] = region.U
	v[idx+5] = region.V2

	v[idx+6] = c[2]
	v[idx+7] = c[3]
	v[idx+8] = d.Z
	v[idx+9] = b.color(d, core.TopLeft).ToFloatBits()
	v[idx+10] = region.U
	v[idx+11] = region.V

	v[idx+12] = c[4]
	v[idx+13] = c[5]
	v[idx+14] = d.Z
	v[idx+15] = b.color(d, core.TopRight).ToFloatBits()
	v[idx+16] = region.U2
	v[idx+17] = region.V

	v[idx+18] = c[6]
	v[idx+19] = c[7]
	v[idx+20] = d.Z
	v[idx+21] = b.color(d, core.BottomRight).ToFloatBits()
	v[idx+22] = region.U2
	v[idx+23] = region.V2
}

// NormalizeRotation maps degrees into [0, 360).
func NormalizeRotation(deg float32) float32 {
	r := math32.Mod(deg, 360)
	if r < 0 {
		r += 360
	}
	if r >= 360 {
		r = 0
	}
	return r
}

// quadCorners returns bottom-left, top-left, top-right, bottom-right as
// x,y pairs. Only the first three corners are rotated; the fourth follows
// from them.
func quadCorners(d *core.Drawable, region core.TextureRegion) [8]float32 {
	sizeX := float32(region.Width) * d.ScaleX
	sizeY := float32(region.Height) * d.ScaleY

	x1 := -sizeX * d.AnchorX
	y1 := -sizeY * d.AnchorY
	x2 := x1
	y2 := y1 + sizeY
	x3 := x1 + sizeX
	y3 := y1 + sizeY
	x4 := x1 + sizeX
	y4 := y1

	if rotation := NormalizeRotation(d.Rotation); rotation != 0 {
		rad := mgl32.DegToRad(rotation)
		cos := math32.Cos(rad)
		sin := math32.Sin(rad)
		rx1 := cos*x1 - sin*y1
		ry1 := sin*x1 + cos*y1
		rx2 := cos*x2 - sin*y2
		ry2 := sin*x2 + cos*y2
		rx3 := cos*x3 - sin*y3
		ry3 := sin*x3 + cos*y3
		x1, y1 = rx1, ry1
		x2, y2 = rx2, ry2
		x3, y3 = rx3, ry3
		x4 = x1 + (x3 - x2)
		y4 = y3 - (y2 - y1)
	}

	return [8]float32{
		d.X + x1, d.Y + y1,
		d.X + x2, d.Y + y2,
		d.X + x3, d.Y + y3,
		d.X + x4, d.Y + y4,
	}
}

func (b *QuadBatcher) flush() error {
	if b.buffered == 0 {
		return nil
	}
	if !b.active {
		return ErrNotActive
	}

	indexCount := b.buffered * IndicesPerQuad
	vertexCount := b.buffered * FloatsPerQuad

	b.cached.Bind(0)
	b.program.SetUniformMatrix(gfx.UniformProjTrans, b.projection)
	b.mesh.SetVertices(b.vertices, 0, vertexCount)
	b.mesh.SetIndices(b.indices, 0, indexCount)
	b.device.SetBlend(b.blend)
	err := b.mesh.Render(b.program, gfx.PrimitiveTriangles, 0, indexCount)
	b.buffered = 0
	if err != nil {
		return fmt.Errorf("flush %d indices: %w", indexCount, err)
	}
	b.gpuCalls++
	return nil
}
