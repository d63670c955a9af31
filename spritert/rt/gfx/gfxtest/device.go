// Package gfxtest provides a recording graphics device. It never touches a
// GPU; every call is captured so tests can assert on the exact stream of
// draws a renderer produced.
package gfxtest

import (
	"fmt"
	"image"

	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// Draw is one captured Mesh.Render call.
type Draw struct {
	Program   string
	Target    string // render target id, empty for the screen
	Textures  map[int]string
	Blend     gfx.BlendState
	Primitive gfx.Primitive
	Offset    int
	Count     int
	Matrices  map[string]mgl32.Mat4
	Vec4s     map[string]mgl32.Vec4
	Arrays    map[string][]mgl32.Vec4
	Vertices  []float32
	Indices   []uint16
}

// Matrix returns the projection matrix the draw was issued with.
func (d Draw) Matrix() mgl32.Mat4 {
	return d.Matrices[gfx.UniformProjTrans]
}

type Device struct {
	Draws    []Draw
	Meshes   []*Mesh
	Programs []*Program
	Textures []*Texture
	Targets  []*RenderTarget

	Blend         gfx.BlendState
	Viewport      [4]int
	ViewportCalls int
	Compiles      int

	// Injected failures.
	CompileErr error
	TargetErr  error
	RenderErr  error

	bound  map[int]*Texture
	target *RenderTarget
}

var _ gfx.Device = (*Device)(nil)

func NewDevice() *Device {
	return &Device{bound: make(map[int]*Texture)}
}

func (d *Device) CompileProgram(vertexName, fragmentName string) (gfx.Program, error) {
	if d.CompileErr != nil {
		return nil, d.CompileErr
	}
	d.Compiles++
	p := &Program{
		name:     vertexName + "/" + fragmentName,
		matrices: make(map[string]mgl32.Mat4),
		vec4s:    make(map[string]mgl32.Vec4),
		arrays:   make(map[string][]mgl32.Vec4),
	}
	d.Programs = append(d.Programs, p)
	return p, nil
}

func (d *Device) SetViewport(x, y, width, height int) {
	d.Viewport = [4]int{x, y, width, height}
	d.ViewportCalls++
}

func (d *Device) NewMesh(layout gfx.VertexLayout, maxVertices, maxIndices int) (gfx.Mesh, error) {
	m := &Mesh{
		dev:      d,
		layout:   layout,
		vertices: make([]float32, maxVertices*layout.Floats()),
		indices:  make([]uint16, maxIndices),
	}
	d.Meshes = append(d.Meshes, m)
	return m, nil
}

func (d *Device) NewTexture(img image.Image) (gfx.Texture, error) {
	b := img.Bounds()
	return d.NewTestTexture(b.Dx(), b.Dy()), nil
}

// NewTestTexture creates a texture of the given size without pixel data.
func (d *Device) NewTestTexture(width, height int) *Texture {
	t := &Texture{dev: d, id: uuid.NewString(), width: width, height: height}
	d.Textures = append(d.Textures, t)
	return t
}

func (d *Device) NewRenderTarget(width, height int) (gfx.RenderTarget, error) {
	if d.TargetErr != nil {
		return nil, d.TargetErr
	}
	rt := &RenderTarget{dev: d, id: uuid.NewString(), Width: width, Height: height}
	rt.texture = d.NewTestTexture(width, height)
	d.Targets = append(d.Targets, rt)
	return rt, nil
}

func (d *Device) SetBlend(state gfx.BlendState) {
	d.Blend = state
}

// CurrentTarget returns the bound render target, nil for the screen.
func (d *Device) CurrentTarget() *RenderTarget {
	return d.target
}

// DrawsInto returns the draws recorded while the given target was bound.
func (d *Device) DrawsInto(target *RenderTarget) []Draw {
	id := ""
	if target != nil {
		id = target.id
	}
	var res []Draw
	for _, dr := range d.Draws {
		if dr.Target == id {
			res = append(res, dr)
		}
	}
	return res
}

// AllTargetsReleased reports whether every render target created so far
// has been released.
func (d *Device) AllTargetsReleased() bool {
	for _, rt := range d.Targets {
		if !rt.Released {
			return false
		}
	}
	return true
}

type Texture struct {
	dev      *Device
	id       string
	width    int
	height   int
	Released bool
}

func (t *Texture) ID() string  { return t.id }
func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

func (t *Texture) Bind(unit int) {
	t.dev.bound[unit] = t
}

func (t *Texture) Release() {
	t.Released = true
}

type Program struct {
	name     string
	matrices map[string]mgl32.Mat4
	vec4s    map[string]mgl32.Vec4
	arrays   map[string][]mgl32.Vec4

	Active   bool
	Begins   int
	Ends     int
	Released bool
}

func (p *Program) Name() string { return p.name }

func (p *Program) Begin() {
	p.Active = true
	p.Begins++
}

func (p *Program) End() {
	p.Active = false
	p.Ends++
}

func (p *Program) SetUniformMatrix(name string, m mgl32.Mat4) {
	p.matrices[name] = m
}

func (p *Program) SetUniformVec4(name string, v mgl32.Vec4) {
	p.vec4s[name] = v
}

func (p *Program) SetUniformVec4Array(name string, v []mgl32.Vec4) {
	p.arrays[name] = append([]mgl32.Vec4(nil), v...)
}

func (p *Program) Release() {
	p.Released = true
}

type Mesh struct {
	dev      *Device
	layout   gfx.VertexLayout
	vertices []float32
	indices  []uint16

	vertexCount int
	Released    bool
}

func (m *Mesh) SetVertices(vertices []float32, offset, count int) {
	m.vertexCount = copy(m.vertices, vertices[offset:offset+count])
}

func (m *Mesh) SetIndices(indices []uint16, offset, count int) {
	copy(m.indices, indices[offset:offset+count])
}

func (m *Mesh) Render(program gfx.Program, primitive gfx.Primitive, offset, count int) error {
	if m.dev.RenderErr != nil {
		return m.dev.RenderErr
	}
	p, ok := program.(*Program)
	if !ok {
		return fmt.Errorf("gfxtest: foreign program %T", program)
	}
	if !p.Active {
		return fmt.Errorf("gfxtest: program %s used outside Begin/End", p.name)
	}

	draw := Draw{
		Program:   p.name,
		Textures:  make(map[int]string),
		Blend:     m.dev.Blend,
		Primitive: primitive,
		Offset:    offset,
		Count:     count,
		Matrices:  make(map[string]mgl32.Mat4),
		Vec4s:     make(map[string]mgl32.Vec4),
		Arrays:    make(map[string][]mgl32.Vec4),
		Vertices:  append([]float32(nil), m.vertices[:m.vertexCount]...),
		Indices:   append([]uint16(nil), m.indices[offset:offset+count]...),
	}
	if m.dev.target != nil {
		draw.Target = m.dev.target.id
	}
	for unit, t := range m.dev.bound {
		draw.Textures[unit] = t.id
	}
	for k, v := range p.matrices {
		draw.Matrices[k] = v
	}
	for k, v := range p.vec4s {
		draw.Vec4s[k] = v
	}
	for k, v := range p.arrays {
		draw.Arrays[k] = v
	}
	m.dev.Draws = append(m.dev.Draws, draw)
	return nil
}

func (m *Mesh) Release() {
	m.Released = true
}

type RenderTarget struct {
	dev     *Device
	id      string
	texture *Texture

	Width    int
	Height   int
	Begins   int
	Ends     int
	Released bool
}

func (rt *RenderTarget) ID() string { return rt.id }

func (rt *RenderTarget) Begin() {
	rt.Begins++
	rt.dev.target = rt
}

func (rt *RenderTarget) End() {
	rt.Ends++
	if rt.dev.target == rt {
		rt.dev.target = nil
	}
}

func (rt *RenderTarget) ColorTexture() gfx.Texture {
	return rt.texture
}

func (rt *RenderTarget) Release() {
	rt.Released = true
	rt.texture.Release()
}
