package gpu

import (
	"unsafe"

	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

type Texture struct {
	dev     *Device
	id      string
	texture *wgpu.Texture
	view    *wgpu.TextureView
	width   int
	height  int
}

func newTexture(d *Device, t *wgpu.Texture, view *wgpu.TextureView, w, h int) *Texture {
	return &Texture{dev: d, id: uuid.NewString(), texture: t, view: view, width: w, height: h}
}

func (t *Texture) ID() string  { return t.id }
func (t *Texture) Width() int  { return t.width }
func (t *Texture) Height() int { return t.height }

func (t *Texture) Bind(unit int) {
	if unit >= 0 && unit < len(t.dev.bound) {
		t.dev.bound[unit] = t
	}
}

func (t *Texture) Release() {
	t.dev.unbind(t)
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}

// Program holds the CPU copy of the uniform block; it is uploaded right
// before each draw that uses the program.
type Program struct {
	vertex    string
	fragment  string
	uniforms  uniformBlock
	buffer    *wgpu.Buffer
	bindGroup *wgpu.BindGroup
	active    bool
}

func (p *Program) Name() string { return p.vertex + "/" + p.fragment }

func (p *Program) Begin() { p.active = true }
func (p *Program) End()   { p.active = false }

func (p *Program) SetUniformMatrix(name string, m mgl32.Mat4) {
	p.uniforms.setMatrix(name, m)
}

func (p *Program) SetUniformVec4(name string, v mgl32.Vec4) {
	p.uniforms.setVec4(name, v)
}

func (p *Program) SetUniformVec4Array(name string, v []mgl32.Vec4) {
	p.uniforms.setVec4Array(name, v)
}

func (p *Program) Release() {
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.buffer != nil {
		p.buffer.Release()
		p.buffer = nil
	}
}

type Mesh struct {
	dev       *Device
	layout    gfx.VertexLayout
	vertexBuf *wgpu.Buffer
	indexBuf  *wgpu.Buffer
}

func (m *Mesh) SetVertices(vertices []float32, offset, count int) {
	if count == 0 {
		return
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&vertices[offset])), count*4)
	m.dev.queue.WriteBuffer(m.vertexBuf, 0, data)
}

// SetIndices uploads the indices; an odd count is padded with one zero
// index to keep the write 4-byte aligned.
func (m *Mesh) SetIndices(indices []uint16, offset, count int) {
	if count == 0 {
		return
	}
	src := indices[offset : offset+count]
	if count%2 != 0 {
		src = append(append(make([]uint16, 0, count+1), src...), 0)
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&src[0])), len(src)*2)
	m.dev.queue.WriteBuffer(m.indexBuf, 0, data)
}

func (m *Mesh) Render(program gfx.Program, primitive gfx.Primitive, offset, count int) error {
	p, ok := program.(*Program)
	if !ok {
		return errForeignProgram(program)
	}
	return m.dev.draw(m, p, primitive, offset, count)
}

func (m *Mesh) Release() {
	if m.vertexBuf != nil {
		m.vertexBuf.Release()
		m.vertexBuf = nil
	}
	if m.indexBuf != nil {
		m.indexBuf.Release()
		m.indexBuf = nil
	}
}

// RenderTarget is an offscreen RGBA8 color buffer. Draws into it are
// flipped vertically in clip space so row 0 holds the bottom of the scene.
type RenderTarget struct {
	dev     *Device
	texture *Texture
	cleared bool
}

func (rt *RenderTarget) Begin() {
	rt.dev.target = rt
	rt.cleared = false
}

func (rt *RenderTarget) End() {
	if rt.dev.target == rt {
		rt.dev.target = nil
	}
}

func (rt *RenderTarget) ColorTexture() gfx.Texture {
	return rt.texture
}

func (rt *RenderTarget) Release() {
	rt.End()
	rt.texture.Release()
}
