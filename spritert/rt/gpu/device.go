package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gekko3d/gekko2d/spritert/rt/gfx"
	"github.com/gekko3d/gekko2d/spritert/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

// OffscreenFormat is the color format of every render target.
const OffscreenFormat = wgpu.TextureFormatRGBA8Unorm

var ErrNoFrame = errors.New("no frame in progress")

type pipelineKey struct {
	vertex    string
	fragment  string
	blend     gfx.BlendState
	primitive gfx.Primitive
	format    wgpu.TextureFormat
}

// Device implements gfx.Device on top of WebGPU. Every Mesh.Render call is
// recorded into its own command buffer and submitted immediately, so queue
// writes issued between draws land in order.
type Device struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	screenFormat wgpu.TextureFormat
	sampler      *wgpu.Sampler

	uniformLayout  *wgpu.BindGroupLayout
	textureLayout  *wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout

	modules   map[string]*wgpu.ShaderModule
	pipelines map[pipelineKey]*wgpu.RenderPipeline

	blend    gfx.BlendState
	bound    [2]*Texture
	target   *RenderTarget
	viewport [4]int
	hasView  bool

	screen        *wgpu.TextureView
	screenCleared bool

	// ClearColor fills the screen before the first draw of a frame.
	ClearColor wgpu.Color
}

var _ gfx.Device = (*Device)(nil)

func NewDevice(device *wgpu.Device, screenFormat wgpu.TextureFormat) (*Device, error) {
	d := &Device{
		device:       device,
		queue:        device.GetQueue(),
		screenFormat: screenFormat,
		modules:      make(map[string]*wgpu.ShaderModule),
		pipelines:    make(map[pipelineKey]*wgpu.RenderPipeline),
		ClearColor:   wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}

	var err error
	d.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MinFilter:     wgpu.FilterModeNearest,
		MagFilter:     wgpu.FilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}

	d.uniformLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "SpriteUniformBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uniformBlockSize,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform layout: %w", err)
	}

	textureEntry := func(binding uint32) wgpu.BindGroupLayoutEntry {
		return wgpu.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: wgpu.ShaderStageFragment,
			Texture: wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			},
		}
	}
	d.textureLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "SpriteTextureBGL",
		Entries: []wgpu.BindGroupLayoutEntry{
			textureEntry(0),
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
			},
			textureEntry(2),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create texture layout: %w", err)
	}

	d.pipelineLayout, err = device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "SpritePipelineLayout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{d.uniformLayout, d.textureLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout: %w", err)
	}

	return d, nil
}

// BeginFrame directs screen draws to view until EndFrame.
func (d *Device) BeginFrame(view *wgpu.TextureView) {
	d.screen = view
	d.screenCleared = false
}

// EndFrame clears the screen if nothing was drawn to it this frame.
func (d *Device) EndFrame() error {
	if d.screen == nil {
		return ErrNoFrame
	}
	defer func() { d.screen = nil }()

	if d.screenCleared {
		return nil
	}
	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       d.screen,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: d.ClearColor,
		}},
	})
	if err := pass.End(); err != nil {
		return err
	}
	return d.submit(encoder)
}

func (d *Device) SetBlend(state gfx.BlendState) {
	d.blend = state
}

// SetViewport applies to draws on the screen only; render targets are
// always drawn in full.
func (d *Device) SetViewport(x, y, width, height int) {
	d.viewport = [4]int{x, y, width, height}
	d.hasView = width > 0 && height > 0
}

func (d *Device) module(stage, name string) (*wgpu.ShaderModule, error) {
	key := stage + ":" + name
	if m, ok := d.modules[key]; ok {
		return m, nil
	}

	var src string
	var err error
	if stage == "vs" {
		src, err = shaders.Vertex(name)
	} else {
		src, err = shaders.Fragment(name)
	}
	if err != nil {
		return nil, err
	}

	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: src},
	})
	if err != nil {
		return nil, err
	}
	d.modules[key] = m
	return m, nil
}

func (d *Device) CompileProgram(vertexName, fragmentName string) (gfx.Program, error) {
	if _, err := d.module("vs", vertexName); err != nil {
		return nil, err
	}
	if _, err := d.module("fs", fragmentName); err != nil {
		return nil, err
	}

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: vertexName + "/" + fragmentName + " UB",
		Size:  uniformBlockSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create uniform buffer: %w", err)
	}

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: d.uniformLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: uniformBlockSize},
		},
	})
	if err != nil {
		buf.Release()
		return nil, fmt.Errorf("create uniform bind group: %w", err)
	}

	return &Program{
		vertex:    vertexName,
		fragment:  fragmentName,
		buffer:    buf,
		bindGroup: bg,
	}, nil
}

func (d *Device) pipeline(p *Program, primitive gfx.Primitive, format wgpu.TextureFormat, layout gfx.VertexLayout) (*wgpu.RenderPipeline, error) {
	key := pipelineKey{
		vertex:    p.vertex,
		fragment:  p.fragment,
		blend:     d.blend,
		primitive: primitive,
		format:    format,
	}
	if pl, ok := d.pipelines[key]; ok {
		return pl, nil
	}

	vs, err := d.module("vs", p.vertex)
	if err != nil {
		return nil, err
	}
	fs, err := d.module("fs", p.fragment)
	if err != nil {
		return nil, err
	}

	pl, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Name(),
		Layout: d.pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexBufferLayout(layout)},
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				Blend:     blendState(d.blend),
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  topology(primitive),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline %s: %w", p.Name(), err)
	}
	d.pipelines[key] = pl
	return pl, nil
}

func (d *Device) NewMesh(layout gfx.VertexLayout, maxVertices, maxIndices int) (gfx.Mesh, error) {
	vb, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Sprite VB",
		Size:  align4(uint64(maxVertices) * layout.Stride),
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex buffer: %w", err)
	}
	ib, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Sprite IB",
		Size:  align4(uint64(maxIndices) * 2),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		vb.Release()
		return nil, fmt.Errorf("create index buffer: %w", err)
	}
	return &Mesh{dev: d, layout: layout, vertexBuf: vb, indexBuf: ib}, nil
}

func (d *Device) NewTexture(img image.Image) (gfx.Texture, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}

	tex, err := d.createTexture("Sprite Texture", w, h, wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return nil, err
	}
	d.queue.WriteTexture(tex.texture.AsImageCopy(), rgbaPixels(img), &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(w * 4),
		RowsPerImage: uint32(h),
	}, &wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1})
	return tex, nil
}

func (d *Device) NewRenderTarget(width, height int) (gfx.RenderTarget, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render target size %dx%d must be positive", width, height)
	}
	tex, err := d.createTexture("Render Target", width, height,
		wgpu.TextureUsageRenderAttachment|wgpu.TextureUsageTextureBinding)
	if err != nil {
		return nil, err
	}
	return &RenderTarget{dev: d, texture: tex}, nil
}

func (d *Device) createTexture(label string, w, h int, usage wgpu.TextureUsage) (*Texture, error) {
	t, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        OffscreenFormat,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := t.CreateView(nil)
	if err != nil {
		t.Release()
		return nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return newTexture(d, t, view, w, h), nil
}

// draw records and submits one indexed draw.
func (d *Device) draw(m *Mesh, p *Program, primitive gfx.Primitive, offset, count int) error {
	if !p.active {
		return fmt.Errorf("program %s used outside Begin/End", p.Name())
	}
	if d.bound[0] == nil {
		return errors.New("no texture bound to unit 0")
	}

	view := d.screen
	format := d.screenFormat
	load := wgpu.LoadOpLoad
	if d.target != nil {
		view = d.target.texture.view
		format = OffscreenFormat
		if !d.target.cleared {
			load = wgpu.LoadOpClear
			d.target.cleared = true
		}
	} else {
		if view == nil {
			return ErrNoFrame
		}
		if !d.screenCleared {
			load = wgpu.LoadOpClear
			d.screenCleared = true
		}
	}

	pipeline, err := d.pipeline(p, primitive, format, m.layout)
	if err != nil {
		return err
	}

	p.uniforms.setFlipY(d.target != nil)
	d.queue.WriteBuffer(p.buffer, 0, p.uniforms[:])

	second := d.bound[1]
	if second == nil {
		second = d.bound[0]
	}
	textures, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: d.textureLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: d.bound[0].view},
			{Binding: 1, Sampler: d.sampler},
			{Binding: 2, TextureView: second.view},
		},
	})
	if err != nil {
		return fmt.Errorf("create texture bind group: %w", err)
	}
	defer textures.Release()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	clear := wgpu.Color{}
	if d.target == nil {
		clear = d.ClearColor
	}
	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     load,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clear,
		}},
	})
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, p.bindGroup, nil)
	pass.SetBindGroup(1, textures, nil)
	pass.SetVertexBuffer(0, m.vertexBuf, 0, m.vertexBuf.GetSize())
	pass.SetIndexBuffer(m.indexBuf, wgpu.IndexFormatUint16, 0, m.indexBuf.GetSize())
	if d.target == nil && d.hasView {
		v := d.viewport
		pass.SetViewport(float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3]), 0, 1)
	}
	pass.DrawIndexed(uint32(count), 1, uint32(offset), 0, 0)
	if err := pass.End(); err != nil {
		return err
	}
	return d.submit(encoder)
}

func (d *Device) submit(encoder *wgpu.CommandEncoder) error {
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer cmd.Release()
	d.queue.Submit(cmd)
	return nil
}

func (d *Device) unbind(t *Texture) {
	for i, b := range d.bound {
		if b == t {
			d.bound[i] = nil
		}
	}
}

// Release frees cached pipelines, shader modules and layouts.
func (d *Device) Release() {
	for k, p := range d.pipelines {
		p.Release()
		delete(d.pipelines, k)
	}
	for k, m := range d.modules {
		m.Release()
		delete(d.modules, k)
	}
	if d.pipelineLayout != nil {
		d.pipelineLayout.Release()
	}
	if d.textureLayout != nil {
		d.textureLayout.Release()
	}
	if d.uniformLayout != nil {
		d.uniformLayout.Release()
	}
	if d.sampler != nil {
		d.sampler.Release()
	}
}

func align4(n uint64) uint64 {
	if n%4 != 0 {
		n += 4 - n%4
	}
	return n
}

func errForeignProgram(p gfx.Program) error {
	return fmt.Errorf("program %T was not created by this device", p)
}
