package batch

import (
	"errors"
	"fmt"

	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"github.com/go-gl/mathgl/mgl32"
)

var ErrSingularProjection = errors.New("projection matrix is not invertible")

// Compositor shades the diffuse and surface buffers with the frame's lights
// in a single screen-covering quad. Lights beyond the per-pass limit are
// accumulated additively in further passes.
type Compositor struct {
	device    gfx.Device
	program   gfx.Program
	mesh      gfx.Mesh
	maxLights int

	vertices [FloatsPerQuad]float32
	indices  []uint16
}

func NewCompositor(dev gfx.Device, shaders *gfx.ShaderCache, maxLights int) (*Compositor, error) {
	if maxLights <= 0 || maxLights > gfx.MaxLightsPerPass {
		return nil, fmt.Errorf("max lights per pass %d out of range [1, %d]", maxLights, gfx.MaxLightsPerPass)
	}

	program, err := shaders.Get("light", "light")
	if err != nil {
		return nil, fmt.Errorf("light pass: %w", err)
	}
	mesh, err := dev.NewMesh(gfx.SpriteLayout, VerticesPerQuad, IndicesPerQuad)
	if err != nil {
		return nil, fmt.Errorf("create composite mesh: %w", err)
	}

	return &Compositor{
		device:    dev,
		program:   program,
		mesh:      mesh,
		maxLights: maxLights,
		indices:   quadIndices(1),
	}, nil
}

func (c *Compositor) MaxLights() int { return c.maxLights }

// Render composites diffuse and surface onto the current destination and
// returns the number of draw calls issued. The ambient alpha is ignored: the
// first pass sends alpha 1 and additive passes send a zero ambient, which is
// how the lighting program tells them apart.
func (c *Compositor) Render(ambient core.Color, lights []core.Light, diffuse, surface core.TextureRegion, proj mgl32.Mat4) (int, error) {
	if diffuse.Texture == nil {
		return 0, fmt.Errorf("diffuse buffer: %w", core.ErrTextureNotAssigned)
	}
	if surface.Texture == nil {
		return 0, fmt.Errorf("surface buffer: %w", core.ErrSurfaceNotAssigned)
	}
	if proj.Det() == 0 {
		return 0, ErrSingularProjection
	}

	c.buildScreenQuad(proj.Inv(), diffuse)

	width := float32(diffuse.Texture.Width())
	height := float32(diffuse.Texture.Height())
	positions, colors := lightUniforms(lights, proj, width, height)

	c.program.Begin()
	defer c.program.End()

	c.program.SetUniformMatrix(gfx.UniformProjTrans, proj)
	c.mesh.SetVertices(c.vertices[:], 0, FloatsPerQuad)
	c.mesh.SetIndices(c.indices, 0, IndicesPerQuad)

	chunks := chunkCount(len(lights), c.maxLights)
	calls := 0
	for i := 0; i < chunks; i++ {
		start := i * c.maxLights
		end := min(start+c.maxLights, len(lights))

		diffuse.Texture.Bind(0)
		surface.Texture.Bind(1)

		if i == 0 {
			c.program.SetUniformVec4(gfx.UniformAmbient, mgl32.Vec4{ambient.R, ambient.G, ambient.B, 1})
			c.device.SetBlend(gfx.BlendDisabled)
		} else {
			c.program.SetUniformVec4(gfx.UniformAmbient, mgl32.Vec4{})
			c.device.SetBlend(gfx.BlendAdditive)
		}
		c.program.SetUniformVec4(gfx.UniformResolution, mgl32.Vec4{width, height, float32(end - start), 0})
		c.program.SetUniformVec4Array(gfx.UniformLightPos, positions[start:end])
		c.program.SetUniformVec4Array(gfx.UniformLightColor, colors[start:end])

		if err := c.mesh.Render(c.program, gfx.PrimitiveTriangles, 0, IndicesPerQuad); err != nil {
			return calls, fmt.Errorf("composite pass %d: %w", i, err)
		}
		calls++
	}
	return calls, nil
}

// buildScreenQuad places the quad on the NDC corners, mapped back into world
// space so the lighting program can share the sprite vertex shader.
func (c *Compositor) buildScreenQuad(inv mgl32.Mat4, region core.TextureRegion) {
	corners := [VerticesPerQuad][2]float32{{-1, -1}, {-1, 1}, {1, 1}, {1, -1}}
	uvs := [VerticesPerQuad][2]float32{
		{region.U, region.V2},
		{region.U, region.V},
		{region.U2, region.V},
		{region.U2, region.V2},
	}
	white := core.White.ToFloatBits()

	for i, ndc := range corners {
		world := inv.Mul4x1(mgl32.Vec4{ndc[0], ndc[1], 0, 1})
		if w := world.W(); w != 0 && w != 1 {
			world = world.Mul(1 / w)
		}
		o := i * FloatsPerVertex
		c.vertices[o] = world.X()
		c.vertices[o+1] = world.Y()
		c.vertices[o+2] = 0
		c.vertices[o+3] = white
		c.vertices[o+4] = uvs[i][0]
		c.vertices[o+5] = uvs[i][1]
	}
}

func (c *Compositor) Dispose() {
	c.mesh.Release()
}
