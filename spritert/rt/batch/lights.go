package batch

import (
	"github.com/gekko3d/gekko2d/spritert/rt/core"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// lightUniforms converts world-space lights into the pixel space of a
// width x height target rendered with proj. Position xyz goes into the
// first array with the radius in w; the second array holds the color
// premultiplied by intensity.
func lightUniforms(lights []core.Light, proj mgl32.Mat4, width, height float32) (pos, color []mgl32.Vec4) {
	pos = make([]mgl32.Vec4, len(lights))
	color = make([]mgl32.Vec4, len(lights))

	// World units to target pixels along x. The projection is orthographic
	// and uniform, so the same factor serves radius and height.
	pixelsPerUnit := math32.Abs(proj.At(0, 0)) * 0.5 * width

	for i, l := range lights {
		clip := proj.Mul4x1(mgl32.Vec4{l.Position.X(), l.Position.Y(), 0, 1})
		w := clip.W()
		if w == 0 {
			w = 1
		}
		ndcX := clip.X() / w
		ndcY := clip.Y() / w

		pos[i] = mgl32.Vec4{
			(ndcX*0.5 + 0.5) * width,
			(ndcY*0.5 + 0.5) * height,
			l.Position.Z() * pixelsPerUnit,
			l.Radius * pixelsPerUnit,
		}
		c := l.Color.Scale(l.Intensity)
		c.A = 1
		color[i] = c.Vec4()
	}
	return pos, color
}

// chunkCount is the number of composite passes needed for n lights.
func chunkCount(n, limit int) int {
	if n <= 0 {
		return 1
	}
	return (n + limit - 1) / limit
}
