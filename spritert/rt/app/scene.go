package app

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gekko3d/gekko2d/spritert/rt/batch"
	"github.com/gekko3d/gekko2d/spritert/rt/core"

	"github.com/chewxy/math32"
)

const tileSize = 16

// Scene is the demo content: a tiled floor with a generated normal map, a
// few spinning crates and lights orbiting the center of the view.
type Scene struct {
	Drawables []*core.Drawable
	Lights    []core.Light

	crates []*core.Drawable
	orbits []orbit
	time   float32
}

type orbit struct {
	cx, cy, radius, speed, phase float32
}

// NewScene builds the demo for a virtual resolution of width x height.
func NewScene(dev core.TextureCreator, width, height float32) (*Scene, error) {
	floor, err := dev.NewTexture(checkerImage(tileSize))
	if err != nil {
		return nil, fmt.Errorf("floor texture: %w", err)
	}
	bumps, err := dev.NewTexture(bumpNormalImage(tileSize))
	if err != nil {
		return nil, fmt.Errorf("floor normals: %w", err)
	}
	crate, err := dev.NewTexture(crateImage(tileSize))
	if err != nil {
		return nil, fmt.Errorf("crate texture: %w", err)
	}

	s := &Scene{}
	for y := float32(0); y < height; y += tileSize {
		for x := float32(0); x < width; x += tileSize {
			d := core.NewSprite(core.NewTextureRegion(floor), x, y)
			d.AnchorX, d.AnchorY = 0, 0
			d.SetSurfaceTexture(core.NewTextureRegion(bumps))
			s.Drawables = append(s.Drawables, d)
		}
	}

	for i := 0; i < 5; i++ {
		d := core.NewSprite(core.NewTextureRegion(crate), width*float32(i+1)/6, height/2)
		d.Z = 1
		d.ScaleX, d.ScaleY = 1.5, 1.5
		s.crates = append(s.crates, d)
		s.Drawables = append(s.Drawables, d)
	}

	cx, cy := width/2, height/2
	palette := []core.Color{
		core.NewColor(1, 0.6, 0.3, 1),
		core.NewColor(0.3, 0.6, 1, 1),
		core.NewColor(0.5, 1, 0.4, 1),
	}
	for i, c := range palette {
		o := orbit{cx: cx, cy: cy, radius: height * 0.35, speed: 0.6 + 0.3*float32(i), phase: 2 * math32.Pi * float32(i) / 3}
		s.orbits = append(s.orbits, o)
		s.Lights = append(s.Lights, core.NewPointLight(0, 0, height*0.6, c))
	}
	s.Update(0)
	return s, nil
}

// Update advances the animation by dt seconds.
func (s *Scene) Update(dt float32) {
	s.time += dt
	for i, o := range s.orbits {
		angle := o.phase + o.speed*s.time
		s.Lights[i].Position[0] = o.cx + o.radius*math32.Cos(angle)
		s.Lights[i].Position[1] = o.cy + o.radius*math32.Sin(angle)
	}
	for i, c := range s.crates {
		c.Rotation = batch.NormalizeRotation(c.Rotation + dt*float32(20+10*i))
	}
}

func checkerImage(size int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{150, 140, 120, 255}
			if (x < half) != (y < half) {
				c = color.NRGBA{110, 105, 95, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// bumpNormalImage encodes a rounded dome per tile as a tangent-space normal
// map.
func bumpNormalImage(size int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	center := float32(size-1) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			nx := (float32(x) - center) / center
			// Image rows go down, world y goes up.
			ny := (center - float32(y)) / center
			nz := math32.Sqrt(math32.Max(0, 1-nx*nx*0.5-ny*ny*0.5))
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((nx*0.5*0.7 + 0.5) * 255),
				G: uint8((ny*0.5*0.7 + 0.5) * 255),
				B: uint8((nz*0.5 + 0.5) * 255),
				A: 255,
			})
		}
	}
	return img
}

func crateImage(size int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := color.NRGBA{170, 110, 60, 255}
			if x == 0 || y == 0 || x == size-1 || y == size-1 || x == y || x == size-1-y {
				c = color.NRGBA{90, 55, 30, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
