package core

import "github.com/go-gl/mathgl/mgl32"

// DefaultLightHeight keeps point lights above the sprite plane so flat
// surfaces still receive light.
const DefaultLightHeight = 48

// Light is a point light in world space. Position Z is its height above the
// sprite plane; Radius is the distance at which it fades out completely.
type Light struct {
	Position  mgl32.Vec3
	Radius    float32
	Color     Color
	Intensity float32
}

func NewPointLight(x, y, radius float32, color Color) Light {
	return Light{
		Position:  mgl32.Vec3{x, y, DefaultLightHeight},
		Radius:    radius,
		Color:     color,
		Intensity: 1,
	}
}
