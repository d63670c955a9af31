package shaders

import (
	_ "embed"
	"errors"
	"fmt"
)

var ErrUnknownShader = errors.New("unknown shader")

//go:embed sprite_vs.wgsl
var SpriteVertexWGSL string

//go:embed sprite_fs.wgsl
var SpriteFragmentWGSL string

//go:embed surface_fs.wgsl
var SurfaceFragmentWGSL string

//go:embed light_vs.wgsl
var LightVertexWGSL string

//go:embed light_fs.wgsl
var LightFragmentWGSL string

var vertex = map[string]string{
	"sprite": SpriteVertexWGSL,
	"light":  LightVertexWGSL,
}

var fragment = map[string]string{
	"sprite":  SpriteFragmentWGSL,
	"surface": SurfaceFragmentWGSL,
	"light":   LightFragmentWGSL,
}

// Vertex returns the WGSL source of a vertex stage. The entry point is vs_main.
func Vertex(name string) (string, error) {
	src, ok := vertex[name]
	if !ok {
		return "", fmt.Errorf("vertex stage %q: %w", name, ErrUnknownShader)
	}
	return src, nil
}

// Fragment returns the WGSL source of a fragment stage. The entry point is fs_main.
func Fragment(name string) (string, error) {
	src, ok := fragment[name]
	if !ok {
		return "", fmt.Errorf("fragment stage %q: %w", name, ErrUnknownShader)
	}
	return src, nil
}
