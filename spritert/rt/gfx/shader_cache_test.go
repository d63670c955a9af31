package gfx

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProgram struct {
	name     string
	released bool
}

func (p *stubProgram) Name() string                                    { return p.name }
func (p *stubProgram) Begin()                                          {}
func (p *stubProgram) End()                                            {}
func (p *stubProgram) SetUniformMatrix(name string, m mgl32.Mat4)      {}
func (p *stubProgram) SetUniformVec4(name string, v mgl32.Vec4)        {}
func (p *stubProgram) SetUniformVec4Array(name string, v []mgl32.Vec4) {}
func (p *stubProgram) Release()                                        { p.released = true }

type stubCompiler struct {
	calls    int
	err      error
	programs []*stubProgram
}

func (c *stubCompiler) CompileProgram(vertexName, fragmentName string) (Program, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	p := &stubProgram{name: vertexName + "/" + fragmentName}
	c.programs = append(c.programs, p)
	return p, nil
}

func TestShaderCache_CompilesOncePerKey(t *testing.T) {
	compiler := &stubCompiler{}
	cache := NewShaderCache(compiler)

	assert.Equal(t, 0, compiler.calls, "nothing compiles before the first lookup")

	a, err := cache.Get("sprite", "sprite")
	require.NoError(t, err)
	b, err := cache.Get("sprite", "sprite")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, compiler.calls)

	c, err := cache.Get("sprite", "surface")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, "sprite/surface", c.Name())
	assert.Equal(t, 2, cache.Len())
}

func TestShaderCache_CompileError(t *testing.T) {
	boom := errors.New("boom")
	cache := NewShaderCache(&stubCompiler{err: boom})

	_, err := cache.Get("light", "light")
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "light/light")
	assert.Equal(t, 0, cache.Len())
}

func TestShaderCache_DisposeReleasesPrograms(t *testing.T) {
	compiler := &stubCompiler{}
	cache := NewShaderCache(compiler)
	_, _ = cache.Get("sprite", "sprite")
	_, _ = cache.Get("light", "light")

	cache.Dispose()

	for _, p := range compiler.programs {
		assert.True(t, p.released, p.name)
	}
	_, err := cache.Get("sprite", "sprite")
	assert.Error(t, err)
}
