package gfx

import (
	"fmt"
	"sync"
)

type programKey struct {
	vertex   string
	fragment string
}

// ShaderCache compiles programs on first request and hands out the same
// program for every later request with the same stage names. Programs live
// until Dispose.
type ShaderCache struct {
	mu       sync.Mutex
	compiler Compiler
	programs map[programKey]Program
}

func NewShaderCache(compiler Compiler) *ShaderCache {
	return &ShaderCache{
		compiler: compiler,
		programs: make(map[programKey]Program),
	}
}

func (c *ShaderCache) Get(vertexName, fragmentName string) (Program, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.programs == nil {
		return nil, fmt.Errorf("shader cache disposed")
	}

	key := programKey{vertex: vertexName, fragment: fragmentName}
	if p, ok := c.programs[key]; ok {
		return p, nil
	}

	p, err := c.compiler.CompileProgram(vertexName, fragmentName)
	if err != nil {
		return nil, fmt.Errorf("compile program %s/%s: %w", vertexName, fragmentName, err)
	}
	c.programs[key] = p
	return p, nil
}

// Len reports the number of compiled programs.
func (c *ShaderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.programs)
}

// Dispose releases every compiled program. The cache cannot be used afterwards.
func (c *ShaderCache) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, p := range c.programs {
		p.Release()
	}
	c.programs = nil
}
