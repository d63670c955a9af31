package gekko2d

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gekko3d/gekko2d/spritert/rt/batch"
	"github.com/gekko3d/gekko2d/spritert/rt/core"
	"github.com/gekko3d/gekko2d/spritert/rt/gfx"

	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Config holds renderer settings. Missing keys keep their DefaultConfig value.
type Config struct {
	VirtualWidth     float32      `yaml:"virtual_width"`
	VirtualHeight    float32      `yaml:"virtual_height"`
	MaxBufferedQuads int          `yaml:"max_buffered_quads"`
	MaxLightsPerPass int          `yaml:"max_lights_per_pass"`
	Ambient          [4]float32   `yaml:"ambient"` // rgba
	Debug            bool         `yaml:"debug"`
	Window           WindowConfig `yaml:"window"`
}

func DefaultConfig() Config {
	return Config{
		VirtualWidth:     320,
		VirtualHeight:    180,
		MaxBufferedQuads: batch.DefaultMaxBufferedQuads,
		MaxLightsPerPass: gfx.MaxLightsPerPass,
		Ambient:          [4]float32{0.15, 0.15, 0.2, 1},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			Title:  "gekko2d",
		},
	}
}

// ParseConfig reads YAML over the defaults. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.VirtualWidth <= 0 || c.VirtualHeight <= 0 {
		return fmt.Errorf("%w: virtual resolution %gx%g must be positive", ErrInvalidConfig, c.VirtualWidth, c.VirtualHeight)
	}
	if c.MaxBufferedQuads < 1 || c.MaxBufferedQuads > batch.MaxBufferedQuadsLimit {
		return fmt.Errorf("%w: max_buffered_quads %d not in [1, %d]", ErrInvalidConfig, c.MaxBufferedQuads, batch.MaxBufferedQuadsLimit)
	}
	if c.MaxLightsPerPass < 1 || c.MaxLightsPerPass > gfx.MaxLightsPerPass {
		return fmt.Errorf("%w: max_lights_per_pass %d not in [1, %d]", ErrInvalidConfig, c.MaxLightsPerPass, gfx.MaxLightsPerPass)
	}
	if c.Window.Width < 0 || c.Window.Height < 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	}
	return nil
}

func (c Config) AmbientColor() core.Color {
	return core.NewColor(c.Ambient[0], c.Ambient[1], c.Ambient[2], c.Ambient[3])
}
