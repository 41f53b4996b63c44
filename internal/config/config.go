package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/san-kum/fluidpaint/internal/sim"
)

const (
	DefaultIterations   = 16
	DefaultResolution   = 128
	DefaultDensity      = 90.0
	DefaultTickMs       = 10
	DefaultCanvasWidth  = 512
	DefaultCanvasHeight = 512
	DefaultWarmupSteps  = 20
	DefaultTheme        = "cyberpunk"

	// DefaultFileName lives in the user's home directory.
	DefaultFileName = ".fluidpaint.yaml"
)

type Config struct {
	Viscosity     float64      `yaml:"viscosity" toml:"viscosity"`
	Diffusion     float64      `yaml:"diffusion" toml:"diffusion"`
	Iterations    int          `yaml:"iterations" toml:"iterations"`
	Resolution    int          `yaml:"resolution" toml:"resolution"`
	Density       float64      `yaml:"density" toml:"density"`
	TickMs        int          `yaml:"tick_ms" toml:"tick_ms"`
	Canvas        CanvasConfig `yaml:"canvas" toml:"canvas"`
	PauseWhenIdle bool         `yaml:"pause_when_idle" toml:"pause_when_idle"`
	WarmupSteps   int          `yaml:"warmup_steps" toml:"warmup_steps"`
	Theme         string       `yaml:"theme" toml:"theme"`
}

// CanvasConfig is the display size, in pixels, that pointer positions are
// measured against.
type CanvasConfig struct {
	Width  int `yaml:"width" toml:"width"`
	Height int `yaml:"height" toml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Iterations:  DefaultIterations,
		Resolution:  DefaultResolution,
		Density:     DefaultDensity,
		TickMs:      DefaultTickMs,
		Canvas:      CanvasConfig{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight},
		WarmupSteps: DefaultWarmupSteps,
		Theme:       DefaultTheme,
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML file, or TOML when the extension is .toml. Missing keys
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultPath returns ~/.fluidpaint.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultFileName), nil
}

// Resolve loads path, or the default path when path is empty. A missing
// default file yields DefaultConfig; a missing explicit file is an error.
func Resolve(path string) (*Config, string, error) {
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return nil, "", err
		}
		cfg, err := Load(expanded)
		return cfg, expanded, err
	}

	def, err := DefaultPath()
	if err != nil {
		return DefaultConfig(), "", nil
	}
	cfg, err := Load(def)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return cfg, def, nil
}

func (c *Config) Validate() error {
	if c.WarmupSteps < 0 {
		return fmt.Errorf("warmup_steps %d: %w", c.WarmupSteps, dynamo.ErrParameterBounds)
	}
	return c.SimConfig().Validate()
}

func (c *Config) Params() sim.Params {
	return sim.Params{
		Viscosity:  c.Viscosity,
		Diffusion:  c.Diffusion,
		Iterations: c.Iterations,
		Resolution: c.Resolution,
		Density:    c.Density,
	}
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Params:     c.Params(),
		Canvas:     dynamo.Size{W: c.Canvas.Width, H: c.Canvas.Height},
		TickPeriod: time.Duration(c.TickMs) * time.Millisecond,
	}
}
