package config

import "sort"

var Presets = map[string]*Config{
	"small": {
		Iterations: 8, Resolution: 64, Density: DefaultDensity, TickMs: DefaultTickMs,
		Canvas: CanvasConfig{Width: 256, Height: 256}, WarmupSteps: DefaultWarmupSteps, Theme: DefaultTheme,
	},
	"default": DefaultConfig(),
	"fine": {
		Iterations: 20, Resolution: 256, Density: DefaultDensity, TickMs: 16,
		Canvas: CanvasConfig{Width: 768, Height: 768}, WarmupSteps: DefaultWarmupSteps, Theme: "minimal",
	},
	"syrup": {
		Viscosity: 0.0005, Iterations: 20, Resolution: 128, Density: DefaultDensity, TickMs: DefaultTickMs,
		Canvas: CanvasConfig{Width: 512, Height: 512}, WarmupSteps: DefaultWarmupSteps, Theme: "retro",
	},
	"ink": {
		Diffusion: 0.00005, Iterations: 16, Resolution: 128, Density: 40, TickMs: DefaultTickMs,
		Canvas: CanvasConfig{Width: 512, Height: 512}, WarmupSteps: DefaultWarmupSteps, Theme: "ocean",
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
