package control

import (
	"fmt"

	"github.com/san-kum/fluidpaint/internal/sim"
)

type Action int

const (
	ActionNone Action = iota
	ActionViscosityUp
	ActionViscosityDown
	ActionDiffusionUp
	ActionDiffusionDown
	ActionIterationsUp
	ActionIterationsDown
	ActionResolutionUp
	ActionResolutionDown
	ActionDensityUp
	ActionDensityDown
	ActionClear
)

const (
	MinResolution = 16
	MaxResolution = 512
	MaxIterations = 100
	DensityStep   = 10.0

	// rateFloor is the first non-zero value when stepping a rate up from 0.
	rateFloor = 1e-6
)

var Bindings = map[string]Action{
	"v": ActionViscosityUp,
	"V": ActionViscosityDown,
	"d": ActionDiffusionUp,
	"D": ActionDiffusionDown,
	"i": ActionIterationsUp,
	"I": ActionIterationsDown,
	"r": ActionResolutionUp,
	"R": ActionResolutionDown,
	"m": ActionDensityUp,
	"M": ActionDensityDown,
	"c": ActionClear,
}

func Lookup(key string) Action { return Bindings[key] }

func rateUp(v float64) float64 {
	if v < rateFloor {
		return rateFloor
	}
	return v * 2
}

func rateDown(v float64) float64 {
	if v/2 < rateFloor {
		return 0
	}
	return v / 2
}

// Apply performs a on c and returns a short status line.
func Apply(c *sim.Controller, a Action) (string, error) {
	p := c.Params()
	switch a {
	case ActionViscosityUp, ActionViscosityDown:
		v := rateUp(p.Viscosity)
		if a == ActionViscosityDown {
			v = rateDown(p.Viscosity)
		}
		return fmt.Sprintf("viscosity %.2g", v), c.SetViscosity(v)
	case ActionDiffusionUp, ActionDiffusionDown:
		v := rateUp(p.Diffusion)
		if a == ActionDiffusionDown {
			v = rateDown(p.Diffusion)
		}
		return fmt.Sprintf("diffusion %.2g", v), c.SetDiffusion(v)
	case ActionIterationsUp:
		n := min(p.Iterations+1, MaxIterations)
		return fmt.Sprintf("iterations %d", n), c.SetIterations(n)
	case ActionIterationsDown:
		n := max(p.Iterations-1, 1)
		return fmt.Sprintf("iterations %d", n), c.SetIterations(n)
	case ActionResolutionUp:
		n := min(p.Resolution*2, MaxResolution)
		return fmt.Sprintf("resolution %d", n), c.OnResolutionChange(n)
	case ActionResolutionDown:
		n := max(p.Resolution/2, MinResolution)
		return fmt.Sprintf("resolution %d", n), c.OnResolutionChange(n)
	case ActionDensityUp:
		c.SetDensity(p.Density + DensityStep)
		return fmt.Sprintf("density %.0f", p.Density+DensityStep), nil
	case ActionDensityDown:
		d := max(p.Density-DensityStep, 0)
		c.SetDensity(d)
		return fmt.Sprintf("density %.0f", d), nil
	case ActionClear:
		return "cleared", c.OnResolutionChange(p.Resolution)
	}
	return "", nil
}
