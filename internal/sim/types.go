package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/fluidpaint/internal/dynamo"
)

const (
	DefaultTickPeriod = 10 * time.Millisecond
	DefaultDensity    = 90.0
)

// Params are the solver and injection parameters a control panel can change.
type Params struct {
	Viscosity  float64
	Diffusion  float64
	Iterations int
	Resolution int
	Density    float64
}

type Config struct {
	Params
	Canvas     dynamo.Size
	TickPeriod time.Duration
}

func (c Config) Validate() error {
	if c.Resolution <= 0 {
		return fmt.Errorf("resolution %d: %w", c.Resolution, dynamo.ErrInvalidResolution)
	}
	if c.Canvas.W <= 0 || c.Canvas.H <= 0 {
		return fmt.Errorf("canvas %dx%d must be positive: %w", c.Canvas.W, c.Canvas.H, dynamo.ErrParameterBounds)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations %d must be at least 1: %w", c.Iterations, dynamo.ErrParameterBounds)
	}
	if c.Viscosity < 0 || c.Diffusion < 0 {
		return fmt.Errorf("viscosity and diffusion must be non-negative: %w", dynamo.ErrParameterBounds)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period %s must be positive: %w", c.TickPeriod, dynamo.ErrParameterBounds)
	}
	return nil
}

// Gesture is the pointer state in display pixels. Positions keep their last
// values after release until the next press.
type Gesture struct {
	Start, Current dynamo.Point
	Active         bool
}

// Scheduler fires ticks at a fixed period once started.
type Scheduler interface {
	Start(period time.Duration)
	Stop()
	Running() bool
}

// Observer is notified after every tick with the rendered grid and the
// number of impulses the tick injected.
type Observer interface {
	OnTick(grid dynamo.DensityGrid, impulses int)
}
