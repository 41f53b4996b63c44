package automation

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/san-kum/fluidpaint/internal/sim"
)

// Step actions.
const (
	ActionPress   = "press"
	ActionMove    = "move"
	ActionRelease = "release"
	ActionDrag    = "drag"
	ActionTick    = "tick"
	ActionSet     = "set"
)

// Scenario is a scripted gesture sequence.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is a single scripted action. At and To are canvas pixels. A drag
// presses at At, moves to To in Ticks equal increments with one tick each,
// then releases.
type Step struct {
	Action string             `yaml:"action"`
	At     []float64          `yaml:"at,omitempty"`
	To     []float64          `yaml:"to,omitempty"`
	Ticks  int                `yaml:"ticks,omitempty"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// Result summarises a scenario run.
type Result struct {
	Ticks    int
	Impulses int
}

// Line returns a scenario that drags from a to b over dragTicks ticks and
// then lets the fluid settle until total ticks have run.
func Line(a, b dynamo.Point, dragTicks, total int) *Scenario {
	sc := &Scenario{
		Name: "line",
		Steps: []Step{{
			Action: ActionDrag,
			At:     []float64{a.X, a.Y},
			To:     []float64{b.X, b.Y},
			Ticks:  dragTicks,
		}},
	}
	if rest := total - dragTicks; rest > 0 {
		sc.Steps = append(sc.Steps, Step{Action: ActionTick, Ticks: rest})
	}
	return sc
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) Validate() error {
	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (st Step) validate() error {
	switch st.Action {
	case ActionPress, ActionMove:
		if len(st.At) != 2 {
			return fmt.Errorf("%s needs at: [x, y]", st.Action)
		}
	case ActionDrag:
		if len(st.At) != 2 || len(st.To) != 2 {
			return fmt.Errorf("drag needs at and to")
		}
		if st.Ticks < 1 {
			return fmt.Errorf("drag needs ticks >= 1")
		}
	case ActionTick:
		if st.Ticks < 0 {
			return fmt.Errorf("tick count %d is negative", st.Ticks)
		}
	case ActionSet:
		for name := range st.Params {
			if !knownParam(name) {
				return fmt.Errorf("unknown parameter %q", name)
			}
		}
	case ActionRelease:
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

func point(xy []float64) dynamo.Point { return dynamo.Point{X: xy[0], Y: xy[1]} }

// RunScenario executes all steps against c. The context is checked between
// ticks.
func RunScenario(ctx context.Context, scenario *Scenario, c *sim.Controller) (Result, error) {
	var res Result
	tick := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Tick()
		res.Ticks++
		res.Impulses += c.LastImpulses()
		return nil
	}

	for i, step := range scenario.Steps {
		if err := step.validate(); err != nil {
			return res, fmt.Errorf("step %d: %w", i+1, err)
		}

		switch step.Action {
		case ActionPress:
			c.OnPress(point(step.At))
		case ActionMove:
			c.OnMove(point(step.At))
		case ActionRelease:
			c.OnRelease()
		case ActionTick:
			for n := 0; n < step.Ticks; n++ {
				if err := tick(); err != nil {
					return res, err
				}
			}
		case ActionDrag:
			from, to := point(step.At), point(step.To)
			c.OnPress(from)
			for n := 1; n <= step.Ticks; n++ {
				f := float64(n) / float64(step.Ticks)
				c.OnMove(dynamo.Point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f})
				if err := tick(); err != nil {
					return res, err
				}
			}
			c.OnRelease()
		case ActionSet:
			if err := SetParam(c, step.Params); err != nil {
				return res, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return res, nil
}

func knownParam(name string) bool {
	switch name {
	case "viscosity", "diffusion", "iterations", "resolution", "density":
		return true
	}
	return false
}

// SetParam applies named parameters to c.
func SetParam(c *sim.Controller, params map[string]float64) error {
	p := c.Params()
	for name, v := range params {
		switch name {
		case "viscosity":
			p.Viscosity = v
		case "diffusion":
			p.Diffusion = v
		case "iterations":
			p.Iterations = int(v)
		case "resolution":
			p.Resolution = int(v)
		case "density":
			p.Density = v
		default:
			return fmt.Errorf("unknown parameter %q", name)
		}
	}
	return c.Apply(p)
}

// ParameterSweep replays one scenario across evenly spaced values of a
// single parameter.
type ParameterSweep struct {
	Param    string
	Min      float64
	Max      float64
	NumSteps int
}

// SweepResult holds the outcome for one parameter value.
type SweepResult struct {
	Value    float64
	Result   Result
	Observed map[string]float64
}

// Factory builds a fresh controller for each sweep point and returns a
// function reporting the values observed after the run.
type Factory func() (*sim.Controller, func() map[string]float64, error)

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep *ParameterSweep, scenario *Scenario, build Factory) ([]SweepResult, error) {
	if !knownParam(sweep.Param) {
		return nil, fmt.Errorf("unknown parameter %q", sweep.Param)
	}
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step")
	}

	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.Max - sweep.Min) / float64(sweep.NumSteps-1)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i := 0; i < sweep.NumSteps; i++ {
		value := sweep.Min + float64(i)*paramStep

		c, observe, err := build()
		if err != nil {
			return results, err
		}
		if err := SetParam(c, map[string]float64{sweep.Param: value}); err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, value, err)
		}

		res, err := RunScenario(ctx, scenario, c)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, value, err)
		}
		results = append(results, SweepResult{Value: value, Result: res, Observed: observe()})
	}
	return results, nil
}
