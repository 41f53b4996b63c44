package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/san-kum/fluidpaint/internal/metrics"
	"github.com/san-kum/fluidpaint/internal/physics"
	"github.com/san-kum/fluidpaint/internal/sim"
)

func newController(t *testing.T) (*sim.Controller, *metrics.Tracker) {
	t.Helper()
	tracker := metrics.NewTracker(64, metrics.NewImpulseRate())
	cfg := sim.Config{
		Params:     sim.Params{Iterations: 4, Resolution: 16, Density: sim.DefaultDensity},
		Canvas:     dynamo.Size{W: 64, H: 64},
		TickPeriod: sim.DefaultTickPeriod,
	}
	sched := sim.NewManualScheduler(func() time.Time { return time.Unix(0, 0) })
	c, err := sim.New(cfg, physics.NewSolver, sched, nil, sim.WithObserver(tracker))
	require.NoError(t, err)
	return c, tracker
}

const scenarioYAML = `
name: zigzag
description: two strokes with a viscosity change
steps:
  - action: press
    at: [4, 4]
  - action: move
    at: [14, 4]
  - action: tick
    ticks: 1
  - action: release
  - action: set
    params:
      viscosity: 0.001
  - action: drag
    at: [4, 40]
    to: [40, 40]
    ticks: 4
  - action: tick
    ticks: 3
`

func TestLoadAndRunScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zigzag.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "zigzag", sc.Name)
	require.Len(t, sc.Steps, 7)

	c, _ := newController(t)
	res, err := RunScenario(context.Background(), sc, c)
	require.NoError(t, err)

	assert.Equal(t, 8, res.Ticks)
	// 10 from the first stroke, 9 per drag increment of 36/4 pixels.
	assert.Equal(t, 10+4*9, res.Impulses)
	assert.Equal(t, 0.001, c.Params().Viscosity)
	assert.False(t, c.Dragging())
}

func TestLoadScenarioRejectsBadSteps(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown action", "steps:\n  - action: wiggle\n"},
		{"press without point", "steps:\n  - action: press\n"},
		{"drag without ticks", "steps:\n  - action: drag\n    at: [0, 0]\n    to: [1, 1]\n"},
		{"unknown param", "steps:\n  - action: set\n    params:\n      gravity: 1\n"},
		{"negative ticks", "steps:\n  - action: tick\n    ticks: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0644))
			_, err := LoadScenario(path)
			assert.Error(t, err)
		})
	}
}

func TestLineScenario(t *testing.T) {
	sc := Line(dynamo.Point{X: 0, Y: 8}, dynamo.Point{X: 32, Y: 8}, 4, 10)
	require.NoError(t, sc.Validate())

	c, _ := newController(t)
	res, err := RunScenario(context.Background(), sc, c)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Ticks)
	assert.Equal(t, 4*8, res.Impulses)
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c, _ := newController(t)
	_, err := RunScenario(ctx, &Scenario{Steps: []Step{{Action: ActionTick, Ticks: 5}}}, c)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, c.Ticks())
}

func TestSetParamResolution(t *testing.T) {
	c, _ := newController(t)
	require.NoError(t, SetParam(c, map[string]float64{"resolution": 32, "density": 5}))
	assert.Equal(t, 32, c.Solver().Width())
	assert.Equal(t, 5.0, c.Params().Density)
	assert.Error(t, SetParam(c, map[string]float64{"iterations": 0}))
}

func TestRunSweep(t *testing.T) {
	build := func() (*sim.Controller, func() map[string]float64, error) {
		c, tracker := newController(t)
		return c, func() map[string]float64 {
			out := tracker.Values()
			out["mass"] = tracker.Last().Total
			return out
		}, nil
	}
	sc := Line(dynamo.Point{X: 0, Y: 8}, dynamo.Point{X: 32, Y: 8}, 4, 6)

	results, err := RunSweep(context.Background(),
		&ParameterSweep{Param: "density", Min: 0, Max: 10, NumSteps: 3}, sc, build)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []float64{0, 5, 10}, []float64{results[0].Value, results[1].Value, results[2].Value})
	assert.Zero(t, results[0].Observed["mass"])
	assert.Greater(t, results[2].Observed["mass"], results[1].Observed["mass"])
}

func TestRunSweepRejectsUnknownParam(t *testing.T) {
	_, err := RunSweep(context.Background(), &ParameterSweep{Param: "gravity", NumSteps: 2}, &Scenario{}, nil)
	assert.Error(t, err)
}
