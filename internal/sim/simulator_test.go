package sim

import (
	"errors"
	"image"
	"testing"

	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/san-kum/fluidpaint/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type impulse struct {
	cell    dynamo.Cell
	dx, dy  float64
	density float64
}

// testSolver records impulses instead of simulating anything.
type testSolver struct {
	n          int
	density    map[dynamo.Cell]float64
	impulses   []impulse
	onStep     func(dynamo.GridWriter)
	steps      int
	visc, diff float64
	iters      int
}

func newTestSolver(n int) *testSolver {
	return &testSolver{n: n, density: make(map[dynamo.Cell]float64)}
}

func (s *testSolver) Width() int  { return s.n }
func (s *testSolver) Height() int { return s.n }

func (s *testSolver) Density(x, y int) float64 { return s.density[dynamo.Cell{X: x, Y: y}] }

func (s *testSolver) SetDensity(x, y int, v float64) {
	c := dynamo.Cell{X: x, Y: y}
	s.density[c] = v
	s.impulses[len(s.impulses)-1].density = v
}

func (s *testSolver) SetVelocity(x, y int, dx, dy float64) {
	s.impulses = append(s.impulses, impulse{cell: dynamo.Cell{X: x, Y: y}, dx: dx, dy: dy})
}

func (s *testSolver) SetViscosity(v float64)               { s.visc = v }
func (s *testSolver) SetDiffusion(v float64)               { s.diff = v }
func (s *testSolver) SetIterations(n int)                  { s.iters = n }
func (s *testSolver) SetOnStep(fn func(dynamo.GridWriter)) { s.onStep = fn }

func (s *testSolver) Step() {
	s.steps++
	if s.onStep != nil {
		s.onStep(s)
	}
}

type testFactory struct {
	built []*testSolver
	fail  error
}

func (f *testFactory) New(n int) (dynamo.Solver, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	s := newTestSolver(n)
	f.built = append(f.built, s)
	return s, nil
}

func (f *testFactory) last() *testSolver { return f.built[len(f.built)-1] }

func newTestController(t *testing.T, opts ...Option) (*Controller, *testFactory, *ManualScheduler) {
	t.Helper()
	f := &testFactory{}
	sched := NewManualScheduler(nil)
	c, err := New(validConfig(), f.New, sched, nil, opts...)
	require.NoError(t, err)
	return c, f, sched
}

func pt(x, y float64) dynamo.Point { return dynamo.Point{X: x, Y: y} }

func TestNewRequiresFactory(t *testing.T) {
	_, err := New(validConfig(), nil, NewManualScheduler(nil), nil)
	assert.ErrorIs(t, err, dynamo.ErrNoSolver)
}

func TestNewAppliesParams(t *testing.T) {
	cfg := validConfig()
	cfg.Viscosity, cfg.Diffusion, cfg.Iterations = 0.2, 0.3, 7
	f := &testFactory{}
	_, err := New(cfg, f.New, NewManualScheduler(nil), nil)
	require.NoError(t, err)

	s := f.last()
	assert.Equal(t, 0.2, s.visc)
	assert.Equal(t, 0.3, s.diff)
	assert.Equal(t, 7, s.iters)
	assert.Equal(t, 100, s.n)
}

func TestPressStartsSchedulerOnce(t *testing.T) {
	c, _, sched := newTestController(t)
	assert.False(t, c.Running())

	c.OnPress(pt(10, 10))
	c.OnRelease()
	c.OnPress(pt(20, 20))

	assert.True(t, sched.Running())
	assert.Equal(t, 1, sched.Starts)
	assert.Equal(t, DefaultTickPeriod, sched.period)
}

func TestReleaseKeepsSchedulerRunning(t *testing.T) {
	c, _, sched := newTestController(t)
	c.OnPress(pt(1, 1))
	c.OnRelease()
	assert.True(t, sched.Running())
	assert.False(t, c.Dragging())
}

func TestPauseWhenIdle(t *testing.T) {
	c, _, sched := newTestController(t, WithPauseWhenIdle())
	c.OnPress(pt(1, 1))
	c.OnRelease()
	assert.False(t, sched.Running())

	c.OnPress(pt(2, 2))
	assert.True(t, sched.Running())
	assert.Equal(t, 2, sched.Starts)
}

func TestZeroDistanceInjectsNothing(t *testing.T) {
	c, f, _ := newTestController(t)
	c.OnPress(pt(30, 40))
	c.Tick()

	assert.Empty(t, f.last().impulses)
	assert.Equal(t, 0, c.LastImpulses())
	assert.Equal(t, 1, f.last().steps)
}

func TestPathCoverage(t *testing.T) {
	c, f, _ := newTestController(t)
	c.OnPress(pt(0, 0))
	c.OnMove(pt(10, 0))
	c.Tick()

	imps := f.last().impulses
	require.Len(t, imps, 10)
	assert.Equal(t, 10, c.LastImpulses())

	prev := imps[0].cell.X
	assert.Equal(t, 0, prev)
	for i, imp := range imps {
		assert.GreaterOrEqual(t, imp.cell.X, prev, "impulse %d", i)
		assert.Equal(t, 0, imp.cell.Y)
		assert.Equal(t, 10.0, imp.dx, "whole-gesture delta")
		assert.Equal(t, 0.0, imp.dy)
		assert.Equal(t, DefaultDensity, imp.density)
		prev = imp.cell.X
	}
	assert.Equal(t, 9, imps[9].cell.X)
}

func TestSegmentScalesToGrid(t *testing.T) {
	cfg := validConfig()
	cfg.Canvas = dynamo.Size{W: 400, H: 400}
	f := &testFactory{}
	c, err := New(cfg, f.New, NewManualScheduler(nil), nil)
	require.NoError(t, err)

	c.OnPress(pt(200, 100))
	c.OnMove(pt(200, 108))
	c.Tick()

	imps := f.last().impulses
	require.Len(t, imps, 8)
	for _, imp := range imps {
		assert.Equal(t, 50, imp.cell.X)
		assert.Contains(t, []int{25, 26}, imp.cell.Y)
		assert.Equal(t, 8.0, imp.dy)
	}
}

func TestStartSlidesForward(t *testing.T) {
	c, f, _ := newTestController(t)
	c.OnPress(pt(10, 10))
	c.OnMove(pt(13, 14))
	c.Tick()
	require.Len(t, f.last().impulses, 5)
	assert.Equal(t, pt(13, 14), c.Gesture().Start)

	c.Tick()
	assert.Len(t, f.last().impulses, 5, "no new motion, no new impulses")

	c.OnMove(pt(16, 14))
	c.Tick()
	imps := f.last().impulses
	require.Len(t, imps, 8)
	assert.Equal(t, 3.0, imps[7].dx, "velocity reflects recent motion only")
}

func TestFractionalDistanceCoversWholeSegment(t *testing.T) {
	c, f, _ := newTestController(t)
	c.OnPress(pt(0, 0))
	c.OnMove(pt(2.5, 0))
	c.Tick()
	assert.Len(t, f.last().impulses, 3)
}

func TestOutOfCanvasStartInjectsNothing(t *testing.T) {
	tests := []struct {
		name  string
		start dynamo.Point
	}{
		{"left", pt(-1, 50)},
		{"top", pt(50, -0.5)},
		{"right edge", pt(100, 50)},
		{"bottom edge", pt(50, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, f, _ := newTestController(t)
			c.OnPress(tt.start)
			c.OnMove(pt(50, 50))
			c.Tick()
			assert.Empty(t, f.last().impulses)
		})
	}
}

func TestOutOfGridCellsPassThrough(t *testing.T) {
	c, f, _ := newTestController(t)
	c.OnPress(pt(95, 50))
	c.OnMove(pt(130, 50))
	c.Tick()

	imps := f.last().impulses
	require.Len(t, imps, 35)
	assert.Equal(t, 129, imps[34].cell.X, "cells beyond the grid are left to the solver")
}

func TestReleaseInertia(t *testing.T) {
	c, f, _ := newTestController(t)
	c.OnPress(pt(10, 10))
	c.OnMove(pt(20, 20))
	c.OnRelease()

	c.Tick()
	c.Tick()

	assert.Empty(t, f.last().impulses)
	g := c.Gesture()
	assert.Equal(t, pt(10, 10), g.Start)
	assert.Equal(t, pt(20, 20), g.Current)
	assert.False(t, g.Active)
}

func TestResolutionChange(t *testing.T) {
	c, f, sched := newTestController(t)
	c.OnPress(pt(10, 10))
	c.OnMove(pt(40, 40))
	oldBuf := c.Renderer().Buffer()

	require.NoError(t, c.OnResolutionChange(64))

	assert.False(t, sched.Running())
	s := f.last()
	assert.Equal(t, 64, s.Width())
	assert.Equal(t, 64, s.Height())
	assert.Equal(t, 64*64, c.Renderer().Size())
	assert.NotSame(t, oldBuf, c.Renderer().Buffer())
	assert.Equal(t, 64, c.Params().Resolution)
	assert.Equal(t, dynamo.Point{}, c.Gesture().Start)
	assert.Equal(t, dynamo.Point{}, c.Gesture().Current)

	c.Tick()
	assert.Empty(t, s.impulses, "pending gesture must not reach the new grid")

	c.OnPress(pt(5, 5))
	assert.True(t, sched.Running())
}

func TestResolutionChangeHeldPointerStaysInert(t *testing.T) {
	c, f, _ := newTestController(t)
	c.OnPress(pt(60, 60))
	c.OnMove(pt(62, 60))

	require.NoError(t, c.OnResolutionChange(64))
	s := f.last()
	assert.True(t, c.Dragging())

	c.OnMove(pt(63, 60))
	c.Tick()
	assert.Empty(t, s.impulses, "held pointer must not paint from the origin")
	assert.Zero(t, c.LastImpulses())

	c.OnPress(pt(10, 10))
	c.OnMove(pt(13, 14))
	c.Tick()
	assert.Len(t, s.impulses, 5)
}

func TestResolutionChangeFailure(t *testing.T) {
	c, f, _ := newTestController(t)
	boom := errors.New("out of memory")
	f.fail = boom

	err := c.OnResolutionChange(4096)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, c.Solver())
	assert.NotPanics(t, c.Tick)

	assert.ErrorIs(t, c.OnResolutionChange(0), dynamo.ErrInvalidResolution)
}

func TestSettersForwardToSolver(t *testing.T) {
	c, f, _ := newTestController(t)
	s := f.last()

	require.NoError(t, c.SetViscosity(0.5))
	require.NoError(t, c.SetDiffusion(0.25))
	require.NoError(t, c.SetIterations(12))
	c.SetDensity(42)

	assert.Equal(t, 0.5, s.visc)
	assert.Equal(t, 0.25, s.diff)
	assert.Equal(t, 12, s.iters)
	assert.Equal(t, 42.0, c.Params().Density)

	assert.ErrorIs(t, c.SetViscosity(-1), dynamo.ErrParameterBounds)
	assert.ErrorIs(t, c.SetIterations(0), dynamo.ErrParameterBounds)
	assert.ErrorIs(t, c.SetCanvasSize(dynamo.Size{}), dynamo.ErrParameterBounds)

	c.OnPress(pt(0, 0))
	c.OnMove(pt(3, 4))
	c.Tick()
	require.NotEmpty(t, s.impulses)
	assert.Equal(t, 42.0, s.impulses[0].density)
}

func TestApplyRoutesResolution(t *testing.T) {
	c, f, sched := newTestController(t)
	c.OnPress(pt(1, 1))

	p := c.Params()
	p.Viscosity = 0.01
	require.NoError(t, c.Apply(p))
	assert.Len(t, f.built, 1)
	assert.True(t, sched.Running())

	p.Resolution = 32
	require.NoError(t, c.Apply(p))
	assert.Len(t, f.built, 2)
	assert.Equal(t, 0.01, f.last().visc)
	assert.False(t, sched.Running())
}

type countingObserver struct {
	ticks    int
	impulses int
}

func (o *countingObserver) OnTick(_ dynamo.DensityGrid, n int) {
	o.ticks++
	o.impulses += n
}

func TestTickRendersAndNotifies(t *testing.T) {
	var presented int
	obs := &countingObserver{}
	f := &testFactory{}
	c, err := New(validConfig(), f.New, NewManualScheduler(nil),
		render.PresenterFunc(func(*image.RGBA) { presented++ }), WithObserver(obs))
	require.NoError(t, err)

	c.Warmup(3)
	c.OnPress(pt(0, 0))
	c.OnMove(pt(0, 6))
	c.Tick()

	assert.Equal(t, 4, presented)
	assert.Equal(t, 4, obs.ticks)
	assert.Equal(t, 6, obs.impulses)
	assert.Equal(t, 4, c.Ticks())

	pix := c.Renderer().Buffer().Pix
	off := 4 * (3*100 + 0)
	assert.Equal(t, uint8(255), pix[off+2], "injected density saturates blue")
}
