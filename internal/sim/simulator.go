package sim

import (
	"fmt"
	"log/slog"

	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/san-kum/fluidpaint/internal/render"
)

// Controller owns the tick scheduler, the solver and its renderer, and the
// pointer gesture. All methods run on the host's single event queue; none
// of them lock.
type Controller struct {
	cfg       Config
	factory   dynamo.SolverFactory
	sched     Scheduler
	presenter render.Presenter
	log       *slog.Logger

	solver   dynamo.Solver
	renderer *render.Renderer
	gesture  Gesture

	// stale marks a gesture that began before the last resolution change.
	// It stays inert until the next press.
	stale bool

	observers     []Observer
	pauseWhenIdle bool
	lastImpulses  int
	ticks         int
}

type Option func(*Controller)

// WithPauseWhenIdle stops the scheduler on release instead of letting it
// idle until the next resolution change.
func WithPauseWhenIdle() Option {
	return func(c *Controller) { c.pauseWhenIdle = true }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// New builds the first solver and renderer from cfg. The scheduler is left
// stopped until the first press.
func New(cfg Config, factory dynamo.SolverFactory, sched Scheduler, p render.Presenter, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, dynamo.ErrNoSolver
	}

	c := &Controller{
		cfg:       cfg,
		factory:   factory,
		sched:     sched,
		presenter: p,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.rebuild(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) AddObserver(o Observer) { c.observers = append(c.observers, o) }

func (c *Controller) rebuild() error {
	c.solver, c.renderer = nil, nil

	solver, err := c.factory(c.cfg.Resolution)
	if err != nil {
		return fmt.Errorf("build solver at resolution %d: %w", c.cfg.Resolution, err)
	}
	solver.SetViscosity(c.cfg.Viscosity)
	solver.SetDiffusion(c.cfg.Diffusion)
	solver.SetIterations(c.cfg.Iterations)
	solver.SetOnStep(c.onTick)

	renderer, err := render.New(solver, c.presenter)
	if err != nil {
		return fmt.Errorf("build renderer at resolution %d: %w", c.cfg.Resolution, err)
	}

	c.solver, c.renderer = solver, renderer
	return nil
}

// OnPress starts the scheduler if it is not running and begins a gesture.
func (c *Controller) OnPress(p dynamo.Point) {
	if !c.sched.Running() {
		c.sched.Start(c.cfg.TickPeriod)
		c.log.Debug("scheduler started", "period", c.cfg.TickPeriod)
	}
	c.gesture = Gesture{Start: p, Current: p, Active: true}
	c.stale = false
}

// OnMove only records the position; impulses are injected once per tick.
func (c *Controller) OnMove(p dynamo.Point) {
	c.gesture.Current = p
}

func (c *Controller) OnRelease() {
	c.gesture.Active = false
	if c.pauseWhenIdle && c.sched.Running() {
		c.sched.Stop()
		c.log.Debug("scheduler paused on release")
	}
}

// OnResolutionChange stops the scheduler and replaces the solver and pixel
// buffer with ones sized n×n. Gesture positions are reset; the controller
// stays paused, and a held pointer injects nothing, until the next press.
// On failure the old solver is gone and
// Tick does nothing.
func (c *Controller) OnResolutionChange(n int) error {
	if n <= 0 {
		return fmt.Errorf("resolution %d: %w", n, dynamo.ErrInvalidResolution)
	}
	c.sched.Stop()
	c.cfg.Resolution = n
	c.gesture.Start, c.gesture.Current = dynamo.Point{}, dynamo.Point{}
	c.stale = true

	if err := c.rebuild(); err != nil {
		c.log.Error("resolution change failed", "resolution", n, "err", err)
		return err
	}
	c.log.Debug("resolution changed", "resolution", n)
	return nil
}

// Tick advances the solver one step, which calls back into onTick, then
// repaints the pixel buffer.
func (c *Controller) Tick() {
	if c.solver == nil {
		return
	}
	c.lastImpulses = 0
	c.solver.Step()
	c.renderer.Render()
	c.ticks++

	for _, o := range c.observers {
		o.OnTick(c.solver, c.lastImpulses)
	}
}

// Warmup runs n ticks without touching the scheduler.
func (c *Controller) Warmup(n int) {
	for i := 0; i < n; i++ {
		c.Tick()
	}
}

// onTick is the solver's step callback. It injects one impulse per step of
// the segment from the gesture start to its current position, then slides
// the start forward.
func (c *Controller) onTick(g dynamo.GridWriter) {
	gs := &c.gesture
	raster := Rasterizer{Canvas: c.cfg.Canvas, Grid: dynamo.Size{W: g.Width(), H: g.Height()}}
	if !gs.Active || c.stale || !raster.InCanvas(gs.Start) {
		return
	}

	delta := gs.Current.Sub(gs.Start)
	density := c.cfg.Density
	c.lastImpulses = raster.Segment(gs.Start, gs.Current, func(cell dynamo.Cell) {
		g.SetVelocity(cell.X, cell.Y, delta.X, delta.Y)
		g.SetDensity(cell.X, cell.Y, density)
	})
	gs.Start = gs.Current
}

func (c *Controller) SetViscosity(v float64) error {
	if v < 0 {
		return fmt.Errorf("viscosity %g: %w", v, dynamo.ErrParameterBounds)
	}
	c.cfg.Viscosity = v
	if c.solver != nil {
		c.solver.SetViscosity(v)
	}
	return nil
}

func (c *Controller) SetDiffusion(v float64) error {
	if v < 0 {
		return fmt.Errorf("diffusion %g: %w", v, dynamo.ErrParameterBounds)
	}
	c.cfg.Diffusion = v
	if c.solver != nil {
		c.solver.SetDiffusion(v)
	}
	return nil
}

func (c *Controller) SetIterations(n int) error {
	if n < 1 {
		return fmt.Errorf("iterations %d: %w", n, dynamo.ErrParameterBounds)
	}
	c.cfg.Iterations = n
	if c.solver != nil {
		c.solver.SetIterations(n)
	}
	return nil
}

// SetDensity sets the density written by each injected impulse.
func (c *Controller) SetDensity(v float64) { c.cfg.Density = v }

func (c *Controller) SetCanvasSize(s dynamo.Size) error {
	if s.W <= 0 || s.H <= 0 {
		return fmt.Errorf("canvas %dx%d: %w", s.W, s.H, dynamo.ErrParameterBounds)
	}
	c.cfg.Canvas = s
	return nil
}

// Apply sets every parameter in p. A different resolution goes through
// OnResolutionChange.
func (c *Controller) Apply(p Params) error {
	if err := c.SetViscosity(p.Viscosity); err != nil {
		return err
	}
	if err := c.SetDiffusion(p.Diffusion); err != nil {
		return err
	}
	if err := c.SetIterations(p.Iterations); err != nil {
		return err
	}
	c.SetDensity(p.Density)
	if p.Resolution != c.cfg.Resolution {
		return c.OnResolutionChange(p.Resolution)
	}
	return nil
}

func (c *Controller) Params() Params        { return c.cfg.Params }
func (c *Controller) Config() Config        { return c.cfg }
func (c *Controller) Gesture() Gesture      { return c.gesture }
func (c *Controller) Dragging() bool        { return c.gesture.Active }
func (c *Controller) Running() bool         { return c.sched.Running() }
func (c *Controller) LastImpulses() int     { return c.lastImpulses }
func (c *Controller) Ticks() int            { return c.ticks }
func (c *Controller) Solver() dynamo.Solver { return c.solver }

// Renderer returns the current renderer; it is replaced on every
// resolution change.
func (c *Controller) Renderer() *render.Renderer { return c.renderer }
