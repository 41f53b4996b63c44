package dynamo

import "math"

// Point is a position in display pixels, relative to the canvas origin.
type Point struct {
	X, Y float64
}

// Sub returns the vector from o to p.
func (p Point) Sub(o Point) Point { return Point{p.X - o.X, p.Y - o.Y} }

// Norm is the Euclidean length of p.
func (p Point) Norm() float64 { return math.Sqrt(p.X*p.X + p.Y*p.Y) }

// Cell is an integer grid coordinate in solver space. It may lie outside
// the grid; the grid decides what to do with it.
type Cell struct {
	X, Y int
}

// Size is a width/height pair, in display pixels or in cells depending on use.
type Size struct {
	W, H int
}

// GridWriter is the write capability the solver lends to the step callback.
type GridWriter interface {
	Width() int
	Height() int
	SetDensity(x, y int, v float64)
	SetVelocity(x, y int, dx, dy float64)
}

// DensityGrid is the read side used by renderers and telemetry.
type DensityGrid interface {
	Width() int
	Height() int
	Density(x, y int) float64
}

// Solver is the external fluid solver. Step advances one tick and invokes the
// callback registered with SetOnStep exactly once during that tick.
type Solver interface {
	DensityGrid
	GridWriter
	SetViscosity(v float64)
	SetDiffusion(v float64)
	SetIterations(n int)
	SetOnStep(fn func(GridWriter))
	Step()
}

// SolverFactory builds a fresh square solver of the given resolution.
type SolverFactory func(resolution int) (Solver, error)
