package physics

import (
	"fmt"

	"github.com/san-kum/fluidpaint/internal/dynamo"
)

const (
	DefaultDt         = 0.1
	DefaultIterations = 16
)

// StableFluid is a semi-Lagrangian grid solver over an n×n interior with a
// one-cell boundary ring. It implements dynamo.Solver.
type StableFluid struct {
	N            int
	Dt           float64
	visc, diff   float64
	iters        int
	u, v, u0, v0 []float64
	dens, dens0  []float64
	onStep       func(dynamo.GridWriter)
}

func NewStableFluid(n int) (*StableFluid, error) {
	if n < 1 {
		return nil, fmt.Errorf("stable fluid %d: %w", n, dynamo.ErrInvalidResolution)
	}
	size := (n + 2) * (n + 2)
	return &StableFluid{
		N:     n,
		Dt:    DefaultDt,
		iters: DefaultIterations,
		u:     make([]float64, size),
		v:     make([]float64, size),
		u0:    make([]float64, size),
		v0:    make([]float64, size),
		dens:  make([]float64, size),
		dens0: make([]float64, size),
	}, nil
}

// NewSolver matches dynamo.SolverFactory.
func NewSolver(resolution int) (dynamo.Solver, error) {
	s, err := NewStableFluid(resolution)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *StableFluid) Width() int  { return s.N }
func (s *StableFluid) Height() int { return s.N }

func (s *StableFluid) ix(i, j int) int { return i + (s.N+2)*j }

func (s *StableFluid) inside(x, y int) bool {
	return x >= 0 && x < s.N && y >= 0 && y < s.N
}

func (s *StableFluid) Density(x, y int) float64 {
	if !s.inside(x, y) {
		return 0
	}
	return s.dens[s.ix(x+1, y+1)]
}

// SetDensity ignores cells outside the grid.
func (s *StableFluid) SetDensity(x, y int, v float64) {
	if !s.inside(x, y) {
		return
	}
	s.dens[s.ix(x+1, y+1)] = v
}

// SetVelocity ignores cells outside the grid.
func (s *StableFluid) SetVelocity(x, y int, dx, dy float64) {
	if !s.inside(x, y) {
		return
	}
	k := s.ix(x+1, y+1)
	s.u[k], s.v[k] = dx, dy
}

func (s *StableFluid) Velocity(x, y int) (float64, float64) {
	if !s.inside(x, y) {
		return 0, 0
	}
	k := s.ix(x+1, y+1)
	return s.u[k], s.v[k]
}

func (s *StableFluid) SetViscosity(v float64) { s.visc = max(v, 0) }
func (s *StableFluid) SetDiffusion(v float64) { s.diff = max(v, 0) }
func (s *StableFluid) SetIterations(n int)    { s.iters = max(n, 1) }

func (s *StableFluid) SetOnStep(fn func(dynamo.GridWriter)) { s.onStep = fn }

// Mass returns the total density over the interior.
func (s *StableFluid) Mass() float64 {
	total := 0.0
	for j := 1; j <= s.N; j++ {
		for i := 1; i <= s.N; i++ {
			total += s.dens[s.ix(i, j)]
		}
	}
	return total
}

// Step runs the impulse callback once, then advances velocity and density.
func (s *StableFluid) Step() {
	if s.onStep != nil {
		s.onStep(s)
	}
	s.velocityStep()
	s.densityStep()
}

func (s *StableFluid) velocityStep() {
	s.u0, s.u = s.u, s.u0
	s.diffuse(1, s.u, s.u0, s.visc)
	s.v0, s.v = s.v, s.v0
	s.diffuse(2, s.v, s.v0, s.visc)
	s.project(s.u, s.v, s.u0, s.v0)

	s.u0, s.u = s.u, s.u0
	s.v0, s.v = s.v, s.v0
	s.advect(1, s.u, s.u0, s.u0, s.v0)
	s.advect(2, s.v, s.v0, s.u0, s.v0)
	s.project(s.u, s.v, s.u0, s.v0)
}

func (s *StableFluid) densityStep() {
	s.dens0, s.dens = s.dens, s.dens0
	s.diffuse(0, s.dens, s.dens0, s.diff)
	s.dens0, s.dens = s.dens, s.dens0
	s.advect(0, s.dens, s.dens0, s.u, s.v)
}

func (s *StableFluid) diffuse(b int, x, x0 []float64, rate float64) {
	n := float64(s.N)
	a := s.Dt * rate * n * n
	s.linSolve(b, x, x0, a, 1+4*a)
}

// linSolve runs Gauss-Seidel relaxation for s.iters sweeps.
func (s *StableFluid) linSolve(b int, x, x0 []float64, a, c float64) {
	for k := 0; k < s.iters; k++ {
		for j := 1; j <= s.N; j++ {
			for i := 1; i <= s.N; i++ {
				x[s.ix(i, j)] = (x0[s.ix(i, j)] + a*(x[s.ix(i-1, j)]+x[s.ix(i+1, j)]+x[s.ix(i, j-1)]+x[s.ix(i, j+1)])) / c
			}
		}
		s.setBoundary(b, x)
	}
}

func (s *StableFluid) advect(b int, d, d0, u, v []float64) {
	n := float64(s.N)
	dt0 := s.Dt * n
	for j := 1; j <= s.N; j++ {
		for i := 1; i <= s.N; i++ {
			x := clamp(float64(i)-dt0*u[s.ix(i, j)], 0.5, n+0.5)
			y := clamp(float64(j)-dt0*v[s.ix(i, j)], 0.5, n+0.5)
			i0, j0 := int(x), int(y)
			i1, j1 := i0+1, j0+1
			s1, t1 := x-float64(i0), y-float64(j0)
			s0, t0 := 1-s1, 1-t1
			d[s.ix(i, j)] = s0*(t0*d0[s.ix(i0, j0)]+t1*d0[s.ix(i0, j1)]) +
				s1*(t0*d0[s.ix(i1, j0)]+t1*d0[s.ix(i1, j1)])
		}
	}
	s.setBoundary(b, d)
}

func (s *StableFluid) project(u, v, p, div []float64) {
	h := 1.0 / float64(s.N)
	for j := 1; j <= s.N; j++ {
		for i := 1; i <= s.N; i++ {
			div[s.ix(i, j)] = -0.5 * h * (u[s.ix(i+1, j)] - u[s.ix(i-1, j)] + v[s.ix(i, j+1)] - v[s.ix(i, j-1)])
			p[s.ix(i, j)] = 0
		}
	}
	s.setBoundary(0, div)
	s.setBoundary(0, p)
	s.linSolve(0, p, div, 1, 4)

	for j := 1; j <= s.N; j++ {
		for i := 1; i <= s.N; i++ {
			u[s.ix(i, j)] -= 0.5 * (p[s.ix(i+1, j)] - p[s.ix(i-1, j)]) / h
			v[s.ix(i, j)] -= 0.5 * (p[s.ix(i, j+1)] - p[s.ix(i, j-1)]) / h
		}
	}
	s.setBoundary(1, u)
	s.setBoundary(2, v)
}

// setBoundary mirrors the interior into the ring. b=1 reflects horizontal
// velocity at the side walls, b=2 reflects vertical velocity at top/bottom.
func (s *StableFluid) setBoundary(b int, x []float64) {
	n := s.N
	for i := 1; i <= n; i++ {
		x[s.ix(0, i)] = mirror(b == 1, x[s.ix(1, i)])
		x[s.ix(n+1, i)] = mirror(b == 1, x[s.ix(n, i)])
		x[s.ix(i, 0)] = mirror(b == 2, x[s.ix(i, 1)])
		x[s.ix(i, n+1)] = mirror(b == 2, x[s.ix(i, n)])
	}
	x[s.ix(0, 0)] = 0.5 * (x[s.ix(1, 0)] + x[s.ix(0, 1)])
	x[s.ix(0, n+1)] = 0.5 * (x[s.ix(1, n+1)] + x[s.ix(0, n)])
	x[s.ix(n+1, 0)] = 0.5 * (x[s.ix(n, 0)] + x[s.ix(n+1, 1)])
	x[s.ix(n+1, n+1)] = 0.5 * (x[s.ix(n, n+1)] + x[s.ix(n+1, n)])
}

func mirror(flip bool, v float64) float64 {
	if flip {
		return -v
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
