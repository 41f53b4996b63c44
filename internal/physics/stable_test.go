package physics

import (
	"errors"
	"testing"

	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStableFluidRejectsBadResolution(t *testing.T) {
	for _, n := range []int{0, -4} {
		_, err := NewStableFluid(n)
		if !errors.Is(err, dynamo.ErrInvalidResolution) {
			t.Errorf("n=%d: expected ErrInvalidResolution, got %v", n, err)
		}
	}
}

func TestStableFluidDimensions(t *testing.T) {
	s, err := NewSolver(32)
	require.NoError(t, err)
	assert.Equal(t, 32, s.Width())
	assert.Equal(t, 32, s.Height())
}

func TestStableFluidIgnoresOutOfRangeWrites(t *testing.T) {
	s, err := NewStableFluid(8)
	require.NoError(t, err)

	s.SetDensity(-1, 0, 5)
	s.SetDensity(8, 0, 5)
	s.SetDensity(0, 8, 5)
	s.SetVelocity(-3, 20, 1, 1)

	assert.Zero(t, s.Mass())
	assert.Zero(t, s.Density(-1, 0))
	assert.Zero(t, s.Density(8, 8))
}

func TestStableFluidStepInvokesCallbackOnce(t *testing.T) {
	s, err := NewStableFluid(8)
	require.NoError(t, err)

	calls := 0
	s.SetOnStep(func(g dynamo.GridWriter) {
		calls++
		assert.Equal(t, 8, g.Width())
		g.SetDensity(3, 4, 2)
	})

	s.Step()
	assert.Equal(t, 1, calls)
	s.Step()
	assert.Equal(t, 2, calls)
}

func TestStableFluidStillFluidKeepsDensity(t *testing.T) {
	s, err := NewStableFluid(16)
	require.NoError(t, err)

	s.SetDensity(5, 7, 1)
	for i := 0; i < 5; i++ {
		s.Step()
	}

	assert.InDelta(t, 1.0, s.Density(5, 7), 1e-12)
	assert.InDelta(t, 1.0, s.Mass(), 1e-12)
}

func TestStableFluidDiffusionSpreads(t *testing.T) {
	s, err := NewStableFluid(16)
	require.NoError(t, err)
	s.SetDiffusion(0.01)

	s.SetDensity(8, 8, 1)
	s.Step()

	center := s.Density(8, 8)
	if center >= 1 || center <= 0 {
		t.Errorf("expected center density in (0,1), got %f", center)
	}
	if s.Density(9, 8) <= 0 {
		t.Error("expected neighbour to receive density")
	}
}

func TestStableFluidVelocityMovesDensity(t *testing.T) {
	s, err := NewStableFluid(32)
	require.NoError(t, err)

	s.SetOnStep(func(g dynamo.GridWriter) {
		for y := 10; y < 20; y++ {
			for x := 10; x < 20; x++ {
				g.SetVelocity(x, y, 0.5, 0)
			}
		}
	})
	s.SetDensity(15, 15, 1)
	before := s.Density(15, 15)
	s.Step()

	assert.NotEqual(t, before, s.Density(15, 15))
}

func TestStableFluidParameterFloors(t *testing.T) {
	s, err := NewStableFluid(4)
	require.NoError(t, err)

	s.SetIterations(0)
	s.SetViscosity(-1)
	s.SetDiffusion(-1)

	assert.Equal(t, 1, s.iters)
	assert.Zero(t, s.visc)
	assert.Zero(t, s.diff)
}
