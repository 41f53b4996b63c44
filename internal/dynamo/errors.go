package dynamo

import "errors"

// Domain errors for the render-and-interaction loop.
var (
	// ErrNonSquareGrid indicates a grid whose width and height differ. The
	// renderer addresses pixels with height as the row stride, so only square
	// grids produce a non-overlapping image.
	ErrNonSquareGrid = errors.New("dynamo: grid must be square")

	// ErrInvalidResolution indicates a resolution that cannot back a grid.
	ErrInvalidResolution = errors.New("dynamo: resolution must be positive")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrNoSolver indicates a controller was built without a solver factory.
	ErrNoSolver = errors.New("dynamo: no solver factory")
)
