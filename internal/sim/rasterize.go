package sim

import (
	"math"

	"github.com/san-kum/fluidpaint/internal/dynamo"
)

// Rasterizer converts display-pixel segments into grid cells.
type Rasterizer struct {
	Canvas dynamo.Size
	Grid   dynamo.Size
}

func (r Rasterizer) InCanvas(p dynamo.Point) bool {
	return p.X >= 0 && p.X < float64(r.Canvas.W) && p.Y >= 0 && p.Y < float64(r.Canvas.H)
}

// Cell scales p by grid/canvas per axis and floors. The result is not
// clipped to the grid.
func (r Rasterizer) Cell(p dynamo.Point) dynamo.Cell {
	return dynamo.Cell{
		X: int(math.Floor(p.X * float64(r.Grid.W) / float64(r.Canvas.W))),
		Y: int(math.Floor(p.Y * float64(r.Grid.H) / float64(r.Canvas.H))),
	}
}

// Segment visits one cell for every integer step i with 0 <= i < |to-from|,
// sampling the segment at fraction i/|to-from|. A zero-length segment visits
// nothing. It returns the number of cells visited.
func (r Rasterizer) Segment(from, to dynamo.Point, visit func(dynamo.Cell)) int {
	delta := to.Sub(from)
	d := delta.Norm()
	if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}

	n := 0
	for i := 0; float64(i) < d; i++ {
		f := float64(i) / d
		visit(r.Cell(dynamo.Point{X: from.X + delta.X*f, Y: from.Y + delta.Y*f}))
		n++
	}
	return n
}
