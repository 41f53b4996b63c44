package render

import (
	"fmt"
	"image"
	"math"

	"github.com/san-kum/fluidpaint/internal/dynamo"
)

// Presenter receives the finished pixel buffer after every render.
type Presenter interface {
	Present(img *image.RGBA)
}

type PresenterFunc func(img *image.RGBA)

func (f PresenterFunc) Present(img *image.RGBA) { f(img) }

// Renderer maps a density grid onto an RGBA buffer of one pixel per cell.
// The buffer is bound to the grid's size and never resized.
type Renderer struct {
	grid      dynamo.DensityGrid
	presenter Presenter
	buf       *image.RGBA
	width     int
	height    int
}

// New allocates the pixel buffer for grid and sets every alpha byte to 255.
// Pixels are addressed with height as the row stride, so the grid must be
// square.
func New(grid dynamo.DensityGrid, p Presenter) (*Renderer, error) {
	w, h := grid.Width(), grid.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("renderer %dx%d: %w", w, h, dynamo.ErrInvalidResolution)
	}
	if w != h {
		return nil, fmt.Errorf("renderer %dx%d: %w", w, h, dynamo.ErrNonSquareGrid)
	}

	buf := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(buf.Pix); i += 4 {
		buf.Pix[i] = 0xff
	}

	return &Renderer{grid: grid, presenter: p, buf: buf, width: w, height: h}, nil
}

// Render repaints every cell from the grid and presents the buffer.
func (r *Renderer) Render() {
	pix := r.buf.Pix
	for i := 0; i < r.width; i++ {
		for j := 0; j < r.height; j++ {
			pixel := 4 * (j*r.height + i)
			red, green, blue := Shade(r.grid.Density(i, j), i, j, r.width)
			pix[pixel+0] = Channel(red)
			pix[pixel+1] = Channel(green)
			pix[pixel+2] = Channel(blue)
		}
	}

	if r.presenter != nil {
		r.presenter.Present(r.buf)
	}
}

// Shade is the unclamped colour law for cell (i, j) with density d. Both
// gradients divide by width, including the row-based green channel.
func Shade(d float64, i, j, width int) (red, green, blue float64) {
	w := float64(width)
	red = d * 255 * float64(i) / w / 5
	green = d * 255 * float64(j) / w / 5
	blue = d * 255 / 5
	return red, green, blue
}

// Channel stores a float channel value as a byte: NaN and values at or below
// zero become 0, values at or above 255 become 255, and everything else is
// rounded half to even.
func Channel(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.RoundToEven(v))
}

func (r *Renderer) Buffer() *image.RGBA { return r.buf }

// Size returns the number of pixels in the buffer.
func (r *Renderer) Size() int { return len(r.buf.Pix) / 4 }

func (r *Renderer) Grid() dynamo.DensityGrid { return r.grid }
