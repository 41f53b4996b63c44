package render

import (
	"errors"
	"image"
	"math"
	"testing"

	"github.com/san-kum/fluidpaint/internal/dynamo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fieldGrid struct {
	w, h    int
	density func(x, y int) float64
}

func (g *fieldGrid) Width() int               { return g.w }
func (g *fieldGrid) Height() int              { return g.h }
func (g *fieldGrid) Density(x, y int) float64 { return g.density(x, y) }

func uniform(n int, d float64) *fieldGrid {
	return &fieldGrid{w: n, h: n, density: func(int, int) float64 { return d }}
}

func TestShadeLaw(t *testing.T) {
	r, g, b := Shade(1, 32, 16, 64)
	assert.InDelta(t, 25.5, r, 1e-12)
	assert.InDelta(t, 12.75, g, 1e-12)
	assert.InDelta(t, 51.0, b, 1e-12)
}

func TestRenderColourLaw(t *testing.T) {
	grid := uniform(64, 1)
	rd, err := New(grid, nil)
	require.NoError(t, err)

	rd.Render()

	pix := rd.Buffer().Pix
	off := 4 * (16*64 + 32)
	assert.Equal(t, uint8(26), pix[off+0])
	assert.Equal(t, uint8(13), pix[off+1])
	assert.Equal(t, uint8(51), pix[off+2])
	assert.Equal(t, uint8(255), pix[off+3])
}

func TestRenderMatchesShadeEverywhere(t *testing.T) {
	n := 16
	grid := &fieldGrid{w: n, h: n, density: func(x, y int) float64 { return float64(x+y) / 7 }}
	rd, err := New(grid, nil)
	require.NoError(t, err)
	rd.Render()

	pix := rd.Buffer().Pix
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r, g, b := Shade(grid.Density(i, j), i, j, n)
			off := 4 * (j*n + i)
			if pix[off] != Channel(r) || pix[off+1] != Channel(g) || pix[off+2] != Channel(b) {
				t.Fatalf("cell (%d,%d): got %v, want %d %d %d", i, j, pix[off:off+3], Channel(r), Channel(g), Channel(b))
			}
		}
	}
}

func TestRenderIdempotent(t *testing.T) {
	grid := &fieldGrid{w: 32, h: 32, density: func(x, y int) float64 { return math.Sin(float64(x*y)) * 3 }}
	rd, err := New(grid, nil)
	require.NoError(t, err)

	rd.Render()
	first := append([]byte(nil), rd.Buffer().Pix...)
	rd.Render()

	assert.Equal(t, first, rd.Buffer().Pix)
}

func TestChannel(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want uint8
	}{
		{"nan", math.NaN(), 0},
		{"negative", -12, 0},
		{"zero", 0, 0},
		{"half rounds to even down", 12.5, 12},
		{"half rounds to even up", 25.5, 26},
		{"fraction", 12.75, 13},
		{"max", 255, 255},
		{"overflow", 5100, 255},
		{"positive infinity", math.Inf(1), 255},
		{"negative infinity", math.Inf(-1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Channel(tt.in))
		})
	}
}

func TestRenderAlphaNeverTouched(t *testing.T) {
	grid := uniform(8, math.NaN())
	rd, err := New(grid, nil)
	require.NoError(t, err)

	rd.Render()
	grid.density = func(int, int) float64 { return -40 }
	rd.Render()

	for i := 3; i < len(rd.Buffer().Pix); i += 4 {
		if rd.Buffer().Pix[i] != 255 {
			t.Fatalf("alpha at %d is %d", i, rd.Buffer().Pix[i])
		}
	}
}

func TestNewBufferSize(t *testing.T) {
	rd, err := New(uniform(48, 0), nil)
	require.NoError(t, err)
	assert.Equal(t, 48*48, rd.Size())
	assert.Equal(t, image.Rect(0, 0, 48, 48), rd.Buffer().Bounds())
}

func TestNewRejectsNonSquare(t *testing.T) {
	_, err := New(&fieldGrid{w: 32, h: 16, density: func(int, int) float64 { return 0 }}, nil)
	if !errors.Is(err, dynamo.ErrNonSquareGrid) {
		t.Errorf("expected ErrNonSquareGrid, got %v", err)
	}

	_, err = New(uniform(0, 0), nil)
	if !errors.Is(err, dynamo.ErrInvalidResolution) {
		t.Errorf("expected ErrInvalidResolution, got %v", err)
	}
}

func TestRenderPresents(t *testing.T) {
	var got []*image.RGBA
	rd, err := New(uniform(4, 1), PresenterFunc(func(img *image.RGBA) { got = append(got, img) }))
	require.NoError(t, err)

	rd.Render()
	rd.Render()

	require.Len(t, got, 2)
	assert.Same(t, rd.Buffer(), got[0])
}
