package viz

import (
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/fluidpaint/internal/export"
)

// upperHalf paints the top pixel as foreground and the bottom as background.
const upperHalf = "▀"

// maxCachedCells bounds the rendered-cell cache; it is emptied when full.
const maxCachedCells = 1 << 14

// cellKey is the colour pair of one terminal cell.
type cellKey struct{ top, bottom color.RGBA }

// Canvas shows an RGBA buffer in the terminal. Each cell holds two pixels
// stacked vertically, so a Width×Height canvas covers Width×2*Height display
// pixels.
type Canvas struct {
	Width, Height int
	frame         string
	cells         map[cellKey]string
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{cells: make(map[cellKey]string)}
	c.Resize(w, h)
	return c
}

// Resize changes the cell size and blanks the cached frame.
func (c *Canvas) Resize(w, h int) {
	c.Width, c.Height = max(w, 1), max(h, 1)
	c.frame = blank(c.Width, c.Height)
}

// Pixels is the display size pointer positions are measured against.
func (c *Canvas) Pixels() (w, h int) { return c.Width, 2 * c.Height }

// Present scales img to the canvas and caches the rendered cells. It
// satisfies render.Presenter.
func (c *Canvas) Present(img *image.RGBA) {
	w, h := c.Pixels()
	scaled := export.Scale(img, w, h)

	var b strings.Builder
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			b.WriteString(c.cell(cellKey{
				top:    scaled.RGBAAt(col, 2*row),
				bottom: scaled.RGBAAt(col, 2*row+1),
			}))
		}
		if row < c.Height-1 {
			b.WriteByte('\n')
		}
	}
	c.frame = b.String()
}

// cell returns the styled half block for k, rendering it once per colour
// pair.
func (c *Canvas) cell(k cellKey) string {
	if s, ok := c.cells[k]; ok {
		return s
	}
	if len(c.cells) >= maxCachedCells {
		clear(c.cells)
	}
	s := lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor(int(k.top.R), int(k.top.G), int(k.top.B)))).
		Background(lipgloss.Color(hexColor(int(k.bottom.R), int(k.bottom.G), int(k.bottom.B)))).
		Render(upperHalf)
	c.cells[k] = s
	return s
}

func (c *Canvas) String() string { return c.frame }

func blank(w, h int) string {
	line := strings.Repeat(" ", w)
	lines := make([]string, h)
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}
