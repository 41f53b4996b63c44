package export

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"
)

// Scale resizes src to w×h with nearest-neighbour sampling so cells stay
// crisp blocks.
func Scale(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// WritePNG encodes img enlarged by an integer factor.
func WritePNG(w io.Writer, img *image.RGBA, scale int) error {
	if scale < 1 {
		scale = 1
	}
	b := img.Bounds()
	out := img
	if scale > 1 {
		out = Scale(img, b.Dx()*scale, b.Dy()*scale)
	}
	return png.Encode(w, out)
}

func SavePNG(path string, img *image.RGBA, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePNG(f, img, scale); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// Recorder accumulates frames for an animated GIF. Frames are copied and
// dithered to the Plan 9 palette on capture, so the source buffer can be
// reused.
type Recorder struct {
	frames    []*image.Paletted
	delay     int
	maxFrames int
	scale     int
}

// NewRecorder keeps at most maxFrames frames; delay is in 1/100 s.
func NewRecorder(maxFrames, delay, scale int) *Recorder {
	if scale < 1 {
		scale = 1
	}
	return &Recorder{maxFrames: maxFrames, delay: delay, scale: scale}
}

func (r *Recorder) Capture(img *image.RGBA) {
	if r.maxFrames > 0 && len(r.frames) >= r.maxFrames {
		return
	}
	src := img
	if r.scale > 1 {
		src = Scale(img, img.Bounds().Dx()*r.scale, img.Bounds().Dy()*r.scale)
	}
	frame := image.NewPaletted(src.Bounds(), palette.Plan9)
	xdraw.FloydSteinberg.Draw(frame, frame.Bounds(), src, src.Bounds().Min)
	r.frames = append(r.frames, frame)
}

func (r *Recorder) Len() int { return len(r.frames) }

func (r *Recorder) Reset() { r.frames = nil }

func (r *Recorder) Encode(w io.Writer) error {
	if len(r.frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range r.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, r.delay)
	}
	return gif.EncodeAll(w, &anim)
}

func (r *Recorder) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
