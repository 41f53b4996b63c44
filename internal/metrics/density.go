package metrics

import "github.com/san-kum/fluidpaint/internal/dynamo"

// SaturationDensity is the density at which the blue channel reaches 255.
const SaturationDensity = 5.0

type Metric interface {
	Name() string
	Observe(grid dynamo.DensityGrid, impulses int)
	Value() float64
	Reset()
}

// Stats summarises one density frame.
type Stats struct {
	Total, Peak, Mean float64
	Saturated         int
}

func Measure(grid dynamo.DensityGrid) Stats {
	w, h := grid.Width(), grid.Height()
	var s Stats
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := grid.Density(x, y)
			s.Total += d
			if d > s.Peak {
				s.Peak = d
			}
			if d >= SaturationDensity {
				s.Saturated++
			}
		}
	}
	if n := w * h; n > 0 {
		s.Mean = s.Total / float64(n)
	}
	return s
}

// Mass reports the total density of the most recent frame.
type Mass struct {
	total float64
}

func NewMass() *Mass { return &Mass{} }

func (m *Mass) Name() string { return "mass" }

func (m *Mass) Observe(grid dynamo.DensityGrid, _ int) { m.total = Measure(grid).Total }

func (m *Mass) Value() float64 { return m.total }

func (m *Mass) Reset() { m.total = 0 }

// Saturation is the fraction of cells whose blue channel clipped in the
// most recent frame.
type Saturation struct {
	fraction float64
}

func NewSaturation() *Saturation { return &Saturation{} }

func (s *Saturation) Name() string { return "saturation" }

func (s *Saturation) Observe(grid dynamo.DensityGrid, _ int) {
	n := grid.Width() * grid.Height()
	if n == 0 {
		s.fraction = 0
		return
	}
	s.fraction = float64(Measure(grid).Saturated) / float64(n)
}

func (s *Saturation) Value() float64 { return s.fraction }

func (s *Saturation) Reset() { s.fraction = 0 }

// ImpulseRate is the mean number of impulses injected per tick.
type ImpulseRate struct {
	total, samples int
}

func NewImpulseRate() *ImpulseRate { return &ImpulseRate{} }

func (r *ImpulseRate) Name() string { return "impulses_per_tick" }

func (r *ImpulseRate) Observe(_ dynamo.DensityGrid, impulses int) {
	r.total += impulses
	r.samples++
}

func (r *ImpulseRate) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.total) / float64(r.samples)
}

func (r *ImpulseRate) Reset() { r.total, r.samples = 0, 0 }
