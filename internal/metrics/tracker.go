package metrics

import "github.com/san-kum/fluidpaint/internal/dynamo"

// History is a bounded series of samples, oldest first.
type History struct {
	values   []float64
	capacity int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{values: make([]float64, 0, capacity), capacity: capacity}
}

func (h *History) Push(v float64) {
	if len(h.values) == h.capacity {
		copy(h.values, h.values[1:])
		h.values = h.values[:len(h.values)-1]
	}
	h.values = append(h.values, v)
}

// Values returns a copy of the samples.
func (h *History) Values() []float64 {
	out := make([]float64, len(h.values))
	copy(out, h.values)
	return out
}

func (h *History) Len() int { return len(h.values) }

func (h *History) Reset() { h.values = h.values[:0] }

// Tracker observes every tick, feeds its metrics and records the mass
// history. It satisfies sim.Observer.
type Tracker struct {
	metrics []Metric
	mass    *History
	last    Stats
}

func NewTracker(capacity int, ms ...Metric) *Tracker {
	return &Tracker{metrics: ms, mass: NewHistory(capacity)}
}

func (t *Tracker) OnTick(grid dynamo.DensityGrid, impulses int) {
	t.last = Measure(grid)
	t.mass.Push(t.last.Total)
	for _, m := range t.metrics {
		m.Observe(grid, impulses)
	}
}

func (t *Tracker) Last() Stats { return t.last }

func (t *Tracker) MassHistory() []float64 { return t.mass.Values() }

// Values returns the current value of every metric keyed by name.
func (t *Tracker) Values() map[string]float64 {
	out := make(map[string]float64, len(t.metrics))
	for _, m := range t.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (t *Tracker) Reset() {
	t.mass.Reset()
	t.last = Stats{}
	for _, m := range t.metrics {
		m.Reset()
	}
}
