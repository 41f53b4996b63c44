package control

import "github.com/san-kum/fluidpaint/internal/dynamo"

// Target receives pointer gestures.
type Target interface {
	OnPress(p dynamo.Point)
	OnMove(p dynamo.Point)
	OnRelease()
}

// Poller derives press/move/release edges from per-frame button samples.
type Poller struct {
	down bool
	last dynamo.Point
}

// Update feeds one sample. A rising edge presses at pos, a held button
// moves when pos changed, a falling edge releases.
func (p *Poller) Update(t Target, down bool, pos dynamo.Point) {
	switch {
	case down && !p.down:
		t.OnPress(pos)
	case down && pos != p.last:
		t.OnMove(pos)
	case !down && p.down:
		t.OnRelease()
	}
	p.down, p.last = down, pos
}

func (p *Poller) Down() bool { return p.down }
