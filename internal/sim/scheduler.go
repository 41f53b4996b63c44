package sim

import (
	"sync"
	"time"
)

// TickerScheduler runs a time.Ticker on its own goroutine and calls fire on
// every tick. fire must only hand the tick to the host's event queue, never
// touch controller state directly.
type TickerScheduler struct {
	mu      sync.Mutex
	fire    func()
	ticker  *time.Ticker
	done    chan struct{}
	running bool
}

func NewTickerScheduler(fire func()) *TickerScheduler {
	return &TickerScheduler{fire: fire}
}

func (s *TickerScheduler) Start(period time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.ticker = time.NewTicker(period)
	s.done = make(chan struct{})
	s.running = true

	go func(t *time.Ticker, done <-chan struct{}) {
		for {
			select {
			case <-done:
				return
			case <-t.C:
				s.fire()
			}
		}
	}(s.ticker, s.done)
}

func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.ticker.Stop()
	close(s.done)
	s.running = false
}

func (s *TickerScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// maxCatchUp bounds how many ticks a single Due call reports after a stall.
const maxCatchUp = 4

// ManualScheduler is driven by the host's own frame loop: the host asks how
// many periods have elapsed and runs that many ticks.
type ManualScheduler struct {
	period  time.Duration
	last    time.Time
	running bool
	now     func() time.Time

	Starts, Stops int
}

func NewManualScheduler(now func() time.Time) *ManualScheduler {
	if now == nil {
		now = time.Now
	}
	return &ManualScheduler{now: now}
}

func (s *ManualScheduler) Start(period time.Duration) {
	s.period, s.last, s.running = period, s.now(), true
	s.Starts++
}

func (s *ManualScheduler) Stop() {
	s.running = false
	s.Stops++
}

func (s *ManualScheduler) Running() bool { return s.running }

// Due returns the number of whole periods elapsed since the last call,
// capped at maxCatchUp. Missed periods beyond the cap are dropped.
func (s *ManualScheduler) Due(now time.Time) int {
	if !s.running || s.period <= 0 {
		return 0
	}
	n := int(now.Sub(s.last) / s.period)
	if n <= 0 {
		return 0
	}
	if n > maxCatchUp {
		s.last = now
		return maxCatchUp
	}
	s.last = s.last.Add(time.Duration(n) * s.period)
	return n
}
