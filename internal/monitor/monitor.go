// Package monitor runs the sampling tick: it reads every channel in
// configured order and feeds the samples to the arbiter.
package monitor

import (
	"github.com/sweeney/pi-buzzer/internal/logic"
)

// Sampler reads one channel. gpio.PinReader implements it.
type Sampler interface {
	Sample(ch logic.Channel) (logic.RawSample, error)
}

// Fault is a failed read of one channel during a tick.
type Fault struct {
	Channel logic.Channel
	Err     error
}

// Report is the outcome of one tick.
type Report struct {
	// Decisions confirmed this tick, in arrival order.
	Decisions []logic.Decision
	// Faults lists every channel that could not be read this tick.
	Faults []Fault
	// Degraded lists channels that started failing this tick.
	Degraded []Fault
	// Recovered lists channels that read again after failing.
	Recovered []logic.Channel
}

// Monitor owns the sampling order and per-channel health.
// Not safe for concurrent use: one goroutine drives Tick.
type Monitor struct {
	sampler  Sampler
	arbiter  *logic.Arbiter
	channels []logic.Channel
	degraded map[int]bool
}

// New creates a Monitor sampling the arbiter's channels in configured order.
func New(sampler Sampler, arbiter *logic.Arbiter) *Monitor {
	return &Monitor{
		sampler:  sampler,
		arbiter:  arbiter,
		channels: arbiter.Channels(),
		degraded: make(map[int]bool),
	}
}

// Tick samples every channel once. A channel that cannot be read is skipped
// for this tick; the others are still processed.
func (m *Monitor) Tick() Report {
	var r Report
	for _, ch := range m.channels {
		s, err := m.sampler.Sample(ch)
		if err != nil {
			f := Fault{Channel: ch, Err: err}
			// Pin comes from the arbiter's own channels.
			_ = m.arbiter.MarkUnreadable(ch.Pin)
			r.Faults = append(r.Faults, f)
			if !m.degraded[ch.Pin] {
				m.degraded[ch.Pin] = true
				r.Degraded = append(r.Degraded, f)
			}
			continue
		}
		if m.degraded[ch.Pin] {
			delete(m.degraded, ch.Pin)
			r.Recovered = append(r.Recovered, ch)
		}

		d, err := m.arbiter.FeedSample(s)
		if err != nil {
			// Only possible for an unconfigured pin, which Channels() excludes.
			r.Faults = append(r.Faults, Fault{Channel: ch, Err: err})
			continue
		}
		if d != nil {
			r.Decisions = append(r.Decisions, *d)
		}
	}
	return r
}

// Degraded returns the pins currently failing, in sampling order.
func (m *Monitor) Degraded() []int {
	var pins []int
	for _, ch := range m.channels {
		if m.degraded[ch.Pin] {
			pins = append(pins, ch.Pin)
		}
	}
	return pins
}

// Channels returns the channels in sampling order.
func (m *Monitor) Channels() []logic.Channel {
	return append([]logic.Channel(nil), m.channels...)
}
