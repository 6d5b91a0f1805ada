package monitor

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/sweeney/pi-buzzer/internal/gpio"
	"github.com/sweeney/pi-buzzer/internal/logic"
)

// fakeClock returns a function that yields start, start+step, start+2*step, ...
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

// stepClock advances only when told to, so every channel in a tick shares
// the same timestamp.
type stepClock struct {
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time { return c.now }
func (c *stepClock) advance()       { c.now = c.now.Add(c.step) }

func channels() []logic.Channel {
	return []logic.Channel{
		{Pin: 17, Label: "Alice", Polarity: logic.ActiveLow},
		{Pin: 22, Label: "Bob", Polarity: logic.ActiveLow},
		{Pin: 27, Label: "Carol", Polarity: logic.ActiveLow},
	}
}

func setup(t *testing.T, levels map[int][]bool) (*Monitor, *logic.Arbiter, *gpio.FakeReader, *stepClock) {
	t.Helper()
	a, err := logic.NewArbiter(logic.Config{Channels: channels(), Window: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewArbiter: %v", err)
	}
	f := gpio.NewFakeReader(levels)
	clk := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), step: 5 * time.Millisecond}
	return New(gpio.NewPinReader(f, clk.Now), a), a, f, clk
}

func run(m *Monitor, clk *stepClock, ticks int) []Report {
	var out []Report
	for i := 0; i < ticks; i++ {
		out = append(out, m.Tick())
		clk.advance()
	}
	return out
}

func TestTickCleanPress(t *testing.T) {
	// active-low: false = pressed
	m, a, _, clk := setup(t, map[int][]bool{
		17: {false},
		22: {true},
		27: {true},
	})

	reports := run(m, clk, 8)

	var decisions []logic.Decision
	for _, r := range reports {
		decisions = append(decisions, r.Decisions...)
	}
	if len(decisions) != 1 {
		t.Fatalf("expected 1 decision, got %d", len(decisions))
	}
	if !decisions[0].Winner || decisions[0].Event.Pin != 17 {
		t.Errorf("expected pin 17 to win, got %+v", decisions[0])
	}
	if len(reports[6].Decisions) != 1 {
		t.Errorf("expected the press on tick 6 (30ms), got %+v", reports)
	}
	if !a.Locked() {
		t.Error("arbiter should be locked")
	}
}

// Both confirm in the same tick: the channel sampled first wins.
func TestTickSameTickSamplingOrderWins(t *testing.T) {
	m, a, _, clk := setup(t, map[int][]bool{
		17: {true},
		22: {false},
		27: {false},
	})

	reports := run(m, clk, 7)
	last := reports[6]
	if len(last.Decisions) != 2 {
		t.Fatalf("expected 2 decisions in the same tick, got %d", len(last.Decisions))
	}
	if last.Decisions[0].Event.Pin != 22 || !last.Decisions[0].Winner {
		t.Errorf("expected pin 22 (sampled before 27) to win, got %+v", last.Decisions[0])
	}

	r, _ := a.CurrentResult()
	if got := []int{r.Presses[0].Pin, r.Presses[1].Pin}; !reflect.DeepEqual(got, []int{22, 27}) {
		t.Errorf("presses: got %v, want [22 27]", got)
	}
}

// A broken channel does not stop the others.
func TestTickPartialFailure(t *testing.T) {
	m, a, f, clk := setup(t, map[int][]bool{
		17: {false},
		22: {true},
		27: {true},
	})
	f.SetError(27, errors.New("pin not exported"))

	reports := run(m, clk, 8)

	if len(reports[0].Degraded) != 1 || reports[0].Degraded[0].Channel.Pin != 27 {
		t.Errorf("expected pin 27 degraded on first tick, got %+v", reports[0].Degraded)
	}
	for i, r := range reports {
		if len(r.Faults) != 1 {
			t.Errorf("tick %d: expected 1 fault, got %d", i, len(r.Faults))
		}
		if i > 0 && len(r.Degraded) != 0 {
			t.Errorf("tick %d: degraded warning repeated", i)
		}
	}
	if !errors.Is(reports[0].Faults[0].Err, gpio.ErrHardwareUnavailable) {
		t.Errorf("expected ErrHardwareUnavailable, got %v", reports[0].Faults[0].Err)
	}

	r, ok := a.CurrentResult()
	if !ok || r.Winner.Pin != 17 {
		t.Errorf("expected pin 17 to win despite pin 27 failure, got %+v", r)
	}
	if got := m.Degraded(); !reflect.DeepEqual(got, []int{27}) {
		t.Errorf("Degraded: got %v, want [27]", got)
	}

	f.SetError(27, nil)
	rep := m.Tick()
	if len(rep.Recovered) != 1 || rep.Recovered[0].Pin != 27 {
		t.Errorf("expected pin 27 recovered, got %+v", rep.Recovered)
	}
	if len(m.Degraded()) != 0 {
		t.Errorf("expected no degraded pins, got %v", m.Degraded())
	}
}

// Reset through the sampling loop.
func TestResetAfterPhysicalRelease(t *testing.T) {
	m, a, f, clk := setup(t, map[int][]bool{
		17: {true},
		22: {false},
		27: {true},
	})
	run(m, clk, 8)

	if err := a.Reset(); !errors.Is(err, logic.ErrInvalidResetState) {
		t.Fatalf("expected ErrInvalidResetState, got %v", err)
	}

	f.Set(22, true) // released
	run(m, clk, 8)

	if err := a.Reset(); err != nil {
		t.Fatalf("reset after release: %v", err)
	}
	if _, ok := a.CurrentResult(); ok {
		t.Error("expected no result after reset")
	}
}

// A pin that fails while pressed does not block reset for the others.
func TestResetWithFailedHeldChannel(t *testing.T) {
	m, a, f, clk := setup(t, map[int][]bool{
		17: {true},
		22: {false},
		27: {true},
	})
	run(m, clk, 8)
	if r, ok := a.CurrentResult(); !ok || r.Winner.Pin != 22 {
		t.Fatalf("expected pin 22 to win, got %+v", r)
	}

	f.SetError(22, errors.New("line gone"))
	run(m, clk, 2)

	if got := m.Degraded(); !reflect.DeepEqual(got, []int{22}) {
		t.Errorf("Degraded: got %v, want [22]", got)
	}
	if got := a.Held(); len(got) != 0 {
		t.Errorf("held: got %v, want none", got)
	}
	if err := a.Reset(); err != nil {
		t.Fatalf("reset with failed pin: %v", err)
	}

	f.Set(17, false) // pressed
	run(m, clk, 8)
	if r, ok := a.CurrentResult(); !ok || r.Winner.Pin != 17 {
		t.Errorf("expected pin 17 to win the new round, got %+v", r)
	}
}

func TestMonitorChannelsOrder(t *testing.T) {
	m, _, _, _ := setup(t, nil)
	got := m.Channels()
	if len(got) != 3 || got[0].Pin != 17 || got[2].Pin != 27 {
		t.Errorf("unexpected channels: %+v", got)
	}
}

func TestTickWithAdvancingClock(t *testing.T) {
	a, err := logic.NewArbiter(logic.Config{Channels: channels()[:1], Window: 30 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewArbiter: %v", err)
	}
	f := gpio.NewFakeReader(map[int][]bool{17: {false}})
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 10*time.Millisecond)
	m := New(gpio.NewPinReader(f, clock), a)

	count := 0
	for i := 0; i < 10; i++ {
		count += len(m.Tick().Decisions)
	}
	if count != 1 {
		t.Errorf("expected 1 decision, got %d", count)
	}
}
