package logic

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrInvalidResetState is returned by Reset while a buzzer is still held.
	ErrInvalidResetState = errors.New("reset while buzzer held")
	// ErrUnknownChannel is returned for samples from an unconfigured pin.
	ErrUnknownChannel = errors.New("unknown channel")
)

// ResetError lists the pins that blocked a reset.
type ResetError struct {
	Held []int
}

func (e *ResetError) Error() string {
	return fmt.Sprintf("%v: pins %v still pressed", ErrInvalidResetState, e.Held)
}

func (e *ResetError) Unwrap() error {
	return ErrInvalidResetState
}

// ChannelStatus is a point-in-time view of one channel.
type ChannelStatus struct {
	Channel Channel
	Pressed bool // last observed level
	State   DebounceState
}

// channel is the arbiter's per-channel bookkeeping.
type channel struct {
	cfg        Channel
	debouncer  *Debouncer
	pressed    bool
	// unreadable is set while reads fail; the last level is then unknown.
	unreadable bool
	order      int
}

// Arbiter decides which confirmed press of a round came first.
// All methods are safe for concurrent use; the mutex is the single
// serialization point that defines arrival order.
type Arbiter struct {
	mu       sync.Mutex
	tieBreak TieBreak
	channels []*channel
	byPin    map[int]*channel
	result   *RoundResult
	round    int
}

// NewArbiter validates cfg and creates an arbiter with an open round.
func NewArbiter(cfg Config) (*Arbiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	a := &Arbiter{
		tieBreak: cfg.TieBreak,
		byPin:    make(map[int]*channel, len(cfg.Channels)),
		round:    1,
	}
	for i, ch := range cfg.Channels {
		c := &channel{cfg: ch, debouncer: NewDebouncer(ch.Window), order: i}
		a.channels = append(a.channels, c)
		a.byPin[ch.Pin] = c
	}
	return a, nil
}

// FeedSample processes one sample. It returns a non-nil Decision when the
// sample confirmed a press.
func (a *Arbiter) FeedSample(s RawSample) (*Decision, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.byPin[s.Pin]
	if !ok {
		return nil, fmt.Errorf("%w: pin %d", ErrUnknownChannel, s.Pin)
	}
	c.pressed = s.Pressed
	c.unreadable = false
	if !c.debouncer.Process(s.Pressed, s.Time) {
		return nil, nil
	}

	d := a.record(PressEvent{
		Pin:   c.cfg.Pin,
		Label: c.cfg.Label,
		Time:  s.Time,
		Onset: c.debouncer.Onset(),
	})
	return &d, nil
}

// OnPressEvent records a press delivered on its own.
func (a *Arbiter) OnPressEvent(ev PressEvent) Decision {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.record(ev)
}

// OnPressEvents records presses delivered in the same serialization step.
// They are ordered by the tie-break policy before being recorded.
func (a *Arbiter) OnPressEvents(evs ...PressEvent) []Decision {
	a.mu.Lock()
	defer a.mu.Unlock()

	ordered := make([]PressEvent, len(evs))
	copy(ordered, evs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return a.less(ordered[i].Pin, ordered[j].Pin)
	})

	out := make([]Decision, 0, len(ordered))
	for _, ev := range ordered {
		out = append(out, a.record(ev))
	}
	return out
}

func (a *Arbiter) less(p, q int) bool {
	if a.tieBreak == TieBreakConfigOrder {
		cp, okp := a.byPin[p]
		cq, okq := a.byPin[q]
		if okp && okq {
			return cp.order < cq.order
		}
	}
	return p < q
}

// record appends ev to the round. Caller holds a.mu.
func (a *Arbiter) record(ev PressEvent) Decision {
	if a.result == nil {
		ev.Seq = 1
		a.result = &RoundResult{
			Round:   a.round,
			Winner:  ev,
			Presses: []PressEvent{ev},
		}
		return Decision{Round: a.round, Event: ev, Winner: true, Position: 0}
	}

	ev.Seq = len(a.result.Presses) + 1
	a.result.Presses = append(a.result.Presses, ev)
	return Decision{Round: a.round, Event: ev, Position: len(a.result.Presses) - 1}
}

// CurrentResult returns a copy of this round's result. The boolean is false
// before the first press of the round.
func (a *Arbiter) CurrentResult() (RoundResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.result == nil {
		return RoundResult{}, false
	}
	r := *a.result
	r.Presses = append([]PressEvent(nil), a.result.Presses...)
	return r, true
}

// Locked reports whether a winner has been recorded this round.
func (a *Arbiter) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result != nil
}

// Round returns the current round number, starting at 1.
func (a *Arbiter) Round() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.round
}

// Channels returns the configured channels in configured order.
func (a *Arbiter) Channels() []Channel {
	out := make([]Channel, len(a.channels))
	for i, c := range a.channels {
		out[i] = c.cfg
	}
	return out
}

// Status returns the last observed level and debounce state per channel.
func (a *Arbiter) Status() []ChannelStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]ChannelStatus, len(a.channels))
	for i, c := range a.channels {
		out[i] = ChannelStatus{Channel: c.cfg, Pressed: c.pressed, State: c.debouncer.State()}
	}
	return out
}

// MarkUnreadable records that pin could not be read. Its last level no
// longer counts as held until a sample arrives again.
func (a *Arbiter) MarkUnreadable(pin int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	c, ok := a.byPin[pin]
	if !ok {
		return fmt.Errorf("%w: pin %d", ErrUnknownChannel, pin)
	}
	c.unreadable = true
	c.pressed = false
	return nil
}

// Held returns the pins whose last observed level is pressed. Unreadable
// pins are not held.
func (a *Arbiter) Held() []int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.held()
}

func (a *Arbiter) held() []int {
	var pins []int
	for _, c := range a.channels {
		if c.pressed {
			pins = append(pins, c.cfg.Pin)
		}
	}
	return pins
}

// Reset starts a new round. It fails with ErrInvalidResetState while any
// channel still reads pressed. Resetting an open round clears pending
// presses but keeps the round number.
func (a *Arbiter) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if held := a.held(); len(held) > 0 {
		return &ResetError{Held: held}
	}
	a.clear()
	for _, c := range a.channels {
		a.rearm(c)
	}
	return nil
}

// ForceReset starts a new round regardless of held buttons. Held channels
// must be released and pressed again before they count.
func (a *Arbiter) ForceReset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.clear()
	for _, c := range a.channels {
		a.rearm(c)
	}
}

// rearm prepares c for a new round. A channel held down, or one that went
// unreadable mid-press, must read released before it can press again.
// Caller holds a.mu.
func (a *Arbiter) rearm(c *channel) {
	if c.pressed || (c.unreadable && c.debouncer.State() != Released) {
		c.debouncer.Hold()
		return
	}
	c.debouncer.Reset()
}

// clear drops the round result. Caller holds a.mu.
func (a *Arbiter) clear() {
	if a.result == nil {
		return
	}
	a.result = nil
	a.round++
}
