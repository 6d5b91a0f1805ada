package logic

import "time"

// Debouncer converts noisy samples of one channel into clean presses.
// It holds no timers: state only advances when a sample is processed.
type Debouncer struct {
	window time.Duration
	state  DebounceState
	// since is when the pending state was first observed
	since time.Time
	// onset is the first pressed sample of the current press
	onset time.Time
}

// NewDebouncer creates a debouncer in the Released state.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Process feeds one sample taken at now. It returns true exactly once per
// press-and-hold, when the press has been stable for the debounce window.
func (d *Debouncer) Process(pressed bool, now time.Time) bool {
	switch d.state {
	case Released:
		if pressed {
			d.state = PendingPress
			d.since = now
			d.onset = now
		}

	case PendingPress:
		if !pressed {
			// Bounce rejected
			d.state = Released
			return false
		}
		if now.Sub(d.since) >= d.window {
			d.state = Pressed
			return true
		}

	case Pressed:
		if !pressed {
			d.state = PendingRelease
			d.since = now
		}

	case PendingRelease:
		if pressed {
			// Bounce rejected
			d.state = Pressed
			return false
		}
		if now.Sub(d.since) >= d.window {
			d.state = Released
		}
	}
	return false
}

// State returns the current state.
func (d *Debouncer) State() DebounceState {
	return d.state
}

// Onset returns the time of the first pressed sample of the latest press.
func (d *Debouncer) Onset() time.Time {
	return d.onset
}

// Window returns the debounce window.
func (d *Debouncer) Window() time.Duration {
	return d.window
}

// Reset returns the debouncer to Released and clears pending fields.
func (d *Debouncer) Reset() {
	d.state = Released
	d.since = time.Time{}
	d.onset = time.Time{}
}

// Hold forces the Pressed state without emitting a press. The channel must
// be released for a full window before it can press again.
func (d *Debouncer) Hold() {
	d.state = Pressed
	d.since = time.Time{}
}
