// Package logic contains the pure buzzer logic: per-channel debouncing and
// first-press arbitration across channels.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// Polarity describes how a buzzer is wired.
type Polarity string

const (
	// ActiveLow buzzers pull the pin to ground when pressed (pull-up wiring).
	ActiveLow Polarity = "low"
	// ActiveHigh buzzers drive the pin high when pressed (pull-down wiring).
	ActiveHigh Polarity = "high"
)

// Valid reports whether p is a known polarity.
func (p Polarity) Valid() bool {
	return p == ActiveLow || p == ActiveHigh
}

// Pressed converts a raw pin level into the logical pressed state.
func (p Polarity) Pressed(high bool) bool {
	if p == ActiveLow {
		return !high
	}
	return high
}

// Channel identifies one physical buzzer.
type Channel struct {
	Pin      int // BCM pin number, unique per arbiter
	Label    string
	Polarity Polarity
	// Window is the debounce window for this channel. Zero means the
	// arbiter default.
	Window time.Duration
}

func (c Channel) String() string {
	return fmt.Sprintf("%s (GPIO %d)", c.Label, c.Pin)
}

// RawSample is a single polarity-corrected reading of a channel.
type RawSample struct {
	Pin     int
	Pressed bool
	Time    time.Time
}

// DebounceState is the state of a channel's debounce state machine.
type DebounceState int

const (
	Released DebounceState = iota
	PendingPress
	Pressed
	PendingRelease
)

func (s DebounceState) String() string {
	switch s {
	case Released:
		return "RELEASED"
	case PendingPress:
		return "PENDING_PRESS"
	case Pressed:
		return "PRESSED"
	case PendingRelease:
		return "PENDING_RELEASE"
	}
	return fmt.Sprintf("DebounceState(%d)", int(s))
}

// PressEvent is emitted when a debouncer confirms a released to pressed
// transition.
type PressEvent struct {
	Pin   int
	Label string
	// Time is when the press was confirmed (end of the debounce window).
	Time time.Time
	// Onset is the first pressed sample of this press.
	Onset time.Time
	// Seq is the arrival position within the round, starting at 1.
	// Zero until the event reaches the arbiter.
	Seq int
}

// Decision describes what the arbiter did with a press event.
type Decision struct {
	Round  int
	Event  PressEvent
	Winner bool
	// Position is the index of the event in the round's press list.
	Position int
}

// RoundResult is the outcome of one round.
type RoundResult struct {
	Round  int
	Winner PressEvent
	// Presses holds every confirmed press of the round in arrival order,
	// winner first.
	Presses []PressEvent
}

// TieBreak orders press events delivered in the same serialization step.
type TieBreak string

const (
	// TieBreakLowestPin lets the lower pin number win.
	TieBreakLowestPin TieBreak = "lowest-pin"
	// TieBreakConfigOrder lets the channel configured first win.
	TieBreakConfigOrder TieBreak = "config-order"
)

// Valid reports whether t is a known tie-break policy.
func (t TieBreak) Valid() bool {
	return t == TieBreakLowestPin || t == TieBreakConfigOrder
}
