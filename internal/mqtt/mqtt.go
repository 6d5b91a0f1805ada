// Package mqtt publishes buzzer decisions and lifecycle events to MQTT, with
// an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pi-buzzer/internal/logic"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "buzzer"

// Topics are the MQTT topics the publisher writes to.
type Topics struct {
	Press  string // every confirmed press
	Round  string // round result when the winner is decided
	System string // lifecycle events
}

// TopicsFor derives the topics from a prefix.
func TopicsFor(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Press:  prefix + "/press",
		Round:  prefix + "/round",
		System: prefix + "/system",
	}
}

// Publisher publishes buzzer events to MQTT.
type Publisher interface {
	// PublishPress sends one arbitration decision.
	// Returns error if publishing fails (should not crash the process).
	PublishPress(d logic.Decision) error

	// PublishRound sends the current round result.
	PublishRound(r logic.RoundResult) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT", "RESET"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// timeFormat keeps sub-second precision; near-ties are milliseconds apart.
const timeFormat = time.RFC3339Nano

// PressJSON is one press event on the wire.
type PressJSON struct {
	Timestamp string `json:"timestamp"`
	Onset     string `json:"onset,omitempty"`
	Pin       int    `json:"pin"`
	Player    string `json:"player"`
	Seq       int    `json:"seq"`
}

// PressPayload is the payload published on Topics.Press.
type PressPayload struct {
	Press PressInner `json:"press"`
}

// PressInner contains the decision details.
type PressInner struct {
	Round    int       `json:"round"`
	Winner   bool      `json:"winner"`
	Position int       `json:"position"`
	Event    PressJSON `json:"event"`
}

// RoundPayload is the payload published on Topics.Round.
type RoundPayload struct {
	Round RoundInner `json:"round"`
}

// RoundInner contains the round result.
type RoundInner struct {
	Number  int         `json:"number"`
	Winner  PressJSON   `json:"winner"`
	Presses []PressJSON `json:"presses"`
}

func pressJSON(ev logic.PressEvent) PressJSON {
	p := PressJSON{
		Timestamp: ev.Time.UTC().Format(timeFormat),
		Pin:       ev.Pin,
		Player:    ev.Label,
		Seq:       ev.Seq,
	}
	if !ev.Onset.IsZero() {
		p.Onset = ev.Onset.UTC().Format(timeFormat)
	}
	return p
}

// FormatPressPayload creates the JSON payload for a decision.
func FormatPressPayload(d logic.Decision) ([]byte, error) {
	return json.Marshal(PressPayload{
		Press: PressInner{
			Round:    d.Round,
			Winner:   d.Winner,
			Position: d.Position,
			Event:    pressJSON(d.Event),
		},
	})
}

// FormatRoundPayload creates the JSON payload for a round result.
func FormatRoundPayload(r logic.RoundResult) ([]byte, error) {
	presses := make([]PressJSON, len(r.Presses))
	for i, p := range r.Presses {
		presses[i] = pressJSON(p)
	}
	return json.Marshal(RoundPayload{
		Round: RoundInner{
			Number:  r.Round,
			Winner:  pressJSON(r.Winner),
			Presses: presses,
		},
	})
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Discard is a Publisher that drops everything. Used when no broker is
// configured.
type Discard struct{}

func (Discard) PublishPress(logic.Decision) error    { return nil }
func (Discard) PublishRound(logic.RoundResult) error { return nil }
func (Discard) PublishSystem(SystemEvent) error      { return nil }
func (Discard) Close() error                         { return nil }
func (Discard) IsConnected() bool                    { return false }
