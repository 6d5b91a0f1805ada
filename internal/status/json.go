package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/pi-buzzer/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Round         int           `json:"round"`
	Locked        bool          `json:"locked"`
	Winner        *PressJSON    `json:"winner,omitempty"`
	Presses       []PressJSON   `json:"presses,omitempty"`
	Channels      []ChannelJSON `json:"channels"`
	Resets        int           `json:"resets"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Config        ConfigJSON    `json:"config"`
}

// PressJSON is one confirmed press.
type PressJSON struct {
	Seq       int    `json:"seq"`
	Pin       int    `json:"pin"`
	Player    string `json:"player"`
	Timestamp string `json:"timestamp"`
}

// ChannelJSON is the JSON representation of one buzzer channel.
type ChannelJSON struct {
	Pin      int    `json:"pin"`
	Player   string `json:"player"`
	Polarity string `json:"polarity"`
	Pressed  bool   `json:"pressed"`
	State    string `json:"state"`
	Degraded bool   `json:"degraded,omitempty"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	Backend     string `json:"backend"`
	TieBreak    string `json:"tie_break"`
}

func pressJSON(ev logic.PressEvent) PressJSON {
	return PressJSON{
		Seq:       ev.Seq,
		Pin:       ev.Pin,
		Player:    ev.Label,
		Timestamp: ev.Time.UTC().Format(time.RFC3339Nano),
	}
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Round:         snap.Round,
		Locked:        snap.Locked(),
		Channels:      make([]ChannelJSON, 0, len(snap.Channels)),
		Resets:        snap.Resets,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			Backend:     snap.Config.Backend,
			TieBreak:    snap.Config.TieBreak,
		},
	}

	if snap.Result != nil {
		w := pressJSON(snap.Result.Winner)
		inner.Winner = &w
		for _, p := range snap.Result.Presses {
			inner.Presses = append(inner.Presses, pressJSON(p))
		}
	}

	for _, c := range snap.Channels {
		inner.Channels = append(inner.Channels, ChannelJSON{
			Pin:      c.Channel.Pin,
			Player:   c.Channel.Label,
			Polarity: string(c.Channel.Polarity),
			Pressed:  c.Pressed,
			State:    c.State.String(),
			Degraded: snap.IsDegraded(c.Channel.Pin),
		})
	}
	return inner
}

// FormatJSON returns the indented JSON status for the CLI (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
