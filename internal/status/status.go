// Package status provides a thread-safe status tracker for the buzzer daemon.
// It is read by the CLI status command and by heartbeat publishing.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/pi-buzzer/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	Backend     string
	TieBreak    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Round         int
	Result        *logic.RoundResult // nil while the round is open
	Channels      []logic.ChannelStatus
	Degraded      []int
	Resets        int
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Locked reports whether the round has a winner.
func (s Snapshot) Locked() bool {
	return s.Result != nil
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// IsDegraded reports whether pin is currently failing reads.
func (s Snapshot) IsDegraded(pin int) bool {
	for _, p := range s.Degraded {
		if p == pin {
			return true
		}
	}
	return false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Round:     1,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the round, result, channel states and degraded pins.
// Called from runLoop on every tick. Slices are copied.
func (t *Tracker) Update(round int, result *logic.RoundResult, channels []logic.ChannelStatus, degraded []int) {
	var r *logic.RoundResult
	if result != nil {
		c := copyResult(*result)
		r = &c
	}
	chans := append([]logic.ChannelStatus(nil), channels...)
	deg := append([]int(nil), degraded...)

	t.mu.Lock()
	t.snap.Round = round
	t.snap.Result = r
	t.snap.Channels = chans
	t.snap.Degraded = deg
	t.mu.Unlock()
}

// RecordReset counts a successful reset or force reset.
func (t *Tracker) RecordReset() {
	t.mu.Lock()
	t.snap.Resets++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Channels = append([]logic.ChannelStatus(nil), t.snap.Channels...)
	s.Degraded = append([]int(nil), t.snap.Degraded...)
	if t.snap.Result != nil {
		c := copyResult(*t.snap.Result)
		s.Result = &c
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

func copyResult(r logic.RoundResult) logic.RoundResult {
	r.Presses = append([]logic.PressEvent(nil), r.Presses...)
	return r
}
