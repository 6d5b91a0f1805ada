package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/pi-buzzer/internal/gpio"
	"github.com/sweeney/pi-buzzer/internal/logic"
	"github.com/sweeney/pi-buzzer/internal/mqtt"
	"github.com/sweeney/pi-buzzer/internal/players"
)

// Backends accepted by --backend.
const (
	backendCdev   = "cdev"
	backendPeriph = "periph"
	backendMock   = "mock"
)

// options are the daemon settings after merging flags over the config file.
type options struct {
	poll        time.Duration
	debounce    time.Duration
	heartbeat   time.Duration
	backend     string
	chip        string
	broker      string
	topicPrefix string
	tieBreak    string
}

func defaultOptions() options {
	return options{
		poll:        2 * time.Millisecond,
		debounce:    logic.DefaultWindow,
		heartbeat:   15 * time.Minute,
		backend:     backendCdev,
		chip:        gpio.DefaultChip,
		topicPrefix: mqtt.DefaultPrefix,
		tieBreak:    string(logic.TieBreakLowestPin),
	}
}

// bindBackendFlags registers the flags shared by every command that opens GPIO.
func bindBackendFlags(cmd *cobra.Command, o *options) {
	cmd.Flags().StringVar(&o.backend, "backend", o.backend, "GPIO backend: cdev, periph or mock")
	cmd.Flags().StringVar(&o.chip, "chip", o.chip, "GPIO character device (cdev backend)")
}

// applySettings copies config file settings into o for every flag that was
// not given on the command line.
func applySettings(cmd *cobra.Command, o *options, st players.Settings) {
	unset := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f == nil || !f.Changed
	}
	if st.PollMs > 0 && unset("poll") {
		o.poll = time.Duration(st.PollMs) * time.Millisecond
	}
	if st.DebounceMs > 0 && unset("debounce") {
		o.debounce = time.Duration(st.DebounceMs) * time.Millisecond
	}
	if st.HeartbeatS > 0 && unset("heartbeat") {
		o.heartbeat = time.Duration(st.HeartbeatS) * time.Second
	}
	if st.Backend != "" && unset("backend") {
		o.backend = st.Backend
	}
	if st.Chip != "" && unset("chip") {
		o.chip = st.Chip
	}
	if st.Broker != "" && unset("broker") {
		o.broker = st.Broker
	}
	if st.TieBreak != "" && unset("tie-break") {
		o.tieBreak = st.TieBreak
	}
}

func (o options) validate() error {
	switch o.backend {
	case backendCdev, backendPeriph, backendMock:
	default:
		return fmt.Errorf("unknown backend %q (must be cdev, periph or mock)", o.backend)
	}
	if o.poll <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", o.poll)
	}
	if o.heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %v", o.heartbeat)
	}
	return nil
}

// openReader opens the configured backend for chans. The mock backend also
// returns its FakeReader so the operator can simulate presses.
func openReader(o options, chans []logic.Channel) (gpio.Reader, *gpio.FakeReader, error) {
	switch o.backend {
	case backendCdev:
		r, err := gpio.NewRealReader(o.chip, gpio.LinesFor(chans))
		if err != nil {
			return nil, nil, fmt.Errorf("init gpio: %w", err)
		}
		return r, nil, nil
	case backendPeriph:
		r, err := gpio.NewPeriphReader(gpio.LinesFor(chans))
		if err != nil {
			return nil, nil, fmt.Errorf("init gpio: %w", err)
		}
		return r, nil, nil
	case backendMock:
		levels := make(map[int][]bool, len(chans))
		for _, ch := range chans {
			levels[ch.Pin] = []bool{gpio.ReleasedLevel(ch.Polarity)}
		}
		f := gpio.NewFakeReader(levels)
		return f, f, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", o.backend)
}

// loadConfig reads the config file, merges its settings into o and returns
// the enabled players as channels.
func loadConfig(cmd *cobra.Command, path string, o *options) ([]logic.Channel, error) {
	store, err := players.Load(path)
	if err != nil {
		return nil, err
	}
	applySettings(cmd, o, store.Settings())
	if err := o.validate(); err != nil {
		return nil, err
	}

	chans := store.Channels(o.debounce)
	if len(chans) == 0 {
		return nil, fmt.Errorf("no enabled players in %s (add one with: pi-buzzer players add <name> <pin>)", store.Path())
	}
	return chans, nil
}
