package logic

import (
	"errors"
	"fmt"
	"time"
)

// Debounce window limits accepted by Validate.
const (
	MinWindow     = time.Millisecond
	MaxWindow     = time.Second
	DefaultWindow = 30 * time.Millisecond
)

// ErrInvalidConfig is returned for configuration that cannot start a round.
var ErrInvalidConfig = errors.New("invalid buzzer config")

// Config is the arbiter configuration, supplied once at startup.
type Config struct {
	// Channels in configured order. This order is also the sampling order.
	Channels []Channel
	// Window is the default debounce window for channels that do not set one.
	Window   time.Duration
	TieBreak TieBreak
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.Window == 0 {
		c.Window = DefaultWindow
	}
	if c.TieBreak == "" {
		c.TieBreak = TieBreakLowestPin
	}
	chans := make([]Channel, len(c.Channels))
	for i, ch := range c.Channels {
		if ch.Window == 0 {
			ch.Window = c.Window
		}
		if ch.Polarity == "" {
			ch.Polarity = ActiveLow
		}
		chans[i] = ch
	}
	c.Channels = chans
	return c
}

// Validate checks the configuration after defaults are applied.
func (c Config) Validate() error {
	c = c.withDefaults()

	if len(c.Channels) == 0 {
		return fmt.Errorf("%w: no channels configured", ErrInvalidConfig)
	}
	if !c.TieBreak.Valid() {
		return fmt.Errorf("%w: unknown tie-break %q", ErrInvalidConfig, c.TieBreak)
	}
	if err := checkWindow(c.Window); err != nil {
		return fmt.Errorf("%w: default window: %v", ErrInvalidConfig, err)
	}

	seen := make(map[int]string, len(c.Channels))
	for _, ch := range c.Channels {
		if ch.Pin < 0 {
			return fmt.Errorf("%w: negative pin %d", ErrInvalidConfig, ch.Pin)
		}
		if ch.Label == "" {
			return fmt.Errorf("%w: pin %d has no label", ErrInvalidConfig, ch.Pin)
		}
		if prev, dup := seen[ch.Pin]; dup {
			return fmt.Errorf("%w: pin %d assigned to both %q and %q", ErrInvalidConfig, ch.Pin, prev, ch.Label)
		}
		seen[ch.Pin] = ch.Label
		if !ch.Polarity.Valid() {
			return fmt.Errorf("%w: pin %d: unknown polarity %q", ErrInvalidConfig, ch.Pin, ch.Polarity)
		}
		if err := checkWindow(ch.Window); err != nil {
			return fmt.Errorf("%w: pin %d: %v", ErrInvalidConfig, ch.Pin, err)
		}
	}
	return nil
}

func checkWindow(w time.Duration) error {
	if w < MinWindow || w > MaxWindow {
		return fmt.Errorf("debounce window %v outside [%v, %v]", w, MinWindow, MaxWindow)
	}
	return nil
}
