package logic

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	ok := Channel{Pin: 17, Label: "Alice", Polarity: ActiveLow}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Channels: []Channel{ok}}, false},
		{"defaults fill polarity and window", Config{Channels: []Channel{{Pin: 4, Label: "x"}}}, false},
		{"no channels", Config{}, true},
		{"duplicate pin", Config{Channels: []Channel{ok, {Pin: 17, Label: "Bob"}}}, true},
		{"negative pin", Config{Channels: []Channel{{Pin: -1, Label: "x"}}}, true},
		{"empty label", Config{Channels: []Channel{{Pin: 4}}}, true},
		{"unknown polarity", Config{Channels: []Channel{{Pin: 4, Label: "x", Polarity: "sideways"}}}, true},
		{"window too short", Config{Channels: []Channel{ok}, Window: time.Microsecond}, true},
		{"window too long", Config{Channels: []Channel{ok}, Window: 2 * time.Second}, true},
		{"channel window out of range", Config{Channels: []Channel{{Pin: 4, Label: "x", Window: -time.Millisecond}}}, true},
		{"window at minimum", Config{Channels: []Channel{ok}, Window: MinWindow}, false},
		{"window at maximum", Config{Channels: []Channel{ok}, Window: MaxWindow}, false},
		{"unknown tie-break", Config{Channels: []Channel{ok}, TieBreak: "coin-flip"}, true},
		{"config order tie-break", Config{Channels: []Channel{ok}, TieBreak: TieBreakConfigOrder}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Channels: []Channel{
		{Pin: 4, Label: "a"},
		{Pin: 5, Label: "b", Window: 50 * time.Millisecond, Polarity: ActiveHigh},
	}}.withDefaults()

	if cfg.Window != DefaultWindow {
		t.Errorf("window: got %v, want %v", cfg.Window, DefaultWindow)
	}
	if cfg.TieBreak != TieBreakLowestPin {
		t.Errorf("tie-break: got %q, want %q", cfg.TieBreak, TieBreakLowestPin)
	}
	if cfg.Channels[0].Window != DefaultWindow || cfg.Channels[0].Polarity != ActiveLow {
		t.Errorf("channel 0 defaults: %+v", cfg.Channels[0])
	}
	if cfg.Channels[1].Window != 50*time.Millisecond || cfg.Channels[1].Polarity != ActiveHigh {
		t.Errorf("channel 1 overridden values lost: %+v", cfg.Channels[1])
	}
}

func TestPolarityPressed(t *testing.T) {
	tests := []struct {
		p    Polarity
		high bool
		want bool
	}{
		{ActiveLow, false, true},
		{ActiveLow, true, false},
		{ActiveHigh, true, true},
		{ActiveHigh, false, false},
	}
	for _, tt := range tests {
		if got := tt.p.Pressed(tt.high); got != tt.want {
			t.Errorf("%s.Pressed(%v): got %v, want %v", tt.p, tt.high, got, tt.want)
		}
	}
}
