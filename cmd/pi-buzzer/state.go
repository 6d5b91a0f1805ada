package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/pi-buzzer/internal/gpio"
	"github.com/sweeney/pi-buzzer/internal/logic"
	"github.com/sweeney/pi-buzzer/internal/status"
)

func newStateCmd(configPath *string) *cobra.Command {
	o := defaultOptions()
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Print every enabled player's buzzer level and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chans, err := loadConfig(cmd, *configPath, &o)
			if err != nil {
				return err
			}
			reader, _, err := openReader(o, chans)
			if err != nil {
				return err
			}
			defer reader.Close()

			snap := readState(gpio.NewPinReader(reader, nil), chans, time.Now())
			snap.Config = status.Config{DebounceMs: o.debounce.Milliseconds(), Backend: o.backend}
			if asJSON {
				fmt.Fprintln(cmd.OutOrStdout(), string(status.FormatJSON(snap)))
			} else {
				printState(cmd.OutOrStdout(), snap)
			}
			if len(snap.Degraded) > 0 {
				return errors.New("some buzzers could not be read")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	bindBackendFlags(cmd, &o)
	return cmd
}

// readState samples every channel once. Unreadable channels are listed in
// Degraded.
func readState(p *gpio.PinReader, chans []logic.Channel, now time.Time) status.Snapshot {
	snap := status.Snapshot{StartTime: now, Now: now}
	for _, ch := range chans {
		cs := logic.ChannelStatus{Channel: ch, State: logic.Released}
		s, err := p.Sample(ch)
		if err != nil {
			snap.Degraded = append(snap.Degraded, ch.Pin)
		} else if s.Pressed {
			cs.Pressed = true
			cs.State = logic.Pressed
		}
		snap.Channels = append(snap.Channels, cs)
	}
	return snap
}

func printState(w io.Writer, snap status.Snapshot) {
	for _, c := range snap.Channels {
		level := "RELEASED"
		if c.Pressed {
			level = "PRESSED"
		}
		if snap.IsDegraded(c.Channel.Pin) {
			level = "READ ERROR"
		}
		fmt.Fprintf(w, "%s: %s\n", c.Channel, level)
	}
}
