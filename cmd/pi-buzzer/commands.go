package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/pi-buzzer/internal/status"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdReset
	cmdForceReset
	cmdStatus
	cmdPress
	cmdHelp
	cmdQuit
)

const commandHelp = `commands:
  r        reset (fails while a buzzer is held)
  f        force reset
  s        show status
  p <pin>  simulate a press (mock backend only)
  h        show this help
  q        quit`

type command struct {
	kind commandKind
	pin  int // cmdPress only
}

// parseCommand parses one line of operator input. Blank lines are cmdNone.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{kind: cmdNone}, nil
	}

	switch fields[0] {
	case "r", "reset":
		return command{kind: cmdReset}, nil
	case "f", "force":
		return command{kind: cmdForceReset}, nil
	case "s", "status":
		return command{kind: cmdStatus}, nil
	case "h", "help", "?":
		return command{kind: cmdHelp}, nil
	case "q", "quit", "exit":
		return command{kind: cmdQuit}, nil
	case "p", "press":
		if len(fields) != 2 {
			return command{}, fmt.Errorf("usage: p <pin>")
		}
		pin, err := strconv.Atoi(fields[1])
		if err != nil {
			return command{}, fmt.Errorf("invalid pin %q", fields[1])
		}
		return command{kind: cmdPress, pin: pin}, nil
	}
	return command{}, fmt.Errorf("unknown command %q (h for help)", fields[0])
}

// readCommands sends each input line to cmds and closes it at EOF. The
// prompt is only written when the input is a terminal.
func readCommands(r io.Reader, w io.Writer, prompt bool, cmds chan<- string) {
	defer close(cmds)
	sc := bufio.NewScanner(r)
	for {
		if prompt {
			fmt.Fprint(w, "> ")
		}
		if !sc.Scan() {
			return
		}
		cmds <- sc.Text()
	}
}

func printStatus(w io.Writer, snap status.Snapshot) {
	fmt.Fprintf(w, "round %d: ", snap.Round)
	if snap.Result == nil {
		fmt.Fprintln(w, "open")
	} else {
		fmt.Fprintf(w, "won by %s\n", snap.Result.Winner.Label)
		for _, p := range snap.Result.Presses {
			delay := p.Time.Sub(snap.Result.Winner.Time)
			fmt.Fprintf(w, "  %d. %-12s +%v\n", p.Seq, p.Label, delay)
		}
	}
	for _, c := range snap.Channels {
		level := "released"
		if c.Pressed {
			level = "pressed"
		}
		if snap.IsDegraded(c.Channel.Pin) {
			level = "READ ERROR"
		}
		fmt.Fprintf(w, "  %-20s %-10s %s\n", c.Channel, level, c.State)
	}
	fmt.Fprintf(w, "mqtt connected: %v, resets: %d, uptime: %v\n",
		snap.MQTTConnected, snap.Resets, snap.Uptime().Truncate(time.Second))
}
