package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/pi-buzzer/internal/logic"
	"github.com/sweeney/pi-buzzer/internal/status"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{"", command{kind: cmdNone}, false},
		{"   ", command{kind: cmdNone}, false},
		{"r", command{kind: cmdReset}, false},
		{"RESET", command{kind: cmdReset}, false},
		{"f", command{kind: cmdForceReset}, false},
		{"force", command{kind: cmdForceReset}, false},
		{"s", command{kind: cmdStatus}, false},
		{" q ", command{kind: cmdQuit}, false},
		{"exit", command{kind: cmdQuit}, false},
		{"p 17", command{kind: cmdPress, pin: 17}, false},
		{"press 4", command{kind: cmdPress, pin: 4}, false},
		{"h", command{kind: cmdHelp}, false},
		{"?", command{kind: cmdHelp}, false},
		{"p", command{}, true},
		{"p x", command{}, true},
		{"p 1 2", command{}, true},
		{"dance", command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadCommands(t *testing.T) {
	in := strings.NewReader("r\np 17\nq\n")
	var out bytes.Buffer
	cmds := make(chan string, 10)

	readCommands(in, &out, false, cmds)

	var got []string
	for line := range cmds {
		got = append(got, line)
	}
	if strings.Join(got, "|") != "r|p 17|q" {
		t.Errorf("lines: got %q", got)
	}
	if out.Len() != 0 {
		t.Errorf("expected no prompt when not interactive, got %q", out.String())
	}
}

func TestReadCommandsPrompt(t *testing.T) {
	in := strings.NewReader("s\n")
	var out bytes.Buffer
	cmds := make(chan string, 10)

	readCommands(in, &out, true, cmds)

	// One prompt before the line, one before EOF
	if out.String() != "> > " {
		t.Errorf("prompt: got %q", out.String())
	}
}

func TestPrintStatus(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	winner := logic.PressEvent{Pin: 17, Label: "Alice", Time: start, Seq: 1}
	second := logic.PressEvent{Pin: 22, Label: "Bob", Time: start.Add(12 * time.Millisecond), Seq: 2}
	snap := status.Snapshot{
		Round:  4,
		Result: &logic.RoundResult{Round: 4, Winner: winner, Presses: []logic.PressEvent{winner, second}},
		Channels: []logic.ChannelStatus{
			{Channel: alice, Pressed: true, State: logic.Pressed},
			{Channel: bob, State: logic.Released},
		},
		Degraded:  []int{22},
		StartTime: start,
		Now:       start.Add(90 * time.Second),
	}

	var out bytes.Buffer
	printStatus(&out, snap)
	got := out.String()

	for _, want := range []string{
		"round 4: won by Alice",
		"2. Bob",
		"+12ms",
		"READ ERROR",
		"uptime: 1m30s",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("status output missing %q:\n%s", want, got)
		}
	}
}
