package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sweeney/pi-buzzer/internal/logic"
	"github.com/sweeney/pi-buzzer/internal/players"
	"github.com/sweeney/pi-buzzer/internal/status"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "buzzer.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func testChannelsMixed() []logic.Channel {
	return []logic.Channel{
		{Pin: 17, Label: "Alice", Polarity: logic.ActiveLow, Window: logic.DefaultWindow},
		{Pin: 22, Label: "Bob", Polarity: logic.ActiveHigh, Window: logic.DefaultWindow},
	}
}

// execute runs the CLI with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPlayersAddAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buzzer.toml")

	out, err := execute(t, "--config", path, "players", "add", "Alice", "17")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Alice on GPIO 17") {
		t.Errorf("add output: %q", out)
	}
	if _, err := execute(t, "--config", path, "players", "add", "Bob", "4"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err = execute(t, "--config", path, "players", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 players, got %q", out)
	}
	// Ordered by pin
	if !strings.Contains(lines[1], "Bob") || !strings.Contains(lines[2], "Alice") {
		t.Errorf("unexpected order:\n%s", out)
	}
}

func TestPlayersListEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buzzer.toml")
	out, err := execute(t, "--config", path, "players", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "no players configured") {
		t.Errorf("list output: %q", out)
	}
}

func TestPlayersAddErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buzzer.toml")
	if _, err := execute(t, "--config", path, "players", "add", "Alice", "17"); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, err := execute(t, "--config", path, "players", "add", "Bob", "17")
	if !errors.Is(err, players.ErrPinInUse) {
		t.Errorf("duplicate pin: got %v, want ErrPinInUse", err)
	}
	_, err = execute(t, "--config", path, "players", "add", "Bob", "40")
	if !errors.Is(err, players.ErrInvalidPlayer) {
		t.Errorf("bad pin: got %v, want ErrInvalidPlayer", err)
	}
	if _, err = execute(t, "--config", path, "players", "add", "Bob", "seventeen"); err == nil {
		t.Error("expected error for non-numeric pin")
	}
	if _, err = execute(t, "--config", path, "players", "add", "Bob"); err == nil {
		t.Error("expected error for missing pin")
	}
}

func TestPlayersEdit(t *testing.T) {
	path := writeConfig(t, `
[players.a1]
name = "Alice"
gpio_pin = 17
enabled = true
`)
	steps := [][]string{
		{"rename", "a1", "Alicia"},
		{"pin", "a1", "5"},
		{"polarity", "a1", "high"},
		{"disable", "a1"},
	}
	for _, s := range steps {
		args := append([]string{"--config", path, "players"}, s...)
		if _, err := execute(t, args...); err != nil {
			t.Fatalf("%v: %v", s, err)
		}
	}

	store, err := players.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, ok := store.Get("a1")
	if !ok {
		t.Fatal("player a1 missing")
	}
	if p.Name != "Alicia" || p.Pin != 5 || p.Polarity != logic.ActiveHigh || p.Enabled {
		t.Errorf("unexpected player after edits: %+v", p)
	}

	if _, err := execute(t, "--config", path, "players", "enable", "a1"); err != nil {
		t.Fatalf("enable: %v", err)
	}
	store, _ = players.Load(path)
	if p, _ := store.Get("a1"); !p.Enabled {
		t.Error("expected player enabled")
	}
}

func TestPlayersEditErrors(t *testing.T) {
	path := writeConfig(t, `
[players.a1]
name = "Alice"
gpio_pin = 17
enabled = true
`)

	_, err := execute(t, "--config", path, "players", "remove", "zz")
	if !errors.Is(err, players.ErrNotFound) {
		t.Errorf("remove unknown: got %v, want ErrNotFound", err)
	}
	_, err = execute(t, "--config", path, "players", "polarity", "a1", "sideways")
	if !errors.Is(err, players.ErrInvalidPlayer) {
		t.Errorf("bad polarity: got %v, want ErrInvalidPlayer", err)
	}
}

func TestPlayersRemove(t *testing.T) {
	path := writeConfig(t, `
[players.a1]
name = "Alice"
gpio_pin = 17
enabled = true
`)
	if _, err := execute(t, "--config", path, "players", "remove", "a1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	store, _ := players.Load(path)
	if len(store.All()) != 0 {
		t.Errorf("expected no players, got %+v", store.All())
	}
}

func TestPlayersPins(t *testing.T) {
	path := writeConfig(t, `
[players.a1]
name = "Alice"
gpio_pin = 2
enabled = true
`)
	out, err := execute(t, "--config", path, "players", "pins")
	if err != nil {
		t.Fatalf("pins: %v", err)
	}
	fields := strings.Fields(out)
	if len(fields) != players.MaxPin-players.MinPin {
		t.Fatalf("expected %d free pins, got %q", players.MaxPin-players.MinPin, out)
	}
	if fields[0] != "3" || fields[len(fields)-1] != "27" {
		t.Errorf("unexpected pins: %q", out)
	}
}

const stateConfig = `
[players.a1]
name = "Alice"
gpio_pin = 17
enabled = true

[players.b2]
name = "Bob"
gpio_pin = 22
enabled = true
polarity = "high"
`

func TestStateMock(t *testing.T) {
	path := writeConfig(t, stateConfig)

	out, err := execute(t, "--config", path, "state", "--backend", "mock")
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	for _, want := range []string{"Alice (GPIO 17): RELEASED", "Bob (GPIO 22): RELEASED"} {
		if !strings.Contains(out, want) {
			t.Errorf("state output missing %q: %q", want, out)
		}
	}
}

func TestStateJSON(t *testing.T) {
	path := writeConfig(t, stateConfig)

	out, err := execute(t, "--config", path, "state", "--backend", "mock", "--json")
	if err != nil {
		t.Fatalf("state: %v", err)
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(parsed.Status.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %+v", parsed.Status.Channels)
	}
	if c := parsed.Status.Channels[1]; c.Player != "Bob" || c.Polarity != "high" || c.Pressed {
		t.Errorf("unexpected channel: %+v", c)
	}
	if parsed.Status.Config.Backend != "mock" {
		t.Errorf("backend: got %q", parsed.Status.Config.Backend)
	}
}
