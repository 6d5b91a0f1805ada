// Package players stores buzzer player configuration and daemon settings in
// a TOML file.
package players

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sweeney/pi-buzzer/internal/logic"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "buzzer.toml"

// BCM pins usable for buzzers on the 40-pin header.
const (
	MinPin = 2
	MaxPin = 27
)

// idAlphabet and idLength shape generated player ids.
const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 8
)

var (
	ErrNotFound      = errors.New("player not found")
	ErrPinInUse      = errors.New("gpio pin already in use")
	ErrInvalidPlayer = errors.New("invalid player")
)

// Player is one configured buzzer.
type Player struct {
	Name       string         `toml:"name"`
	Pin        int            `toml:"gpio_pin"`
	Enabled    bool           `toml:"enabled"`
	Polarity   logic.Polarity `toml:"polarity,omitempty"`
	DebounceMs int64          `toml:"debounce_ms,omitempty"`
}

// Settings are daemon defaults. Command-line flags override them.
type Settings struct {
	DebounceMs int64  `toml:"debounce_ms,omitempty"`
	PollMs     int64  `toml:"poll_ms,omitempty"`
	TieBreak   string `toml:"tie_break,omitempty"`
	Backend    string `toml:"backend,omitempty"`
	Chip       string `toml:"chip,omitempty"`
	Broker     string `toml:"broker,omitempty"`
	HeartbeatS int64  `toml:"heartbeat_s,omitempty"`
}

// file is the on-disk layout.
type file struct {
	Settings Settings          `toml:"settings"`
	Players  map[string]Player `toml:"players"`
}

// Entry pairs a player with its id.
type Entry struct {
	ID string
	Player
}

// Store is an in-memory copy of the config file.
// Not safe for concurrent use.
type Store struct {
	path string
	data file
}

// Load reads path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{path: path}
	if _, err := toml.DecodeFile(path, &s.data); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if s.data.Players == nil {
		s.data.Players = map[string]Player{}
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Settings returns the daemon settings section.
func (s *Store) Settings() Settings {
	return s.data.Settings
}

// SetSettings replaces the daemon settings section.
func (s *Store) SetSettings(st Settings) {
	s.data.Settings = st
}

// Save writes the store to its path via a temp file and rename.
func (s *Store) Save() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".buzzer-*.toml")
	if err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(s.data); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	return nil
}

// Add creates an enabled, active-low player on pin and returns its id.
func (s *Store) Add(name string, pin int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidPlayer)
	}
	if err := s.checkPin(pin, ""); err != nil {
		return "", err
	}

	id, err := s.newID()
	if err != nil {
		return "", err
	}
	s.data.Players[id] = Player{Name: name, Pin: pin, Enabled: true, Polarity: logic.ActiveLow}
	return id, nil
}

// newID generates an id not already in the store.
func (s *Store) newID() (string, error) {
	for {
		id, err := nanoid.Generate(idAlphabet, idLength)
		if err != nil {
			return "", fmt.Errorf("generate id: %w", err)
		}
		if _, taken := s.data.Players[id]; !taken {
			return id, nil
		}
	}
}

func (s *Store) checkPin(pin int, exclude string) error {
	if pin < MinPin || pin > MaxPin {
		return fmt.Errorf("%w: pin %d outside %d-%d", ErrInvalidPlayer, pin, MinPin, MaxPin)
	}
	if s.PinInUse(pin, exclude) {
		return fmt.Errorf("%w: %d", ErrPinInUse, pin)
	}
	return nil
}

// Remove deletes a player.
func (s *Store) Remove(id string) error {
	if _, ok := s.data.Players[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(s.data.Players, id)
	return nil
}

// update applies fn to the player with id.
func (s *Store) update(id string, fn func(*Player) error) error {
	p, ok := s.data.Players[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := fn(&p); err != nil {
		return err
	}
	s.data.Players[id] = p
	return nil
}

// SetEnabled enables or disables a player.
func (s *Store) SetEnabled(id string, enabled bool) error {
	return s.update(id, func(p *Player) error {
		p.Enabled = enabled
		return nil
	})
}

// Rename changes a player's name.
func (s *Store) Rename(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidPlayer)
	}
	return s.update(id, func(p *Player) error {
		p.Name = name
		return nil
	})
}

// SetPin moves a player to another pin.
func (s *Store) SetPin(id string, pin int) error {
	return s.update(id, func(p *Player) error {
		if pin == p.Pin {
			return nil
		}
		if err := s.checkPin(pin, id); err != nil {
			return err
		}
		p.Pin = pin
		return nil
	})
}

// SetPolarity changes how a player's buzzer is wired.
func (s *Store) SetPolarity(id string, pol logic.Polarity) error {
	if !pol.Valid() {
		return fmt.Errorf("%w: polarity %q", ErrInvalidPlayer, pol)
	}
	return s.update(id, func(p *Player) error {
		p.Polarity = pol
		return nil
	})
}

// Get returns one player.
func (s *Store) Get(id string) (Player, bool) {
	p, ok := s.data.Players[id]
	return p, ok
}

// All returns every player ordered by pin.
func (s *Store) All() []Entry {
	out := make([]Entry, 0, len(s.data.Players))
	for id, p := range s.data.Players {
		out = append(out, Entry{ID: id, Player: p})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pin != out[j].Pin {
			return out[i].Pin < out[j].Pin
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Enabled returns the enabled players ordered by pin.
func (s *Store) Enabled() []Entry {
	var out []Entry
	for _, e := range s.All() {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// PinInUse reports whether another player (not exclude) has pin.
func (s *Store) PinInUse(pin int, exclude string) bool {
	for id, p := range s.data.Players {
		if id != exclude && p.Pin == pin {
			return true
		}
	}
	return false
}

// AvailablePins returns the usable pins no player has taken.
func (s *Store) AvailablePins() []int {
	used := make(map[int]bool, len(s.data.Players))
	for _, p := range s.data.Players {
		used[p.Pin] = true
	}
	var pins []int
	for pin := MinPin; pin <= MaxPin; pin++ {
		if !used[pin] {
			pins = append(pins, pin)
		}
	}
	return pins
}

// Channels converts the enabled players to arbiter channels ordered by pin.
// Players without their own debounce use window.
func (s *Store) Channels(window time.Duration) []logic.Channel {
	enabled := s.Enabled()
	out := make([]logic.Channel, 0, len(enabled))
	for _, e := range enabled {
		w := window
		if e.DebounceMs > 0 {
			w = time.Duration(e.DebounceMs) * time.Millisecond
		}
		pol := e.Polarity
		if pol == "" {
			pol = logic.ActiveLow
		}
		out = append(out, logic.Channel{Pin: e.Pin, Label: e.Name, Polarity: pol, Window: w})
	}
	return out
}
