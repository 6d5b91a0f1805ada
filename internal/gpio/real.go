//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads GPIO from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip  *gpiocdev.Chip
	lines map[int]*gpiocdev.Line
}

// NewRealReader requests every line as an input on the named chip.
func NewRealReader(chip string, lines []Line) (*RealReader, error) {
	if chip == "" {
		chip = DefaultChip
	}
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealReader{chip: c, lines: make(map[int]*gpiocdev.Line, len(lines))}
	for _, l := range lines {
		line, err := c.RequestLine(l.Pin, gpiocdev.AsInput, bias(l.Pull))
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request pin %d: %w", l.Pin, err)
		}
		r.lines[l.Pin] = line
	}
	return r, nil
}

// bias maps a configured pull to the line bias requested from the kernel.
func bias(p Pull) gpiocdev.LineBias {
	switch p {
	case PullUp:
		return gpiocdev.WithPullUp
	case PullDown:
		return gpiocdev.WithPullDown
	}
	return gpiocdev.WithBiasDisabled
}

// Read returns the raw level of a requested pin.
func (r *RealReader) Read(pin int) (bool, error) {
	line, ok := r.lines[pin]
	if !ok {
		return false, pinError(pin, fmt.Errorf("line not requested"))
	}
	v, err := line.Value()
	if err != nil {
		return false, pinError(pin, err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error

	for pin, line := range r.lines {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	r.lines = nil
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		r.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
