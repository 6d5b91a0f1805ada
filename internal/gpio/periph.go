package gpio

import (
	"fmt"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphReader reads GPIO through periph.io drivers (sysfs, bcm283x, ...).
type PeriphReader struct {
	pins map[int]pgpio.PinIO
}

// NewPeriphReader initialises the periph host drivers and configures every
// line as an input. Pins are addressed by their BCM numbers.
func NewPeriphReader(lines []Line) (*PeriphReader, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	r := &PeriphReader{pins: make(map[int]pgpio.PinIO, len(lines))}
	for _, l := range lines {
		p := gpioreg.ByName(fmt.Sprintf("GPIO%d", l.Pin))
		if p == nil {
			return nil, fmt.Errorf("pin %d: %w", l.Pin, ErrHardwareUnavailable)
		}
		if err := p.In(periphPull(l.Pull), pgpio.NoEdge); err != nil {
			return nil, fmt.Errorf("configure pin %d: %w", l.Pin, err)
		}
		r.pins[l.Pin] = p
	}
	return r, nil
}

func periphPull(p Pull) pgpio.Pull {
	switch p {
	case PullUp:
		return pgpio.PullUp
	case PullDown:
		return pgpio.PullDown
	}
	return pgpio.Float
}

// Read returns the raw level of a configured pin.
func (r *PeriphReader) Read(pin int) (bool, error) {
	p, ok := r.pins[pin]
	if !ok {
		return false, pinError(pin, fmt.Errorf("pin not configured"))
	}
	return p.Read() == pgpio.High, nil
}

// Close returns the pins to pulled-down inputs.
func (r *PeriphReader) Close() error {
	var errs []error
	for pin, p := range r.pins {
		if err := p.In(pgpio.PullDown, pgpio.NoEdge); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
	}
	r.pins = nil
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
