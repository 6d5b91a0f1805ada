// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementations use the Linux GPIO character device or periph.io.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"fmt"
)

// DefaultChip is the GPIO chip carrying the Raspberry Pi header pins.
const DefaultChip = "gpiochip0"

// ErrHardwareUnavailable is returned when a pin cannot be read, e.g. it was
// never requested, the chip is gone or permission was denied.
var ErrHardwareUnavailable = errors.New("gpio: hardware unavailable")

// PinError reports a read failure on one pin.
type PinError struct {
	Pin int
	Err error
}

func (e *PinError) Error() string {
	return fmt.Sprintf("gpio pin %d: %v", e.Pin, e.Err)
}

// Unwrap lets errors.Is match both ErrHardwareUnavailable and the cause.
func (e *PinError) Unwrap() []error {
	return []error{ErrHardwareUnavailable, e.Err}
}

func pinError(pin int, err error) error {
	return &PinError{Pin: pin, Err: err}
}

// Reader reads raw GPIO input levels.
type Reader interface {
	// Read returns the raw level of a pin (true = high).
	Read(pin int) (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Pull is the bias applied to an input line.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Line describes one input to request from the hardware.
type Line struct {
	Pin  int // BCM numbering
	Pull Pull
}
