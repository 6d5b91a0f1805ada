//go:build !linux

package gpio

import (
	"errors"
	"fmt"
)

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(chip string, lines []Line) (*RealReader, error) {
	return nil, fmt.Errorf("%w: character device requires Linux", ErrHardwareUnavailable)
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read(pin int) (bool, error) {
	return false, pinError(pin, errors.New("not supported"))
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
