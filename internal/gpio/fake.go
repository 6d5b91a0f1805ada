package gpio

import (
	"errors"
	"sync"
)

// FakeReader is a test double that returns scripted raw GPIO levels.
// It is safe for concurrent use so the daemon's mock backend can drive it
// from the operator input goroutine.
type FakeReader struct {
	mu sync.Mutex

	// levels contains scripted raw levels per pin.
	// Each call to Read(pin) consumes the next level for that pin.
	levels map[int][]bool

	// index tracks current position per pin
	index map[int]int

	// errs, if set for a pin, is returned by Read for that pin
	errs map[int]error

	// Closed tracks if Close was called
	Closed bool
}

// NewFakeReader creates a FakeReader with the given scripted levels.
func NewFakeReader(levels map[int][]bool) *FakeReader {
	f := &FakeReader{
		levels: make(map[int][]bool, len(levels)),
		index:  make(map[int]int),
		errs:   make(map[int]error),
	}
	for pin, l := range levels {
		f.levels[pin] = append([]bool(nil), l...)
	}
	return f
}

// Read returns the next scripted level for pin.
// If levels are exhausted, returns the last level repeatedly.
func (f *FakeReader) Read(pin int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.errs[pin]; err != nil {
		return false, pinError(pin, err)
	}

	levels := f.levels[pin]
	if len(levels) == 0 {
		return false, pinError(pin, errors.New("no levels configured"))
	}

	i := f.index[pin]
	if i < len(levels)-1 {
		f.index[pin] = i + 1
	}
	return levels[i], nil
}

// Set replaces the script for pin with a single constant level.
func (f *FakeReader) Set(pin int, high bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.levels[pin] = []bool{high}
	f.index[pin] = 0
}

// SetError makes Read fail for pin. A nil err clears the failure.
func (f *FakeReader) SetError(pin int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, pin)
		return
	}
	f.errs[pin] = err
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// Reset resets every pin to the beginning of its script.
func (f *FakeReader) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.index = make(map[int]int)
	f.Closed = false
}

// IsClosed reports whether Close was called.
func (f *FakeReader) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Closed
}
