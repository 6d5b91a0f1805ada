package gpio

import (
	"time"

	"github.com/sweeney/pi-buzzer/internal/logic"
)

// PinReader samples channels: it reads the raw level, applies the channel's
// polarity so that pressed is always true, and stamps the sample.
type PinReader struct {
	reader Reader
	now    func() time.Time
}

// NewPinReader wraps r. A nil now uses time.Now, whose readings carry the
// monotonic clock.
func NewPinReader(r Reader, now func() time.Time) *PinReader {
	if now == nil {
		now = time.Now
	}
	return &PinReader{reader: r, now: now}
}

// Sample reads one channel. Errors wrap ErrHardwareUnavailable and are never
// retried here.
func (p *PinReader) Sample(ch logic.Channel) (logic.RawSample, error) {
	high, err := p.reader.Read(ch.Pin)
	if err != nil {
		return logic.RawSample{}, err
	}
	return logic.RawSample{
		Pin:     ch.Pin,
		Pressed: ch.Polarity.Pressed(high),
		Time:    p.now(),
	}, nil
}

// LinesFor returns the input lines to request for chans. Active-low buzzers
// get a pull-up so an open switch reads released, active-high a pull-down.
func LinesFor(chans []logic.Channel) []Line {
	lines := make([]Line, len(chans))
	for i, ch := range chans {
		pull := PullDown
		if ch.Polarity == logic.ActiveLow {
			pull = PullUp
		}
		lines[i] = Line{Pin: ch.Pin, Pull: pull}
	}
	return lines
}

// ReleasedLevel is the raw level a released buzzer of polarity p reads.
func ReleasedLevel(p logic.Polarity) bool {
	return p == logic.ActiveLow
}
