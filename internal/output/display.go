package output

import (
	"time"

	"github.com/sweeney/segment-clock/internal/hwport"
)

// Display drives a multiplexed 8-digit seven-segment display: one shared
// set of segment lines and one enable line per digit.
type Display struct {
	port     hwport.Port
	delay    hwport.Delayer
	segments [8]hwport.Pin
	digits   [8]hwport.Pin
	hold     time.Duration
}

// NewDisplay creates a display on the segment and digit lines in pins.
// Each Show keeps its digit lit for hold.
func NewDisplay(port hwport.Port, delay hwport.Delayer, pins hwport.Pinout, hold time.Duration) *Display {
	return &Display{
		port:     port,
		delay:    delay,
		segments: pins.Segments,
		digits:   pins.Digits,
		hold:     hold,
	}
}

// Show turns every digit off, sets the segment lines to pattern (bit 0 is
// segment a), enables digit pos if lit, then holds for the configured time.
func (d *Display) Show(pos int, pattern uint8, lit bool) {
	for _, p := range d.digits {
		d.port.Write(p, hwport.DigitOff)
	}
	d.writeSegments(pattern)
	if lit {
		d.port.Write(d.digits[pos], hwport.DigitOn)
	}
	d.delay.Delay(d.hold)
}

// Blank turns every digit and segment off.
func (d *Display) Blank() {
	for _, p := range d.digits {
		d.port.Write(p, hwport.DigitOff)
	}
	d.writeSegments(0)
}

func (d *Display) writeSegments(pattern uint8) {
	for i, p := range d.segments {
		d.port.Write(p, pattern&(1<<i) != 0)
	}
}
