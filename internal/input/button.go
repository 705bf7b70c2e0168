// Package input turns raw line samples into discrete button and keypad
// events. Everything here is polled; there are no interrupts.
package input

import (
	"time"

	"github.com/sweeney/segment-clock/internal/hwport"
)

// Button is a debounced, edge-triggered push button.
type Button struct {
	port   hwport.Port
	delay  hwport.Delayer
	pin    hwport.Pin
	settle time.Duration
	last   bool // last stable level
}

// NewButton creates a button on pin that re-samples after settle.
func NewButton(port hwport.Port, delay hwport.Delayer, pin hwport.Pin, settle time.Duration) *Button {
	return &Button{
		port:   port,
		delay:  delay,
		pin:    pin,
		settle: settle,
		last:   hwport.Released,
	}
}

// Poll returns true exactly once per physical press. A press must still
// read pressed after the settle time; otherwise it is treated as bounce.
// Holding the button reports nothing further until it is released.
func (b *Button) Poll() bool {
	now := b.port.Read(b.pin)

	if b.last == hwport.Released && now == hwport.Pressed {
		b.delay.Delay(b.settle)
		now = b.port.Read(b.pin)
		if now == hwport.Pressed {
			b.last = hwport.Pressed
			return true
		}
	}

	if now == hwport.Released {
		b.last = hwport.Released
	}
	return false
}
