// Package hwport provides the digital I/O lines and delay primitive the
// clock drives, with hardware abstraction.
// Real implementations perform platform init (line directions, pull-ups,
// idle levels) in their constructors; the fake implementation allows
// testing without hardware.
package hwport

import (
	"fmt"
	"time"
)

// Pin is a line number on the backing GPIO controller.
type Pin uint16

// Line levels.
const (
	Low  = false
	High = true
)

// Wiring polarity. Digit enables are active low (common cathode) and
// inputs are pulled up, so a closed contact reads low.
const (
	DigitOn  = Low
	DigitOff = High
	Pressed  = Low
	Released = High
)

// Port reads and writes digital lines.
type Port interface {
	// Read returns the current level of an input line.
	Read(pin Pin) bool

	// Write drives an output line.
	Write(pin Pin, level bool)

	// Err returns the first I/O error since the previous call, if any,
	// and clears it.
	Err() error
}

// Device is a Port that owns hardware resources.
type Device interface {
	Port

	// Close drives outputs to their idle levels and releases the lines.
	Close() error
}

// Delayer blocks the caller for a duration.
type Delayer interface {
	Delay(d time.Duration)
}

// Pinout maps each logical role to a line.
type Pinout struct {
	Button   Pin
	Rows     [4]Pin // keypad rows, inputs
	Cols     [4]Pin // keypad columns, outputs
	Segments [8]Pin // a, b, c, d, e, f, g, dp
	Buzzer   Pin
	Digits   [8]Pin // digit enables in DigitBuffer order
}

// DefaultPinout is the BCM wiring used on a Raspberry Pi header.
func DefaultPinout() Pinout {
	return Pinout{
		Button:   23,
		Rows:     [4]Pin{24, 25, 8, 7},
		Cols:     [4]Pin{12, 16, 20, 21},
		Segments: [8]Pin{2, 3, 4, 17, 27, 22, 10, 9},
		Buzzer:   18,
		Digits:   [8]Pin{11, 5, 6, 13, 19, 26, 14, 15},
	}
}

// Line is an output line with the level it is driven to at init and close.
type Line struct {
	Pin  Pin
	Idle bool
}

// Inputs returns the pulled-up input lines.
func (p Pinout) Inputs() []Pin {
	in := []Pin{p.Button}
	return append(in, p.Rows[:]...)
}

// Outputs returns the output lines with their idle levels: keypad columns
// high, segments and buzzer low, digits off.
func (p Pinout) Outputs() []Line {
	var out []Line
	for _, c := range p.Cols {
		out = append(out, Line{Pin: c, Idle: High})
	}
	for _, s := range p.Segments {
		out = append(out, Line{Pin: s, Idle: Low})
	}
	out = append(out, Line{Pin: p.Buzzer, Idle: Low})
	for _, d := range p.Digits {
		out = append(out, Line{Pin: d, Idle: DigitOff})
	}
	return out
}

// Validate reports an error if any line is assigned to more than one role.
func (p Pinout) Validate() error {
	seen := make(map[Pin]bool)
	for _, pin := range p.Inputs() {
		if seen[pin] {
			return fmt.Errorf("pin %d assigned twice", pin)
		}
		seen[pin] = true
	}
	for _, l := range p.Outputs() {
		if seen[l.Pin] {
			return fmt.Errorf("pin %d assigned twice", l.Pin)
		}
		seen[l.Pin] = true
	}
	return nil
}
