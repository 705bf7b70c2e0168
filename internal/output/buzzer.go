// Package output drives the piezo buzzer and the multiplexed display lines.
package output

import (
	"time"

	"github.com/sweeney/segment-clock/internal/hwport"
)

// Tone describes a square wave as a number of output toggles separated by
// a half period.
type Tone struct {
	Toggles    int
	HalfPeriod time.Duration
}

// AlarmTone is roughly one second at 2.4 kHz.
var AlarmTone = Tone{
	Toggles:    4800,
	HalfPeriod: time.Second / 4800,
}

// Buzzer is a piezo on a single output line.
type Buzzer struct {
	port  hwport.Port
	delay hwport.Delayer
	pin   hwport.Pin
	tone  Tone
	level bool
}

// NewBuzzer creates a buzzer on pin playing tone.
func NewBuzzer(port hwport.Port, delay hwport.Delayer, pin hwport.Pin, tone Tone) *Buzzer {
	return &Buzzer{port: port, delay: delay, pin: pin, tone: tone}
}

// Sound plays the tone and leaves the line low. It blocks for the whole
// tone and cannot be cancelled.
func (b *Buzzer) Sound() {
	for i := 0; i < b.tone.Toggles; i++ {
		b.level = !b.level
		b.port.Write(b.pin, b.level)
		b.delay.Delay(b.tone.HalfPeriod)
	}
	b.Off()
}

// Off drives the line low.
func (b *Buzzer) Off() {
	b.level = hwport.Low
	b.port.Write(b.pin, hwport.Low)
}
