package controller

import (
	"time"

	"github.com/sweeney/segment-clock/internal/input"
	"github.com/sweeney/segment-clock/internal/logic"
	"github.com/sweeney/segment-clock/internal/output"
)

// Config holds the initial clock state and every loop timing knob.
type Config struct {
	Start logic.ClockTime
	Alarm logic.AlarmTime

	// DigitHold is how long each digit stays lit per iteration.
	DigitHold time.Duration
	// ButtonSettle is the mode button re-sample delay.
	ButtonSettle time.Duration

	Keypad input.KeypadTiming
	Tone   output.Tone
}

// DefaultConfig starts at 12:00:00 with the alarm at 06:30 and uses the
// firmware's timing. The column settle delay is zero: the
// firmware requested a sub-millisecond delay from an integer-millisecond
// routine, which truncated to nothing.
func DefaultConfig() Config {
	return Config{
		Start:        logic.ClockTime{Hours: 12},
		Alarm:        logic.AlarmTime{Hours: 6, Minutes: 30, Enabled: true},
		DigitHold:    2 * time.Millisecond,
		ButtonSettle: 20 * time.Millisecond,
		Keypad: input.KeypadTiming{
			ColumnSettle: 0,
			Debounce:     12 * time.Millisecond,
			ReleasePoll:  2 * time.Millisecond,
			Trailing:     10 * time.Millisecond,
		},
		Tone: output.AlarmTone,
	}
}
