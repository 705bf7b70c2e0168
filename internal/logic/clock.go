package logic

import (
	"fmt"
	"time"
)

const (
	hoursPerDay      = 24
	minutesPerHour   = 60
	secondsPerMinute = 60
)

func wrapUp(v, n int) int {
	return (v + 1) % n
}

func wrapDown(v, n int) int {
	if v == 0 {
		return n - 1
	}
	return v - 1
}

// Tick advances the time by one second, cascading seconds into minutes
// and minutes into hours. 23:59:59 rolls over to 00:00:00.
func (t *ClockTime) Tick() {
	t.Seconds++
	if t.Seconds < secondsPerMinute {
		return
	}
	t.Seconds = 0
	t.Minutes++
	if t.Minutes < minutesPerHour {
		return
	}
	t.Minutes = 0
	t.Hours = wrapUp(t.Hours, hoursPerDay)
}

// ParseClockTime parses "HH:MM:SS" (24-hour).
func ParseClockTime(s string) (ClockTime, error) {
	v, err := time.Parse("15:04:05", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return ClockTime{Hours: v.Hour(), Minutes: v.Minute(), Seconds: v.Second()}, nil
}

// ClockTimeOf returns the wall-clock time of day of t.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hours: t.Hour(), Minutes: t.Minute(), Seconds: t.Second()}
}

// ParseAlarmTime parses "HH:MM" (24-hour). The returned alarm is enabled.
func ParseAlarmTime(s string) (AlarmTime, error) {
	v, err := time.Parse("15:04", s)
	if err != nil {
		return AlarmTime{}, fmt.Errorf("parse alarm %q: %w", s, err)
	}
	return AlarmTime{Hours: v.Hour(), Minutes: v.Minute(), Enabled: true}, nil
}
