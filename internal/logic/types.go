// Package logic contains the pure clock core: time and alarm state, the mode
// state machine, the alarm latch and display decoding.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Timestamps are always injected via time.Time parameters.
package logic

import (
	"fmt"
	"time"
)

// Mode selects how keypad and button input is interpreted.
type Mode int

const (
	ModeRun Mode = iota
	ModeSetTimeHour
	ModeSetTimeMinute
	ModeSetAlarmHour
	ModeSetAlarmMinute
)

var modeNames = [...]string{
	ModeRun:            "RUN",
	ModeSetTimeHour:    "SET_TIME_HOUR",
	ModeSetTimeMinute:  "SET_TIME_MINUTE",
	ModeSetAlarmHour:   "SET_ALARM_HOUR",
	ModeSetAlarmMinute: "SET_ALARM_MINUTE",
}

func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// EditsAlarm reports whether the mode edits the alarm rather than the clock.
func (m Mode) EditsAlarm() bool {
	return m == ModeSetAlarmHour || m == ModeSetAlarmMinute
}

// EditsHour reports whether the field under edit is an hour.
func (m Mode) EditsHour() bool {
	return m == ModeSetTimeHour || m == ModeSetAlarmHour
}

// EditsMinute reports whether the field under edit is a minute.
func (m Mode) EditsMinute() bool {
	return m == ModeSetTimeMinute || m == ModeSetAlarmMinute
}

// Key is a keypad symbol. NoKey means nothing was pressed during a sweep.
type Key byte

const NoKey Key = 0

func (k Key) String() string {
	if k == NoKey {
		return ""
	}
	return string(rune(k))
}

// ClockTime is the current time of day.
// Every field is always within its legal range.
type ClockTime struct {
	Hours   int
	Minutes int
	Seconds int
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// AlarmTime is the single alarm target.
type AlarmTime struct {
	Hours   int
	Minutes int
	Enabled bool
	// Latched is set once the buzzer has sounded for the current matching
	// minute and cleared when the time stops matching.
	Latched bool
}

func (a AlarmTime) String() string {
	return fmt.Sprintf("%02d:%02d", a.Hours, a.Minutes)
}

// EventType represents something the controller reports to the outside world.
type EventType string

const (
	EventModeChanged   EventType = "MODE_CHANGED"
	EventFieldAdjusted EventType = "FIELD_ADJUSTED"
	EventAlarmFired    EventType = "ALARM_FIRED"
)

// Event is a state change to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Mode      Mode
	Key       Key // triggering key, NoKey for button presses and alarms
	Time      ClockTime
	Alarm     AlarmTime
}

// EventCounts tracks input and event totals since startup.
type EventCounts struct {
	ButtonPresses int
	KeyPresses    int
	ModeChanges   int
	Adjustments   int
	AlarmsFired   int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}
