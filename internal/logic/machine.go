package logic

// Context is the mutable state owned by the main loop. Helper operations
// receive it by pointer once per iteration.
type Context struct {
	Time  ClockTime
	Alarm AlarmTime
	Mode  Mode

	// Cursor is the digit position driven this iteration, in [0, DigitCount).
	Cursor int
	// Refresh counts full display cycles, in [0, RefreshPerSecond).
	Refresh int
}

// NewContext returns a context in run mode showing start.
func NewContext(start ClockTime, alarm AlarmTime) *Context {
	return &Context{Time: start, Alarm: alarm, Mode: ModeRun}
}

// Action describes the effect of an input on the context.
type Action int

const (
	ActionNone Action = iota
	ActionModeChanged
	ActionAdjusted
)

// PressButton applies a mode-button event. The button only cycles the
// time-edit modes: RUN -> SET_TIME_HOUR -> SET_TIME_MINUTE -> SET_TIME_HOUR.
// It is ignored while editing the alarm.
func (c *Context) PressButton() Action {
	switch c.Mode {
	case ModeRun, ModeSetTimeMinute:
		c.Mode = ModeSetTimeHour
	case ModeSetTimeHour:
		c.Mode = ModeSetTimeMinute
	default:
		return ActionNone
	}
	return ActionModeChanged
}

// PressKey applies a keypad symbol.
//
// In run mode only '1' has an effect: it enters alarm editing and is
// consumed. While editing, '#' swaps hour and minute within the current
// family, '*' returns to run mode and zeroes the seconds, '2' increments
// the edited field, and '8' or '0' decrements it with wraparound.
func (c *Context) PressKey(k Key) Action {
	if k == NoKey {
		return ActionNone
	}
	if c.Mode == ModeRun {
		if k != '1' {
			return ActionNone
		}
		c.Mode = ModeSetAlarmHour
		return ActionModeChanged
	}

	switch k {
	case '#':
		c.Mode = partner(c.Mode)
		return ActionModeChanged
	case '*':
		c.Mode = ModeRun
		c.Time.Seconds = 0
		return ActionModeChanged
	case '2':
		c.adjust(wrapUp)
		return ActionAdjusted
	case '8', '0':
		c.adjust(wrapDown)
		return ActionAdjusted
	}
	return ActionNone
}

func partner(m Mode) Mode {
	switch m {
	case ModeSetTimeHour:
		return ModeSetTimeMinute
	case ModeSetTimeMinute:
		return ModeSetTimeHour
	case ModeSetAlarmHour:
		return ModeSetAlarmMinute
	case ModeSetAlarmMinute:
		return ModeSetAlarmHour
	}
	return m
}

func (c *Context) adjust(step func(v, n int) int) {
	switch c.Mode {
	case ModeSetTimeHour:
		c.Time.Hours = step(c.Time.Hours, hoursPerDay)
	case ModeSetTimeMinute:
		c.Time.Minutes = step(c.Time.Minutes, minutesPerHour)
	case ModeSetAlarmHour:
		c.Alarm.Hours = step(c.Alarm.Hours, hoursPerDay)
	case ModeSetAlarmMinute:
		c.Alarm.Minutes = step(c.Alarm.Minutes, minutesPerHour)
	}
}

// CheckAlarm reports whether the buzzer must sound this iteration.
// It returns true exactly once per continuous HH:MM match and re-arms as
// soon as the time stops matching.
func (c *Context) CheckAlarm() bool {
	a := &c.Alarm
	if !a.Enabled {
		return false
	}
	if c.Time.Hours != a.Hours || c.Time.Minutes != a.Minutes {
		a.Latched = false
		return false
	}
	if a.Latched {
		return false
	}
	a.Latched = true
	return true
}
