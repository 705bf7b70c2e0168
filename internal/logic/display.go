package logic

const (
	// DigitCount is the number of multiplexed digit positions.
	DigitCount = 8

	// Blank is the DigitBuffer sentinel that lights no segments.
	Blank uint8 = 10

	// RefreshPerSecond is the number of full display cycles treated as one
	// second. The per-digit hold time makes this approximate.
	RefreshPerSecond = 42

	blinkPeriod = 20
	blinkLit    = 10
)

// Digit positions in wiring order.
const (
	PosMinuteTens = iota
	PosMinuteOnes
	PosSecondTens
	PosSecondOnes
	PosBlankA
	PosBlankB
	PosHourTens
	PosHourOnes
)

// DigitBuffer holds one decimal value (or Blank) per digit position,
// in wiring order: minutes, seconds, two blanks, hours.
type DigitBuffer [DigitCount]uint8

// Seven-segment patterns, bit 0 = segment a through bit 6 = segment g.
var segmentTable = [10]uint8{
	0x3F, // 0
	0x06, // 1
	0x5B, // 2
	0x4F, // 3
	0x66, // 4
	0x6D, // 5
	0x7D, // 6
	0x07, // 7
	0x7F, // 8
	0x6F, // 9
}

// Segments returns the segment pattern for v. Anything outside 0-9,
// including Blank, renders as all segments off.
func Segments(v uint8) uint8 {
	if int(v) >= len(segmentTable) {
		return 0
	}
	return segmentTable[v]
}

// Decompose builds the buffer for the given hours, minutes and seconds.
func Decompose(hours, minutes, seconds int) DigitBuffer {
	var b DigitBuffer
	b[PosMinuteTens] = uint8(minutes / 10)
	b[PosMinuteOnes] = uint8(minutes % 10)
	b[PosSecondTens] = uint8(seconds / 10)
	b[PosSecondOnes] = uint8(seconds % 10)
	b[PosBlankA] = Blank
	b[PosBlankB] = Blank
	b[PosHourTens] = uint8(hours / 10)
	b[PosHourOnes] = uint8(hours % 10)
	return b
}

// Digits returns the buffer for what the display currently shows: the
// alarm's hours and minutes while editing the alarm, the clock otherwise.
// Seconds always come from the clock.
func (c *Context) Digits() DigitBuffer {
	h, m := c.Time.Hours, c.Time.Minutes
	if c.Mode.EditsAlarm() {
		h, m = c.Alarm.Hours, c.Alarm.Minutes
	}
	return Decompose(h, m, c.Time.Seconds)
}

// BlinkLit reports whether the blink phase currently lights edited digits.
func (c *Context) BlinkLit() bool {
	return c.Refresh%blinkPeriod < blinkLit
}

// DigitEnabled reports whether digit pos should be lit this iteration.
// Only the field under edit blinks; every other position is always lit.
func (c *Context) DigitEnabled(pos int) bool {
	edited := false
	switch {
	case c.Mode.EditsHour():
		edited = pos == PosHourTens || pos == PosHourOnes
	case c.Mode.EditsMinute():
		edited = pos == PosMinuteTens || pos == PosMinuteOnes
	}
	if !edited {
		return true
	}
	return c.BlinkLit()
}

// Advance moves the cursor to the next digit. Each wrap to position 0
// counts one display cycle; every RefreshPerSecond cycles the clock ticks
// one second. It reports whether the clock ticked.
func (c *Context) Advance() bool {
	c.Cursor++
	if c.Cursor < DigitCount {
		return false
	}
	c.Cursor = 0
	c.Refresh++
	if c.Refresh < RefreshPerSecond {
		return false
	}
	c.Refresh = 0
	c.Time.Tick()
	return true
}
