package sim

import (
	"github.com/gdamore/tcell/v2"

	"github.com/sweeney/segment-clock/internal/logic"
)

const glyphWidth = 4

// Display groups in reading order: hours, minutes, seconds.
var groups = [][2]int{
	{logic.PosHourTens, logic.PosHourOnes},
	{logic.PosMinuteTens, logic.PosMinuteOnes},
	{logic.PosSecondTens, logic.PosSecondOnes},
}

var (
	segmentStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
	buzzerStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	helpStyle    = tcell.StyleDefault.Dim(true)
)

const helpText = "keys: 0-9 A-D * #   mode: space   quit: q"

// glyph draws a seven-segment pattern (bit 0 = a ... bit 6 = g,
// bit 7 = dp) as three rows of text.
func glyph(p uint8) [3]string {
	on := func(bit uint, s string) string {
		if p&(1<<bit) != 0 {
			return s
		}
		return " "
	}
	return [3]string{
		" " + on(0, "_") + "  ",
		on(5, "|") + on(6, "_") + on(1, "|") + " ",
		on(4, "|") + on(3, "_") + on(2, "|") + on(7, "."),
	}
}

func (t *Terminal) render() {
	patterns, buzzing := t.visible(t.clock.Now())

	t.screen.Clear()
	x := 2
	for g, group := range groups {
		if g > 0 {
			t.screen.SetContent(x, 2, '.', nil, segmentStyle)
			t.screen.SetContent(x, 3, '.', nil, segmentStyle)
			x += 2
		}
		for _, pos := range group {
			for row, line := range glyph(patterns[pos]) {
				t.drawText(x, 1+row, line, segmentStyle)
			}
			x += glyphWidth
		}
	}

	if buzzing {
		t.drawText(2, 5, "BUZZ", buzzerStyle)
	}
	t.drawText(2, 7, helpText, helpStyle)
	t.screen.Show()
}

func (t *Terminal) drawText(x, y int, s string, style tcell.Style) {
	for i, r := range s {
		t.screen.SetContent(x+i, y, r, nil, style)
	}
}
