package sim

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jonboulle/clockwork"

	"github.com/sweeney/segment-clock/internal/hwport"
	"github.com/sweeney/segment-clock/internal/logic"
)

func newTestTerminal(t *testing.T, screen tcell.Screen) (*Terminal, clockwork.FakeClock, hwport.Pinout) {
	t.Helper()
	pins := hwport.DefaultPinout()
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	return newTerminal(screen, pins, clock), clock, pins
}

func keyEvent(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

// lightDigit drives the segments for pattern and enables digit pos, the
// way the display multiplexer does.
func lightDigit(term *Terminal, pins hwport.Pinout, pos int, pattern uint8) {
	for _, d := range pins.Digits {
		term.Write(d, hwport.DigitOff)
	}
	for i, s := range pins.Segments {
		term.Write(s, pattern&(1<<uint(i)) != 0)
	}
	term.Write(pins.Digits[pos], hwport.DigitOn)
}

func TestGlyph(t *testing.T) {
	tests := []struct {
		pattern uint8
		want    [3]string
	}{
		{logic.Segments(8), [3]string{" _  ", "|_| ", "|_| "}},
		{logic.Segments(0), [3]string{" _  ", "| | ", "|_| "}},
		{logic.Segments(1), [3]string{"    ", "  | ", "  | "}},
		{logic.Segments(7), [3]string{" _  ", "  | ", "  | "}},
		{0, [3]string{"    ", "    ", "    "}},
		{0x80, [3]string{"    ", "    ", "   ."}},
	}
	for _, tt := range tests {
		if got := glyph(tt.pattern); got != tt.want {
			t.Errorf("glyph(%#02x): got %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestIdleLevels(t *testing.T) {
	term, _, pins := newTestTerminal(t, nil)

	if term.Read(pins.Button) != hwport.Released {
		t.Error("button should read released")
	}
	for _, r := range pins.Rows {
		if term.Read(r) != hwport.Released {
			t.Errorf("row %d should read released", r)
		}
	}
	if err := term.Err(); err != nil {
		t.Errorf("Err: %v", err)
	}
}

func TestDigitLatchAndDecay(t *testing.T) {
	term, clock, pins := newTestTerminal(t, nil)

	lightDigit(term, pins, logic.PosHourOnes, logic.Segments(4))
	patterns, _ := term.visible(clock.Now())
	if patterns[logic.PosHourOnes] != logic.Segments(4) {
		t.Errorf("lit digit: got %#02x, want %#02x", patterns[logic.PosHourOnes], logic.Segments(4))
	}
	if patterns[logic.PosHourTens] != 0 {
		t.Error("unlit digit should be blank")
	}

	// Segment changes after the enable do not alter the latched pattern.
	term.Write(pins.Segments[6], hwport.Low)
	patterns, _ = term.visible(clock.Now())
	if patterns[logic.PosHourOnes] != logic.Segments(4) {
		t.Error("latched pattern changed after enable")
	}

	clock.Advance(persistence)
	patterns, _ = term.visible(clock.Now())
	if patterns[logic.PosHourOnes] != 0 {
		t.Error("digit should decay to blank")
	}
}

func TestKeyPressVisibleOnlyOnItsColumn(t *testing.T) {
	term, clock, pins := newTestTerminal(t, nil)

	// '6' is row 1, column 2.
	term.handleKey(keyEvent('6'))

	for c, col := range pins.Cols {
		for _, other := range pins.Cols {
			term.Write(other, hwport.High)
		}
		term.Write(col, hwport.Low)
		for r, row := range pins.Rows {
			want := hwport.Released
			if r == 1 && c == 2 {
				want = hwport.Pressed
			}
			if got := term.Read(row); got != want {
				t.Errorf("col %d row %d: got %v, want %v", c, r, got, want)
			}
		}
	}

	clock.Advance(keyHold)
	if term.Read(pins.Rows[1]) != hwport.Released {
		t.Error("key should release after the hold time")
	}
}

func TestLowercaseLetterMapsToKeypad(t *testing.T) {
	term, _, pins := newTestTerminal(t, nil)

	term.handleKey(keyEvent('b'))
	term.Write(pins.Cols[3], hwport.Low)
	if term.Read(pins.Rows[1]) != hwport.Pressed {
		t.Error("'b' should press B (row 1, column 3)")
	}
}

func TestUnmappedKeyIgnored(t *testing.T) {
	term, _, pins := newTestTerminal(t, nil)

	term.handleKey(keyEvent('x'))
	term.handleKey(keyEvent('é'))
	for _, col := range pins.Cols {
		term.Write(col, hwport.Low)
	}
	for _, row := range pins.Rows {
		if term.Read(row) != hwport.Released {
			t.Errorf("row %d pressed by an unmapped key", row)
		}
	}
}

func TestSpacePressesButton(t *testing.T) {
	term, clock, pins := newTestTerminal(t, nil)

	term.handleKey(keyEvent(' '))
	if term.Read(pins.Button) != hwport.Pressed {
		t.Error("button should read pressed")
	}
	clock.Advance(buttonHold)
	if term.Read(pins.Button) != hwport.Released {
		t.Error("button should release after the hold time")
	}

	term.handleKey(keyEvent('m'))
	if term.Read(pins.Button) != hwport.Pressed {
		t.Error("'m' should press the button")
	}
}

func TestQuitKeys(t *testing.T) {
	for _, ev := range []*tcell.EventKey{
		keyEvent('q'),
		tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone),
		tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl),
	} {
		term, _, _ := newTestTerminal(t, nil)
		term.handleKey(ev)
		term.handleKey(ev) // quitting twice must not panic
		select {
		case <-term.Done():
		default:
			t.Errorf("%v: Done not closed", ev.Name())
		}
	}
}

func TestBuzzerIndicator(t *testing.T) {
	term, clock, pins := newTestTerminal(t, nil)

	if _, buzzing := term.visible(clock.Now()); buzzing {
		t.Error("buzzer should start idle")
	}
	term.Write(pins.Buzzer, hwport.High)
	if _, buzzing := term.visible(clock.Now()); !buzzing {
		t.Error("toggle should light the indicator")
	}
	clock.Advance(buzzerShow)
	if _, buzzing := term.visible(clock.Now()); buzzing {
		t.Error("indicator should clear once toggling stops")
	}
}

func TestRender(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(60, 10)

	term, _, pins := newTestTerminal(t, screen)
	lightDigit(term, pins, logic.PosHourTens, logic.Segments(1))
	lightDigit(term, pins, logic.PosHourOnes, logic.Segments(8))
	term.Write(pins.Buzzer, hwport.High)
	term.render()

	cells, width, _ := screen.GetContents()
	line := func(y int) string {
		var b strings.Builder
		for x := 0; x < width; x++ {
			if rs := cells[y*width+x].Runes; len(rs) > 0 {
				b.WriteRune(rs[0])
			} else {
				b.WriteRune(' ')
			}
		}
		return b.String()
	}

	if got := line(2); !strings.HasPrefix(got, "    | |_| ") {
		t.Errorf("middle row: got %q", got)
	}
	if !strings.Contains(line(5), "BUZZ") {
		t.Error("buzzer indicator not drawn")
	}
	if !strings.Contains(line(7), "quit: q") {
		t.Error("help line not drawn")
	}
}

func TestCloseWithoutScreen(t *testing.T) {
	term, _, pins := newTestTerminal(t, nil)
	term.Write(pins.Cols[0], hwport.Low)
	if err := term.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if term.levels[pins.Cols[0]] != hwport.High {
		t.Error("Close should return columns to idle")
	}
}
