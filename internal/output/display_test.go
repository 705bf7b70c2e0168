package output

import (
	"testing"
	"time"

	"github.com/sweeney/segment-clock/internal/hwport"
)

func newTestDisplay() (*Display, *hwport.FakePort, *hwport.FakeDelayer, hwport.Pinout) {
	pins := hwport.DefaultPinout()
	port := hwport.NewFakePort()
	delay := &hwport.FakeDelayer{}
	return NewDisplay(port, delay, pins, 2*time.Millisecond), port, delay, pins
}

func TestDisplayShowLit(t *testing.T) {
	d, port, delay, pins := newTestDisplay()

	d.Show(6, 0x5B, true) // "2"

	for i, p := range pins.Digits {
		want := hwport.DigitOff
		if i == 6 {
			want = hwport.DigitOn
		}
		if port.Level(p) != want {
			t.Errorf("digit %d: expected %v, got %v", i, want, port.Level(p))
		}
	}
	for i, p := range pins.Segments {
		want := 0x5B&(1<<i) != 0
		if port.Level(p) != want {
			t.Errorf("segment %d: expected %v, got %v", i, want, port.Level(p))
		}
	}
	if delay.Total != 2*time.Millisecond {
		t.Errorf("expected 2ms hold, got %v", delay.Total)
	}
}

func TestDisplayShowUnlit(t *testing.T) {
	d, port, _, pins := newTestDisplay()

	d.Show(3, 0x3F, true)
	d.Show(4, 0x7F, false)

	for i, p := range pins.Digits {
		if port.Level(p) != hwport.DigitOff {
			t.Errorf("digit %d: expected off", i)
		}
	}
}

func TestDisplayDigitsOffBeforeSegments(t *testing.T) {
	d, port, _, pins := newTestDisplay()

	d.Show(0, 0x06, true)

	isDigit := make(map[hwport.Pin]bool)
	for _, p := range pins.Digits {
		isDigit[p] = true
	}
	seenSegment := false
	for i, w := range port.Writes {
		if isDigit[w.Pin] && w.Level == hwport.DigitOff && seenSegment {
			t.Fatalf("write %d: digit turned off after segments changed", i)
		}
		if !isDigit[w.Pin] {
			seenSegment = true
		}
	}
	last := port.Writes[len(port.Writes)-1]
	if last.Pin != pins.Digits[0] || last.Level != hwport.DigitOn {
		t.Errorf("expected digit enable to be the last write, got %+v", last)
	}
}

func TestDisplayBlank(t *testing.T) {
	d, port, delay, pins := newTestDisplay()

	d.Show(1, 0x7F, true)
	d.Blank()

	for i, p := range pins.Digits {
		if port.Level(p) != hwport.DigitOff {
			t.Errorf("digit %d: expected off", i)
		}
	}
	for i, p := range pins.Segments {
		if port.Level(p) != hwport.Low {
			t.Errorf("segment %d: expected low", i)
		}
	}
	if delay.Count != 1 {
		t.Errorf("Blank should not hold, got %d delays", delay.Count)
	}
}
