package hwport

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Write is a single recorded output.
type Write struct {
	Pin   Pin
	Level bool
}

// FakePort is a test double holding a level per line. Unset lines read
// high, matching pulled-up inputs.
type FakePort struct {
	levels map[Pin]bool

	// Writes records every Write call in order.
	Writes []Write

	// Reads counts Read calls.
	Reads int

	// ReadHook, if set, is consulted before the stored level. It returns
	// ok=false to fall through to the stored level.
	ReadHook func(pin Pin) (level bool, ok bool)

	// IOError, if set, is returned once by Err.
	IOError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePort creates a FakePort with every line high.
func NewFakePort() *FakePort {
	return &FakePort{levels: make(map[Pin]bool)}
}

// Set forces the level of a line.
func (f *FakePort) Set(pin Pin, level bool) {
	f.levels[pin] = level
}

// Level returns the stored level of a line.
func (f *FakePort) Level(pin Pin) bool {
	level, ok := f.levels[pin]
	if !ok {
		return High
	}
	return level
}

// Read returns the hooked or stored level.
func (f *FakePort) Read(pin Pin) bool {
	f.Reads++
	if f.ReadHook != nil {
		if level, ok := f.ReadHook(pin); ok {
			return level
		}
	}
	return f.Level(pin)
}

// Write records the output and stores the level.
func (f *FakePort) Write(pin Pin, level bool) {
	f.Writes = append(f.Writes, Write{Pin: pin, Level: level})
	f.levels[pin] = level
}

// Err returns IOError once.
func (f *FakePort) Err() error {
	err := f.IOError
	f.IOError = nil
	return err
}

// Close marks the port as closed.
func (f *FakePort) Close() error {
	f.Closed = true
	return nil
}

// WritesTo returns the levels written to pin, in order.
func (f *FakePort) WritesTo(pin Pin) []bool {
	var out []bool
	for _, w := range f.Writes {
		if w.Pin == pin {
			out = append(out, w.Level)
		}
	}
	return out
}

// ResetWrites clears the write log.
func (f *FakePort) ResetWrites() {
	f.Writes = nil
}

// FakeMatrix simulates a 4x4 keypad wired to a FakePort. A held key pulls
// its row low only while its column is driven low.
type FakeMatrix struct {
	port *FakePort
	pins Pinout
	row  int
	col  int
	held int
}

// NewFakeMatrix installs the matrix as the port's ReadHook.
func NewFakeMatrix(port *FakePort, pins Pinout) *FakeMatrix {
	m := &FakeMatrix{port: port, pins: pins}
	port.ReadHook = m.read
	return m
}

// Press holds the key at row, col for the given number of row reads that
// observe it. A key held for fewer than two reads looks like contact bounce.
func (m *FakeMatrix) Press(row, col, reads int) {
	m.row, m.col, m.held = row, col, reads
}

// Held reports whether the key is still down.
func (m *FakeMatrix) Held() bool {
	return m.held > 0
}

func (m *FakeMatrix) read(pin Pin) (bool, bool) {
	for r, rowPin := range m.pins.Rows {
		if rowPin != pin {
			continue
		}
		if m.held > 0 && r == m.row && m.port.Level(m.pins.Cols[m.col]) == Low {
			m.held--
			return Pressed, true
		}
		return Released, true
	}
	return false, false
}

// FakeDelayer records delays instead of blocking.
type FakeDelayer struct {
	Count int
	Total time.Duration
	Last  time.Duration

	// Clock, if set, is advanced by every delay.
	Clock clockwork.FakeClock

	// OnDelay, if set, is called after each delay is recorded.
	OnDelay func(d time.Duration)
}

// Delay records d.
func (f *FakeDelayer) Delay(d time.Duration) {
	f.Count++
	f.Total += d
	f.Last = d
	if f.Clock != nil {
		f.Clock.Advance(d)
	}
	if f.OnDelay != nil {
		f.OnDelay(d)
	}
}
