package input

import (
	"time"

	"github.com/sweeney/segment-clock/internal/hwport"
	"github.com/sweeney/segment-clock/internal/logic"
)

// Keymap maps [row][column] to the symbol printed on the keypad.
var Keymap = [4][4]logic.Key{
	{'1', '2', '3', 'A'},
	{'4', '5', '6', 'B'},
	{'7', '8', '9', 'C'},
	{'*', '0', '#', 'D'},
}

// Position returns the row and column of k, or ok=false if k is not on
// the keypad.
func Position(k logic.Key) (row, col int, ok bool) {
	for r := range Keymap {
		for c := range Keymap[r] {
			if Keymap[r][c] == k {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// KeypadTiming holds the scan delays.
type KeypadTiming struct {
	// ColumnSettle is waited after selecting a column, before reading rows.
	ColumnSettle time.Duration
	// Debounce is waited before re-reading a row that read pressed.
	Debounce time.Duration
	// ReleasePoll is the interval between release checks.
	ReleasePoll time.Duration
	// Trailing is waited after release, before returning the key.
	Trailing time.Duration
}

// Keypad scans a 4x4 matrix with rows pulled up and columns driven.
type Keypad struct {
	port   hwport.Port
	delay  hwport.Delayer
	rows   [4]hwport.Pin
	cols   [4]hwport.Pin
	timing KeypadTiming
}

// NewKeypad creates a scanner for the rows and columns in pins.
func NewKeypad(port hwport.Port, delay hwport.Delayer, pins hwport.Pinout, timing KeypadTiming) *Keypad {
	return &Keypad{
		port:   port,
		delay:  delay,
		rows:   pins.Rows,
		cols:   pins.Cols,
		timing: timing,
	}
}

// Scan sweeps the columns once. It returns logic.NoKey without blocking
// further if no row reads pressed. Otherwise it confirms the press after
// the debounce delay, blocks until every row reads released, and returns
// the key. The first confirmed key in column-major order wins.
func (k *Keypad) Scan() logic.Key {
	for c, selected := range k.cols {
		for _, col := range k.cols {
			k.port.Write(col, hwport.High)
		}
		k.port.Write(selected, hwport.Low)
		k.delay.Delay(k.timing.ColumnSettle)

		for r, row := range k.rows {
			if k.port.Read(row) != hwport.Pressed {
				continue
			}
			k.delay.Delay(k.timing.Debounce)
			if k.port.Read(row) != hwport.Pressed {
				continue
			}

			for k.anyRowPressed() {
				k.delay.Delay(k.timing.ReleasePoll)
			}
			k.delay.Delay(k.timing.Trailing)
			return Keymap[r][c]
		}
	}
	return logic.NoKey
}

func (k *Keypad) anyRowPressed() bool {
	for _, row := range k.rows {
		if k.port.Read(row) == hwport.Pressed {
			return true
		}
	}
	return false
}
