//go:build tinygo

// Command segment-clock-mcu runs the clock on a Raspberry Pi Pico with no
// operating system. Build with tinygo -target=pico.
package main

import (
	"context"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/segment-clock/internal/controller"
	"github.com/sweeney/segment-clock/internal/hwport"
)

// picoPinout uses GP0-GP22 and GP26-GP28, skipping the lines the board
// reserves for the LED, VBUS sense and SMPS control.
func picoPinout() hwport.Pinout {
	return hwport.Pinout{
		Button:   0,
		Rows:     [4]hwport.Pin{1, 2, 3, 4},
		Cols:     [4]hwport.Pin{5, 6, 7, 8},
		Segments: [8]hwport.Pin{9, 10, 11, 12, 13, 14, 15, 16},
		Buzzer:   17,
		Digits:   [8]hwport.Pin{18, 19, 20, 21, 22, 26, 27, 28},
	}
}

func main() {
	pins := picoPinout()
	if err := pins.Validate(); err != nil {
		panic(err)
	}
	port := hwport.NewMachinePort(pins)
	ctrl := controller.New(port, hwport.BusyDelayer{}, pins, clockwork.NewRealClock(), controller.DefaultConfig())

	// Never cancelled: the board runs until power is removed.
	ctrl.Run(context.Background(), nil)
}
