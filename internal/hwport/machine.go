//go:build tinygo

package hwport

import (
	"machine"
	"time"
)

// MachinePort drives microcontroller pins directly. Line numbers are
// machine.Pin values.
type MachinePort struct{}

// NewMachinePort configures every line in pins: inputs with pull-up,
// outputs at their idle levels.
func NewMachinePort(pins Pinout) *MachinePort {
	for _, pin := range pins.Inputs() {
		machine.Pin(pin).Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	for _, out := range pins.Outputs() {
		mp := machine.Pin(out.Pin)
		mp.Configure(machine.PinConfig{Mode: machine.PinOutput})
		mp.Set(out.Idle)
	}
	return &MachinePort{}
}

// Read returns the level of pin.
func (MachinePort) Read(pin Pin) bool { return machine.Pin(pin).Get() }

// Write drives pin.
func (MachinePort) Write(pin Pin, level bool) { machine.Pin(pin).Set(level) }

// Err always returns nil; pin access on the chip cannot fail.
func (MachinePort) Err() error { return nil }

// BusyDelayer delays with the runtime sleep, which tinygo implements on
// the chip's timer.
type BusyDelayer struct{}

// Delay blocks for d. Zero and negative durations return immediately.
func (BusyDelayer) Delay(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
