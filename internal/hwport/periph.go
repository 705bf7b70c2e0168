//go:build !tinygo

package hwport

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// PeriphPort drives lines through periph.io host drivers. Pins are looked
// up by their "GPIO<n>" names.
type PeriphPort struct {
	pins    map[Pin]gpio.PinIO
	outputs []Line
	err     error
}

// NewPeriphPort initialises the periph host and configures every line in
// pins: inputs with pull-up, outputs at their idle levels.
func NewPeriphPort(pins Pinout) (*PeriphPort, error) {
	if err := pins.Validate(); err != nil {
		return nil, fmt.Errorf("pinout: %w", err)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	return configurePeriph(pins, lookup)
}

// configurePeriph sets up every line found by find. On failure the lines
// already configured are driven idle and halted.
func configurePeriph(pins Pinout, find func(Pin) (gpio.PinIO, error)) (*PeriphPort, error) {
	p := &PeriphPort{
		pins:    make(map[Pin]gpio.PinIO),
		outputs: pins.Outputs(),
	}

	for _, pin := range pins.Inputs() {
		io, err := find(pin)
		if err != nil {
			p.Close()
			return nil, err
		}
		if err := io.In(gpio.PullUp, gpio.NoEdge); err != nil {
			p.Close()
			return nil, fmt.Errorf("configure input pin %d: %w", pin, err)
		}
		p.pins[pin] = io
	}

	for _, out := range p.outputs {
		io, err := find(out.Pin)
		if err != nil {
			p.Close()
			return nil, err
		}
		if err := io.Out(gpio.Level(out.Idle)); err != nil {
			p.Close()
			return nil, fmt.Errorf("configure output pin %d: %w", out.Pin, err)
		}
		p.pins[out.Pin] = io
	}

	return p, nil
}

func lookup(pin Pin) (gpio.PinIO, error) {
	name := fmt.Sprintf("GPIO%d", pin)
	io := gpioreg.ByName(name)
	if io == nil {
		return nil, fmt.Errorf("pin %s not found", name)
	}
	return io, nil
}

// Read returns the level of pin.
func (p *PeriphPort) Read(pin Pin) bool {
	io, ok := p.pins[pin]
	if !ok {
		p.fail(fmt.Errorf("read pin %d: not configured", pin))
		return Low
	}
	return bool(io.Read())
}

// Write drives pin.
func (p *PeriphPort) Write(pin Pin, level bool) {
	io, ok := p.pins[pin]
	if !ok {
		p.fail(fmt.Errorf("write pin %d: not configured", pin))
		return
	}
	if err := io.Out(gpio.Level(level)); err != nil {
		p.fail(fmt.Errorf("write pin %d: %w", pin, err))
	}
}

func (p *PeriphPort) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Err returns and clears the first I/O error.
func (p *PeriphPort) Err() error {
	err := p.err
	p.err = nil
	return err
}

// Close drives outputs idle and halts every pin.
func (p *PeriphPort) Close() error {
	var errs []error
	for _, out := range p.outputs {
		if io, ok := p.pins[out.Pin]; ok {
			if err := io.Out(gpio.Level(out.Idle)); err != nil {
				errs = append(errs, fmt.Errorf("idle pin %d: %w", out.Pin, err))
			}
		}
	}
	for pin, io := range p.pins {
		if err := io.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt pin %d: %w", pin, err))
		}
	}
	p.pins = nil

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
