//go:build linux && !tinygo

package hwport

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// CDevPort drives lines through the Linux GPIO character device.
type CDevPort struct {
	chip    *gpiocdev.Chip
	lines   map[Pin]*gpiocdev.Line
	outputs []Line
	err     error
}

// NewCDevPort opens chip and requests every line in pins: inputs with
// pull-up, outputs at their idle levels.
func NewCDevPort(chipName string, pins Pinout) (*CDevPort, error) {
	if err := pins.Validate(); err != nil {
		return nil, fmt.Errorf("pinout: %w", err)
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &CDevPort{
		chip:    chip,
		lines:   make(map[Pin]*gpiocdev.Line),
		outputs: pins.Outputs(),
	}

	for _, pin := range pins.Inputs() {
		l, err := chip.RequestLine(int(pin), gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		p.lines[pin] = l
	}

	for _, out := range p.outputs {
		l, err := chip.RequestLine(int(out.Pin), gpiocdev.AsOutput(value(out.Idle)))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request output pin %d: %w", out.Pin, err)
		}
		p.lines[out.Pin] = l
	}

	return p, nil
}

func value(level bool) int {
	if level {
		return 1
	}
	return 0
}

// Read returns the level of pin. Read failures report low and are
// surfaced through Err.
func (p *CDevPort) Read(pin Pin) bool {
	l, ok := p.lines[pin]
	if !ok {
		p.fail(fmt.Errorf("read pin %d: not requested", pin))
		return Low
	}
	v, err := l.Value()
	if err != nil {
		p.fail(fmt.Errorf("read pin %d: %w", pin, err))
		return Low
	}
	return v != 0
}

// Write drives pin.
func (p *CDevPort) Write(pin Pin, level bool) {
	l, ok := p.lines[pin]
	if !ok {
		p.fail(fmt.Errorf("write pin %d: not requested", pin))
		return
	}
	if err := l.SetValue(value(level)); err != nil {
		p.fail(fmt.Errorf("write pin %d: %w", pin, err))
	}
}

func (p *CDevPort) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Err returns and clears the first I/O error.
func (p *CDevPort) Err() error {
	err := p.err
	p.err = nil
	return err
}

// Close blanks the display, silences the buzzer and returns every line to
// an input so the header is left in a safe state.
func (p *CDevPort) Close() error {
	var errs []error

	for _, out := range p.outputs {
		if l, ok := p.lines[out.Pin]; ok {
			if err := l.SetValue(value(out.Idle)); err != nil {
				errs = append(errs, fmt.Errorf("idle pin %d: %w", out.Pin, err))
			}
		}
	}
	for pin, l := range p.lines {
		if err := l.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure pin %d: %w", pin, err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", pin, err))
		}
	}
	p.lines = nil
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		p.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
