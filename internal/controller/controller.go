// Package controller runs the clock's cooperative main loop. Each Step
// polls the button, sweeps the keypad, checks the alarm and refreshes one
// display digit, all on the caller's goroutine.
package controller

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/segment-clock/internal/hwport"
	"github.com/sweeney/segment-clock/internal/input"
	"github.com/sweeney/segment-clock/internal/logic"
	"github.com/sweeney/segment-clock/internal/output"
)

// Controller owns the loop context and the devices it drives.
// Not safe for concurrent use.
type Controller struct {
	state   *logic.Context
	button  *input.Button
	keypad  *input.Keypad
	buzzer  *output.Buzzer
	display *output.Display

	clock         clockwork.Clock
	counts        logic.EventCounts
	startTime     time.Time
	lastHeartbeat time.Time
}

// New wires the devices onto port. The clock only timestamps events and
// heartbeats; all waiting goes through delay.
func New(port hwport.Port, delay hwport.Delayer, pins hwport.Pinout, clock clockwork.Clock, cfg Config) *Controller {
	now := clock.Now()
	return &Controller{
		state:         logic.NewContext(cfg.Start, cfg.Alarm),
		button:        input.NewButton(port, delay, pins.Button, cfg.ButtonSettle),
		keypad:        input.NewKeypad(port, delay, pins, cfg.Keypad),
		buzzer:        output.NewBuzzer(port, delay, pins.Buzzer, cfg.Tone),
		display:       output.NewDisplay(port, delay, pins, cfg.DigitHold),
		clock:         clock,
		startTime:     now,
		lastHeartbeat: now,
	}
}

// Step runs one loop iteration and returns the events it produced.
// It blocks for the keypad sweep (until release if a key is held) and,
// when the alarm fires, for the whole tone. Keys pressed and released
// during the tone are missed.
func (c *Controller) Step() []logic.Event {
	var events []logic.Event

	if c.button.Poll() {
		c.counts.ButtonPresses++
		if c.state.PressButton() == logic.ActionModeChanged {
			events = append(events, c.record(logic.EventModeChanged, logic.NoKey))
		}
	}

	if k := c.keypad.Scan(); k != logic.NoKey {
		c.counts.KeyPresses++
		switch c.state.PressKey(k) {
		case logic.ActionModeChanged:
			events = append(events, c.record(logic.EventModeChanged, k))
		case logic.ActionAdjusted:
			events = append(events, c.record(logic.EventFieldAdjusted, k))
		}
	}

	if c.state.CheckAlarm() {
		events = append(events, c.record(logic.EventAlarmFired, logic.NoKey))
		c.buzzer.Sound()
	}

	pos := c.state.Cursor
	digits := c.state.Digits()
	c.display.Show(pos, logic.Segments(digits[pos]), c.state.DigitEnabled(pos))
	c.state.Advance()

	return events
}

func (c *Controller) record(typ logic.EventType, k logic.Key) logic.Event {
	switch typ {
	case logic.EventModeChanged:
		c.counts.ModeChanges++
	case logic.EventFieldAdjusted:
		c.counts.Adjustments++
	case logic.EventAlarmFired:
		c.counts.AlarmsFired++
	}
	return logic.Event{
		Timestamp: c.clock.Now(),
		Type:      typ,
		Mode:      c.state.Mode,
		Key:       k,
		Time:      c.state.Time,
		Alarm:     c.state.Alarm,
	}
}

// Run calls Step until ctx is done, passing non-empty event batches to
// handle. Cancellation is only observed between iterations. The display
// and buzzer are switched off before returning.
func (c *Controller) Run(ctx context.Context, handle func([]logic.Event)) error {
	defer c.Shutdown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if events := c.Step(); len(events) > 0 && handle != nil {
			handle(events)
		}
	}
}

// Shutdown blanks the display and silences the buzzer.
func (c *Controller) Shutdown() {
	c.display.Blank()
	c.buzzer.Off()
}

// State returns a copy of the loop context.
func (c *Controller) State() logic.Context {
	return *c.state
}

// Counts returns a copy of the event counts.
func (c *Controller) Counts() logic.EventCounts {
	return c.counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since
// the last heartbeat (or startup). Returns nil if the interval has not
// elapsed or is <= 0 (disabled).
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *logic.HeartbeatData {
	if interval <= 0 {
		return nil
	}
	if now.Sub(c.lastHeartbeat) < interval {
		return nil
	}

	c.lastHeartbeat = now
	return &logic.HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(c.startTime),
		Counts:    c.counts,
	}
}
