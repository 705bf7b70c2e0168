// Command segment-clock runs the alarm clock's main loop against GPIO lines
// or a terminal simulator and publishes clock events to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/peterbourgon/ff/v3"

	"github.com/sweeney/segment-clock/internal/controller"
	"github.com/sweeney/segment-clock/internal/hwport"
	"github.com/sweeney/segment-clock/internal/input"
	"github.com/sweeney/segment-clock/internal/logic"
	"github.com/sweeney/segment-clock/internal/mqtt"
	"github.com/sweeney/segment-clock/internal/sim"
	"github.com/sweeney/segment-clock/internal/status"
	"github.com/sweeney/segment-clock/internal/web"
)

const envPrefix = "SEGCLOCK"

type options struct {
	backend    string
	chip       string
	pins       hwport.Pinout
	clock      controller.Config
	broker     string
	heartbeat  time.Duration
	httpAddr   string
	printState bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], time.Now())
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// parseFlags reads flags, SEGCLOCK_* environment variables and an optional
// -config file, in increasing order of precedence: file, env, flags.
func parseFlags(args []string, now time.Time) (options, error) {
	def := controller.DefaultConfig()
	pins := hwport.DefaultPinout()

	fs := flag.NewFlagSet("segment-clock", flag.ContinueOnError)
	backend := fs.String("backend", "gpiocdev", "I/O backend: gpiocdev, periph or sim")
	chip := fs.String("chip", "gpiochip0", "GPIO chip for the gpiocdev backend")
	pinButton := fs.Int("pin-button", int(pins.Button), "BCM pin number for the mode button")
	pinBuzzer := fs.Int("pin-buzzer", int(pins.Buzzer), "BCM pin number for the buzzer")
	start := fs.String("start", "12:00:00", `Initial time as HH:MM:SS, or "now"`)
	alarm := fs.String("alarm", "06:30", "Alarm time as HH:MM")
	digitHold := fs.Duration("digit-hold", def.DigitHold, "How long each digit is lit per iteration")
	columnSettle := fs.Duration("column-settle", def.Keypad.ColumnSettle, "Keypad column settle delay")
	buttonSettle := fs.Duration("button-settle", def.ButtonSettle, "Mode button debounce delay")
	keyDebounce := fs.Duration("key-debounce", def.Keypad.Debounce, "Keypad debounce delay")
	keyReleasePoll := fs.Duration("key-release-poll", def.Keypad.ReleasePoll, "Keypad release poll interval")
	keyTrailing := fs.Duration("key-trailing", def.Keypad.Trailing, "Delay after a key is released")
	toneToggles := fs.Int("tone-toggles", def.Tone.Toggles, "Buzzer toggles per alarm")
	toneHalfPeriod := fs.Duration("tone-half-period", def.Tone.HalfPeriod, "Buzzer half period")
	broker := fs.String("broker", "", "MQTT broker address (empty to disable)")
	heartbeat := fs.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := fs.String("http", ":8080", "HTTP status address (empty to disable)")
	printState := fs.Bool("print-state", false, "Print input line state and exit")
	_ = fs.String("config", "", "Config file (plain key value lines)")

	if err := ff.Parse(fs, args,
		ff.WithEnvVarPrefix(envPrefix),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		return options{}, err
	}

	cfg := def
	if strings.EqualFold(*start, "now") {
		cfg.Start = logic.ClockTimeOf(now)
	} else {
		t, err := logic.ParseClockTime(*start)
		if err != nil {
			return options{}, fmt.Errorf("-start: %w", err)
		}
		cfg.Start = t
	}
	a, err := logic.ParseAlarmTime(*alarm)
	if err != nil {
		return options{}, fmt.Errorf("-alarm: %w", err)
	}
	cfg.Alarm = a

	cfg.DigitHold = *digitHold
	cfg.ButtonSettle = *buttonSettle
	cfg.Keypad = input.KeypadTiming{
		ColumnSettle: *columnSettle,
		Debounce:     *keyDebounce,
		ReleasePoll:  *keyReleasePoll,
		Trailing:     *keyTrailing,
	}
	cfg.Tone.Toggles = *toneToggles
	cfg.Tone.HalfPeriod = *toneHalfPeriod

	pins.Button = hwport.Pin(*pinButton)
	pins.Buzzer = hwport.Pin(*pinBuzzer)
	if err := pins.Validate(); err != nil {
		return options{}, fmt.Errorf("pinout: %w", err)
	}

	switch *backend {
	case "gpiocdev", "periph", "sim":
	default:
		return options{}, fmt.Errorf("unknown backend %q", *backend)
	}

	return options{
		backend:    *backend,
		chip:       *chip,
		pins:       pins,
		clock:      cfg,
		broker:     *broker,
		heartbeat:  *heartbeat,
		httpAddr:   *httpAddr,
		printState: *printState,
	}, nil
}

// openPort returns the backend device and, for the simulator, a channel
// closed when the user quits.
func openPort(o options, clock clockwork.Clock) (hwport.Device, <-chan struct{}, error) {
	switch o.backend {
	case "periph":
		p, err := hwport.NewPeriphPort(o.pins)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	case "sim":
		t, err := sim.NewTerminal(o.pins, clock)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Done(), nil
	default:
		p, err := hwport.NewCDevPort(o.chip, o.pins)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	}
}

func run(o options) error {
	clock := clockwork.NewRealClock()

	port, quit, err := openPort(o, clock)
	if err != nil {
		return fmt.Errorf("init %s backend: %w", o.backend, err)
	}
	defer port.Close()

	if o.printState {
		printState(os.Stdout, port, o.pins, o.clock)
		return nil
	}

	// The simulator owns the terminal.
	if o.backend == "sim" {
		log.SetOutput(io.Discard)
	}

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	var mqttStatus mqtt.ConnectionStatus = mqtt.NopPublisher{}
	if o.broker != "" {
		rp := mqtt.NewRealPublisher(o.broker)
		publisher, mqttStatus = rp, rp
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(clock, status.Config{
		Backend:     o.backend,
		DigitHoldUs: o.clock.DigitHold.Microseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		HTTPAddr:    o.httpAddr,
	})
	ctrl := controller.New(port, hwport.NewSleepDelayer(clock), o.pins, clock, o.clock)
	tracker.Update(ctrl.State(), ctrl.Counts())

	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	if o.httpAddr != "" {
		srv := web.New(o.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: backend=%s time=%s alarm=%s broker=%q heartbeat=%v",
		o.backend, o.clock.Start, o.clock.Alarm, o.broker, o.heartbeat)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(ctrl, port, publisher, mqttStatus, tracker, o.heartbeat, clock, sigCh, quit)
}

// runLoop steps the controller until a signal arrives or quit is closed.
// Signals are only observed between iterations, so a keypad wait or alarm
// tone finishes first.
func runLoop(ctrl *controller.Controller, port hwport.Port, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, clock clockwork.Clock, sig <-chan os.Signal, quit <-chan struct{}) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			shutdown(ctrl, publisher, mqttStatus, tracker, clock, signalName(s))
			return nil
		case <-quit:
			log.Printf("quit requested, shutting down")
			shutdown(ctrl, publisher, mqttStatus, tracker, clock, "QUIT")
			return nil
		default:
		}

		events := ctrl.Step()
		if err := port.Err(); err != nil {
			log.Printf("gpio error: %v", err)
		}

		for _, event := range events {
			log.Printf("event: %s (mode=%s key=%q time=%s alarm=%s)",
				event.Type, event.Mode, event.Key.String(), event.Time, event.Alarm)
			if err := publisher.Publish(event); err != nil {
				log.Printf("publish error: %v", err)
			}
		}

		tracker.Update(ctrl.State(), ctrl.Counts())
		tracker.SetMQTTConnected(mqttStatus.IsConnected())

		if hb := ctrl.CheckHeartbeat(clock.Now(), heartbeat); hb != nil {
			log.Printf("heartbeat: uptime=%v buttons=%d keys=%d adjustments=%d alarms=%d",
				hb.Uptime, hb.Counts.ButtonPresses, hb.Counts.KeyPresses, hb.Counts.Adjustments, hb.Counts.AlarmsFired)
			hbEvent := mqtt.SystemEvent{
				Timestamp:  hb.Timestamp,
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", ""),
			}
			if err := publisher.PublishSystem(hbEvent); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
		}
	}
}

func shutdown(ctrl *controller.Controller, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, clock clockwork.Clock, reason string) {
	ctrl.Shutdown()

	tracker.Update(ctrl.State(), ctrl.Counts())
	tracker.SetMQTTConnected(mqttStatus.IsConnected())
	event := mqtt.SystemEvent{
		Timestamp:  clock.Now(),
		Event:      "SHUTDOWN",
		Reason:     reason,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", reason),
	}
	if err := publisher.PublishSystem(event); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// printState reports the digit buffer the clock would start with, then the
// button level and any keys held, sweeping the keypad columns once without
// waiting for release.
func printState(w io.Writer, port hwport.Port, pins hwport.Pinout, cfg controller.Config) {
	state := logic.NewContext(cfg.Start, cfg.Alarm)
	digits := make([]string, 0, logic.DigitCount)
	for _, d := range state.Digits() {
		if d == logic.Blank {
			digits = append(digits, "_")
			continue
		}
		digits = append(digits, fmt.Sprint(d))
	}
	fmt.Fprintf(w, "display: [%s] time=%s alarm=%s\n", strings.Join(digits, " "), cfg.Start, cfg.Alarm)

	button := "RELEASED"
	if port.Read(pins.Button) == hwport.Pressed {
		button = "PRESSED"
	}

	var held []string
	for c := range pins.Cols {
		for i, col := range pins.Cols {
			port.Write(col, i != c)
		}
		for r, row := range pins.Rows {
			if port.Read(row) == hwport.Pressed {
				held = append(held, input.Keymap[r][c].String())
			}
		}
	}
	for _, col := range pins.Cols {
		port.Write(col, hwport.High)
	}

	keys := "none"
	if len(held) > 0 {
		keys = strings.Join(held, " ")
	}
	fmt.Fprintf(w, "button: %s, keys: %s\n", button, keys)
}
