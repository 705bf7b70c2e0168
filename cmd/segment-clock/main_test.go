package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/segment-clock/internal/controller"
	"github.com/sweeney/segment-clock/internal/hwport"
	"github.com/sweeney/segment-clock/internal/logic"
	"github.com/sweeney/segment-clock/internal/mqtt"
	"github.com/sweeney/segment-clock/internal/status"
)

var epoch = time.Date(2026, 1, 15, 6, 29, 59, 0, time.UTC)

type loopRig struct {
	port    *hwport.FakePort
	delay   *hwport.FakeDelayer
	clock   clockwork.FakeClock
	pins    hwport.Pinout
	pub     *mqtt.FakePublisher
	tracker *status.Tracker
	ctrl    *controller.Controller
	sig     chan os.Signal
}

func newLoopRig(t *testing.T, cfg controller.Config) *loopRig {
	t.Helper()
	clock := clockwork.NewFakeClockAt(epoch)
	r := &loopRig{
		port:  hwport.NewFakePort(),
		clock: clock,
		pins:  hwport.DefaultPinout(),
		pub:   mqtt.NewFakePublisher(),
		sig:   make(chan os.Signal, 1),
	}
	r.delay = &hwport.FakeDelayer{Clock: clock}
	r.tracker = status.NewTracker(clock, status.Config{Backend: "fake"})
	r.ctrl = controller.New(r.port, r.delay, r.pins, clock, cfg)
	return r
}

// signalWhen sends sig from inside a delay once cond holds, so the loop
// sees it at the next iteration boundary.
func (r *loopRig) signalWhen(s os.Signal, cond func(d time.Duration) bool) {
	sent := false
	r.delay.OnDelay = func(d time.Duration) {
		if !sent && cond(d) {
			sent = true
			r.sig <- s
		}
	}
}

func (r *loopRig) run(t *testing.T, heartbeat time.Duration, quit <-chan struct{}) {
	t.Helper()
	if err := runLoop(r.ctrl, r.port, r.pub, r.pub, r.tracker, heartbeat, r.clock, r.sig, quit); err != nil {
		t.Fatalf("runLoop: %v", err)
	}
}

func alarmConfig() controller.Config {
	cfg := controller.DefaultConfig()
	cfg.Start = logic.ClockTime{Hours: 6, Minutes: 29, Seconds: 59}
	return cfg
}

func TestRunLoopPublishesAlarmAndShutdown(t *testing.T) {
	cfg := alarmConfig()
	r := newLoopRig(t, cfg)
	r.signalWhen(syscall.SIGTERM, func(d time.Duration) bool { return d == cfg.Tone.HalfPeriod })

	r.run(t, 0, nil)

	if len(r.pub.Events) != 1 {
		t.Fatalf("expected 1 clock event, got %d", len(r.pub.Events))
	}
	alarms, _ := r.pub.OfType(logic.EventAlarmFired)
	if len(alarms) != 1 {
		t.Fatalf("expected the event to be %s, got %s", logic.EventAlarmFired, r.pub.Events[0].Type)
	}
	ev := alarms[0]
	if ev.Time.String() != "06:30:00" {
		t.Errorf("event time: got %s, want 06:30:00", ev.Time)
	}

	if len(r.pub.SystemEvents) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(r.pub.SystemEvents))
	}
	sd := r.pub.SystemEvents[0]
	if sd.Event != "SHUTDOWN" || sd.Reason != "SIGTERM" || !sd.Retained {
		t.Errorf("shutdown event: got %+v", sd)
	}

	var sj status.StatusJSON
	if err := json.Unmarshal(r.pub.SystemPayloads[0], &sj); err != nil {
		t.Fatalf("shutdown payload: %v", err)
	}
	if sj.Status.Counts.AlarmsFired != 1 {
		t.Errorf("shutdown payload alarms fired: got %d, want 1", sj.Status.Counts.AlarmsFired)
	}
	if !sj.Status.Alarm.Latched {
		t.Error("shutdown payload should show the alarm latched")
	}

	for i, d := range r.pins.Digits {
		if r.port.Level(d) != hwport.DigitOff {
			t.Errorf("digit %d still enabled after shutdown", i)
		}
	}
	if r.port.Level(r.pins.Buzzer) != hwport.Low {
		t.Error("buzzer left driven after shutdown")
	}
}

func TestRunLoopQuitChannel(t *testing.T) {
	r := newLoopRig(t, controller.DefaultConfig())
	quit := make(chan struct{})
	close(quit)

	r.run(t, 0, quit)

	if r.delay.Count != 0 {
		t.Errorf("expected no iterations, got %d delays", r.delay.Count)
	}
	if len(r.pub.SystemEvents) != 1 || r.pub.SystemEvents[0].Reason != "QUIT" {
		t.Errorf("expected SHUTDOWN with reason QUIT, got %+v", r.pub.SystemEvents)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	r := newLoopRig(t, controller.DefaultConfig())
	stopAt := epoch.Add(1500 * time.Millisecond)
	r.signalWhen(syscall.SIGINT, func(time.Duration) bool { return !r.clock.Now().Before(stopAt) })

	r.run(t, time.Second, nil)

	beats := r.pub.System("HEARTBEAT")
	if len(beats) != 1 {
		t.Fatalf("expected 1 heartbeat, got %d", len(beats))
	}
	if beats[0].Retained {
		t.Error("heartbeat should not be retained")
	}
	shutdowns := r.pub.System("SHUTDOWN")
	if len(shutdowns) != 1 || shutdowns[0].Reason != "SIGINT" {
		t.Errorf("expected 1 SHUTDOWN with reason SIGINT, got %+v", shutdowns)
	}
}

func TestRunLoopPublishErrorDoesNotStop(t *testing.T) {
	cfg := alarmConfig()
	r := newLoopRig(t, cfg)
	r.pub.PublishError = errors.New("broker down")
	r.signalWhen(syscall.SIGTERM, func(d time.Duration) bool { return d == cfg.Tone.HalfPeriod })

	r.run(t, 0, nil)

	if got := r.ctrl.Counts().AlarmsFired; got != 1 {
		t.Errorf("alarms fired: got %d, want 1", got)
	}
	if len(r.pub.SystemEvents) != 1 {
		t.Errorf("expected shutdown to publish despite event errors")
	}
}

func TestRunLoopUpdatesTracker(t *testing.T) {
	r := newLoopRig(t, controller.DefaultConfig())
	r.pub.Connected = true
	r.signalWhen(syscall.SIGTERM, func(time.Duration) bool { return true })

	r.run(t, 0, nil)

	snap := r.tracker.Snapshot()
	if !snap.MQTTConnected {
		t.Error("tracker should report MQTT connected")
	}
	if snap.Time.String() != "12:00:00" {
		t.Errorf("tracker time: got %s, want 12:00:00", snap.Time)
	}
}

func TestRunLoopLogsPortErrors(t *testing.T) {
	r := newLoopRig(t, controller.DefaultConfig())
	r.port.IOError = errors.New("line busy")
	r.signalWhen(syscall.SIGTERM, func(time.Duration) bool { return true })

	r.run(t, 0, nil)

	if err := r.port.Err(); err != nil {
		t.Errorf("port error should have been consumed by the loop, got %v", err)
	}
}

func TestSignalName(t *testing.T) {
	if got := signalName(syscall.SIGINT); got != "SIGINT" {
		t.Errorf("SIGINT: got %q", got)
	}
	if got := signalName(syscall.SIGTERM); got != "SIGTERM" {
		t.Errorf("SIGTERM: got %q", got)
	}
	if got := signalName(syscall.SIGHUP); got != "UNKNOWN" {
		t.Errorf("SIGHUP: got %q", got)
	}
}

func TestParseFlagsDefaults(t *testing.T) {
	o, err := parseFlags(nil, epoch)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	def := controller.DefaultConfig()
	if o.clock != def {
		t.Errorf("clock config: got %+v, want %+v", o.clock, def)
	}
	if o.backend != "gpiocdev" {
		t.Errorf("backend: got %q", o.backend)
	}
	if o.broker != "" {
		t.Errorf("broker should default to disabled, got %q", o.broker)
	}
	if o.pins != hwport.DefaultPinout() {
		t.Error("pins should default to DefaultPinout")
	}
	if o.heartbeat != 15*time.Minute {
		t.Errorf("heartbeat: got %v", o.heartbeat)
	}
}

func TestParseFlagsValues(t *testing.T) {
	o, err := parseFlags([]string{
		"-backend", "sim",
		"-start", "now",
		"-alarm", "07:45",
		"-column-settle", "100us",
		"-pin-button", "40",
		"-pin-buzzer", "41",
	}, epoch)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if o.backend != "sim" {
		t.Errorf("backend: got %q", o.backend)
	}
	if o.clock.Start.String() != "06:29:59" {
		t.Errorf("start: got %s, want 06:29:59", o.clock.Start)
	}
	if o.clock.Alarm.String() != "07:45" || !o.clock.Alarm.Enabled {
		t.Errorf("alarm: got %+v", o.clock.Alarm)
	}
	if o.clock.Keypad.ColumnSettle != 100*time.Microsecond {
		t.Errorf("column settle: got %v", o.clock.Keypad.ColumnSettle)
	}
	if o.pins.Button != 40 || o.pins.Buzzer != 41 {
		t.Errorf("pins: got button=%d buzzer=%d, want 40/41", o.pins.Button, o.pins.Buzzer)
	}
}

func TestParseFlagsEnvAndConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clock.conf")
	if err := os.WriteFile(path, []byte("alarm 05:15\nheartbeat 1m\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEGCLOCK_HEARTBEAT", "2m")
	t.Setenv("SEGCLOCK_BROKER", "tcp://broker:1883")

	o, err := parseFlags([]string{"-config", path}, epoch)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if o.clock.Alarm.String() != "05:15" {
		t.Errorf("alarm from file: got %s", o.clock.Alarm)
	}
	if o.heartbeat != 2*time.Minute {
		t.Errorf("env should override file: got %v", o.heartbeat)
	}
	if o.broker != "tcp://broker:1883" {
		t.Errorf("broker from env: got %q", o.broker)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad start", []string{"-start", "25:00:00"}},
		{"bad alarm", []string{"-alarm", "6h30"}},
		{"bad backend", []string{"-backend", "serial"}},
		{"pin clash", []string{"-pin-button", "18"}},
		{"unknown flag", []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseFlags(tt.args, epoch); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseFlagsHelp(t *testing.T) {
	_, err := parseFlags([]string{"-h"}, epoch)
	if !errors.Is(err, flag.ErrHelp) {
		t.Errorf("expected flag.ErrHelp, got %v", err)
	}
}

func TestPrintState(t *testing.T) {
	port := hwport.NewFakePort()
	pins := hwport.DefaultPinout()
	matrix := hwport.NewFakeMatrix(port, pins)
	matrix.Press(2, 1, 1) // '8'

	cfg := controller.DefaultConfig()
	cfg.Start = logic.ClockTime{Hours: 12, Minutes: 34, Seconds: 56}

	var buf bytes.Buffer
	printState(&buf, port, pins, cfg)
	want := "display: [3 4 5 6 _ _ 1 2] time=12:34:56 alarm=06:30\n" +
		"button: RELEASED, keys: 8\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	port.Set(pins.Button, hwport.Pressed)
	buf.Reset()
	printState(&buf, port, pins, cfg)
	if got := buf.String(); !strings.HasSuffix(got, "button: PRESSED, keys: none\n") {
		t.Errorf("got %q", got)
	}
}
