// Package status provides a thread-safe view of the clock for the HTTP
// server and MQTT system events. The main loop writes; readers copy.
package status

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/sweeney/segment-clock/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	Backend     string
	DigitHoldUs int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of the clock.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Time          logic.ClockTime
	Alarm         logic.AlarmTime
	Mode          logic.Mode
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Shown returns what the display shows as HH:MM:SS: the alarm's hours and
// minutes while it is being edited, the clock otherwise.
func (s Snapshot) Shown() string {
	c := logic.Context{Time: s.Time, Alarm: s.Alarm, Mode: s.Mode}
	d := c.Digits()
	return string([]byte{
		'0' + d[logic.PosHourTens], '0' + d[logic.PosHourOnes], ':',
		'0' + d[logic.PosMinuteTens], '0' + d[logic.PosMinuteOnes], ':',
		'0' + d[logic.PosSecondTens], '0' + d[logic.PosSecondOnes],
	})
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	clock clockwork.Clock
	mu    sync.RWMutex
	snap  Snapshot
}

// NewTracker creates a Tracker started now according to clock.
func NewTracker(clock clockwork.Clock, cfg Config) *Tracker {
	return &Tracker{
		clock: clock,
		snap: Snapshot{
			StartTime: clock.Now(),
			Mode:      logic.ModeRun,
			Config:    cfg,
		},
	}
}

// Update records the loop state and event counts.
// Called from the run loop after every iteration.
func (t *Tracker) Update(state logic.Context, counts logic.EventCounts) {
	t.mu.Lock()
	t.snap.Time = state.Time
	t.snap.Alarm = state.Alarm
	t.snap.Mode = state.Mode
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state with Now set
// from the tracker's clock.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = t.clock.Now()
	return s
}
