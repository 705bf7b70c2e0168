package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Time          string     `json:"time"`
	Display       string     `json:"display"`
	Mode          string     `json:"mode"`
	Alarm         AlarmJSON  `json:"alarm"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Counts        CountsJSON `json:"event_counts"`
	Config        ConfigJSON `json:"config"`
}

// AlarmJSON is the JSON representation of the alarm.
type AlarmJSON struct {
	Time    string `json:"time"`
	Enabled bool   `json:"enabled"`
	Latched bool   `json:"latched"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ButtonPresses int `json:"button_presses"`
	KeyPresses    int `json:"key_presses"`
	ModeChanges   int `json:"mode_changes"`
	Adjustments   int `json:"adjustments"`
	AlarmsFired   int `json:"alarms_fired"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	Backend     string `json:"backend"`
	DigitHoldUs int64  `json:"digit_hold_us"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker,omitempty"`
	HTTPAddr    string `json:"http_addr,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Time:    snap.Time.String(),
		Display: snap.Shown(),
		Mode:    snap.Mode.String(),
		Alarm: AlarmJSON{
			Time:    snap.Alarm.String(),
			Enabled: snap.Alarm.Enabled,
			Latched: snap.Alarm.Latched,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			ButtonPresses: snap.Counts.ButtonPresses,
			KeyPresses:    snap.Counts.KeyPresses,
			ModeChanges:   snap.Counts.ModeChanges,
			Adjustments:   snap.Counts.Adjustments,
			AlarmsFired:   snap.Counts.AlarmsFired,
		},
		Config: ConfigJSON{
			Backend:     snap.Config.Backend,
			DigitHoldUs: snap.Config.DigitHoldUs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
