package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/segment-clock/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="1">
<title>Segment Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.display { font-size: 2.4em; letter-spacing: 0.1em; }
.editing { color: orange; }
.latched { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Segment Clock</h1>

<p id="display" class="display{{if ne .Mode.String "RUN"}} editing{{end}}">{{.Display}}</p>

<h2>State</h2>
<table>
<tr><th>Time</th><td id="time">{{.Time}}</td></tr>
<tr><th>Mode</th><td id="mode">{{.Mode}}</td></tr>
<tr><th>Alarm</th><td id="alarm">{{.Alarm}}{{if not .Alarm.Enabled}} (disabled){{end}}</td></tr>
<tr><th>Alarm fired</th><td class="{{if .Alarm.Latched}}latched{{end}}">{{if .Alarm.Latched}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Button presses</th><td>{{.Counts.ButtonPresses}}</td></tr>
<tr><th>Key presses</th><td>{{.Counts.KeyPresses}}</td></tr>
<tr><th>Mode changes</th><td>{{.Counts.ModeChanges}}</td></tr>
<tr><th>Adjustments</th><td>{{.Counts.Adjustments}}</td></tr>
<tr><th>Alarms fired</th><td>{{.Counts.AlarmsFired}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Digit hold</th><td>{{.Config.DigitHoldUs}}us</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Templates cannot call Snapshot's computed methods with arguments,
	// so derived values are flattened in here.
	data := struct {
		status.Snapshot
		Uptime  time.Duration
		Display string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Display:  snap.Shown(),
	}
	indexTmpl.Execute(w, data)
}
