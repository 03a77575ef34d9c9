package web

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"time"

	"github.com/sweeney/smartsuite/internal/status"
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
	"reading": func(v float64, unit string) string {
		if math.IsNaN(v) {
			return "no reading"
		}
		return fmt.Sprintf("%.1f%s", v, unit)
	},
	"onOff": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
	"sortedKeys": status.SortedKeys,
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>SmartSuite {{.Config.DeviceID}}</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 1.5em auto; padding: 0 1em; color: #222; }
h1 { font-size: 1.5em; margin-bottom: 0.2em; }
h2 { font-size: 1.1em; margin-top: 1.4em; border-bottom: 2px solid #eee; }
table { border-collapse: collapse; width: 100%; }
th, td { padding: 3px 6px; text-align: left; }
th { width: 45%; font-weight: normal; color: #555; }
.on, .connected { color: #1a7f37; font-weight: bold; }
.off { color: #999; }
.disconnected, .high { color: #cf222e; }
.medium { color: #bf8700; }
</style>
</head>
<body>
<h1>SmartSuite {{.Config.DeviceID}}</h1>

<h2>Readings</h2>
<table>
<tr><th>Temperature</th><td id="temperature">{{reading .Device.Temperature "°C"}}</td></tr>
<tr><th>Humidity</th><td id="humidity">{{reading .Device.Humidity "%"}}</td></tr>
<tr><th>Motion</th><td class="{{onOff .Device.Motion}}">{{if .Device.Motion}}detected{{else}}none{{end}}</td></tr>
<tr><th>Gas</th><td id="gas">{{printf "%.0f" .Device.SmokePPM}} ppm (medium {{printf "%.0f" .Device.GasMedium}}, high {{printf "%.0f" .Device.GasHigh}})</td></tr>
</table>

<h2>Outputs</h2>
<table>
<tr><th>Cold / dry</th><td class="{{onOff .Device.Cold}}">{{onOff .Device.Cold}}</td></tr>
<tr><th>Comfort</th><td class="{{onOff .Device.Comfort}}">{{onOff .Device.Comfort}}</td></tr>
<tr><th>Warm / humid</th><td class="{{onOff .Device.Warm}}">{{onOff .Device.Warm}}</td></tr>
<tr><th>Motion</th><td class="{{onOff .Device.MotionLED}}">{{onOff .Device.MotionLED}}</td></tr>
<tr><th>Alert</th><td class="{{onOff .Device.AlertLED}}">{{onOff .Device.AlertLED}}</td></tr>
<tr><th>Climate vent</th><td>{{.Device.ClimateServo}}°</td></tr>
<tr><th>Gas vent</th><td>{{.Device.GasServo}}°{{if .Device.GasAlertActive}} (latched){{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{.MQTTState}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Data topic</th><td>{{.Config.TopicData}}</td></tr>
<tr><th>Alert topic</th><td>{{.Config.TopicAlerts}}</td></tr>
<tr><th>Command topic</th><td>{{.Config.TopicCommand}}</td></tr>
<tr><th>HTTP push</th><td>{{if .Config.HTTPEndpoint}}{{.Config.HTTPEndpoint}}{{else}}disabled{{end}}</td></tr>
{{if .Config.SSID}}<tr><th>Wi-Fi</th><td>{{.Config.SSID}}</td></tr>{{end}}
</table>

<h2>Recent Alerts</h2>
{{if .RecentAlerts}}<table>
{{range .RecentAlerts}}<tr><th class="{{.Severity}}">{{.Type}} ({{.Severity}})</th><td>{{.Message}}</td></tr>
{{end}}</table>{{else}}<p>none</p>{{end}}

<h2>Activity</h2>
<table>
{{$events := .Events}}{{range sortedKeys $events}}<tr><th>{{.}}</th><td>{{index $events .}}</td></tr>
{{end}}{{$commands := .Commands}}{{range sortedKeys $commands}}<tr><th>{{.}}</th><td>{{index $commands .}}</td></tr>
{{end}}<tr><th>alerts</th><td>{{.Device.Counts.Alerts}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Hardware</th><td>{{.Config.Hardware}}</td></tr>
<tr><th>Sensor interval</th><td>{{.Config.SensorIntervalMs}}ms</td></tr>
<tr><th>Data interval</th><td>{{.Config.DataIntervalMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.StatusAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	inner := status.Build(snap)
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Events   map[string]int
		Commands map[string]int
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Events:   inner.Counts.Events,
		Commands: inner.Counts.Commands,
	}
	return indexTmpl.Execute(w, data)
}
