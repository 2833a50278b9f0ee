package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ledclock/internal/logic"
	"github.com/sweeney/ledclock/internal/status"
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
	"occasion": func(o logic.Occasion) string {
		if o.Kind == logic.KindDaily {
			return "daily"
		}
		return o.String()
	},
	"due": func(d time.Duration) string {
		if d <= 0 {
			return "due"
		}
		return "in " + d.Truncate(time.Second).String()
	},
	"clock": func(minute int) string {
		return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
	},
	"outputOn": func(vars []logic.Change, v int) bool {
		for _, c := range vars {
			if c.Var == v {
				return c.Value
			}
		}
		return false
	},
	"add": func(a, b int) int { return a + b },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>LED Clock</title>
<style>
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.warn { color: orange; }
</style>
</head>
<body>
<h1>LED Clock</h1>

<h2>Display</h2>
<table>
<tr><th>Date</th><td>{{.Date.Day}}.{{.Date.Month}}. {{clock .Date.MinuteOfDay}}</td></tr>
<tr><th>Showing</th><td id="owner">{{if .Owner}}<span class="on">{{.Owner.Slot}} #{{.Owner.Index}} ({{occasion .Owner.Occasion}})</span>{{else}}clock{{end}}</td></tr>
{{if .Disabled}}<tr><th>Outputs</th><td class="warn">disabled</td></tr>{{end}}
{{with .Signals}}<tr><th>Controller</th><td>
<span class="{{if .TimeOff}}on{{else}}off{{end}}">TimeOff</span>
<span class="{{if .TimeOn}}on{{else}}off{{end}}">TimeOn</span>
<span class="{{if .TimeOnDelayed}}on{{else}}off{{end}}">TimeOnDelayed</span>
<span class="{{if .Flash}}on{{else}}off{{end}}">Flash</span>
</td></tr>{{end}}
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

{{$vars := .Vars}}
{{range .Slots}}
<h2>{{.Name}}{{if .Forced}} <span class="warn">(triggered)</span>{{end}}</h2>
<table>
<tr><th>Occasion</th><th>Output</th><th>Next</th></tr>
{{$slot := .}}
{{range $i, $o := .Catalog}}
<tr>
<td>{{if eq $i $slot.NextExternal}}&#9654; {{end}}{{occasion $o}}</td>
<td class="{{if outputOn $vars (add $slot.BaseVar $i)}}on{{else}}off{{end}}">{{add $slot.BaseVar $i}}</td>
<td>{{if eq $i $slot.Active}}showing{{else}}{{due (index $slot.NextDue $i)}}{{end}}</td>
</tr>
{{end}}
</table>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Activated</th><td>{{.Counts.Activated}}</td></tr>
<tr><th>Deactivated</th><td>{{.Counts.Deactivated}}</td></tr>
<tr><th>Triggered</th><td>{{.Counts.Triggered}}</td></tr>
<tr><th>Deferred</th><td>{{.Counts.Deferred}}</td></tr>
<tr><th>Re-armed</th><td>{{.Counts.Rearmed}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Location</th><td>{{.Config.Location}}</td></tr>
<tr><th>Daily restart</th><td>{{.Config.RestartAt}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
