package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"strings"
	"time"

	"github.com/sweeney/panel-input/internal/status"
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
	"orNone": func(s string) string {
		if s == "" {
			return "none"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Panel Input</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.active { color: green; font-weight: bold; }
.idle { color: #888; }
.disabled { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Panel Input</h1>

<h2>Panel</h2>
<table>
<tr><th>Mode</th><td id="mode">{{orNone .Panel.Mode}}</td></tr>
<tr><th>Profile</th><td id="profile">{{orNone (printf "%s" .Panel.Profile)}}</td></tr>
<tr><th>Menu</th><td id="menu">{{if .Menu}}{{.Menu}}{{else}}closed{{end}}</td></tr>
<tr><th>Ready</th><td>{{if .Polled}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Channels</h2>
<table>
{{range .Panel.Channels}}<tr><th>{{.ID}}</th><td class="{{if not .Enabled}}disabled{{else if .Active}}active{{else}}idle{{end}}">{{if not .Enabled}}disabled{{else if .Active}}active{{else}}idle{{end}}</td></tr>
{{end}}</table>

<h2>Event Counts</h2>
<table>
{{range $k, $n := .Counts}}<tr><th>{{$k}}</th><td>{{$n}}</td></tr>
{{end}}</table>

<h2>Settings</h2>
<table>
{{range $k, $v := .Panel.Settings}}<tr><th>{{$k}}</th><td>{{$v}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Boot</th><td>{{.BootID}}</td></tr>
<tr><th>Backend</th><td>{{.Config.Backend}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>History</th><td>{{.Config.History}} edges</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	counts := make(map[string]int, len(snap.Panel.Counts))
	for k, n := range snap.Panel.Counts {
		counts[status.CountKey(string(k.Channel), string(k.Event))] = n
	}
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Menu   string
		Counts map[string]int
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Menu:     strings.Join(snap.Panel.MenuPath, " > "),
		Counts:   counts,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render: %v", err)
	}
}
