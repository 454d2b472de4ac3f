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
	"hex": func(v []int) string {
		out := ""
		for i, b := range v {
			if i > 0 {
				out += " "
			}
			out += fmt.Sprintf("%02X", b)
		}
		return out
	},
	"onoff": func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Segment Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Segment Clock<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Display</h2>
<table>
<tr><th>Mode</th><td id="mode">{{.S.Mode}}</td></tr>
<tr><th>Time</th><td id="time">{{.S.Time}}</td></tr>
<tr><th>Digits</th><td id="digits">{{hex .S.Display.Digits}}</td></tr>
<tr><th>Ring</th><td id="lanes">{{hex .S.Display.Lanes}}</td></tr>
<tr><th>Dim level</th><td id="dim">{{.S.DimLevel}}</td></tr>
<tr><th>Clock chip</th><td class="{{if .S.RTCOK}}connected{{else}}disconnected{{end}}">{{if .S.RTCOK}}ok{{else}}fault{{end}}</td></tr>
</table>

<h2>Timers</h2>
<table>
<tr><th>Alarm</th><td>{{.S.Alarm.Time}} <span class="{{onoff .S.Alarm.Enabled}}">{{onoff .S.Alarm.Enabled}}</span></td></tr>
<tr><th>Ringing</th><td id="ringing" class="{{onoff .S.Alarm.Ringing}}">{{onoff .S.Alarm.Ringing}}</td></tr>
<tr><th>Countdown</th><td id="countdown">{{if .S.Countdown.Running}}{{.S.Countdown.SecondsLeft}}s{{else}}idle{{end}}</td></tr>
<tr><th>Hits</th><td id="hits">{{.S.Hits}}</td></tr>
<tr><th>Temperature</th><td id="temp">{{if .S.Temperature.Celsius}}{{.S.Temperature.Celsius}}&deg;C{{else}}----{{end}} ({{.S.Temperature.Sensors}} sensors)</td></tr>
<tr><th>Day difference</th><td>{{.S.DayDiff}}</td></tr>
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Alarms</th><td>{{.S.Counts.Alarms}}</td></tr>
<tr><th>Hits</th><td>{{.S.Counts.Hits}}</td></tr>
<tr><th>Countdowns</th><td>{{.S.Counts.Countdowns}}</td></tr>
<tr><th>Settings saved</th><td>{{.S.Counts.SettingsSaved}}</td></tr>
<tr><th>Time set</th><td>{{.S.Counts.TimeSet}}</td></tr>
<tr><th>Faults</th><td>{{.S.Counts.Faults}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.S.StartTime}}</td></tr>
<tr><th>Loop</th><td>{{.S.Config.LoopMs}}ms</td></tr>
<tr><th>Scan rate</th><td>{{.S.Config.TickHz}}Hz, duty {{printf "%.2f" .S.Mux.DutyCycle}}</td></tr>
<tr><th>Pulse</th><td>{{.S.Config.PulseFunction}}</td></tr>
<tr><th>Storage</th><td>{{.S.Config.EEPROMBackend}}</td></tr>
<tr><th>MQTT</th><td class="{{if .S.MQTT.Connected}}connected{{else}}disconnected{{end}}">{{if .S.MQTT.Connected}}connected{{else}}disconnected{{end}} ({{.S.MQTT.Broker}})</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/metrics">metrics</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function hex(v) {
    return v.map(function(b) { return ("0" + b.toString(16).toUpperCase()).slice(-2); }).join(" ");
  }
  function set(id, text) {
    document.getElementById(id).textContent = text;
  }
  function connect() {
    var ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(e) {
      try {
        var msg = JSON.parse(e.data);
        if (msg.type !== "state") { return; }
        var s = msg.data;
        set("mode", s.mode);
        set("time", s.time);
        set("digits", hex(s.display.digits));
        set("lanes", hex(s.display.lanes));
        set("dim", s.dim_level);
        set("ringing", s.alarm.ringing ? "on" : "off");
        set("countdown", s.countdown.running ? s.countdown.seconds_left + "s" : "idle");
        set("hits", s.hits);
      } catch (err) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		S      status.StatusInner
		Uptime time.Duration
	}{
		S:      status.Inner(snap),
		Uptime: snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
