package health

import (
	"fmt"
	"html"
	"strings"
)

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(health CollectResult) string {
	headline := "All Systems Operational"
	headClass := "ok"
	if health.Status != "ok" {
		headline = "System Issues Detected"
		headClass = "err"
	}

	lastReq := "-"
	if m, ok := health.Traffic.LastRequest.(map[string]interface{}); ok {
		method, _ := m["method"].(string)
		path, _ := m["path"].(string)
		lastReq = strings.TrimSpace(method + " " + path)
	}

	var deps strings.Builder
	for _, name := range health.DependencyNames() {
		d := health.Dependencies[name]
		class := "ok"
		if d.Status != "connected" {
			class = "err"
		}
		ping := "?"
		if p, ok := d.PingMs.(*int64); ok && p != nil {
			ping = fmt.Sprint(*p)
		}
		fmt.Fprintf(&deps, `<div class="row"><span>%s</span><span class="pill %s">%s · %s ms</span></div>`,
			html.EscapeString(name), class, html.EscapeString(d.Status), ping)
	}

	return `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Coopshares · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    body { background: #f8f9fa; color: #173e35; font-family: sans-serif; margin: 0; display: flex; justify-content: center; }
    .container { width: 100%; max-width: 960px; padding: 40px 20px; }
    h1 { font-size: 42px; margin: 0 0 24px; }
    h1.err { color: #b91c1c; }
    .grid { display: grid; grid-template-columns: repeat(3, 1fr); gap: 16px; }
    .card { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 10px 40px -20px rgba(0,0,0,0.2); }
    .label { text-transform: uppercase; font-size: 11px; font-weight: 900; letter-spacing: 2px; color: #94a3b8; margin-bottom: 16px; }
    .big { font-size: 32px; font-weight: 900; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; font-size: 14px; }
    .pill { padding: 2px 10px; border-radius: 8px; font-size: 11px; font-weight: 800; }
    .ok { color: #007473; }
    .err { color: #ef4444; }
    footer { margin-top: 24px; font-family: monospace; font-size: 13px; display: flex; justify-content: space-between; }
    @media (max-width: 800px) { .grid { grid-template-columns: 1fr; } }
  </style>
</head>
<body>
  <div class="container">
    <h1 class="` + headClass + `">` + headline + `</h1>
    <div class="grid">
      <div class="card">
        <div class="label">Traffic</div>
        <div class="big">` + fmt.Sprint(health.Traffic.TotalRequests) + `</div>
        <div class="row"><span>Successful</span><span class="ok">` + fmt.Sprint(health.Traffic.SuccessCount) + `</span></div>
        <div class="row"><span>Failed</span><span class="err">` + fmt.Sprint(health.Traffic.FailedCount) + `</span></div>
        <div class="row"><span>Success Rate</span><span>` + health.Traffic.SuccessRate + `%</span></div>
        <div class="row"><span>Avg Latency</span><span>` + fmt.Sprint(health.Traffic.AvgResponseTime) + `ms</span></div>
      </div>
      <div class="card">
        <div class="label">Runtime</div>
        <div class="big">` + fmt.Sprint(health.Runtime.UptimeSeconds) + `s</div>
        <div class="row"><span>Heap Used</span><span>` + fmt.Sprint(health.Runtime.Memory.HeapUsed) + ` MB</span></div>
        <div class="row"><span>Goroutines</span><span>` + fmt.Sprint(health.Runtime.Goroutines) + `</span></div>
        <div class="row"><span>Platform</span><span>` + health.Runtime.Platform + `</span></div>
      </div>
      <div class="card">
        <div class="label">Dependencies</div>
        ` + deps.String() + `
      </div>
    </div>
    <footer>
      <span>LAST INBOUND ` + html.EscapeString(lastReq) + `</span>
      <span><a href="/health/json">/health/json</a> · <a href="/health/errors">/health/errors</a> · <a href="/metrics">/metrics</a></span>
    </footer>
  </div>
</body>
</html>`
}
