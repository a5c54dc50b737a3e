package report

import "html/template"

const pageStyle = `<style>
body { font-family: Arial, sans-serif; background: #f5f5f5; color: #2c3e50; margin: 20px; }
.container { max-width: 1000px; margin: 0 auto; background: white; border-radius: 10px; padding: 20px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
h1 { text-align: center; }
nav { text-align: center; margin-bottom: 20px; }
nav a { margin: 0 10px; color: #34495e; }
table { width: 100%; border-collapse: collapse; margin: 15px 0; }
th, td { padding: 10px; text-align: left; border-bottom: 1px solid #ecf0f1; }
th { background: #34495e; color: white; }
.low { background: rgba(231, 76, 60, 0.1); color: #d63031; font-weight: bold; }
.banner { background: #e74c3c; color: white; padding: 12px; text-align: center; border-radius: 6px; margin: 15px 0; }
.footer { text-align: center; color: #7f8c8d; margin-top: 20px; font-size: 0.9em; }
</style>`

const pageNav = `<nav><a href="index.html">Status</a> | <a href="history.html">History</a> | <a href="alerts.html">Alerts</a></nav>`

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Meter Status</title>` + pageStyle + `</head>
<body><div class="container">
<h1>&#9889; Meter Status</h1>
` + pageNav + `
{{if .Latest}}
{{if .LowEnergy}}<div class="banner">&#9888; Low energy: {{printf "%.2f" .Latest.RemainingEnergy}} kWh remaining, please recharge</div>{{end}}
<table>
<tr><th>Field</th><th>Value</th></tr>
<tr {{if .LowEnergy}}class="low"{{end}}><td>Remaining Energy</td><td>{{printf "%.2f" .Latest.RemainingEnergy}} kWh</td></tr>
<tr><td>Remaining Amount</td><td>{{printf "%.2f" .Latest.RemainingAmount}}</td></tr>
<tr><td>Total Consumption</td><td>{{printf "%.2f" .Latest.TotalConsumption}} kWh</td></tr>
<tr><td>Price</td><td>{{printf "%.4f" .Latest.Price}} per kWh</td></tr>
<tr><td>Meter Status</td><td>{{.Latest.MeterStatus}}</td></tr>
<tr><td>Source Update Time</td><td>{{.Latest.SourceUpdateTime}}</td></tr>
<tr><td>Low-Energy Threshold</td><td>{{printf "%.1f" .Threshold}} kWh</td></tr>
<tr><td>Estimated Daily Use</td><td>{{printf "%.1f" .DailyKWh}} kWh</td></tr>
<tr><td>Estimated Weekly Use</td><td>{{printf "%.1f" .WeeklyKWh}} kWh</td></tr>
<tr><td>Estimated Days Remaining</td><td>{{printf "%.1f" .DaysRemaining}}</td></tr>
</table>
{{else}}<div class="banner">No readings recorded yet</div>{{end}}
<div class="footer">Generated {{.GeneratedAt}}</div>
</div></body></html>`))

var historyTemplate = template.Must(template.New("history").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Meter History</title>` + pageStyle + `</head>
<body><div class="container">
<h1>&#128202; Meter History</h1>
` + pageNav + `
<table>
<tr><th>Readings</th><th>Alerts</th><th>Min Energy</th><th>Max Energy</th><th>Avg Energy</th><th>Latest Consumption</th></tr>
<tr><td>{{.Stats.ReadingCount}}</td><td>{{.Stats.AlertCount}}</td>
<td>{{printf "%.2f" .Stats.MinEnergy}}</td><td>{{printf "%.2f" .Stats.MaxEnergy}}</td>
<td>{{printf "%.2f" .Stats.AvgEnergy}}</td><td>{{printf "%.2f" .Stats.LatestConsumption}}</td></tr>
</table>
<table>
<tr><th>Observed</th><th>Energy (kWh)</th><th>Amount</th><th>Consumption (kWh)</th><th>Price</th><th>Status</th></tr>
{{range .Readings}}<tr {{if le .RemainingEnergy $.Threshold}}class="low"{{end}}>
<td>{{.ObservedAt.Format "2006-01-02 15:04:05"}}</td>
<td>{{printf "%.2f" .RemainingEnergy}}</td>
<td>{{printf "%.2f" .RemainingAmount}}</td>
<td>{{printf "%.2f" .TotalConsumption}}</td>
<td>{{printf "%.4f" .Price}}</td>
<td>{{.MeterStatus}}</td>
</tr>{{end}}
</table>
<div class="footer">Generated {{.GeneratedAt}}</div>
</div></body></html>`))

var alertsTemplate = template.Must(template.New("alerts").Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Meter Alerts</title>` + pageStyle + `</head>
<body><div class="container">
<h1>&#128680; Low-Energy Alerts</h1>
` + pageNav + `
<table>
<tr><th>Alerted</th><th>Energy (kWh)</th><th>Threshold</th><th>Message</th></tr>
{{range .Alerts}}<tr class="low">
<td>{{.AlertedAt.Format "2006-01-02 15:04:05"}}</td>
<td>{{printf "%.2f" .RemainingEnergy}}</td>
<td>{{printf "%.1f" .Threshold}}</td>
<td>{{.Message}}</td>
</tr>{{else}}<tr><td colspan="4">No alerts recorded</td></tr>{{end}}
</table>
<div class="footer">Generated {{.GeneratedAt}}</div>
</div></body></html>`))
