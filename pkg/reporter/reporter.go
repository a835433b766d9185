package reporter

import (
	"bytes"
	"html/template"
	"time"

	"github.com/airhop/airhop/pkg/cfdf"
	"github.com/airhop/airhop/pkg/enumerator"
	"github.com/airhop/airhop/pkg/jobs"
	"github.com/airhop/airhop/pkg/orchestrator"
)

// ReportData is everything the scan report shows for one finished run.
type ReportData struct {
	Job         *jobs.ScanJob
	Itineraries []cfdf.AvailableItinerary
	Estimate    enumerator.Estimate
	CheckReport *orchestrator.Report
	GeneratedAt time.Time
}

var reportTemplate = template.Must(template.New("scan-report").Funcs(template.FuncMap{
	"totalDuration": func(itinerary cfdf.AvailableItinerary) string {
		return itinerary.TotalDuration()
	},
	"approximate": func(duration time.Duration) string {
		return duration.Round(time.Second).String()
	},
}).Parse(reportHTML))

// Render produces the standalone HTML report for a run.
func Render(data ReportData) ([]byte, error) {
	var buffer bytes.Buffer
	if err := reportTemplate.Execute(&buffer, data); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

const reportHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Scan results {{.GeneratedAt.Format "02-01-2006"}}</title>
<style>
body { font-family: sans-serif; margin: 2em; color: #222; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #ccc; padding: 0.4em 0.8em; text-align: left; }
th { background: #f0f0f0; }
.summary { color: #555; margin-bottom: 2em; }
.itinerary { margin-bottom: 2em; }
.leg-label { font-weight: bold; margin: 0.5em 0 0.2em; }
.empty { color: #777; font-style: italic; }
</style>
</head>
<body>
<h1>Scan results &mdash; {{.GeneratedAt.Format "Monday 02 January 2006 15:04"}}</h1>

<div class="summary">
<p>
Departures: {{range $i, $a := .Job.DepartureAirports}}{{if $i}}, {{end}}{{$a}}{{end}}
{{if .Job.DestinationAirports}}&middot; Destinations: {{range $i, $a := .Job.DestinationAirports}}{{if $i}}, {{end}}{{$a}}{{end}}{{end}}
&middot; Trip: {{.Job.TripType}}
&middot; Max stops: {{.Job.MaxStops}}
</p>
<p>
Checked {{.CheckReport.Checked}} leg/date pairs
({{.CheckReport.Skipped}} already known, {{.CheckReport.Failed}} failed)
finding {{.CheckReport.Occurrences}} flights.
Estimated {{.Estimate.Human}}, took {{approximate .CheckReport.Duration}}.
</p>
{{if .CheckReport.Failed}}<p><strong>Results may be incomplete for {{.CheckReport.Failed}} pairs.</strong></p>{{end}}
</div>

{{if not .Itineraries}}
<p class="empty">No available itineraries were found.</p>
{{end}}

{{range $index, $itinerary := .Itineraries}}
<div class="itinerary">
<h2>#{{$index}} &mdash; {{$itinerary.TripType}} &middot; total {{totalDuration $itinerary}}</h2>

<div class="leg-label">{{if eq (printf "%s" $itinerary.TripType) "roundtrip"}}Outward{{else}}Journey{{end}}</div>
<table>
<tr><th>Date</th><th>Flight</th><th>From</th><th>Departs</th><th>To</th><th>Arrives</th><th>Duration</th><th>Price</th></tr>
{{range $itinerary.First}}
<tr>
<td>{{.Date}}</td>
<td>{{.Carrier}} {{.FlightCode}}</td>
<td>{{.Departure.City}}</td>
<td>{{.Departure.Time}} ({{.Departure.UTCOffset}})</td>
<td>{{.Arrival.City}}</td>
<td>{{.Arrival.Time}} ({{.Arrival.UTCOffset}})</td>
<td>{{.Duration}}</td>
<td>{{printf "%.2f" .Price.Amount}} {{.Price.Currency}}</td>
</tr>
{{end}}
</table>

{{if $itinerary.Second}}
<div class="leg-label">{{if eq (printf "%s" $itinerary.TripType) "roundtrip"}}Return{{else}}Connection{{end}}</div>
<table>
<tr><th>Date</th><th>Flight</th><th>From</th><th>Departs</th><th>To</th><th>Arrives</th><th>Duration</th><th>Price</th></tr>
{{range $itinerary.Second}}
<tr>
<td>{{.Date}}</td>
<td>{{.Carrier}} {{.FlightCode}}</td>
<td>{{.Departure.City}}</td>
<td>{{.Departure.Time}} ({{.Departure.UTCOffset}})</td>
<td>{{.Arrival.City}}</td>
<td>{{.Arrival.Time}} ({{.Arrival.UTCOffset}})</td>
<td>{{.Duration}}</td>
<td>{{printf "%.2f" .Price.Amount}} {{.Price.Currency}}</td>
</tr>
{{end}}
</table>
{{end}}
</div>
{{end}}

</body>
</html>
`
