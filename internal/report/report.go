// Package report renders a single run as an HTML report with SVG charts:
// response-time statistics, success rates and status-code distribution,
// one page per run directory.
package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"apiperf/internal/perf"
	"apiperf/internal/svgchart"
)

const (
	colorMin    = "#4ecdc4"
	colorMean   = "#7d56f4"
	colorMedian = "#f5a623"
	colorMax    = "#d64545"
	colorOK     = "#2e8b57"
)

// statusPalette cycles across distinct status codes.
var statusPalette = []string{"#2e8b57", "#4ecdc4", "#f5a623", "#d64545", "#7d56f4", "#888888"}

// Generate writes the report and its charts into dir and returns the HTML
// report path. Summaries are recomputed if the result carries none.
func Generate(res *perf.RunResult, dir string) (string, error) {
	if res.Summary == nil {
		res.ComputeSummary()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	charts := []struct {
		file string
		svg  string
	}{
		{res.TestName + "_summary_stats.svg", summaryStatsChart(res)},
		{res.TestName + "_success_rate.svg", successRateChart(res)},
		{res.TestName + "_status_codes.svg", statusCodeChart(res)},
	}
	var chartFiles []string
	for _, ch := range charts {
		if ch.svg == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, ch.file), []byte(ch.svg), 0o644); err != nil {
			return "", fmt.Errorf("writing chart %s: %w", ch.file, err)
		}
		chartFiles = append(chartFiles, ch.file)
	}

	path := filepath.Join(dir, res.TestName+"_report.html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	data := pageData{Res: res, Charts: chartFiles, Endpoints: sortedEndpoints(res.Summary)}
	if err := runTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}

	log.Info().Str("report", path).Int("charts", len(chartFiles)).Msg("run report written")
	return path, nil
}

// summaryStatsChart groups min/mean/median/max bars (ms) per endpoint.
func summaryStatsChart(res *perf.RunResult) string {
	endpoints := sortedEndpoints(res.Summary)
	if len(endpoints) == 0 {
		return ""
	}
	var mins, means, medians, maxs []float64
	for _, ep := range endpoints {
		s := res.Summary[ep]
		mins = append(mins, s.MinTime*1000)
		means = append(means, s.MeanTime*1000)
		medians = append(medians, s.MedianTime*1000)
		maxs = append(maxs, s.MaxTime*1000)
	}
	return svgchart.GroupedBars{
		Title:      "Response Time Statistics by Endpoint - " + res.TestName,
		YLabel:     "Response Time (ms)",
		Categories: endpoints,
		Series: []svgchart.Series{
			{Name: "min", Color: colorMin, Values: mins},
			{Name: "mean", Color: colorMean, Values: means},
			{Name: "median", Color: colorMedian, Values: medians},
			{Name: "max", Color: colorMax, Values: maxs},
		},
	}.Render()
}

func successRateChart(res *perf.RunResult) string {
	endpoints := sortedEndpoints(res.Summary)
	if len(endpoints) == 0 {
		return ""
	}
	var rates []float64
	for _, ep := range endpoints {
		rates = append(rates, res.Summary[ep].SuccessRate*100)
	}
	return svgchart.GroupedBars{
		Title:       "Success Rate by Endpoint - " + res.TestName,
		YLabel:      "Success Rate (%)",
		Categories:  endpoints,
		YMax:        105,
		ValueFormat: "%.1f%%",
		Series: []svgchart.Series{
			{Name: "success rate", Color: colorOK, Values: rates},
		},
	}.Render()
}

// statusCodeChart draws one series per distinct status code, counting
// outcomes per endpoint. Transport failures show up under code -1.
func statusCodeChart(res *perf.RunResult) string {
	if len(res.RequestResults) == 0 {
		return ""
	}
	counts := make(map[int]map[string]int)
	var endpoints []string
	for ep, outcomes := range res.RequestResults {
		endpoints = append(endpoints, ep)
		for _, o := range outcomes {
			if counts[o.StatusCode] == nil {
				counts[o.StatusCode] = make(map[string]int)
			}
			counts[o.StatusCode][ep]++
		}
	}
	sort.Strings(endpoints)

	var codes []int
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	var series []svgchart.Series
	for i, code := range codes {
		vals := make([]float64, len(endpoints))
		for j, ep := range endpoints {
			vals[j] = float64(counts[code][ep])
		}
		series = append(series, svgchart.Series{
			Name:   fmt.Sprintf("%d", code),
			Color:  statusPalette[i%len(statusPalette)],
			Values: vals,
		})
	}
	return svgchart.GroupedBars{
		Title:      "Status Code Distribution by Endpoint - " + res.TestName,
		YLabel:     "Requests",
		Categories: endpoints,
		Series:     series,
	}.Render()
}

func sortedEndpoints(summary map[string]*perf.EndpointSummary) []string {
	var endpoints []string
	for ep := range summary {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)
	return endpoints
}

type pageData struct {
	Res       *perf.RunResult
	Charts    []string
	Endpoints []string
}

var runTmpl = template.Must(template.New("run").Funcs(template.FuncMap{
	"ms": func(sec float64) string { return fmt.Sprintf("%.2f", sec*1000) },
	"msPtr": func(sec *float64) string {
		if sec == nil {
			return "n/a"
		}
		return fmt.Sprintf("%.2f", *sec*1000)
	},
	"pct": func(rate float64) string { return fmt.Sprintf("%.1f%%", rate*100) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>API Performance Test Report - {{.Res.TestName}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; line-height: 1.6; }
.container { max-width: 1200px; margin: 0 auto; }
header { background-color: #2c3e50; color: white; padding: 20px; margin-bottom: 20px; border-radius: 5px; }
h1, h2 { margin-top: 0; }
.test-info { background-color: #f8f9fa; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #ddd; }
th { background-color: #2c3e50; color: white; }
tr:nth-child(even) { background-color: #f8f9fa; }
.chart { margin: 24px 0; }
.chart img { max-width: 100%; border: 1px solid #ddd; border-radius: 5px; }
</style>
</head>
<body>
<div class="container">
<header><h1>API Performance Test Report</h1><p>{{.Res.TestName}}</p></header>
<div class="test-info">
<p><strong>Start:</strong> {{.Res.StartTime.Format "2006-01-02 15:04:05"}}
&nbsp; <strong>End:</strong> {{.Res.EndTime.Format "2006-01-02 15:04:05"}}
&nbsp; <strong>Duration:</strong> {{printf "%.2f" .Res.TotalDuration}}s
&nbsp; <strong>Iterations:</strong> {{.Res.Iterations}}
&nbsp; <strong>Concurrent:</strong> {{.Res.Concurrent}}</p>
</div>
<h2>Endpoint Summary</h2>
<table>
<tr><th>Endpoint</th><th>Mean (ms)</th><th>Median (ms)</th><th>Min (ms)</th><th>Max (ms)</th>
<th>P95 (ms)</th><th>P99 (ms)</th><th>Std Dev (ms)</th><th>Requests</th><th>Success</th></tr>
{{$s := .Res.Summary}}
{{range .Endpoints}}
{{$e := index $s .}}
<tr>
<td>{{.}}</td>
<td>{{ms $e.MeanTime}}</td>
<td>{{ms $e.MedianTime}}</td>
<td>{{ms $e.MinTime}}</td>
<td>{{ms $e.MaxTime}}</td>
<td>{{msPtr $e.P95Time}}</td>
<td>{{msPtr $e.P99Time}}</td>
<td>{{ms $e.StdDev}}</td>
<td>{{$e.TotalRequests}}</td>
<td>{{pct $e.SuccessRate}}</td>
</tr>
{{end}}
</table>
{{range .Charts}}
<div class="chart"><img src="{{.}}" alt="{{.}}"></div>
{{end}}
</div>
</body>
</html>
`))
