package compare

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

const reportFile = "comparison_report.html"

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"color": func(s Sentiment) string {
		switch s {
		case Good:
			return colorGood
		case Bad:
			return colorBad
		default:
			return colorAxis
		}
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Performance Comparison: {{.C.Run1Name}} vs {{.C.Run2Name}}</title>
<style>
body { font-family: sans-serif; margin: 24px; color: #333; }
h1 { border-bottom: 2px solid #7d56f4; padding-bottom: 8px; }
table { border-collapse: collapse; margin: 16px 0; width: 100%; }
th, td { border: 1px solid #ccc; padding: 6px 10px; text-align: right; }
th { background: #f0f0f5; }
td.endpoint, td.metric { text-align: left; }
.chart { margin: 24px 0; }
.chart img { max-width: 100%; border: 1px solid #ddd; }
.placeholder { padding: 24px; background: #fff6e5; border: 1px solid #e0c080; }
.meta { color: #777; font-size: 13px; }
</style>
</head>
<body>
<h1>Performance Comparison</h1>
<p class="meta">{{.C.Run1Name}} vs {{.C.Run2Name}} &mdash; generated {{.C.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>
{{if .C.Empty}}
<div class="placeholder">No common endpoints found to compare.</div>
{{else}}
{{range .Charts}}
<div class="chart"><img src="{{.}}" alt="{{.}}"></div>
{{end}}
<h2>Detailed Statistics</h2>
<table>
<tr>
<th>Endpoint</th><th>Metric</th>
<th>{{.C.Run1Name}}</th><th>{{.C.Run2Name}}</th>
<th>Difference</th><th>Change (%)</th>
</tr>
{{range .C.Endpoints}}
{{$ep := .}}
{{$n := len .Metrics}}
{{range $i, $m := .Metrics}}
<tr>
{{if eq $i 0}}<td class="endpoint" rowspan="{{$n}}">{{$ep.Endpoint}}</td>{{end}}
<td class="metric">{{$m.Label}}</td>
<td>{{printf "%.2f" $m.Run1}}</td>
<td>{{printf "%.2f" $m.Run2}}</td>
<td style="color: {{color $m.Sentiment}}">{{printf "%+.2f" $m.Diff}}</td>
<td style="color: {{color $m.Sentiment}}">{{printf "%+.2f" $m.PctChange}}</td>
</tr>
{{end}}
{{end}}
</table>
{{end}}
</body>
</html>
`))

type reportData struct {
	C      *Comparison
	Charts []string
}

// WriteReport renders the HTML comparison report into dir, alongside the
// chart files listed in charts, and returns the report path.
func WriteReport(c *Comparison, dir string, charts []string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}
	path := filepath.Join(dir, reportFile)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := reportTmpl.Execute(f, reportData{C: c, Charts: charts}); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return path, nil
}
