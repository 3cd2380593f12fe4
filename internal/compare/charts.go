package compare

import (
	"fmt"
	"os"
	"path/filepath"

	"apiperf/internal/svgchart"
)

const (
	colorRun1 = "#4ecdc4"
	colorRun2 = "#7d56f4"
	colorGood = "#2e8b57"
	colorBad  = "#d64545"
	colorAxis = "#333333"
)

// WriteCharts renders the three comparison charts into dir and returns the
// written file names. An empty comparison produces no charts.
func WriteCharts(c *Comparison, dir string) ([]string, error) {
	if c.Empty() {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chart directory: %w", err)
	}

	var endpoints []string
	var mean1, mean2, rate1, rate2, improvements []float64
	for _, ed := range c.Endpoints {
		endpoints = append(endpoints, ed.Endpoint)
		improvements = append(improvements, ed.ImprovementPct)
		for _, m := range ed.Metrics {
			switch m.Key {
			case "mean_time":
				mean1 = append(mean1, m.Run1)
				mean2 = append(mean2, m.Run2)
			case "success_rate":
				rate1 = append(rate1, m.Run1)
				rate2 = append(rate2, m.Run2)
			}
		}
	}

	charts := []struct {
		file string
		svg  string
	}{
		{
			"response_time_comparison.svg",
			svgchart.GroupedBars{
				Title:      fmt.Sprintf("Response Time Comparison: %s vs %s", c.Run1Name, c.Run2Name),
				YLabel:     "Mean Response Time (ms)",
				Categories: endpoints,
				Series: []svgchart.Series{
					{Name: c.Run1Name, Color: colorRun1, Values: mean1},
					{Name: c.Run2Name, Color: colorRun2, Values: mean2},
				},
			}.Render(),
		},
		{
			"success_rate_comparison.svg",
			svgchart.GroupedBars{
				Title:      fmt.Sprintf("Success Rate Comparison: %s vs %s", c.Run1Name, c.Run2Name),
				YLabel:     "Success Rate (%)",
				Categories: endpoints,
				YMax:       105,
				Series: []svgchart.Series{
					{Name: c.Run1Name, Color: colorRun1, Values: rate1},
					{Name: c.Run2Name, Color: colorRun2, Values: rate2},
				},
			}.Render(),
		},
		{
			"response_time_improvement.svg",
			svgchart.SignedBars{
				Title:       fmt.Sprintf("Response Time Improvement: %s to %s", c.Run1Name, c.Run2Name),
				Categories:  endpoints,
				Values:      improvements,
				PosColor:    colorGood,
				NegColor:    colorBad,
				LabelFormat: "%.1f%%",
			}.Render(),
		},
	}

	var files []string
	for _, ch := range charts {
		path := filepath.Join(dir, ch.file)
		if err := os.WriteFile(path, []byte(ch.svg), 0o644); err != nil {
			return nil, fmt.Errorf("writing chart %s: %w", ch.file, err)
		}
		files = append(files, ch.file)
	}
	return files, nil
}
