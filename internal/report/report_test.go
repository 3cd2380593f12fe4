package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiperf/internal/perf"
)

func sampleRun() *perf.RunResult {
	now := time.Now()
	res := &perf.RunResult{
		TestName:      "checkout_flow",
		StartTime:     now.Add(-5 * time.Second),
		EndTime:       now,
		TotalDuration: 5,
		Iterations:    3,
		RequestResults: map[string][]perf.RequestOutcome{
			"/api/cart/": {
				{StatusCode: 200, ElapsedTime: 0.1, ResponseSize: 50, Success: true},
				{StatusCode: 200, ElapsedTime: 0.2, ResponseSize: 52, Success: true},
				{StatusCode: 503, ElapsedTime: 0.4, Success: false, Error: "unavailable"},
			},
			"/api/pay/": {
				{StatusCode: 200, ElapsedTime: 0.3, ResponseSize: 90, Success: true},
			},
		},
	}
	res.ComputeSummary()
	return res
}

func TestGenerateWritesReportAndCharts(t *testing.T) {
	dir := t.TempDir()
	path, err := Generate(sampleRun(), dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "checkout_flow")
	assert.Contains(t, html, "/api/cart/")
	assert.Contains(t, html, "checkout_flow_summary_stats.svg")

	for _, f := range []string{
		"checkout_flow_summary_stats.svg",
		"checkout_flow_success_rate.svg",
		"checkout_flow_status_codes.svg",
	} {
		svg, err := os.ReadFile(filepath.Join(dir, f))
		require.NoError(t, err)
		assert.Contains(t, string(svg), "<svg")
	}
}

func TestGenerateRecomputesMissingSummary(t *testing.T) {
	res := sampleRun()
	res.Summary = nil

	_, err := Generate(res, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, res.Summary, "/api/cart/")
}

func TestStatusCodeChartIncludesFailureSentinel(t *testing.T) {
	res := &perf.RunResult{
		TestName: "sentinel",
		RequestResults: map[string][]perf.RequestOutcome{
			"/down/": {
				{StatusCode: -1, Success: false, Error: "dial refused"},
			},
		},
	}
	res.ComputeSummary()

	svg := statusCodeChart(res)
	assert.Contains(t, svg, ">-1<")
}
