package compare

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiperf/internal/perf"
)

func runWith(name string, endpoints map[string][]float64) *perf.RunResult {
	res := &perf.RunResult{
		TestName:       name,
		RequestResults: map[string][]perf.RequestOutcome{},
	}
	for ep, times := range endpoints {
		var outcomes []perf.RequestOutcome
		for _, t := range times {
			outcomes = append(outcomes, perf.RequestOutcome{
				StatusCode: 200, ElapsedTime: t, Success: true,
			})
		}
		res.RequestResults[ep] = outcomes
	}
	res.ComputeSummary()
	return res
}

func TestCompareMetrics(t *testing.T) {
	r1 := runWith("before", map[string][]float64{"/a": {0.2, 0.2}})
	r2 := runWith("after", map[string][]float64{"/a": {0.1, 0.1}})

	c := Compare(r1, r2, "", "")
	assert.Equal(t, "before", c.Run1Name)
	assert.Equal(t, "after", c.Run2Name)
	require.Len(t, c.Endpoints, 1)

	ed := c.Endpoints[0]
	assert.Equal(t, "/a", ed.Endpoint)
	require.Len(t, ed.Metrics, 6)

	mean := ed.Metrics[0]
	assert.Equal(t, "mean_time", mean.Key)
	assert.InDelta(t, 200, mean.Run1, 1e-9)
	assert.InDelta(t, 100, mean.Run2, 1e-9)
	assert.InDelta(t, -100, mean.Diff, 1e-9)
	assert.InDelta(t, -50, mean.PctChange, 1e-9)
	assert.Equal(t, Good, mean.Sentiment)

	// The run got 50% faster.
	assert.InDelta(t, 50, ed.ImprovementPct, 1e-9)
	assert.InDelta(t, 100, ed.AbsDiffMs, 1e-9)
}

func TestCompareRegressionSentiment(t *testing.T) {
	r1 := runWith("before", map[string][]float64{"/a": {0.1}})
	r2 := runWith("after", map[string][]float64{"/a": {0.3}})

	c := Compare(r1, r2, "", "")
	ed := c.Endpoints[0]

	assert.Equal(t, Bad, ed.Metrics[0].Sentiment)
	assert.InDelta(t, -200, ed.ImprovementPct, 1e-9)

	// Request counts are never colored.
	for _, m := range ed.Metrics {
		if m.Key == "total_requests" {
			assert.Equal(t, Neutral, m.Sentiment)
		}
	}
}

func TestCompareDiffsAreSymmetric(t *testing.T) {
	r1 := runWith("before", map[string][]float64{"/a": {0.2, 0.3}})
	r2 := runWith("after", map[string][]float64{"/a": {0.1, 0.15}})

	fwd := Compare(r1, r2, "", "")
	rev := Compare(r2, r1, "", "")

	for i, m := range fwd.Endpoints[0].Metrics {
		assert.InDelta(t, -m.Diff, rev.Endpoints[0].Metrics[i].Diff, 1e-9, m.Key)
	}
	assert.InDelta(t, -fwd.Endpoints[0].AbsDiffMs, rev.Endpoints[0].AbsDiffMs, 1e-9)
}

func TestCompareUsesOnlySharedEndpoints(t *testing.T) {
	r1 := runWith("a", map[string][]float64{"/shared": {0.1}, "/only1": {0.1}})
	r2 := runWith("b", map[string][]float64{"/shared": {0.1}, "/only2": {0.1}})

	c := Compare(r1, r2, "", "")
	require.Len(t, c.Endpoints, 1)
	assert.Equal(t, "/shared", c.Endpoints[0].Endpoint)
}

func TestCompareEmptyIsNotError(t *testing.T) {
	r1 := runWith("a", map[string][]float64{"/x": {0.1}})
	r2 := runWith("b", map[string][]float64{"/y": {0.1}})

	c := Compare(r1, r2, "", "")
	assert.True(t, c.Empty())

	dir := t.TempDir()
	charts, err := WriteCharts(c, dir)
	require.NoError(t, err)
	assert.Empty(t, charts)

	path, err := WriteReport(c, dir, charts)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "No common endpoints found to compare.")
}

func TestCompareLabelsOverrideTestNames(t *testing.T) {
	r1 := runWith("a", map[string][]float64{"/x": {0.1}})
	r2 := runWith("b", map[string][]float64{"/x": {0.1}})

	c := Compare(r1, r2, "baseline", "candidate")
	assert.Equal(t, "baseline", c.Run1Name)
	assert.Equal(t, "candidate", c.Run2Name)
}

func TestWriteChartsAndReport(t *testing.T) {
	r1 := runWith("before", map[string][]float64{"/a": {0.2}, "/b": {0.05}})
	r2 := runWith("after", map[string][]float64{"/a": {0.1}, "/b": {0.06}})
	c := Compare(r1, r2, "", "")

	dir := t.TempDir()
	charts, err := WriteCharts(c, dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"response_time_comparison.svg",
		"success_rate_comparison.svg",
		"response_time_improvement.svg",
	}, charts)
	for _, f := range charts {
		data, err := os.ReadFile(filepath.Join(dir, f))
		require.NoError(t, err)
		assert.Contains(t, string(data), "<svg")
	}

	path, err := WriteReport(c, dir, charts)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "/a")
	assert.Contains(t, html, "Mean Time (ms)")
	assert.Contains(t, html, "response_time_comparison.svg")
}

func TestWriteXLSX(t *testing.T) {
	r1 := runWith("before", map[string][]float64{"/a": {0.2}})
	r2 := runWith("after", map[string][]float64{"/a": {0.1}})
	c := Compare(r1, r2, "", "")

	path, err := WriteXLSX(c, t.TempDir())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
