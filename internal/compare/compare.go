// Package compare computes per-endpoint metric diffs between two saved runs
// and renders them as SVG charts, an HTML report and an xlsx workbook.
package compare

import (
	"sort"
	"time"

	"apiperf/internal/perf"
)

// Sentiment classifies a metric diff for display: latency drops and
// success-rate gains are favorable, request-count changes are neutral.
type Sentiment int

const (
	Neutral Sentiment = iota
	Good
	Bad
)

// MetricDiff is one endpoint x metric comparison row.
type MetricDiff struct {
	Label     string  // display name, e.g. "Mean Time (ms)"
	Key       string  // summary field key, e.g. "mean_time"
	Run1      float64
	Run2      float64
	Diff      float64 // Run2 - Run1
	PctChange float64 // Diff/Run1*100, 0 when Run1 is 0
	Sentiment Sentiment
}

// EndpointDiff groups the metric rows for one shared endpoint, plus the
// headline mean-time movement.
type EndpointDiff struct {
	Endpoint string
	Metrics  []MetricDiff

	// ImprovementPct is (run1-run2)/run1*100 over mean time: positive when
	// run2 is faster. AbsDiffMs is run1-run2 in milliseconds.
	ImprovementPct float64
	AbsDiffMs      float64
}

// Comparison is the full result of comparing two runs over the endpoints
// they share. Zero shared endpoints yields an empty (not error) comparison.
type Comparison struct {
	Run1Name    string
	Run2Name    string
	GeneratedAt time.Time
	Endpoints   []EndpointDiff
}

func (c *Comparison) Empty() bool { return len(c.Endpoints) == 0 }

type metricDef struct {
	label      string
	key        string
	multiplier float64
	value      func(*perf.EndpointSummary) float64
	sentiment  func(diff float64) Sentiment
}

var metricDefs = []metricDef{
	{"Mean Time (ms)", "mean_time", 1000, func(s *perf.EndpointSummary) float64 { return s.MeanTime }, lowerIsBetter},
	{"Median Time (ms)", "median_time", 1000, func(s *perf.EndpointSummary) float64 { return s.MedianTime }, lowerIsBetter},
	{"Min Time (ms)", "min_time", 1000, func(s *perf.EndpointSummary) float64 { return s.MinTime }, lowerIsBetter},
	{"Max Time (ms)", "max_time", 1000, func(s *perf.EndpointSummary) float64 { return s.MaxTime }, lowerIsBetter},
	{"Success Rate (%)", "success_rate", 100, func(s *perf.EndpointSummary) float64 { return s.SuccessRate }, higherIsBetter},
	{"Requests", "total_requests", 1, func(s *perf.EndpointSummary) float64 { return float64(s.TotalRequests) }, neutral},
}

func lowerIsBetter(diff float64) Sentiment {
	if diff <= 0 {
		return Good
	}
	return Bad
}

func higherIsBetter(diff float64) Sentiment {
	if diff >= 0 {
		return Good
	}
	return Bad
}

func neutral(float64) Sentiment { return Neutral }

// Compare diffs two runs over their shared endpoints. Summaries are
// recomputed when the loaded records lack them. Labels default to the runs'
// test names.
func Compare(r1, r2 *perf.RunResult, label1, label2 string) *Comparison {
	if len(r1.Summary) == 0 {
		r1.ComputeSummary()
	}
	if len(r2.Summary) == 0 {
		r2.ComputeSummary()
	}
	if label1 == "" {
		label1 = r1.TestName
	}
	if label2 == "" {
		label2 = r2.TestName
	}

	c := &Comparison{
		Run1Name:    label1,
		Run2Name:    label2,
		GeneratedAt: time.Now(),
	}

	var endpoints []string
	for endpoint := range r1.Summary {
		if _, ok := r2.Summary[endpoint]; ok {
			endpoints = append(endpoints, endpoint)
		}
	}
	sort.Strings(endpoints)

	for _, endpoint := range endpoints {
		s1, s2 := r1.Summary[endpoint], r2.Summary[endpoint]

		ed := EndpointDiff{Endpoint: endpoint}
		for _, def := range metricDefs {
			v1 := def.value(s1) * def.multiplier
			v2 := def.value(s2) * def.multiplier
			diff := v2 - v1
			pct := 0.0
			if v1 != 0 {
				pct = diff / v1 * 100
			}
			ed.Metrics = append(ed.Metrics, MetricDiff{
				Label:     def.label,
				Key:       def.key,
				Run1:      v1,
				Run2:      v2,
				Diff:      diff,
				PctChange: pct,
				Sentiment: def.sentiment(diff),
			})
		}

		mean1, mean2 := s1.MeanTime*1000, s2.MeanTime*1000
		ed.AbsDiffMs = mean1 - mean2
		if mean1 > 0 {
			ed.ImprovementPct = (mean1 - mean2) / mean1 * 100
		}
		c.Endpoints = append(c.Endpoints, ed)
	}

	return c
}
