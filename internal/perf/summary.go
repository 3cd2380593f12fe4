package perf

import (
	"math"
	"sort"
)

// EndpointSummary holds the derived statistics for one endpoint's outcomes.
// Times are in seconds. P95Time and P99Time are nil until the successful
// sample count reaches 20 and 100 respectively.
type EndpointSummary struct {
	MinTime            float64  `json:"min_time"`
	MaxTime            float64  `json:"max_time"`
	MeanTime           float64  `json:"mean_time"`
	MedianTime         float64  `json:"median_time"`
	P95Time            *float64 `json:"p95_time"`
	P99Time            *float64 `json:"p99_time"`
	StdDev             float64  `json:"std_dev"`
	TotalRequests      int      `json:"total_requests"`
	SuccessfulRequests int      `json:"successful_requests"`
	FailedRequests     int      `json:"failed_requests"`
	SuccessRate        float64  `json:"success_rate"`
	AvgResponseSize    float64  `json:"avg_response_size"`
}

// SummarizeOutcomes computes the summary for a single endpoint's outcome
// list. Returns nil when no outcome succeeded: a 0%-success endpoint has no
// latency data and produces no summary row.
func SummarizeOutcomes(outcomes []RequestOutcome) *EndpointSummary {
	var elapsed []float64
	var sizeSum float64
	for _, o := range outcomes {
		if o.Success {
			elapsed = append(elapsed, o.ElapsedTime)
			sizeSum += float64(o.ResponseSize)
		}
	}
	if len(elapsed) == 0 {
		return nil
	}

	n := len(elapsed)
	s := &EndpointSummary{
		TotalRequests:      len(outcomes),
		SuccessfulRequests: n,
		FailedRequests:     len(outcomes) - n,
		SuccessRate:        float64(n) / float64(len(outcomes)),
		AvgResponseSize:    sizeSum / float64(n),
		MeanTime:           mean(elapsed),
	}

	sorted := append([]float64(nil), elapsed...)
	sort.Float64s(sorted)

	s.MinTime = sorted[0]
	s.MaxTime = sorted[n-1]
	s.MedianTime = median(sorted)
	s.StdDev = sampleStdDev(elapsed, s.MeanTime)

	// Nearest-rank percentiles: the value at index floor(n*q) of the
	// ascending sort, gated on minimum sample size. This exact scheme is a
	// compatibility contract with previously recorded runs; do not swap in
	// an interpolated method.
	if n >= 20 {
		v := sorted[int(float64(n)*0.95)]
		s.P95Time = &v
	}
	if n >= 100 {
		v := sorted[int(float64(n)*0.99)]
		s.P99Time = &v
	}

	return s
}

// ComputeSummary recomputes the per-endpoint summaries from the raw
// outcomes, stores the mapping on the result and returns it. Endpoints with
// zero successful outcomes are omitted.
func (r *RunResult) ComputeSummary() map[string]*EndpointSummary {
	summary := make(map[string]*EndpointSummary)
	for endpoint, outcomes := range r.RequestResults {
		if s := SummarizeOutcomes(outcomes); s != nil {
			summary[endpoint] = s
		}
	}
	r.Summary = summary
	return summary
}

func mean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// median of an ascending-sorted slice; the midpoint average for even counts.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// sampleStdDev is the n-1 denominator standard deviation, 0 for n <= 1.
func sampleStdDev(vals []float64, mean float64) float64 {
	if len(vals) <= 1 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)-1))
}
