package perf

import (
	"time"
)

// BasicAuth is a per-request username/password override.
type BasicAuth struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RequestSpec describes one endpoint under test. A spec is built once and
// never mutated during a run; the endpoint path doubles as the key in the
// result mapping.
type RequestSpec struct {
	Method   string            `json:"method"`
	Endpoint string            `json:"endpoint"`
	Headers  map[string]string `json:"headers,omitempty"`
	Params   map[string]string `json:"params,omitempty"`

	// Form and JSONBody are mutually exclusive request bodies.
	Form     map[string]string `json:"form,omitempty"`
	JSONBody any               `json:"json,omitempty"`

	Auth *BasicAuth `json:"auth,omitempty"`

	Timeout        time.Duration `json:"timeout,omitempty"`
	FollowRedirect bool          `json:"-"`
	Insecure       bool          `json:"insecure,omitempty"`
}

// RequestOutcome is the measurement of a single execution attempt.
// StatusCode is -1 when the request never produced an HTTP response
// (connection refused, timeout, DNS failure).
type RequestOutcome struct {
	StatusCode      int               `json:"status_code"`
	ElapsedTime     float64           `json:"elapsed_time"` // seconds
	ResponseSize    int               `json:"response_size"`
	Timestamp       time.Time         `json:"timestamp"`
	Success         bool              `json:"success"`
	Error           string            `json:"error"`
	ResponseHeaders map[string]string `json:"response_headers"`
	ResponseData    string            `json:"response_data,omitempty"`
}

// RunConfig is the full configuration for one test run. It is owned by the
// caller and read-only while the run executes.
type RunConfig struct {
	Name                string        `json:"name"`
	BaseURL             string        `json:"base_url"`
	Requests            []RequestSpec `json:"requests"`
	Iterations          int           `json:"iterations"`
	Concurrent          bool          `json:"concurrent"`
	MaxWorkers          int           `json:"max_workers"`
	WarmupIterations    int           `json:"warm_up_iterations"`
	IncludeResponseData bool          `json:"include_response_data"`
	AuthToken           string        `json:"-"`
}

// RunResult is the complete record of one run. RequestResults maps each
// endpoint to its outcomes: in sequential mode the list is iteration-ordered,
// in concurrent mode it is completion-ordered. Summary is derived from
// RequestResults and recomputed whenever the outcomes change.
type RunResult struct {
	TestName       string                      `json:"test_name"`
	StartTime      time.Time                   `json:"start_time"`
	EndTime        time.Time                   `json:"end_time"`
	TotalDuration  float64                     `json:"total_duration"` // seconds
	Iterations     int                         `json:"iterations"`
	Concurrent     bool                        `json:"concurrent"`
	RequestResults map[string][]RequestOutcome `json:"request_results"`
	Summary        map[string]*EndpointSummary `json:"summary"`
}

// RunCounts are the coarse per-tester request tallies, reported alongside
// the result rather than kept in process globals.
type RunCounts struct {
	Total   int64
	Success int64
	Failed  int64
}
