package perf

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"apiperf/internal/stats"
)

// ErrNoRequests is returned when a run is configured with an empty request
// list. Configuration errors abort before any request is made.
var ErrNoRequests = errors.New("test plan contains no requests")

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxWorkers = 5
	errorBodyLimit    = 500  // non-2xx body bytes kept in the error field
	captureBodyLimit  = 1000 // response_data bytes kept when capture is on
	userAgent         = "apiperf/1.0"
)

type redirectKey struct{}

// Tester executes one RunConfig. It owns a shared HTTP client session
// (cookie jar included) and instance-scoped request counters.
type Tester struct {
	cfg      RunConfig
	client   *http.Client
	insecure *http.Client
	headers  map[string]string

	total   atomic.Int64
	success atomic.Int64
	failed  atomic.Int64

	live    *stats.Live
	Updates stats.SnapshotChan
}

// NewTester validates the config, applies defaults and builds the shared
// session. The updates channel may be nil when no live progress is wanted.
func NewTester(cfg RunConfig, updates stats.SnapshotChan) (*Tester, error) {
	if len(cfg.Requests) == 0 {
		return nil, ErrNoRequests
	}
	if cfg.Iterations < 1 {
		cfg.Iterations = 1
	}
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = defaultMaxWorkers
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = cfg.MaxWorkers * 2
	t.MaxIdleConnsPerHost = cfg.MaxWorkers * 2

	ti := t.Clone()
	ti.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	checkRedirect := func(req *http.Request, via []*http.Request) error {
		if v, ok := req.Context().Value(redirectKey{}).(bool); ok && !v {
			return http.ErrUseLastResponse
		}
		if len(via) >= 10 {
			return errors.New("too many redirects")
		}
		return nil
	}

	tester := &Tester{
		cfg: cfg,
		client: &http.Client{
			Transport:     t,
			Jar:           jar,
			CheckRedirect: checkRedirect,
		},
		insecure: &http.Client{
			Transport:     ti,
			Jar:           jar,
			CheckRedirect: checkRedirect,
		},
		headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		live:    stats.NewLive(),
		Updates: updates,
	}

	if cfg.AuthToken != "" {
		log.Debug().Msg("attaching bearer token to session headers")
		tester.headers["Authorization"] = "Bearer " + cfg.AuthToken
	}

	return tester, nil
}

// Counts returns the run-level request tallies.
func (t *Tester) Counts() RunCounts {
	return RunCounts{
		Total:   t.total.Load(),
		Success: t.success.Load(),
		Failed:  t.failed.Load(),
	}
}

// Live returns the live tallies backing the progress display.
func (t *Tester) Live() *stats.Live { return t.live }

// StartTickLoop pushes periodic snapshots onto Updates until ctx is done.
func (t *Tester) StartTickLoop(ctx context.Context, interval time.Duration) {
	if t.Updates == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Non-blocking send. A slow consumer just misses ticks.
				select {
				case t.Updates <- t.live.Snapshot():
				default:
				}
			}
		}
	}()
}

// Run executes the configured test and returns the finalized result.
// Individual request failures are absorbed into the outcomes; Run itself
// fails only on setup errors.
func (t *Tester) Run(ctx context.Context) (*RunResult, error) {
	log.Info().Str("test", t.cfg.Name).Int("iterations", t.cfg.Iterations).
		Bool("concurrent", t.cfg.Concurrent).Msg("starting performance test")

	start := time.Now()

	var results map[string][]RequestOutcome
	if t.cfg.Concurrent {
		log.Info().Int("workers", t.cfg.MaxWorkers).Msg("running concurrent test")
		results = t.runConcurrent(ctx)
	} else {
		log.Info().Msg("running sequential test")
		results = t.runSequential(ctx)
	}

	end := time.Now()

	res := &RunResult{
		TestName:       t.cfg.Name,
		StartTime:      start,
		EndTime:        end,
		TotalDuration:  end.Sub(start).Seconds(),
		Iterations:     t.cfg.Iterations,
		Concurrent:     t.cfg.Concurrent,
		RequestResults: results,
	}
	res.ComputeSummary()

	counts := t.Counts()
	log.Info().Float64("duration_s", res.TotalDuration).
		Int64("requests", counts.Total).Int64("success", counts.Success).
		Int64("failed", counts.Failed).Msg("test completed")

	return res, nil
}

func (t *Tester) warmUp(ctx context.Context) {
	if t.cfg.WarmupIterations <= 0 {
		return
	}
	log.Info().Int("rounds", t.cfg.WarmupIterations).Msg("performing warm-up requests")
	for i := 0; i < t.cfg.WarmupIterations; i++ {
		for _, spec := range t.cfg.Requests {
			t.execute(ctx, spec)
		}
	}
}

// runSequential preserves strict ordering: iteration-major, then spec order
// within each iteration.
func (t *Tester) runSequential(ctx context.Context) map[string][]RequestOutcome {
	results := make(map[string][]RequestOutcome, len(t.cfg.Requests))
	for _, spec := range t.cfg.Requests {
		results[spec.Endpoint] = []RequestOutcome{}
	}

	t.warmUp(ctx)

	for i := 0; i < t.cfg.Iterations; i++ {
		log.Debug().Int("iteration", i+1).Int("of", t.cfg.Iterations).Msg("running iteration")
		for _, spec := range t.cfg.Requests {
			outcome := t.execute(ctx, spec)
			results[spec.Endpoint] = append(results[spec.Endpoint], outcome)
		}
	}
	return results
}

type taggedOutcome struct {
	endpoint string
	outcome  RequestOutcome
}

// runConcurrent submits iterations x requests tasks to a fixed pool of
// workers. Warm-up stays sequential. Outcome lists are appended in
// completion order by this goroutine alone; workers never touch the maps.
func (t *Tester) runConcurrent(ctx context.Context) map[string][]RequestOutcome {
	results := make(map[string][]RequestOutcome, len(t.cfg.Requests))
	for _, spec := range t.cfg.Requests {
		results[spec.Endpoint] = []RequestOutcome{}
	}

	t.warmUp(ctx)

	taskCh := make(chan RequestSpec)
	outCh := make(chan taggedOutcome)

	var wg sync.WaitGroup
	for w := 0; w < t.cfg.MaxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for spec := range taskCh {
				outCh <- taggedOutcome{spec.Endpoint, t.execute(ctx, spec)}
			}
		}()
	}

	go func() {
		for i := 0; i < t.cfg.Iterations; i++ {
			for _, spec := range t.cfg.Requests {
				taskCh <- spec
			}
		}
		close(taskCh)
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	for tagged := range outCh {
		results[tagged.endpoint] = append(results[tagged.endpoint], tagged.outcome)
	}
	return results
}

// execute performs exactly one HTTP request and converts whatever happens
// into a RequestOutcome. It never returns an error: transport failures
// become outcomes with status -1 and the failure message.
func (t *Tester) execute(ctx context.Context, spec RequestSpec) RequestOutcome {
	timestamp := time.Now()
	start := timestamp

	outcome := func(o RequestOutcome) RequestOutcome {
		t.total.Add(1)
		if o.Success {
			t.success.Add(1)
		} else {
			t.failed.Add(1)
		}
		t.live.Record(o.Success, int64(o.ResponseSize), time.Duration(o.ElapsedTime*float64(time.Second)))
		return o
	}

	fail := func(err error) RequestOutcome {
		return outcome(RequestOutcome{
			StatusCode:  -1,
			ElapsedTime: time.Since(start).Seconds(),
			Timestamp:   timestamp,
			Success:     false,
			Error:       err.Error(),
		})
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	reqCtx = context.WithValue(reqCtx, redirectKey{}, spec.FollowRedirect)

	req, err := t.buildRequest(reqCtx, spec)
	if err != nil {
		return fail(err)
	}

	client := t.client
	if spec.Insecure {
		client = t.insecure
	}

	resp, err := client.Do(req)
	if err != nil {
		return fail(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(err)
	}
	elapsed := time.Since(start)

	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	o := RequestOutcome{
		StatusCode:      resp.StatusCode,
		ElapsedTime:     elapsed.Seconds(),
		ResponseSize:    len(body),
		Timestamp:       timestamp,
		Success:         success,
		ResponseHeaders: flattenHeaders(resp.Header),
	}
	if !success {
		o.Error = truncate(body, errorBodyLimit)
		log.Warn().Str("url", req.URL.String()).Int("status", resp.StatusCode).
			Str("body", o.Error).Msg("request failed")
	}
	if t.cfg.IncludeResponseData && len(body) > 0 {
		o.ResponseData = truncate(body, captureBodyLimit)
	}
	return outcome(o)
}

func (t *Tester) buildRequest(ctx context.Context, spec RequestSpec) (*http.Request, error) {
	u := strings.TrimRight(t.cfg.BaseURL, "/") + "/" + strings.TrimLeft(spec.Endpoint, "/")

	var body io.Reader
	contentType := ""
	switch {
	case spec.JSONBody != nil:
		b, err := json.Marshal(spec.JSONBody)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	case len(spec.Form) > 0:
		form := url.Values{}
		for k, v := range spec.Form {
			form.Set(k, v)
		}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, u, body)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	for k, v := range spec.Params {
		q.Set(k, v)
	}
	req.URL.RawQuery = q.Encode()

	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}

	// Session bearer token applies only when the spec has no Authorization
	// of its own.
	if auth, ok := t.headers["Authorization"]; ok {
		if _, overridden := spec.Headers["Authorization"]; !overridden {
			req.Header.Set("Authorization", auth)
		}
	}

	// Session-authenticated mutating calls need the CSRF cookie echoed back
	// as a header.
	if isMutating(spec.Method) && req.Header.Get("X-CSRFToken") == "" {
		if token := t.csrfToken(req.URL); token != "" {
			req.Header.Set("X-CSRFToken", token)
		}
	}

	if spec.Auth != nil {
		req.SetBasicAuth(spec.Auth.Username, spec.Auth.Password)
	}

	return req, nil
}

func (t *Tester) csrfToken(u *url.URL) string {
	for _, c := range t.client.Jar.Cookies(u) {
		if c.Name == "csrftoken" {
			return c.Value
		}
	}
	return ""
}

func isMutating(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}

func truncate(b []byte, limit int) string {
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}
