package perf

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialRunCollectsAllIterations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := RunConfig{
		Name:    "sequential",
		BaseURL: srv.URL,
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/a", FollowRedirect: true},
			{Method: "GET", Endpoint: "/b", FollowRedirect: true},
		},
		Iterations: 5,
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	res, err := tester.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.RequestResults["/a"], 5)
	assert.Len(t, res.RequestResults["/b"], 5)
	for _, o := range res.RequestResults["/a"] {
		assert.True(t, o.Success)
		assert.Equal(t, http.StatusOK, o.StatusCode)
		assert.Equal(t, 2, o.ResponseSize)
		assert.Greater(t, o.ElapsedTime, 0.0)
	}

	counts := tester.Counts()
	assert.EqualValues(t, 10, counts.Total)
	assert.EqualValues(t, 10, counts.Success)
	assert.EqualValues(t, 0, counts.Failed)

	s := res.Summary["/a"]
	require.NotNil(t, s)
	assert.Equal(t, 5, s.TotalRequests)
	assert.Equal(t, 1.0, s.SuccessRate)
}

func TestFailingEndpointOmittedFromSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := RunConfig{
		Name:    "partial",
		BaseURL: srv.URL,
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/ok", FollowRedirect: true},
			{Method: "GET", Endpoint: "/broken", FollowRedirect: true},
		},
		Iterations: 3,
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	res, err := tester.Run(context.Background())
	require.NoError(t, err)

	// The broken endpoint still has raw outcomes but no summary row.
	assert.Len(t, res.RequestResults["/broken"], 3)
	assert.NotContains(t, res.Summary, "/broken")
	assert.Contains(t, res.Summary, "/ok")

	for _, o := range res.RequestResults["/broken"] {
		assert.False(t, o.Success)
		assert.Equal(t, http.StatusInternalServerError, o.StatusCode)
		assert.Contains(t, o.Error, "boom")
	}
}

func TestConcurrentRunCompletesAllTasks(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := RunConfig{
		Name:    "concurrent",
		BaseURL: srv.URL,
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/x", FollowRedirect: true},
		},
		Iterations: 10,
		Concurrent: true,
		MaxWorkers: 3,
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	res, err := tester.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.RequestResults["/x"], 10)
	assert.EqualValues(t, 10, hits.Load())
	assert.EqualValues(t, 10, tester.Counts().Success)
}

func TestWarmupExcludedFromResults(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := RunConfig{
		Name:    "warmup",
		BaseURL: srv.URL,
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/w", FollowRedirect: true},
		},
		Iterations:       4,
		WarmupIterations: 2,
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	res, err := tester.Run(context.Background())
	require.NoError(t, err)

	// 2 warm-up + 4 measured requests hit the server, only 4 recorded.
	assert.EqualValues(t, 6, hits.Load())
	assert.Len(t, res.RequestResults["/w"], 4)
}

func TestTransportFailureBecomesOutcome(t *testing.T) {
	cfg := RunConfig{
		Name:    "unreachable",
		BaseURL: "http://127.0.0.1:1",
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/nope", FollowRedirect: true},
		},
		Iterations: 2,
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	res, err := tester.Run(context.Background())
	require.NoError(t, err)

	outcomes := res.RequestResults["/nope"]
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, -1, o.StatusCode)
		assert.False(t, o.Success)
		assert.NotEmpty(t, o.Error)
	}
	assert.Empty(t, res.Summary)
}

func TestBearerTokenAndOverride(t *testing.T) {
	var sawDefault, sawOverride string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/default":
			sawDefault = r.Header.Get("Authorization")
		case "/override":
			sawOverride = r.Header.Get("Authorization")
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := RunConfig{
		Name:    "auth",
		BaseURL: srv.URL,
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/default", FollowRedirect: true},
			{
				Method: "GET", Endpoint: "/override", FollowRedirect: true,
				Headers: map[string]string{"Authorization": "Token xyz"},
			},
		},
		Iterations: 1,
		AuthToken:  "abc123",
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	_, err = tester.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc123", sawDefault)
	assert.Equal(t, "Token xyz", sawOverride)
}

func TestCSRFTokenSentOnMutatingRequests(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok-1", Path: "/"})
			w.Write([]byte("ok"))
		case http.MethodPost:
			gotToken = r.Header.Get("X-CSRFToken")
			w.Write([]byte("ok"))
		}
	}))
	defer srv.Close()

	// GET first to receive the cookie, then POST from the same session.
	cfg := RunConfig{
		Name:    "csrf",
		BaseURL: srv.URL,
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/login", FollowRedirect: true},
			{Method: "POST", Endpoint: "/submit", FollowRedirect: true, JSONBody: map[string]string{"k": "v"}},
		},
		Iterations: 1,
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	_, err = tester.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "tok-1", gotToken)
}

func TestRedirectsNotFollowedWhenDisabled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/moved" {
			http.Redirect(w, r, "/target", http.StatusFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := RunConfig{
		Name:    "redirects",
		BaseURL: srv.URL,
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/moved", FollowRedirect: false},
		},
		Iterations: 1,
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	res, err := tester.Run(context.Background())
	require.NoError(t, err)

	o := res.RequestResults["/moved"][0]
	assert.Equal(t, http.StatusFound, o.StatusCode)
	assert.False(t, o.Success)
}

func TestResponseDataCapture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hello":"world"}`))
	}))
	defer srv.Close()

	cfg := RunConfig{
		Name:    "capture",
		BaseURL: srv.URL,
		Requests: []RequestSpec{
			{Method: "GET", Endpoint: "/data", FollowRedirect: true},
		},
		Iterations:          1,
		IncludeResponseData: true,
	}
	tester, err := NewTester(cfg, nil)
	require.NoError(t, err)

	res, err := tester.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, `{"hello":"world"}`, res.RequestResults["/data"][0].ResponseData)
}

func TestNewTesterRejectsEmptyPlan(t *testing.T) {
	_, err := NewTester(RunConfig{BaseURL: "http://example.com"}, nil)
	assert.ErrorIs(t, err, ErrNoRequests)
}
