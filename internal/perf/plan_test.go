package perf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePlan = `
name: catalog_smoke
base_url: https://api.example.com
iterations: 25
concurrent: true
max_workers: 8
warm_up_iterations: 2
requests:
  - endpoint: /api/items/
  - method: POST
    endpoint: /api/items/create/
    json:
      title: "hello"
    timeout: 5s
    follow_redirects: false
  - method: GET
    endpoint: /api/search/
    params:
      q: widget
`

func TestParsePlan(t *testing.T) {
	cfg, err := ParsePlan([]byte(samplePlan), "plan.yaml")
	require.NoError(t, err)

	assert.Equal(t, "catalog_smoke", cfg.Name)
	assert.Equal(t, "https://api.example.com", cfg.BaseURL)
	assert.Equal(t, 25, cfg.Iterations)
	assert.True(t, cfg.Concurrent)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, 2, cfg.WarmupIterations)
	require.Len(t, cfg.Requests, 3)

	first := cfg.Requests[0]
	assert.Equal(t, "GET", first.Method) // defaulted
	assert.True(t, first.FollowRedirect) // defaulted
	assert.Zero(t, first.Timeout)

	second := cfg.Requests[1]
	assert.Equal(t, "POST", second.Method)
	assert.Equal(t, 5*time.Second, second.Timeout)
	assert.False(t, second.FollowRedirect)
	assert.NotNil(t, second.JSONBody)

	third := cfg.Requests[2]
	assert.Equal(t, "widget", third.Params["q"])
}

func TestParsePlanGeneratesName(t *testing.T) {
	cfg, err := ParsePlan([]byte("base_url: http://x\nrequests:\n  - endpoint: /a\n"), "p")
	require.NoError(t, err)
	assert.Regexp(t, `^api_test_\d+$`, cfg.Name)
}

func TestParsePlanErrors(t *testing.T) {
	cases := map[string]string{
		"missing base_url": "requests:\n  - endpoint: /a\n",
		"no requests":      "base_url: http://x\n",
		"no endpoint":      "base_url: http://x\nrequests:\n  - method: GET\n",
		"bad timeout":      "base_url: http://x\nrequests:\n  - endpoint: /a\n    timeout: soon\n",
		"form and json":    "base_url: http://x\nrequests:\n  - endpoint: /a\n    form: {a: b}\n    json: {c: d}\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePlan([]byte(doc), name)
			assert.Error(t, err)
		})
	}
}

func TestFilterRequests(t *testing.T) {
	cfg := &RunConfig{Requests: []RequestSpec{
		{Endpoint: "/a"}, {Endpoint: "/b"}, {Endpoint: "/c"},
	}}

	cfg.FilterRequests(nil)
	assert.Len(t, cfg.Requests, 3)

	cfg.FilterRequests([]string{"/a", "/c"})
	require.Len(t, cfg.Requests, 2)
	assert.Equal(t, "/a", cfg.Requests[0].Endpoint)
	assert.Equal(t, "/c", cfg.Requests[1].Endpoint)
}
