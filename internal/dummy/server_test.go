package dummy

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFastEndpointIssuesCSRFCookie(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/fast")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var found bool
	for _, c := range resp.Cookies() {
		if c.Name == "csrftoken" {
			found = true
			assert.NotEmpty(t, c.Value)
		}
	}
	assert.True(t, found, "expected a csrftoken cookie")
}

func TestEchoRequiresCSRFHeader(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/echo", "application/json", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/echo", strings.NewReader(`{"a":1}`))
	req.Header.Set("X-CSRFToken", "tok")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestErrorEndpointReturnsKnownStatuses(t *testing.T) {
	srv := httptest.NewServer(Handler())
	defer srv.Close()

	seen := map[int]bool{}
	for i := 0; i < 50; i++ {
		resp, err := http.Get(srv.URL + "/error")
		require.NoError(t, err)
		resp.Body.Close()
		seen[resp.StatusCode] = true
		assert.Contains(t, []int{
			http.StatusOK,
			http.StatusInternalServerError,
			http.StatusTooManyRequests,
		}, resp.StatusCode)
	}
	assert.True(t, seen[http.StatusOK])
}
