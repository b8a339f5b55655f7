package httpclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClient creates a Client for tests, using cfg when given and the
// default configuration otherwise. Cleanup is registered on t.
func newTestClient(t *testing.T, cfg ...*Config) *Client {
	t.Helper()
	var client *Client
	if len(cfg) > 0 {
		client = New(cfg[0])
	} else {
		def := DefaultConfig()
		client = New(&def)
	}
	t.Cleanup(client.Close)
	return client
}

// newTestServer starts an httptest server that is torn down with the test.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// drainAndClose consumes the rest of a response body before closing it so
// the underlying connection goes back to the pool.
func drainAndClose(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp == nil || resp.Body == nil {
		return
	}
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		t.Logf("draining response body: %v", err)
	}
	if err := resp.Body.Close(); err != nil {
		t.Logf("closing response body: %v", err)
	}
}
