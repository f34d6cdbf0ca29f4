package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flow-lang/flow/internal/flow/cache"
)

func newTestServer(t *testing.T, source string) *Server {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order-fulfillment.flow"), []byte(source), 0o644))

	cfg := Config{
		WorkflowDir:    dir,
		JWTSecret:      "test-secret",
		TokenTTL:       time.Minute,
		ExecTimeout:    5 * time.Second,
		ShutdownWindow: time.Second,
	}

	s, failed, err := New(cfg, cache.NewMemory(), zap.NewNop())
	require.NoError(t, err)
	require.Empty(t, failed)
	return s
}

func TestServer_HealthCheck(t *testing.T) {
	s := newTestServer(t, "workflow:\n    complete with status \"ok\"\n")
	defer s.hub.Shutdown()

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_TriggerRequiresToken(t *testing.T) {
	s := newTestServer(t, "workflow:\n    complete with status \"ok\"\n")
	defer s.hub.Shutdown()

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/workflows/order-fulfillment/trigger", "application/json", bytes.NewReader(nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_TriggerRunsWorkflow(t *testing.T) {
	s := newTestServer(t, "workflow:\n    complete with status \"ok\"\n")
	defer s.hub.Shutdown()

	token, err := s.tokens.IssueToken("order-fulfillment")
	require.NoError(t, err)

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/workflows/order-fulfillment/trigger", bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body triggerResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "completed", body.Status)
	assert.Equal(t, "ok", body.Outputs["status"])
	assert.NotEmpty(t, body.RunID)
}

func TestServer_TriggerUnknownWorkflow(t *testing.T) {
	s := newTestServer(t, "workflow:\n    complete with status \"ok\"\n")
	defer s.hub.Shutdown()

	token, err := s.tokens.IssueToken("does-not-exist")
	require.NoError(t, err)

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/workflows/does-not-exist/trigger", bytes.NewReader(nil))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_TriggerRejection(t *testing.T) {
	s := newTestServer(t, "workflow:\n    reject with \"nope\"\n")
	defer s.hub.Shutdown()

	token, err := s.tokens.IssueToken("order-fulfillment")
	require.NoError(t, err)

	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/workflows/order-fulfillment/trigger", bytes.NewReader(nil))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body triggerResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "rejected", body.Status)
	assert.Equal(t, "nope", body.Message)
}
