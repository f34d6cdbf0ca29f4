package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withParam(name string) func(*http.Request) string {
	return func(*http.Request) string { return name }
}

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(WorkflowFromContext(r.Context())))
	})
}

func TestMiddleware_AllowsMatchingWorkflow(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	token, err := tokens.IssueToken("order-fulfillment")
	require.NoError(t, err)

	handler := Middleware(tokens, withParam("order-fulfillment"))(echoHandler())

	req := httptest.NewRequest(http.MethodPost, "/workflows/order-fulfillment", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "order-fulfillment", rec.Body.String())
}

func TestMiddleware_RejectsMissingHeader(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	handler := Middleware(tokens, withParam("order-fulfillment"))(echoHandler())

	req := httptest.NewRequest(http.MethodPost, "/workflows/order-fulfillment", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_RejectsMismatchedWorkflow(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	token, err := tokens.IssueToken("order-fulfillment")
	require.NoError(t, err)

	handler := Middleware(tokens, withParam("billing-sync"))(echoHandler())

	req := httptest.NewRequest(http.MethodPost, "/workflows/billing-sync", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMiddleware_RejectsInvalidToken(t *testing.T) {
	tokens := NewTokenService("secret", time.Hour)
	handler := Middleware(tokens, withParam("order-fulfillment"))(echoHandler())

	req := httptest.NewRequest(http.MethodPost, "/workflows/order-fulfillment", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
