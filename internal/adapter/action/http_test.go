package action

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/infrastructure/circuitbreaker"
)

func newExecutor(t *testing.T, handler http.HandlerFunc) *HTTPExecutor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	breaker := circuitbreaker.New(circuitbreaker.Settings{Name: "business-api", FailureThreshold: 2}, zap.NewNop())
	client := circuitbreaker.NewHTTPClient(srv.Client(), breaker, zap.NewNop())
	return NewHTTPExecutor(srv.URL+"/api/", client, map[string]string{"Authorization": "Bearer svc"}, zap.NewNop())
}

func TestHTTPExecutor_Success(t *testing.T) {
	var gotMethod, gotPath, gotBody, gotAuth, gotRequestID, gotType string
	exec := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusAccepted)
	})

	res, err := exec.Execute(context.Background(), domain.Action{
		ID:       "act-1",
		Kind:     domain.ActionAPICall,
		Endpoint: "/tasks/5/status",
		Method:   "patch",
		Body:     `{"status":"completed"}`,
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	assert.Equal(t, "act-1", res.ActionID)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/tasks/5/status", gotPath)
	assert.Equal(t, `{"status":"completed"}`, gotBody)
	assert.Equal(t, "Bearer svc", gotAuth)
	assert.Equal(t, "act-1", gotRequestID)
	assert.Equal(t, "application/json", gotType)
}

func TestHTTPExecutor_DefaultsToPost(t *testing.T) {
	var gotMethod string
	exec := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
	})

	res, err := exec.Execute(context.Background(), domain.Action{ID: "a", Kind: domain.ActionAPICall, Endpoint: "timesheets/clock-in"})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestHTTPExecutor_ClientError(t *testing.T) {
	exec := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	res, err := exec.Execute(context.Background(), domain.Action{ID: "a", Kind: domain.ActionAPICall, Endpoint: "/timesheets/clock-in"})

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, res.Error, "409")
}

func TestHTTPExecutor_ServerErrorsOpenBreaker(t *testing.T) {
	calls := 0
	exec := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})
	action := domain.Action{ID: "a", Kind: domain.ActionAPICall, Endpoint: "/tasks"}

	for i := 0; i < 2; i++ {
		_, err := exec.Execute(context.Background(), action)
		require.Error(t, err)
	}
	_, err := exec.Execute(context.Background(), action)
	require.Error(t, err)
	assert.True(t, circuitbreaker.IsCircuitOpen(err))
	assert.Equal(t, 2, calls)
}

func TestHTTPExecutor_RejectsBadActions(t *testing.T) {
	exec := newExecutor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := exec.Execute(context.Background(), domain.Action{ID: "n", Kind: domain.ActionNavigate, Route: "/tasks"})
	assert.Error(t, err)

	_, err = exec.Execute(context.Background(), domain.Action{ID: "e", Kind: domain.ActionAPICall})
	assert.Error(t, err)
}
