package circuitbreaker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errBackend = errors.New("backend down")

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	var changes []string
	b := New(Settings{
		Name:             "openai",
		FailureThreshold: 2,
		Timeout:          time.Minute,
		OnStateChange: func(name, from, to string) {
			changes = append(changes, name+":"+from+"->"+to)
		},
	}, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := b.Execute(ctx, func(context.Context) error { return errBackend })
		assert.ErrorIs(t, err, errBackend)
	}
	assert.True(t, b.Open())
	assert.Equal(t, "open", b.State())

	called := false
	err := b.Execute(ctx, func(context.Context) error { called = true; return nil })
	assert.True(t, IsCircuitOpen(err))
	assert.False(t, called)
	assert.Equal(t, []string{"openai:closed->open"}, changes)
}

func TestBreaker_CancelledContextSkipsCall(t *testing.T) {
	b := New(Settings{Name: "x"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Execute(ctx, func(context.Context) error { t.Fatal("must not run"); return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.Counts().Requests)
}

func TestManager_GetIsStable(t *testing.T) {
	m := NewManager(DefaultSettings(), zap.NewNop())
	a := m.Get("anthropic")
	assert.Same(t, a, m.Get("anthropic"))
	assert.NotSame(t, a, m.Get("gemini"))

	_ = a.Execute(context.Background(), func(context.Context) error { return errBackend })
	st := m.Status()
	require.Contains(t, st, "anthropic")
	assert.Equal(t, "closed", st["anthropic"].State)
	assert.Equal(t, uint32(1), st["anthropic"].ConsecutiveFailures)
}

func TestHTTPClient_ServerErrorsTripBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.Client(), New(Settings{Name: "biz", FailureThreshold: 2}, nil), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		_, err = client.Do(req)
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
	assert.True(t, client.Breaker().Open())
}

func TestHTTPClient_DoSendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		assert.Equal(t, `{"a":1}`, string(buf[:n]))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.Client(), New(Settings{Name: "biz"}, nil), nil)
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL, strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, 2, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errBackend
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = RetryWithBackoff(ctx, 1, time.Millisecond, func() error { calls++; return errBackend })
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, 2, calls)

	calls = 0
	err = RetryWithBackoff(ctx, 0, time.Millisecond, func() error { calls++; return errBackend })
	assert.Equal(t, errBackend, err)
	assert.Equal(t, 1, calls)

	open := New(Settings{Name: "o", FailureThreshold: 1}, nil)
	_ = open.Execute(ctx, func(context.Context) error { return errBackend })
	calls = 0
	err = RetryWithBackoff(ctx, 5, time.Millisecond, func() error {
		calls++
		return open.Execute(ctx, func(context.Context) error { return nil })
	})
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, 1, calls)
}
