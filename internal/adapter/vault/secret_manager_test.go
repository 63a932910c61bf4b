package vault

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seu-repo/workforce-voice/internal/ports"
)

func newTestVault(t *testing.T, handler http.HandlerFunc) *SecretManager {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sm, err := NewSecretManager(srv.URL, "test-token", "")
	require.NoError(t, err)
	sm.client.SetMaxRetries(0)
	return sm
}

func TestGetProviderAPIKey(t *testing.T) {
	var gotPath, gotToken string
	sm := newTestVault(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("X-Vault-Token")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"data":{"api_key":"sk-test"},"metadata":{"version":1}}}`))
	})

	key, err := sm.GetProviderAPIKey(context.Background(), "openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)
	assert.Equal(t, "/v1/secret/data/ai/openai", gotPath)
	assert.Equal(t, "test-token", gotToken)
}

func TestGetProviderAPIKey_MissingField(t *testing.T) {
	sm := newTestVault(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"data":{"token":"x"}}}`))
	})

	_, err := sm.GetProviderAPIKey(context.Background(), "anthropic")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestGetProviderAPIKey_NotFound(t *testing.T) {
	sm := newTestVault(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"errors":[]}`))
	})

	_, err := sm.GetProviderAPIKey(context.Background(), "gemini")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestGetDatabaseURL(t *testing.T) {
	sm := newTestVault(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/database", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"data":{"connection_string":"postgres://u:p@db/voice"}}}`))
	})

	url, err := sm.GetDatabaseURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db/voice", url)
}

func TestGetProviderAPIKey_ServerError(t *testing.T) {
	sm := newTestVault(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"errors":["boom"]}`))
	})

	_, err := sm.GetProviderAPIKey(context.Background(), "openai")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrNotFound)
}
