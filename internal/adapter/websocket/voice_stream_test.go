package websocket

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/service/voice"
)

func newStream(t *testing.T) (*VoiceStreamHandler, *voice.Session) {
	t.Helper()
	business := domain.BusinessContext{Name: "Acme", Domain: "logistics"}
	m := voice.NewSessionManager(voice.DefaultConfig(), business, voice.Dependencies{}, voice.ManagerOptions{})
	h := NewVoiceStreamHandler(m, zap.NewNop())
	return h, m.GetOrCreate(context.Background(), "s1")
}

func TestHandleFrame_ListenAndHalt(t *testing.T) {
	h, s := newStream(t)
	ctx := context.Background()

	reply := h.handleFrame(ctx, s, []byte(`{"type":"listen"}`))
	assert.Equal(t, ReplyState, reply.Type)
	assert.Equal(t, domain.SessionListening, reply.State)
	assert.Equal(t, "s1", reply.SessionID)

	reply = h.handleFrame(ctx, s, []byte(`{"type":"HALT"}`))
	assert.Equal(t, domain.SessionIdle, reply.State)
}

func TestHandleFrame_Transcript(t *testing.T) {
	h, s := newStream(t)

	reply := h.handleFrame(context.Background(), s, []byte(`{"type":"transcript","text":"clock in"}`))

	require.Equal(t, ReplyResponse, reply.Type)
	require.NotNil(t, reply.Response)
	assert.True(t, reply.Response.Success)
	assert.True(t, reply.Response.CanHandle)
	assert.Len(t, s.History(), 1)
}

func TestHandleFrame_Errors(t *testing.T) {
	h, s := newStream(t)
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `listen`},
		{"empty transcript", `{"type":"transcript","text":"   "}`},
		{"unknown type", `{"type":"dance"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := h.handleFrame(ctx, s, []byte(tt.raw))
			assert.Equal(t, ReplyError, reply.Type)
			assert.NotEmpty(t, reply.Error)
		})
	}
	assert.Empty(t, s.History())
}

func TestRelease_DropsAnonymousSessions(t *testing.T) {
	m := voice.NewSessionManager(voice.DefaultConfig(), domain.BusinessContext{Name: "Acme"}, voice.Dependencies{}, voice.ManagerOptions{})
	h := NewVoiceStreamHandler(m, zap.NewNop())
	ctx := context.Background()

	anon := m.GetOrCreate(ctx, "")
	require.True(t, anon.Listen())
	h.release(anon, false)
	assert.Equal(t, domain.SessionIdle, anon.State())
	_, ok := m.Get(anon.ID)
	assert.False(t, ok)

	named := m.GetOrCreate(ctx, "worker-1")
	h.release(named, true)
	_, ok = m.Get("worker-1")
	assert.True(t, ok)
}
