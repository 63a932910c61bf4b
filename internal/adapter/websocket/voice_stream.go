package websocket

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/service/voice"
)

const (
	FrameListen     = "listen"
	FrameTranscript = "transcript"
	FrameHalt       = "halt"

	ReplyState    = "state"
	ReplyResponse = "response"
	ReplyBusy     = "busy"
	ReplyError    = "error"

	sessionLocal = "session_id"
)

// Frame is a client message on /ws/voice.
type Frame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Reply is the server message sent for every frame.
type Reply struct {
	Type      string                `json:"type"`
	SessionID string                `json:"session_id"`
	State     domain.SessionState   `json:"state,omitempty"`
	Response  *domain.VoiceResponse `json:"response,omitempty"`
	Error     string                `json:"error,omitempty"`
}

type VoiceStreamHandler struct {
	sessions *voice.SessionManager
	logger   *zap.Logger
}

func NewVoiceStreamHandler(sessions *voice.SessionManager, logger *zap.Logger) *VoiceStreamHandler {
	return &VoiceStreamHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// HandleVoiceStream serves one client. Frames are handled in order, so a
// connection never has more than one transcript in flight.
func (h *VoiceStreamHandler) HandleVoiceStream(c *websocket.Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessionID, _ := c.Locals(sessionLocal).(string)
	session := h.sessions.GetOrCreate(ctx, sessionID)
	log := h.logger.With(zap.String("session_id", session.ID))
	log.Debug("Voice stream opened")

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("Voice stream read failed", zap.Error(err))
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		out, err := json.Marshal(h.handleFrame(ctx, session, data))
		if err != nil {
			log.Error("Failed to encode reply", zap.Error(err))
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, out); err != nil {
			log.Warn("Failed to send reply", zap.Error(err))
			break
		}
	}

	h.release(session, sessionID != "")
	log.Debug("Voice stream closed")
}

// release halts the session when its stream ends. Anonymous sessions are
// dropped; named ones stay for HTTP callers until they go idle.
func (h *VoiceStreamHandler) release(s *voice.Session, named bool) {
	s.Halt()
	if !named {
		h.sessions.Remove(s.ID)
	}
}

func (h *VoiceStreamHandler) handleFrame(ctx context.Context, s *voice.Session, data []byte) Reply {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Reply{Type: ReplyError, SessionID: s.ID, Error: "invalid frame"}
	}

	switch strings.ToLower(frame.Type) {
	case FrameListen:
		s.Listen()
		return Reply{Type: ReplyState, SessionID: s.ID, State: s.State()}
	case FrameHalt:
		s.Halt()
		return Reply{Type: ReplyState, SessionID: s.ID, State: s.State()}
	case FrameTranscript:
		if strings.TrimSpace(frame.Text) == "" {
			return Reply{Type: ReplyError, SessionID: s.ID, Error: "empty transcript"}
		}
		res, ok := s.Submit(ctx, frame.Text)
		if !ok {
			return Reply{Type: ReplyBusy, SessionID: s.ID, State: s.State()}
		}
		return Reply{Type: ReplyResponse, SessionID: s.ID, Response: &res.Response}
	default:
		return Reply{Type: ReplyError, SessionID: s.ID, Error: "unknown frame type " + frame.Type}
	}
}

func upgradeOnly(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	id := c.Query("session")
	if id == "" {
		id = c.Get("X-Session-ID")
	}
	c.Locals(sessionLocal, id)
	return c.Next()
}

// SetupRoutes registers /ws/voice and the /ws/updates event feed.
func SetupRoutes(app *fiber.App, handler *VoiceStreamHandler, hub *Hub) {
	app.Use("/ws", upgradeOnly)

	app.Get("/ws/voice", websocket.New(handler.HandleVoiceStream))
	app.Get("/ws/updates", websocket.New(func(c *websocket.Conn) {
		sessionID, _ := c.Locals(sessionLocal).(string)
		hub.AddClient(c, sessionID)
	}))
}
