package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/service/voice"
)

type VoiceHandler struct {
	sessions *voice.SessionManager
	log      *zap.Logger
}

func NewVoiceHandler(sessions *voice.SessionManager, log *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		sessions: sessions,
		log:      log,
	}
}

// RegisterRoutes mounts the API under /api/v1/voice.
func (h *VoiceHandler) RegisterRoutes(router fiber.Router) {
	g := router.Group("/voice")
	g.Post("/parse", h.Parse)
	g.Post("/classify", h.Classify)
	g.Post("/extract", h.Extract)
	g.Post("/respond", h.Respond)
	g.Post("/process", h.Process)
	g.Get("/history", h.History)
	g.Patch("/context", h.UpdateContext)
	g.Get("/context", h.GetContext)
	g.Patch("/config", h.UpdateConfig)
	g.Get("/config", h.GetConfig)
	g.Get("/providers", h.Providers)
	g.Delete("/providers/status", h.ResetProviders)
	g.Get("/commands", h.Commands)
	g.Post("/session/listen", h.Listen)
	g.Post("/session/halt", h.Halt)
}

type TextRequest struct {
	Text string `json:"text"`
}

type ClassifyRequest struct {
	Command domain.VoiceCommand `json:"command"`
}

type RespondRequest struct {
	Command        domain.VoiceCommand           `json:"command"`
	Classification *domain.CommandClassification `json:"classification,omitempty"`
}

type SessionStateResponse struct {
	SessionID string              `json:"session_id"`
	State     domain.SessionState `json:"state"`
}

// session resolves X-Session-ID, creating the session when absent, and echoes
// the id back so clients can keep using it.
func (h *VoiceHandler) session(c *fiber.Ctx) *voice.Session {
	s := h.sessions.GetOrCreate(c.UserContext(), c.Get(middleware.HeaderSessionID))
	c.Set(middleware.HeaderSessionID, s.ID)
	return s
}

// view returns the assistant for read-only calls. Without X-Session-ID no
// session is created and the shared defaults answer.
func (h *VoiceHandler) view(c *fiber.Ctx) *voice.Assistant {
	if c.Get(middleware.HeaderSessionID) == "" {
		return h.sessions.Defaults()
	}
	return h.session(c).Assistant()
}

func parseText(c *fiber.Ctx) (string, error) {
	var req TextRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "text is required")
	}
	return req.Text, nil
}

func (h *VoiceHandler) Parse(c *fiber.Ctx) error {
	text, err := parseText(c)
	if err != nil {
		return err
	}
	return c.JSON(h.session(c).Assistant().ParseCommand(c.UserContext(), text))
}

func (h *VoiceHandler) Extract(c *fiber.Ctx) error {
	text, err := parseText(c)
	if err != nil {
		return err
	}
	return c.JSON(h.session(c).Assistant().ExtractEntities(text))
}

func (h *VoiceHandler) Classify(c *fiber.Ctx) error {
	var req ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	a := h.session(c).Assistant()
	return c.JSON(a.ClassifyCommand(req.Command, a.Definition(req.Command)))
}

// Respond builds a response for a command. The classification is computed
// when the caller does not send one.
func (h *VoiceHandler) Respond(c *fiber.Ctx) error {
	var req RespondRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	a := h.session(c).Assistant()
	cls := req.Classification
	if cls == nil {
		computed := a.ClassifyCommand(req.Command, a.Definition(req.Command))
		cls = &computed
	}
	return c.JSON(a.BuildResponse(req.Command, *cls))
}

// Process runs the full pipeline through the session. 409 means another
// transcript for the session is still being processed.
func (h *VoiceHandler) Process(c *fiber.Ctx) error {
	text, err := parseText(c)
	if err != nil {
		return err
	}
	s := h.session(c)
	res, ok := s.Submit(c.UserContext(), text)
	if !ok {
		return fiber.NewError(fiber.StatusConflict, "session is processing another command")
	}
	return c.JSON(res)
}

func (h *VoiceHandler) History(c *fiber.Ctx) error {
	if c.Get(middleware.HeaderSessionID) == "" {
		return c.JSON([]domain.HistoryEntry{})
	}
	history := h.session(c).History()
	if limit := c.QueryInt("limit"); limit > 0 && limit < len(history) {
		history = history[len(history)-limit:]
	}
	return c.JSON(history)
}

func (h *VoiceHandler) GetContext(c *fiber.Ctx) error {
	return c.JSON(h.view(c).BusinessContext())
}

func (h *VoiceHandler) UpdateContext(c *fiber.Ctx) error {
	var patch domain.BusinessContextPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	s := h.session(c)
	business, err := h.sessions.UpdateBusinessContext(c.UserContext(), s, patch)
	if err != nil {
		// The in-memory profile is already updated; only persistence failed.
		h.log.Warn("Business profile not persisted", zap.String("session_id", s.ID), zap.Error(err))
	}
	return c.JSON(business)
}

func (h *VoiceHandler) GetConfig(c *fiber.Ctx) error {
	return c.JSON(h.view(c).Config())
}

func (h *VoiceHandler) UpdateConfig(c *fiber.Ctx) error {
	var patch voice.ConfigPatch
	if err := c.BodyParser(&patch); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	return c.JSON(h.session(c).Assistant().UpdateConfig(patch))
}

func (h *VoiceHandler) Providers(c *fiber.Ctx) error {
	return c.JSON(h.view(c).ProviderStatus())
}

func (h *VoiceHandler) ResetProviders(c *fiber.Ctx) error {
	h.session(c).Assistant().ResetProviderStatus()
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *VoiceHandler) Commands(c *fiber.Ctx) error {
	reg := h.view(c).Registry()
	return c.JSON(fiber.Map{
		"categories": reg.Categories(),
		"commands":   reg.Definitions(),
	})
}

func (h *VoiceHandler) Listen(c *fiber.Ctx) error {
	s := h.session(c)
	if !s.Listen() && s.State() != domain.SessionListening {
		return fiber.NewError(fiber.StatusConflict, "session is processing another command")
	}
	return c.JSON(SessionStateResponse{SessionID: s.ID, State: s.State()})
}

func (h *VoiceHandler) Halt(c *fiber.Ctx) error {
	s := h.session(c)
	s.Halt()
	return c.JSON(SessionStateResponse{SessionID: s.ID, State: s.State()})
}
