package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
)

const (
	DefaultURL   = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1alpha.GenerativeService.BidiGenerateContent"
	DefaultModel = "gemini-2.0-flash-exp"
	maxFrameSize = 1 << 20
)

var ErrNoAPIKey = errors.New("gemini: API key not configured")

type Config struct {
	APIKey string
	URL    string
	Model  string
	// HTTPClient is used for the websocket handshake.
	HTTPClient *http.Client
}

// LiveClient uses the Live API in TEXT modality. Each Complete call opens its
// own session so concurrent calls never share a connection.
type LiveClient struct {
	apiKey     string
	url        string
	modelID    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewLiveClient(cfg Config, logger *zap.Logger) *LiveClient {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveClient{
		apiKey:     cfg.APIKey,
		url:        cfg.URL,
		modelID:    cfg.Model,
		httpClient: cfg.HTTPClient,
		logger:     logger,
	}
}

const systemInstruction = `You interpret voice commands for a workforce management assistant.
Reply with exactly one JSON object: {"intent": string, "entities": object, "confidence": number}.`

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type setupMessage struct {
	Setup struct {
		Model             string `json:"model"`
		GenerationConfig  struct {
			ResponseModalities []string `json:"response_modalities"`
			Temperature        float64  `json:"temperature"`
		} `json:"generation_config"`
		SystemInstruction content `json:"system_instruction"`
	} `json:"setup"`
}

type clientContentMessage struct {
	ClientContent struct {
		Turns        []content `json:"turns"`
		TurnComplete bool      `json:"turn_complete"`
	} `json:"client_content"`
}

// ServerMessage is the subset of server frames the client understands.
type ServerMessage struct {
	SetupComplete *struct{} `json:"setupComplete,omitempty"`
	ServerContent *struct {
		ModelTurn struct {
			Parts []part `json:"parts"`
		} `json:"modelTurn"`
		TurnComplete bool `json:"turnComplete"`
	} `json:"serverContent,omitempty"`
}

// Complete opens a session, sends prompt as one user turn and collects the
// text parts until the server marks the turn complete.
func (c *LiveClient) Complete(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNoAPIKey
	}

	conn, _, err := websocket.Dial(ctx, c.url+"?key="+c.apiKey, &websocket.DialOptions{
		HTTPClient: c.httpClient,
		HTTPHeader: http.Header{"Content-Type": []string{"application/json"}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	conn.SetReadLimit(maxFrameSize)

	var setup setupMessage
	setup.Setup.Model = "models/" + c.modelID
	setup.Setup.GenerationConfig.ResponseModalities = []string{"TEXT"}
	setup.Setup.SystemInstruction = content{Parts: []part{{Text: systemInstruction}}}
	if err := c.send(ctx, conn, setup); err != nil {
		return "", fmt.Errorf("gemini: send setup: %w", err)
	}

	var turn clientContentMessage
	turn.ClientContent.Turns = []content{{Role: "user", Parts: []part{{Text: prompt}}}}
	turn.ClientContent.TurnComplete = true
	if err := c.send(ctx, conn, turn); err != nil {
		return "", fmt.Errorf("gemini: send turn: %w", err)
	}

	var sb strings.Builder
	for {
		msg, err := c.receive(ctx, conn)
		if err != nil {
			return "", fmt.Errorf("gemini: receive: %w", err)
		}
		if msg.ServerContent == nil {
			continue
		}
		for _, p := range msg.ServerContent.ModelTurn.Parts {
			sb.WriteString(p.Text)
		}
		if msg.ServerContent.TurnComplete {
			break
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini: empty turn")
	}
	c.logger.Debug("Gemini turn completed", zap.String("model", c.modelID), zap.Int("chars", sb.Len()))
	return sb.String(), nil
}

func (c *LiveClient) receive(ctx context.Context, conn *websocket.Conn) (*ServerMessage, error) {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return nil, err
	}

	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *LiveClient) send(ctx context.Context, conn *websocket.Conn, msg interface{}) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}
