package action

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/workforce-voice/internal/domain"
	"github.com/seu-repo/workforce-voice/internal/infrastructure/circuitbreaker"
)

// HTTPExecutor performs api_call actions against the business system.
type HTTPExecutor struct {
	baseURL string
	client  *circuitbreaker.HTTPClient
	headers map[string]string
	log     *zap.Logger
}

func NewHTTPExecutor(baseURL string, client *circuitbreaker.HTTPClient, headers map[string]string, log *zap.Logger) *HTTPExecutor {
	return &HTTPExecutor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		headers: headers,
		log:     log,
	}
}

func (e *HTTPExecutor) Execute(ctx context.Context, action domain.Action) (domain.ActionResult, error) {
	result := domain.ActionResult{ActionID: action.ID, Kind: string(action.Kind)}
	if action.Kind != domain.ActionAPICall {
		return result, fmt.Errorf("http executor: unsupported action kind %q", action.Kind)
	}
	if action.Endpoint == "" {
		return result, fmt.Errorf("http executor: action %s has no endpoint", action.ID)
	}

	method := strings.ToUpper(action.Method)
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if action.Body != "" {
		body = bytes.NewBufferString(action.Body)
	}

	url := e.baseURL + "/" + strings.TrimLeft(action.Endpoint, "/")
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return result, fmt.Errorf("http executor: build request: %w", err)
	}
	if action.Body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", action.ID)
	for k, v := range e.headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return result, fmt.Errorf("http executor: %s %s: %w", method, action.Endpoint, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	result.StatusCode = resp.StatusCode
	if resp.StatusCode >= 300 {
		result.Error = fmt.Sprintf("business system returned %d", resp.StatusCode)
		return result, nil
	}

	e.log.Debug("Action executed",
		zap.String("action_id", action.ID),
		zap.String("method", method),
		zap.String("endpoint", action.Endpoint),
		zap.Int("status", resp.StatusCode),
	)
	result.Success = true
	return result, nil
}
