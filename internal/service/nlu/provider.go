package nlu

import (
	"context"
	"errors"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

var (
	// ErrMalformedResponse marks provider output that is not a valid interpretation.
	ErrMalformedResponse = errors.New("nlu: malformed provider response")
	// ErrLowConfidence marks an interpretation below the acceptance threshold.
	ErrLowConfidence = errors.New("nlu: confidence below threshold")
	// ErrProviderTimeout marks an attempt that outlived its timeout.
	ErrProviderTimeout = errors.New("nlu: provider timed out")
	// ErrUnknownProvider is returned by BuildProvider for an unsupported id.
	ErrUnknownProvider = errors.New("nlu: unknown provider")
)

// Request is what every provider receives for one transcript.
type Request struct {
	Text     string
	Business domain.BusinessContext
	Intents  []string
	// Entities are the extractor's results for Text, computed once per call.
	Entities map[string]domain.Entity
	// RetryAttempts raises an AI provider's retry budget for this call.
	RetryAttempts int
}

// Interpretation is a provider's answer before it becomes a VoiceCommand.
type Interpretation struct {
	Intent     string
	Entities   map[string]domain.Entity
	Confidence float64
}

// Provider turns text into an interpretation.
type Provider interface {
	ID() domain.ProviderID
	Interpret(ctx context.Context, req Request) (Interpretation, error)
}
