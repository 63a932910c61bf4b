package ports

import (
	"context"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

// LanguageModel is a remote text completion backend.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ActionExecutor carries out one side-effecting action.
type ActionExecutor interface {
	Execute(ctx context.Context, action domain.Action) (domain.ActionResult, error)
}

// SecretStore resolves credentials for external providers.
type SecretStore interface {
	GetProviderAPIKey(ctx context.Context, provider string) (string, error)
}

// Broadcaster fans events out to connected UI clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}
