package ports

import (
	"context"
	"errors"
	"time"

	"github.com/seu-repo/workforce-voice/internal/domain"
)

// ErrNotFound is returned by repositories and caches when a key is absent.
var ErrNotFound = errors.New("not found")

// CommandRepository persists registry definitions.
type CommandRepository interface {
	List(ctx context.Context) ([]domain.CommandDefinition, error)
	FindByID(ctx context.Context, id string) (*domain.CommandDefinition, error)
	Save(ctx context.Context, def *domain.CommandDefinition) error
	Delete(ctx context.Context, id string) error
}

// Cache is a string key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping() error
	Close() error
}

// MessageQueue publishes and consumes raw payloads on named subjects.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
