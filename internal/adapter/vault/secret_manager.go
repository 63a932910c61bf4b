package vault

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/vault/api"

	"github.com/seu-repo/workforce-voice/internal/ports"
)

const defaultMount = "secret"

// SecretManager reads KV v2 secrets. Provider keys live at
// <mount>/data/ai/<provider> under the "api_key" field.
type SecretManager struct {
	client *api.Client
	mount  string
}

func NewSecretManager(address, token, mount string) (*SecretManager, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("vault: new client: %w", err)
	}

	client.SetToken(token)

	if mount = strings.Trim(mount, "/"); mount == "" {
		mount = defaultMount
	}
	return &SecretManager{client: client, mount: mount}, nil
}

// GetProviderAPIKey implements ports.SecretStore.
func (sm *SecretManager) GetProviderAPIKey(ctx context.Context, provider string) (string, error) {
	return sm.readField(ctx, "ai/"+provider, "api_key")
}

// GetDatabaseURL returns the registry database connection string.
func (sm *SecretManager) GetDatabaseURL(ctx context.Context) (string, error) {
	return sm.readField(ctx, "database", "connection_string")
}

func (sm *SecretManager) readField(ctx context.Context, path, field string) (string, error) {
	full := sm.mount + "/data/" + path
	secret, err := sm.client.Logical().ReadWithContext(ctx, full)
	if err != nil {
		return "", fmt.Errorf("vault: read %s: %w", full, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault: %s: %w", full, ports.ErrNotFound)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault: %s: %w", full, ports.ErrNotFound)
	}
	value, ok := data[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("vault: %s has no %q: %w", full, field, ports.ErrNotFound)
	}
	return value, nil
}
