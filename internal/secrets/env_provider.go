package secrets

import (
	"context"
	"os"
	"strings"

	"github.com/notekeeper/notes/internal/slogging"
)

// EnvSecretPrefix prefixes every environment variable read by EnvProvider
const EnvSecretPrefix = "NOTES_SECRET_"

// EnvProvider retrieves secrets from environment variables.
// Key "database_url" maps to NOTES_SECRET_DATABASE_URL.
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates a new environment variable secrets provider
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{prefix: EnvSecretPrefix}
}

// GetSecret retrieves a secret from environment variables
func (p *EnvProvider) GetSecret(_ context.Context, key string) (string, error) {
	envKey := p.envKey(key)
	value := os.Getenv(envKey)
	if value == "" {
		slogging.Get().Debug("Secret not found in environment: %s", envKey)
		return "", ErrSecretNotFound
	}
	return value, nil
}

// ListSecrets returns the keys of all prefixed environment variables
func (p *EnvProvider) ListSecrets(_ context.Context) ([]string, error) {
	var keys []string
	for _, env := range os.Environ() {
		name, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(name, p.prefix) {
			keys = append(keys, strings.ToLower(strings.TrimPrefix(name, p.prefix)))
		}
	}
	return keys, nil
}

// Name returns the provider name
func (p *EnvProvider) Name() string {
	return string(ProviderTypeEnv)
}

// Close is a no-op for the environment provider
func (p *EnvProvider) Close() error {
	return nil
}

func (p *EnvProvider) envKey(key string) string {
	return p.prefix + strings.ToUpper(key)
}
