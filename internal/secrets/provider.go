// Package secrets resolves connection secrets from environment variables,
// AWS Secrets Manager or OCI Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/notekeeper/notes/internal/config"
	"github.com/notekeeper/notes/internal/slogging"
)

// Common errors
var (
	ErrSecretNotFound     = errors.New("secret not found")
	ErrProviderNotEnabled = errors.New("secrets provider not enabled")
	ErrInvalidConfig      = errors.New("invalid secrets provider configuration")
)

// Provider defines the interface for secrets providers
type Provider interface {
	// GetSecret retrieves a secret value by its key.
	// Returns ErrSecretNotFound if the secret doesn't exist.
	GetSecret(ctx context.Context, key string) (string, error)

	// ListSecrets returns the available secret keys
	ListSecrets(ctx context.Context) ([]string, error)

	// Name returns the provider's identifier (e.g., "env", "aws", "oci")
	Name() string

	// Close releases any resources held by the provider
	Close() error
}

// ProviderType represents the type of secrets provider
type ProviderType string

// Provider type constants
const (
	ProviderTypeEnv ProviderType = "env"
	ProviderTypeAWS ProviderType = "aws"
	ProviderTypeOCI ProviderType = "oci"
)

// Standard secret keys
const (
	KeyDatabaseURL = "database_url"
	KeyRedisURL    = "redis_url"
)

// NewProvider creates a new secrets provider based on configuration.
// If no provider is configured, it defaults to the environment variable provider.
func NewProvider(ctx context.Context, cfg *config.SecretsConfig) (Provider, error) {
	logger := slogging.Get()

	if cfg == nil || cfg.Provider == "" {
		logger.Info("No secrets provider configured, using environment variables")
		return NewEnvProvider(), nil
	}

	providerType := ProviderType(cfg.Provider)
	logger.Info("Initializing secrets provider: %s", providerType)

	switch providerType {
	case ProviderTypeEnv:
		return NewEnvProvider(), nil

	case ProviderTypeAWS:
		if cfg.AWSRegion == "" || cfg.AWSSecretName == "" {
			return nil, fmt.Errorf("%w: AWS secrets provider requires region and secret name", ErrInvalidConfig)
		}
		return NewAWSProvider(ctx, cfg.AWSRegion, cfg.AWSSecretName)

	case ProviderTypeOCI:
		if cfg.OCICompartmentID == "" || cfg.OCIVaultID == "" {
			return nil, fmt.Errorf("%w: OCI secrets provider requires compartment ID and vault ID", ErrInvalidConfig)
		}
		return NewOCIProvider(ctx, cfg.OCICompartmentID, cfg.OCIVaultID, cfg.OCISecretName)

	default:
		return nil, fmt.Errorf("%w: unknown provider type: %s", ErrInvalidConfig, cfg.Provider)
	}
}

// ResolveConnectionStrings fills empty store URLs from the provider.
// A URL already present in configuration always wins.
func ResolveConnectionStrings(ctx context.Context, p Provider, cfg *config.Config) error {
	logger := slogging.Get()

	if cfg.Database.URL == "" && cfg.Database.URLSecret != "" {
		value, err := p.GetSecret(ctx, cfg.Database.URLSecret)
		if err != nil {
			return fmt.Errorf("failed to resolve database url from %s provider: %w", p.Name(), err)
		}
		cfg.Database.URL = value
		logger.Info("Database url resolved from %s secrets provider", p.Name())
	}

	if cfg.Redis.URL == "" {
		value, err := p.GetSecret(ctx, KeyRedisURL)
		switch {
		case err == nil:
			cfg.Redis.URL = value
			logger.Info("Redis url resolved from %s secrets provider", p.Name())
		case !errors.Is(err, ErrSecretNotFound):
			return fmt.Errorf("failed to resolve redis url from %s provider: %w", p.Name(), err)
		}
	}

	return nil
}

// jsonSecretCache holds the key/value pairs of a single JSON-encoded secret,
// loaded once on first use
type jsonSecretCache struct {
	mu     sync.RWMutex
	values map[string]string
	loaded bool
}

func (c *jsonSecretCache) get(ctx context.Context, key string, load func(context.Context) (map[string]string, error)) (string, error) {
	if err := c.ensure(ctx, load); err != nil {
		return "", err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.values[key]
	if !ok {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func (c *jsonSecretCache) keys(ctx context.Context, load func(context.Context) (map[string]string, error)) ([]string, error) {
	if err := c.ensure(ctx, load); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.values))
	for key := range c.values {
		keys = append(keys, key)
	}
	return keys, nil
}

func (c *jsonSecretCache) ensure(ctx context.Context, load func(context.Context) (map[string]string, error)) error {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return nil
	}

	values, err := load(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.values = values
	c.loaded = true
	c.mu.Unlock()
	return nil
}

func (c *jsonSecretCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = nil
	c.loaded = false
}
