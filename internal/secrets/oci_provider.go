package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/notekeeper/notes/internal/slogging"
	"github.com/oracle/oci-go-sdk/v65/common"
	"github.com/oracle/oci-go-sdk/v65/secrets"
	"github.com/oracle/oci-go-sdk/v65/vault"
)

// secretBundleAPI is the slice of the OCI secrets client the provider uses
type secretBundleAPI interface {
	GetSecretBundleByName(ctx context.Context, request secrets.GetSecretBundleByNameRequest) (secrets.GetSecretBundleByNameResponse, error)
}

// secretListAPI is the slice of the OCI vaults client the provider uses
type secretListAPI interface {
	ListSecrets(ctx context.Context, request vault.ListSecretsRequest) (vault.ListSecretsResponse, error)
}

// OCIProvider retrieves secrets from OCI Vault. With a secret name it reads
// one JSON secret holding every key; without one each key is its own secret.
type OCIProvider struct {
	secretsClient secretBundleAPI
	vaultClient   secretListAPI
	compartmentID string
	vaultID       string
	secretName    string
	cache         jsonSecretCache
}

// NewOCIProvider creates a new OCI Vault secrets provider
func NewOCIProvider(ctx context.Context, compartmentID, vaultID, secretName string) (*OCIProvider, error) {
	// ~/.oci/config or instance principal
	configProvider := common.DefaultConfigProvider()

	secretsClient, err := secrets.NewSecretsClientWithConfigurationProvider(configProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCI secrets client: %w", err)
	}

	vaultClient, err := vault.NewVaultsClientWithConfigurationProvider(configProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCI vault client: %w", err)
	}

	slogging.Get().Info("OCI Vault secrets provider initialized for vault: %s in compartment: %s", vaultID, compartmentID)

	return &OCIProvider{
		secretsClient: secretsClient,
		vaultClient:   vaultClient,
		compartmentID: compartmentID,
		vaultID:       vaultID,
		secretName:    secretName,
	}, nil
}

// GetSecret retrieves a secret value by key
func (p *OCIProvider) GetSecret(ctx context.Context, key string) (string, error) {
	if p.secretName != "" {
		return p.cache.get(ctx, key, p.loadJSONSecret)
	}

	value, err := p.readBundle(ctx, key)
	if err != nil {
		return "", err
	}
	return string(value), nil
}

// ListSecrets returns all secret keys available in the vault
func (p *OCIProvider) ListSecrets(ctx context.Context) ([]string, error) {
	if p.secretName != "" {
		return p.cache.keys(ctx, p.loadJSONSecret)
	}

	request := vault.ListSecretsRequest{
		CompartmentId: common.String(p.compartmentID),
		VaultId:       common.String(p.vaultID),
	}

	var keys []string
	for {
		response, err := p.vaultClient.ListSecrets(ctx, request)
		if err != nil {
			return nil, fmt.Errorf("failed to list OCI secrets: %w", err)
		}

		for _, secret := range response.Items {
			if secret.SecretName != nil {
				keys = append(keys, *secret.SecretName)
			}
		}

		if response.OpcNextPage == nil {
			break
		}
		request.Page = response.OpcNextPage
	}

	return keys, nil
}

// Name returns the provider name
func (p *OCIProvider) Name() string {
	return string(ProviderTypeOCI)
}

// Close releases resources
func (p *OCIProvider) Close() error {
	return nil
}

// InvalidateCache clears the cached secrets
func (p *OCIProvider) InvalidateCache() {
	p.cache.invalidate()
}

// readBundle fetches and base64-decodes the current version of a named secret
func (p *OCIProvider) readBundle(ctx context.Context, name string) ([]byte, error) {
	response, err := p.secretsClient.GetSecretBundleByName(ctx, secrets.GetSecretBundleByNameRequest{
		SecretName: common.String(name),
		VaultId:    common.String(p.vaultID),
	})
	if err != nil {
		if serviceErr, ok := common.IsServiceError(err); ok && serviceErr.GetHTTPStatusCode() == 404 {
			return nil, fmt.Errorf("%w: OCI secret '%s'", ErrSecretNotFound, name)
		}
		return nil, fmt.Errorf("failed to get OCI secret bundle %s: %w", name, err)
	}

	content, ok := response.SecretBundleContent.(secrets.Base64SecretBundleContentDetails)
	if !ok || content.Content == nil {
		return nil, fmt.Errorf("unexpected secret content type for %s", name)
	}

	decoded, err := base64.StdEncoding.DecodeString(*content.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret content for %s: %w", name, err)
	}
	return decoded, nil
}

func (p *OCIProvider) loadJSONSecret(ctx context.Context) (map[string]string, error) {
	decoded, err := p.readBundle(ctx, p.secretName)
	if err != nil {
		return nil, err
	}

	var values map[string]string
	if err := json.Unmarshal(decoded, &values); err != nil {
		return nil, fmt.Errorf("failed to parse OCI secret as JSON: %w", err)
	}

	slogging.Get().Info("Loaded %d secrets from OCI Vault", len(values))
	return values, nil
}
