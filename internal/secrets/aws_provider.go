package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/notekeeper/notes/internal/slogging"
)

// secretValueAPI is the slice of the Secrets Manager client the provider uses
type secretValueAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider retrieves secrets from AWS Secrets Manager.
// All keys live in a single secret whose value is a JSON object.
type AWSProvider struct {
	client     secretValueAPI
	secretName string
	region     string
	cache      jsonSecretCache
}

// NewAWSProvider creates a new AWS Secrets Manager provider
func NewAWSProvider(ctx context.Context, region, secretName string) (*AWSProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	slogging.Get().Info("AWS Secrets Manager provider initialized for secret: %s in region: %s", secretName, region)
	return newAWSProviderWithClient(secretsmanager.NewFromConfig(cfg), region, secretName), nil
}

func newAWSProviderWithClient(client secretValueAPI, region, secretName string) *AWSProvider {
	return &AWSProvider{
		client:     client,
		secretName: secretName,
		region:     region,
	}
}

// GetSecret retrieves a specific key from the AWS secret
func (p *AWSProvider) GetSecret(ctx context.Context, key string) (string, error) {
	return p.cache.get(ctx, key, p.loadSecrets)
}

// ListSecrets returns all keys in the AWS secret
func (p *AWSProvider) ListSecrets(ctx context.Context) ([]string, error) {
	return p.cache.keys(ctx, p.loadSecrets)
}

// Name returns the provider name
func (p *AWSProvider) Name() string {
	return string(ProviderTypeAWS)
}

// Close releases resources (no-op for AWS provider)
func (p *AWSProvider) Close() error {
	return nil
}

// InvalidateCache forces a reload on next access
func (p *AWSProvider) InvalidateCache() {
	p.cache.invalidate()
}

func (p *AWSProvider) loadSecrets(ctx context.Context) (map[string]string, error) {
	result, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: AWS secret '%s' not found", ErrSecretNotFound, p.secretName)
		}
		return nil, fmt.Errorf("failed to retrieve AWS secret: %w", err)
	}

	if result.SecretString == nil {
		return nil, fmt.Errorf("AWS secret '%s' has no string value", p.secretName)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(*result.SecretString), &values); err != nil {
		return nil, fmt.Errorf("failed to parse AWS secret as JSON: %w", err)
	}

	slogging.Get().Info("Loaded %d secrets from AWS Secrets Manager", len(values))
	return values, nil
}
