package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lwm2mbridge/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Keys expected in the secret JSON document.
const (
	usernameKey       = "username"
	passwordKey       = "password"
	certificatePemKey = "certificatePem"
	privateKeyKey     = "privateKey"
)

// SecretsAPI is the part of the Secrets Manager client the provider uses.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManagerProvider reads Coiote DM credentials from an AWS Secrets Manager secret.
type SecretsManagerProvider struct {
	client     SecretsAPI
	secretName string
	mode       string
}

// NewSecretsManagerProvider creates a provider using the default AWS credential chain.
func NewSecretsManagerProvider(ctx context.Context, secretName, mode string) (*SecretsManagerProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewSecretsManagerProviderWithClient(secretsmanager.NewFromConfig(awsCfg), secretName, mode), nil
}

// NewSecretsManagerProviderWithClient creates a provider around an existing client.
func NewSecretsManagerProviderWithClient(client SecretsAPI, secretName, mode string) *SecretsManagerProvider {
	return &SecretsManagerProvider{client: client, secretName: secretName, mode: mode}
}

func (p *SecretsManagerProvider) Fetch(ctx context.Context) (Credentials, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretName),
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("Coiote DM credentials not found in Secrets Manager: %w", err)
	}
	if out.SecretString == nil {
		return Credentials{}, errors.New("Coiote DM credentials are not set up correctly")
	}

	var secret map[string]string
	if err := json.Unmarshal([]byte(*out.SecretString), &secret); err != nil {
		return Credentials{}, fmt.Errorf("Coiote DM credentials are not set up correctly: %w", err)
	}

	required := []string{usernameKey, passwordKey}
	if p.mode == config.AuthModeCertificate {
		required = []string{certificatePemKey, privateKeyKey}
	}
	for _, key := range required {
		if _, ok := secret[key]; !ok {
			return Credentials{}, fmt.Errorf("Secret in Secrets Manager does not have all required keys (%s)", strings.Join(required, ", "))
		}
	}

	if p.mode == config.AuthModeCertificate {
		return Credentials{
			CertificatePEM: []byte(secret[certificatePemKey]),
			PrivateKeyPEM:  []byte(secret[privateKeyKey]),
		}, nil
	}
	return Credentials{Username: secret[usernameKey], Password: secret[passwordKey]}, nil
}
