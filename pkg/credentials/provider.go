// Package credentials supplies the Coiote DM credentials for the configured
// authentication mode, either from local configuration or Secrets Manager.
package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"lwm2mbridge/pkg/coiote"
	"lwm2mbridge/pkg/config"
)

// Credentials holds either a username/password pair or a client certificate.
type Credentials struct {
	Username       string
	Password       string
	CertificatePEM []byte
	PrivateKeyPEM  []byte
}

// Provider fetches Coiote DM credentials.
type Provider interface {
	Fetch(ctx context.Context) (Credentials, error)
}

// StaticProvider reads credentials from the application configuration.
type StaticProvider struct {
	mode              string
	username          string
	password          string
	passwordEncrypted bool
	encryptionKey     string
	certFile          string
	keyFile           string
}

// NewStaticProvider creates a provider backed by cfg.
func NewStaticProvider(cfg *config.Config) *StaticProvider {
	return &StaticProvider{
		mode:              cfg.AuthMode,
		username:          cfg.CoioteUsername,
		password:          cfg.CoiotePassword,
		passwordEncrypted: cfg.PasswordEncrypted,
		encryptionKey:     cfg.EncryptionKey,
		certFile:          cfg.CoioteCertFile,
		keyFile:           cfg.CoioteKeyFile,
	}
}

func (p *StaticProvider) Fetch(ctx context.Context) (Credentials, error) {
	if p.mode == config.AuthModeCertificate {
		cert, err := os.ReadFile(p.certFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read client certificate: %w", err)
		}
		key, err := os.ReadFile(p.keyFile)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read client key: %w", err)
		}
		return Credentials{CertificatePEM: cert, PrivateKeyPEM: key}, nil
	}

	password := p.password
	if p.passwordEncrypted {
		decrypted, err := DecryptPassword(password, p.encryptionKey)
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to decrypt Coiote DM password: %w", err)
		}
		password = decrypted
	}
	return Credentials{Username: p.username, Password: password}, nil
}

// NewProvider picks Secrets Manager when a secret name is configured and the
// static configuration otherwise.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	if cfg.CoioteSecretName == "" {
		return NewStaticProvider(cfg), nil
	}

	provider, err := NewSecretsManagerProvider(ctx, cfg.CoioteSecretName, cfg.AuthMode)
	if err != nil {
		return nil, err
	}
	slog.Info("Using Secrets Manager credentials", "component", "Credentials", "secret", cfg.CoioteSecretName)
	return provider, nil
}

// Authenticator fetches credentials and builds the authenticator for mode.
func Authenticator(ctx context.Context, provider Provider, mode string) (coiote.Authenticator, error) {
	creds, err := provider.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	switch mode {
	case config.AuthModeBasic:
		return coiote.NewBasicAuth(creds.Username, creds.Password), nil
	case config.AuthModeCertificate:
		return coiote.NewCertificateAuth(creds.CertificatePEM, creds.PrivateKeyPEM)
	default:
		return nil, fmt.Errorf("unsupported authentication mode %q", mode)
	}
}
