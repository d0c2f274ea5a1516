package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Authentication modes supported towards Coiote DM.
const (
	AuthModeBasic       = "basic"
	AuthModeCertificate = "certificate"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variable.
type Config struct {
	// Coiote DM Configurations
	CoioteRestURI         string `mapstructure:"COIOTE_REST_URI" validate:"required,url"`
	AuthMode              string `mapstructure:"COIOTE_AUTH_MODE" validate:"oneof=basic certificate"`
	CoioteUsername        string `mapstructure:"COIOTE_USERNAME"`
	CoiotePassword        string `mapstructure:"COIOTE_PASSWORD"`
	PasswordEncrypted     bool   `mapstructure:"COIOTE_PASSWORD_ENCRYPTED"`
	CoioteCertFile        string `mapstructure:"COIOTE_CERT_FILE"`
	CoioteKeyFile         string `mapstructure:"COIOTE_KEY_FILE"`
	CoioteSecretName      string `mapstructure:"COIOTE_SECRET_NAME"`
	ResolveDeviceID       bool   `mapstructure:"COIOTE_RESOLVE_DEVICE_ID"`
	RequestTimeoutSeconds int    `mapstructure:"REQUEST_TIMEOUT_SECONDS" validate:"min=1,max=300"`

	// Task Template Naming
	TemplatePrefix string `mapstructure:"TEMPLATE_PREFIX" validate:"required"`
	TemplateSuffix string `mapstructure:"TEMPLATE_SUFFIX"`

	// Device Id Cache
	RedisURL              string `mapstructure:"REDIS_URL"`
	DeviceCacheTTLMinutes int    `mapstructure:"DEVICE_CACHE_TTL_MINUTES" validate:"min=1"`

	// Server Configurations
	ServerAddress string `mapstructure:"SERVER_ADDRESS" validate:"required"`
	TLSCertFile   string `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile    string `mapstructure:"TLS_KEY_FILE"`

	// Security/Encryption Configurations
	JWTSecret            string `mapstructure:"JWT_SECRET" validate:"required"`
	EncryptionKey        string `mapstructure:"ENCRYPTION_KEY" validate:"required,len=64,hexadecimal"`
	AdminUser            string `mapstructure:"ADMIN_USER" validate:"required"`
	AdminHash            string `mapstructure:"ADMIN_HASH" validate:"required"`
	SessionDurationHours int    `mapstructure:"SESSION_DURATION_HOURS" validate:"min=1"`

	LogLevel string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Set Defaults
	v.SetDefault("COIOTE_REST_URI", "")
	v.SetDefault("COIOTE_AUTH_MODE", AuthModeBasic)
	v.SetDefault("COIOTE_USERNAME", "")
	v.SetDefault("COIOTE_PASSWORD", "")
	v.SetDefault("COIOTE_PASSWORD_ENCRYPTED", false)
	v.SetDefault("COIOTE_CERT_FILE", "")
	v.SetDefault("COIOTE_KEY_FILE", "")
	v.SetDefault("COIOTE_SECRET_NAME", "")
	v.SetDefault("COIOTE_RESOLVE_DEVICE_ID", false)
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 10)
	v.SetDefault("TEMPLATE_PREFIX", "AWS")
	v.SetDefault("TEMPLATE_SUFFIX", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DEVICE_CACHE_TTL_MINUTES", 60)
	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("TLS_CERT_FILE", "")
	v.SetDefault("TLS_KEY_FILE", "")
	v.SetDefault("JWT_SECRET", "default-insecure-secret-change-me")
	v.SetDefault("ENCRYPTION_KEY", "1234567890123456789012345678901212345678901234567890123456789012")
	v.SetDefault("ADMIN_USER", "admin")
	v.SetDefault("ADMIN_HASH", "$2a$10$BST/uOdLLXUyqO4fN.b9cuwVwoXEJWWFzpc4iirHiu3GcgbuJqtdu")
	v.SetDefault("SESSION_DURATION_HOURS", 24)
	v.SetDefault("LOG_LEVEL", "info")

	// 2. Read app.yaml if exists
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read app.yaml: %w", err)
		}
	}

	// 3. Read .env if exists (overriding app.yaml)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	_ = v.MergeInConfig()

	// 4. Allow Viper to read Environment Variables (highest priority)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Validate checks the configuration once at startup.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// A secret name means credentials are fetched from Secrets Manager instead
	if c.CoioteSecretName != "" {
		return nil
	}

	switch c.AuthMode {
	case AuthModeBasic:
		if c.CoioteUsername == "" || c.CoiotePassword == "" {
			return errors.New("invalid configuration: COIOTE_USERNAME and COIOTE_PASSWORD are required for basic auth")
		}
	case AuthModeCertificate:
		if c.CoioteCertFile == "" || c.CoioteKeyFile == "" {
			return errors.New("invalid configuration: COIOTE_CERT_FILE and COIOTE_KEY_FILE are required for certificate auth")
		}
	}
	return nil
}

// RestBaseURI returns the Coiote DM v3 REST API root.
func (c *Config) RestBaseURI() string {
	return strings.TrimSuffix(c.CoioteRestURI, "/") + "/api/coiotedm/v3"
}

// RequestTimeout returns the per-call timeout for outbound requests.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DeviceCacheTTL returns how long resolved device ids are cached.
func (c *Config) DeviceCacheTTL() time.Duration {
	return time.Duration(c.DeviceCacheTTLMinutes) * time.Minute
}
