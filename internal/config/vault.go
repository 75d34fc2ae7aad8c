package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"careerai/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KV v2 paths. Empty paths are skipped.
type VaultSecrets struct {
	APIKeys    string `mapstructure:"apiKeys"`    // key "keys", comma separated
	GeminiKey  string `mapstructure:"geminiKey"`  // key "api_key"
	StorageDSN string `mapstructure:"storageDsn"` // key "dsn"
	S3         string `mapstructure:"s3"`         // keys "access_key", "secret_key"
	TLSCerts   string `mapstructure:"tlsCerts"`   // keys "cert", "key", "ca"
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// SecretReader reads KV v2 secrets. VaultClient is the production reader.
type SecretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient creates a connected Vault client. It returns nil when
// Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if !config.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}
	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	logger.Info("Connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}
	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}
	return parseKVv2(secret.Data, path)
}

// parseKVv2 unpacks the data/metadata envelope of a KV v2 read.
func parseKVv2(raw map[string]any, path string) (*VaultSecret, error) {
	data, ok := raw["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	metadata, ok := raw["metadata"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return nil, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	version, err := parseVersionValue(versionRaw, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

// parseVersionValue parses version value from various types
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return s, nil
}

func maskSecret(s string) string {
	switch {
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	case len(s) > 0:
		return "****"
	}
	return ""
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}
	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize vault client: %w", err)
	}
	return applySecrets(client, config, logger)
}

// applySecrets reads every configured secret path and folds the values
// into config.
func applySecrets(reader SecretReader, config *Config, logger *errors.Logger) error {
	paths := config.Vault.Secrets
	steps := []struct {
		name  string
		path  string
		apply func(*VaultSecret, string) error
	}{
		{"api keys", paths.APIKeys, func(s *VaultSecret, p string) error {
			value, err := stringField(s, p, "keys")
			if err != nil {
				return err
			}
			if keys := splitAndTrim(value); len(keys) > 0 {
				config.Server.APIKeys = keys
			}
			return nil
		}},
		{"gemini key", paths.GeminiKey, func(s *VaultSecret, p string) error {
			value, err := stringField(s, p, "api_key")
			if err != nil {
				return err
			}
			logger.Debug("Gemini API key retrieved from Vault", "masked_value", maskSecret(value))
			if value != "" {
				config.AI.APIKey = value
			}
			return nil
		}},
		{"storage dsn", paths.StorageDSN, func(s *VaultSecret, p string) error {
			value, err := stringField(s, p, "dsn")
			if err != nil {
				return err
			}
			config.Storage.DSN = value
			return nil
		}},
		{"s3 credentials", paths.S3, func(s *VaultSecret, p string) error {
			access, err := stringField(s, p, "access_key")
			if err != nil {
				return err
			}
			secret, err := stringField(s, p, "secret_key")
			if err != nil {
				return err
			}
			config.Storage.S3.AccessKey = access
			config.Storage.S3.SecretKey = secret
			return nil
		}},
		{"tls certificates", paths.TLSCerts, func(s *VaultSecret, _ string) error {
			loaded := 0
			loaded += loadSingleCertificate(s, "cert", &config.Server.TLS.CertContent)
			loaded += loadSingleCertificate(s, "key", &config.Server.TLS.KeyContent)
			loaded += loadSingleCertificate(s, "ca", &config.Server.TLS.CAContent)
			logger.Debug("TLS material loaded from Vault", "certificates_loaded", loaded)
			return nil
		}},
	}

	for _, step := range steps {
		if step.path == "" {
			continue
		}
		secret, err := reader.GetSecretV2(step.path)
		if err != nil {
			logger.LogError(err, "Failed to read secret from Vault", "secret", step.name, "path", step.path)
			return fmt.Errorf("failed to load %s from vault: %w", step.name, err)
		}
		if err := step.apply(secret, step.path); err != nil {
			return fmt.Errorf("failed to load %s from vault: %w", step.name, err)
		}
		logger.Info("Secret applied from Vault", "secret", step.name, "version", secret.Version)
	}
	return nil
}

// loadSingleCertificate copies a PEM field into target when present
func loadSingleCertificate(secret *VaultSecret, key string, target *string) int {
	if content, ok := secret.Data[key].(string); ok && content != "" {
		*target = content
		return 1
	}
	return 0
}
