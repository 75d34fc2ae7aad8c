package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"careerai/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets map[string]*VaultSecret

func (f fakeSecrets) GetSecretV2(path string) (*VaultSecret, error) {
	if s, ok := f[path]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("secret not found at path: %s", path)
}

func secret(data map[string]any) *VaultSecret {
	return &VaultSecret{Data: data, Version: 3}
}

func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       any
		expected    int64
		expectError bool
	}{
		{name: "int64 value", input: int64(42), expected: 42},
		{name: "float64 value", input: float64(42.0), expected: 42},
		{name: "string value", input: "42", expected: 42},
		{name: "invalid string value", input: "not-a-number", expectError: true},
		{name: "unsupported type", input: []string{"42"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, "secret/data/x")
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseKVv2(t *testing.T) {
	s, err := parseKVv2(map[string]any{
		"data":     map[string]any{"api_key": "k"},
		"metadata": map[string]any{"version": "7"},
	}, "secret/data/gemini")
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.Version)
	assert.Equal(t, "k", s.Data["api_key"])

	_, err = parseKVv2(map[string]any{"api_key": "k"}, "secret/gemini")
	assert.ErrorContains(t, err, "not in KVv2 format")
}

func TestApplySecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Vault.Secrets = VaultSecrets{
		APIKeys:    "secret/data/api",
		GeminiKey:  "secret/data/gemini",
		StorageDSN: "secret/data/db",
		S3:         "secret/data/s3",
		TLSCerts:   "secret/data/tls",
	}
	reader := fakeSecrets{
		"secret/data/api":    secret(map[string]any{"keys": "a, b ,,c"}),
		"secret/data/gemini": secret(map[string]any{"api_key": "gemini-secret-key"}),
		"secret/data/db":     secret(map[string]any{"dsn": "postgres://u:p@db/careerai"}),
		"secret/data/s3":     secret(map[string]any{"access_key": "AK", "secret_key": "SK"}),
		"secret/data/tls":    secret(map[string]any{"cert": "CERT", "key": "KEY"}),
	}

	require.NoError(t, applySecrets(reader, cfg, errors.NewNop()))

	assert.Equal(t, []string{"a", "b", "c"}, cfg.Server.APIKeys)
	assert.Equal(t, "gemini-secret-key", cfg.AI.APIKey)
	assert.Equal(t, "postgres://u:p@db/careerai", cfg.Storage.DSN)
	assert.Equal(t, "AK", cfg.Storage.S3.AccessKey)
	assert.Equal(t, "SK", cfg.Storage.S3.SecretKey)
	assert.Equal(t, "CERT", cfg.Server.TLS.CertContent)
	assert.Equal(t, "KEY", cfg.Server.TLS.KeyContent)
	assert.Empty(t, cfg.Server.TLS.CAContent)
}

func TestApplySecretsSkipsEmptyPaths(t *testing.T) {
	cfg := &Config{}
	cfg.AI.APIKey = "from-env"
	require.NoError(t, applySecrets(fakeSecrets{}, cfg, nil))
	assert.Equal(t, "from-env", cfg.AI.APIKey)
}

func TestApplySecretsErrors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		cfg := &Config{}
		cfg.Vault.Secrets.GeminiKey = "secret/data/nope"
		err := applySecrets(fakeSecrets{}, cfg, nil)
		assert.ErrorContains(t, err, "gemini key")
	})

	t.Run("missing key", func(t *testing.T) {
		cfg := &Config{}
		cfg.Vault.Secrets.S3 = "secret/data/s3"
		reader := fakeSecrets{"secret/data/s3": secret(map[string]any{"access_key": "AK"})}
		err := applySecrets(reader, cfg, nil)
		assert.ErrorContains(t, err, "secret_key")
	})

	t.Run("non-string value", func(t *testing.T) {
		cfg := &Config{}
		cfg.Vault.Secrets.StorageDSN = "secret/data/db"
		reader := fakeSecrets{"secret/data/db": secret(map[string]any{"dsn": 5})}
		err := applySecrets(reader, cfg, nil)
		assert.ErrorContains(t, err, "is not a string")
	})
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "abcd****6789", maskSecret("abcdef0123456789"))
	assert.Equal(t, "****", maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))
}

func TestResolveVaultToken(t *testing.T) {
	t.Run("token from config", func(t *testing.T) {
		token, err := resolveVaultToken(VaultConfig{Token: "direct"})
		require.NoError(t, err)
		assert.Equal(t, "direct", token)
	})

	t.Run("token from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token")
		require.NoError(t, os.WriteFile(path, []byte("  from-file\n"), 0o600))
		token, err := resolveVaultToken(VaultConfig{TokenFile: path})
		require.NoError(t, err)
		assert.Equal(t, "from-file", token)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{TokenFile: "/nonexistent/token"})
		assert.ErrorContains(t, err, "failed to read vault token file")
	})

	t.Run("no token", func(t *testing.T) {
		_, err := resolveVaultToken(VaultConfig{})
		assert.ErrorContains(t, err, "vault token is required")
	})
}

func TestApplyVaultSecretsDisabled(t *testing.T) {
	cfg := &Config{}
	assert.NoError(t, ApplyVaultSecrets(cfg, errors.NewNop()))
}
