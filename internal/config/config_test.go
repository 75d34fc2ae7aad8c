package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "app:\n  logLevel: warn\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 4, cfg.AI.MaxToolRounds)
	assert.Equal(t, "none", cfg.Tools.Resumes.Fallback)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "warn", cfg.App.LogLevel)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
	assert.Equal(t, cfg.Observability.ServiceInstance, cfg.Queue.ConsumerID)
	assert.Nil(t, cfg.Prompts.Overrides)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	promptDir := filepath.Join(dir, "prompts")
	require.NoError(t, os.Mkdir(promptDir, 0o755))
	writeFile(t, promptDir, "searchJobs.tmpl", "Find jobs for {{ query }}")

	path := writeFile(t, dir, "config.yaml", `
ai:
  model: gemini-1.5-pro
  flows:
    rankResumes:
      model: gemini-2.5-pro
      temperature: 0.1
      maxToolRounds: 2
tools:
  resumes:
    fallback: on-empty
storage:
  driver: sqlite
  path: `+filepath.Join(dir, "resumes.db")+`
prompts:
  dir: `+promptDir+`
`)
	t.Setenv("CAREERAI_SERVER_PORT", "9191")
	t.Setenv("CAREERAI_SERVER_APIKEYS", "k1, k2")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "gemini-1.5-pro", cfg.AI.Model)
	assert.Equal(t, "on-empty", cfg.Tools.Resumes.Fallback)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "9191", cfg.Server.Port)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Server.APIKeys)
	assert.Equal(t, "Find jobs for {{ query }}", cfg.Prompts.Overrides["searchJobs"].Template)

	rank := cfg.FlowAIConfig("rankResumes")
	assert.Equal(t, "gemini-2.5-pro", rank.Model)
	assert.InDelta(t, 0.1, rank.Temperature, 1e-6)
	assert.Equal(t, 2, rank.MaxToolRounds)
	assert.Equal(t, cfg.AI.Timeout, rank.Timeout)

	other := cfg.FlowAIConfig("searchJobs")
	assert.Equal(t, "gemini-1.5-pro", other.Model)
	assert.Equal(t, cfg.AI.MaxToolRounds, other.MaxToolRounds)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "tools:\n  resumes:\n    fallback: always\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "tools.resumes.fallback")
}

func validConfig() *Config {
	return &Config{
		AI: AIConfig{
			Provider:      "gemini",
			Model:         "gemini-2.0-flash",
			Timeout:       time.Minute,
			Temperature:   0.4,
			MaxToolRounds: 4,
		},
		Storage: StorageConfig{Driver: "memory"},
		Server:  ServerConfig{Port: "8080", TLS: TLSConfig{Mode: "disabled"}},
		Queue:   QueueConfig{Workers: 1},
		App:     AppConfig{DefaultFormat: "json", SupportedFormats: []string{"json", "yaml"}},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "provider", mutate: func(c *Config) { c.AI.Provider = "openai" }, wantErr: "unsupported AI provider"},
		{name: "timeout", mutate: func(c *Config) { c.AI.Timeout = 0 }, wantErr: "timeout must be positive"},
		{name: "temperature", mutate: func(c *Config) { c.AI.Temperature = 3 }, wantErr: "temperature"},
		{name: "tool rounds", mutate: func(c *Config) { c.AI.MaxToolRounds = 0 }, wantErr: "maxToolRounds"},
		{
			name: "flow tool rounds",
			mutate: func(c *Config) {
				c.AI.Flows = map[string]OperationAIConfig{"rankResumes": {MaxToolRounds: new(int)}}
			},
			wantErr: "ai.flows.rankResumes.maxToolRounds must be at least 1, got 0",
		},
		{
			name: "flow timeout",
			mutate: func(c *Config) {
				timeout := -time.Second
				c.AI.Flows = map[string]OperationAIConfig{"searchJobs": {Timeout: &timeout}}
			},
			wantErr: "ai.flows.searchJobs.timeout",
		},
		{name: "fallback policy", mutate: func(c *Config) { c.Tools.Resumes.Fallback = "sometimes" }, wantErr: "fallback"},
		{name: "storage driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: "invalid storage driver"},
		{name: "sqlite path", mutate: func(c *Config) { c.Storage.Driver = "sqlite" }, wantErr: "storage.path"},
		{name: "postgres dsn", mutate: func(c *Config) { c.Storage.Driver = "postgres" }, wantErr: "storage.dsn"},
		{name: "s3 bucket", mutate: func(c *Config) { c.Storage.Driver = "s3" }, wantErr: "storage.s3.bucket"},
		{name: "port", mutate: func(c *Config) { c.Server.Port = "" }, wantErr: "server port"},
		{name: "format", mutate: func(c *Config) { c.App.DefaultFormat = "xml" }, wantErr: "invalid default format"},
		{name: "workers", mutate: func(c *Config) { c.Queue.Workers = 0 }, wantErr: "queue.workers"},
		{
			name: "circuit breaker threshold",
			mutate: func(c *Config) {
				c.AI.CircuitBreaker = CircuitBreakerConfig{Enabled: true, FailureThreshold: 1.5}
			},
			wantErr: "failureThreshold",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr string
	}{
		{name: "disabled", tls: TLSConfig{Mode: "disabled"}},
		{name: "server files", tls: TLSConfig{Mode: "server", CertFile: "c.pem", KeyFile: "k.pem"}},
		{name: "server content", tls: TLSConfig{Mode: "server", CertContent: "C", KeyContent: "K", MinVersion: "1.3"}},
		{name: "unknown mode", tls: TLSConfig{Mode: "strict"}, wantErr: "invalid TLS mode"},
		{name: "missing key", tls: TLSConfig{Mode: "server", CertFile: "c.pem"}, wantErr: "keyFile or keyContent"},
		{name: "both cert sources", tls: TLSConfig{Mode: "server", CertFile: "c.pem", CertContent: "C", KeyFile: "k.pem"}, wantErr: "both certFile and certContent"},
		{name: "mutual without ca", tls: TLSConfig{Mode: "mutual", CertFile: "c.pem", KeyFile: "k.pem"}, wantErr: "mutual TLS"},
		{name: "mutual bad policy", tls: TLSConfig{Mode: "mutual", CertFile: "c.pem", KeyFile: "k.pem", CAFile: "ca.pem", ClientAuthPolicy: "maybe"}, wantErr: "clientAuthPolicy"},
		{name: "bad version", tls: TLSConfig{Mode: "server", CertFile: "c.pem", KeyFile: "k.pem", MinVersion: "1.1"}, wantErr: "minVersion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{TLS: tt.tls}}
			err := cfg.ValidateTLSConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestFlowAIConfigOverrides(t *testing.T) {
	timeout := 2 * time.Minute
	off := false
	cfg := validConfig()
	cfg.AI.UseSystemPrompts = true
	cfg.AI.Flows = map[string]OperationAIConfig{
		"generatejobposting": {Timeout: &timeout, UseSystemPrompts: &off},
	}

	got := cfg.FlowAIConfig("generateJobPosting")
	assert.Equal(t, timeout, got.Timeout)
	assert.False(t, got.UseSystemPrompts)
	assert.Equal(t, cfg.AI.Model, got.Model)

	assert.True(t, cfg.FlowAIConfig("analyzeResume").UseSystemPrompts)
}
