package config

import (
	"fmt"
	"log"
	"maps"
	"slices"
	"strings"
	"time"

	"careerai/internal/tools"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Tools         ToolsConfig         `mapstructure:"tools"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Prompts       PromptsConfig       `mapstructure:"prompts"`
	Server        ServerConfig        `mapstructure:"server"`
	Queue         QueueConfig         `mapstructure:"queue"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// AIConfig holds the generation backend settings shared by every flow
type AIConfig struct {
	Provider         string        `mapstructure:"provider"`
	Model            string        `mapstructure:"model"`
	Timeout          time.Duration `mapstructure:"timeout"`
	APIKey           string        `mapstructure:"apiKey"`
	Temperature      float32       `mapstructure:"temperature"`
	MaxToolRounds    int           `mapstructure:"maxToolRounds"`
	UseSystemPrompts bool          `mapstructure:"useSystemPrompts"`

	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	// Flows holds per-flow overrides keyed by flow name. Viper lowercases
	// map keys, so lookups go through FlowAIConfig.
	Flows map[string]OperationAIConfig `mapstructure:"flows"`
}

// CircuitBreakerConfig holds circuit breaker settings
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // allowed while half-open
	Interval         time.Duration `mapstructure:"interval"`         // closed-state count reset
	Timeout          time.Duration `mapstructure:"timeout"`          // open to half-open
	MinRequests      uint32        `mapstructure:"minRequests"`      // before the ratio is considered
	FailureThreshold float64       `mapstructure:"failureThreshold"` // 0.0-1.0
}

// OperationAIConfig overrides AIConfig for a single flow. Nil pointers
// inherit the global value.
type OperationAIConfig struct {
	Model            string         `mapstructure:"model"`
	Timeout          *time.Duration `mapstructure:"timeout"`
	Temperature      *float32       `mapstructure:"temperature"`
	MaxToolRounds    *int           `mapstructure:"maxToolRounds"`
	UseSystemPrompts *bool          `mapstructure:"useSystemPrompts"`
}

func (o OperationAIConfig) validate() error {
	if o.MaxToolRounds != nil && *o.MaxToolRounds < 1 {
		return fmt.Errorf("maxToolRounds must be at least 1, got %d", *o.MaxToolRounds)
	}
	if o.Timeout != nil && *o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if o.Temperature != nil && (*o.Temperature < 0 || *o.Temperature > 2) {
		return fmt.Errorf("temperature must be between 0 and 2, got %v", *o.Temperature)
	}
	return nil
}

// ToolsConfig holds settings for the tools exposed to the backend
type ToolsConfig struct {
	Resumes ResumeToolConfig `mapstructure:"resumes"`
}

// ResumeToolConfig configures the getAllResumes tool
type ResumeToolConfig struct {
	// Fallback is one of none, on-empty, on-error, on-empty-or-error.
	Fallback string `mapstructure:"fallback"`
}

// StorageConfig selects and configures the resume store
type StorageConfig struct {
	Driver        string        `mapstructure:"driver"` // memory, sqlite, postgres, s3
	Path          string        `mapstructure:"path"`   // sqlite database file
	DSN           string        `mapstructure:"dsn"`    // postgres connection string
	S3            S3Config      `mapstructure:"s3"`
	WatchDebounce time.Duration `mapstructure:"watchDebounce"`
}

// S3Config points at an S3-compatible bucket holding resume documents
type S3Config struct {
	Bucket       string `mapstructure:"bucket"`
	Prefix       string `mapstructure:"prefix"`
	Region       string `mapstructure:"region"`
	Endpoint     string `mapstructure:"endpoint"`
	AccessKey    string `mapstructure:"accessKey"`
	SecretKey    string `mapstructure:"secretKey"`
	UsePathStyle bool   `mapstructure:"usePathStyle"`
}

// PromptsConfig points at a directory of template overrides
type PromptsConfig struct {
	Dir string `mapstructure:"dir"`

	// Overrides is filled from Dir by LoadConfig.
	Overrides map[string]PromptOverride `mapstructure:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration `mapstructure:"idleTimeout"`
	MaxRequestSize int64         `mapstructure:"maxRequestSize"`

	TLS TLSConfig `mapstructure:"tls"`

	APIKeys []string `mapstructure:"apiKeys"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS configuration. Content fields are filled from Vault.
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // disabled, server, mutual
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string `mapstructure:"minVersion"`       // 1.2, 1.3
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // require, request, verify

	// Watch reloads certFile and keyFile when they change on disk.
	Watch bool `mapstructure:"watch"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
	ByIP           bool `mapstructure:"byIP"`
	ByAPIKey       bool `mapstructure:"byAPIKey"`
}

// QueueConfig holds AMQP worker configuration
type QueueConfig struct {
	URL        string `mapstructure:"url"`
	Queue      string `mapstructure:"queue"`
	Exchange   string `mapstructure:"exchange"`
	Workers    int    `mapstructure:"workers"`
	ConsumerID string `mapstructure:"consumerId"`
}

// AppConfig holds application-level configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds telemetry configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	ConsoleOutput   bool              `mapstructure:"consoleOutput"`
	PrettyPrint     bool              `mapstructure:"prettyPrint"`
	SampleRate      float64           `mapstructure:"sampleRate"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
	TrackTokenUsage    bool          `mapstructure:"trackTokenUsage"`
}

type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

type HealthCheckConfig struct {
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from defaults, an optional config file and
// CAREERAI_* environment variables. An empty configFile searches the usual
// locations.
func LoadConfig(configFile string) (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CAREERAI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/careerai/")
		v.AddConfigPath("$HOME/.careerai")
		v.AddConfigPath(".")
	}

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	overrides, err := LoadPromptOverrides(config.Prompts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt overrides: %w", err)
	}
	config.Prompts.Overrides = overrides

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid. The API key is checked
// when the generation backend is built, so commands that never call the
// backend work without one.
func (c *Config) Validate() error {
	if c.AI.Provider != "gemini" {
		return fmt.Errorf("unsupported AI provider: %s", c.AI.Provider)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI timeout must be positive")
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		return fmt.Errorf("AI temperature must be between 0 and 2, got %v", c.AI.Temperature)
	}
	if c.AI.MaxToolRounds < 1 {
		return fmt.Errorf("ai.maxToolRounds must be at least 1")
	}
	for _, name := range slices.Sorted(maps.Keys(c.AI.Flows)) {
		if err := c.AI.Flows[name].validate(); err != nil {
			return fmt.Errorf("ai.flows.%s.%w", name, err)
		}
	}
	if cb := c.AI.CircuitBreaker; cb.Enabled && (cb.FailureThreshold <= 0 || cb.FailureThreshold > 1) {
		return fmt.Errorf("circuit breaker failureThreshold must be in (0, 1], got %v", cb.FailureThreshold)
	}

	if _, err := tools.ParseFallbackPolicy(c.Tools.Resumes.Fallback); err != nil {
		return fmt.Errorf("tools.resumes.fallback: %w", err)
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.Queue.Workers < 1 {
		return fmt.Errorf("queue.workers must be at least 1")
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func (c *Config) validateStorage() error {
	s := c.Storage
	switch s.Driver {
	case "memory":
	case "sqlite":
		if s.Path == "" {
			return fmt.Errorf("storage.path is required for the sqlite driver")
		}
	case "postgres":
		if s.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	case "s3":
		if s.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("invalid storage driver: %s (must be 'memory', 'sqlite', 'postgres', or 's3')", s.Driver)
	}
	return nil
}
