// Package server exposes flows over HTTP.
package server

import (
	"time"

	"careerai/internal/ai"
	"careerai/internal/config"
	"careerai/internal/errors"
	"careerai/internal/flows"
	"careerai/internal/observability"
	"careerai/internal/schema"
	"careerai/internal/store"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error      string               `json:"error"`
	Message    string               `json:"message,omitempty"`
	Details    []*schema.FieldError `json:"details,omitempty"`
	RawPayload string               `json:"rawPayload,omitempty"`
	RequestID  string               `json:"requestId,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig
	certs     *certStore

	// API Authentication
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	invoker   *flows.Invoker
	backend   ai.Backend
	resumes   store.ResumeStore
	telemetry *observability.Manager
	openapi   *openapi3.T

	Logger *errors.Logger
}

// Dependencies are the collaborators a Server serves requests with.
// Telemetry may be nil. Without Resumes the /resumes endpoints answer
// with a configuration error.
type Dependencies struct {
	Invoker   *flows.Invoker
	Backend   ai.Backend
	Resumes   store.ResumeStore
	Telemetry *observability.Manager
}

// NewServer creates a Server from the server section of appCfg
func NewServer(appCfg *config.Config, version string, deps Dependencies, logger *errors.Logger) *Server {
	cfg := appCfg.Server

	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	rateLimit := cfg.RateLimit
	var rateLimiter *RateLimiter
	if rateLimit.Enabled {
		rateLimiter = NewRateLimiter(rateLimit.RequestsPerMin, rateLimit.BurstCapacity, logger)
	}

	telemetry := deps.Telemetry
	if telemetry == nil {
		telemetry, _ = observability.NewManager(config.ObservabilityConfig{}, version, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLS,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      &rateLimit,
		RateLimiter:    rateLimiter,
		invoker:        deps.Invoker,
		backend:        deps.Backend,
		resumes:        deps.Resumes,
		telemetry:      telemetry,
		openapi:        BuildOpenAPI(deps.Invoker.Catalog(), version),
		Logger:         logger,
	}
}
