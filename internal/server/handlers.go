package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"careerai/internal/errors"
	"careerai/internal/schema"
)

type circuitBreakerReporter interface {
	CircuitBreakerStats() map[string]any
}

// healthHandler reports backend model availability, breaker state and
// certificate expiry
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "careerai",
		"version": s.Version,
	}
	healthy := true

	timeout := s.AppConfig.Observability.HealthCheck.AIModelCheckTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	model := s.backend.ModelInfo(ctx)
	response["ai_model"] = model
	if model == nil || !model.Available {
		healthy = false
	}

	if reporter, ok := s.backend.(circuitBreakerReporter); ok {
		response["circuit_breakers"] = reporter.CircuitBreakerStats()
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if ok, _ := certStatus["healthy"].(bool); !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, response)
}

// checkCertificateHealth returns nil when TLS is disabled
func (s *Server) checkCertificateHealth() map[string]any {
	if s.certs == nil {
		return nil
	}

	const (
		criticalThreshold = 24 * time.Hour
		warningThreshold  = 7 * 24 * time.Hour
	)

	timeToExpiry := time.Until(s.certs.Expiry())
	certStatus := map[string]any{
		"time_to_expiry_hours": int(timeToExpiry.Hours()),
		"time_to_expiry":       timeToExpiry.Round(time.Second).String(),
		"watching":             s.certs.Watching(),
		"reloads":              s.certs.Stats(),
	}

	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "careerai",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"flows": s.invoker.Catalog().Names(),
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	s.writeJSON(w, http.StatusOK, response)
}

type flowDescription struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tools       []string `json:"tools,omitempty"`
	Path        string   `json:"path"`
	Input       any      `json:"input"`
	Output      any      `json:"output"`
}

// flowsHandler lists the catalog with JSON schemas for input and output
func (s *Server) flowsHandler(w http.ResponseWriter, r *http.Request) {
	defs := s.invoker.Catalog().Definitions()
	out := make([]flowDescription, 0, len(defs))
	for _, def := range defs {
		out = append(out, flowDescription{
			Name:        def.Name,
			Description: def.Description,
			Tools:       def.Tools,
			Path:        flowPath(def.Name),
			Input:       toOpenAPISchema(def.Input),
			Output:      toOpenAPISchema(def.Output),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"flows": out})
}

func (s *Server) openapiHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.openapi)
}

// flowHandler invokes the flow named by the path, or fixed when non-empty
func (s *Server) flowHandler(fixed string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := fixed
		if name == "" {
			name = r.PathValue("name")
		}

		var input map[string]any
		if err := parseJSONRequest(r, &input); err != nil {
			s.writeError(w, r, errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err))
			return
		}

		result, err := s.invoker.Invoke(r.Context(), name, input)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

// parseJSONRequest parses a JSON object body into v
func parseJSONRequest(r *http.Request, v any) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("request body must be a JSON object: %w", err)
	}
	return nil
}

// statusFor maps an error code to an HTTP status
func statusFor(code string) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeFlowNotFound:
		return http.StatusNotFound
	case errors.ErrCodeEmptyResult:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeToolExecution:
		return http.StatusFailedDependency
	case errors.ErrCodeOutputSchemaViolation:
		return http.StatusBadGateway
	case errors.ErrCodeBackendUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	response := ErrorResponse{
		Error:     errors.ErrCodeInternal,
		Message:   err.Error(),
		RequestID: requestIDFrom(r.Context()),
	}
	if appErr, ok := errors.AsAppError(err); ok {
		response.Error = appErr.Code
		response.Message = appErr.Message
	}

	var validation *schema.ValidationError
	if stderrors.As(err, &validation) {
		response.Details = validation.Errors
	}
	if raw, ok := errors.RawPayload(err); ok {
		response.RawPayload = raw
	}

	s.writeJSON(w, statusFor(response.Error), response)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.LogError(err, "Failed to encode response")
	}
}
