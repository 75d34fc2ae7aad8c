package server

import (
	"context"
	"net/http"
	"strings"

	"careerai/internal/flows"

	"github.com/google/uuid"
)

// flowAliases are the short per-flow endpoints kept next to /flows/{name}.
var flowAliases = map[string]string{
	"/analyze-resume":       flows.AnalyzeResumeFlow,
	"/generate-posting":     flows.GenerateJobPostingFlow,
	"/search-jobs":          flows.SearchJobsFlow,
	"/suggest-jobs":         flows.SuggestJobsFlow,
	"/rank-resumes":         flows.RankResumesFlow,
	"/analyze-shortcomings": flows.AnalyzeShortcomingsFlow,
}

func flowPath(name string) string {
	return "/flows/" + name
}

// Handler returns the complete handler chain including telemetry.
func (s *Server) Handler() http.Handler {
	return s.telemetry.HTTPMiddleware()(s.requestIDMiddleware(s.setupRoutes()))
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware()(s.authMiddleware(s.requestSizeLimitMiddleware()(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)
	mux.HandleFunc("GET /flows", s.flowsHandler)
	mux.HandleFunc("GET /openapi.json", s.openapiHandler)
	mux.HandleFunc("POST /resumes", protect(s.saveResumeHandler))
	mux.HandleFunc("GET /resumes", protect(s.listResumesHandler))
	mux.HandleFunc("POST /flows/{name}", protect(s.flowHandler("")))
	for path, name := range flowAliases {
		mux.HandleFunc("POST "+path, protect(s.flowHandler(name)))
	}

	return mux
}

type requestIDKey struct{}

// requestIDMiddleware propagates X-Request-ID, generating one when absent
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := apiKeyFrom(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"request_id", requestIDFrom(r.Context()))
			s.writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error:     "UNAUTHORIZED",
				Message:   "X-API-Key header or Authorization Bearer token required",
				RequestID: requestIDFrom(r.Context()),
			})
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey),
				"request_id", requestIDFrom(r.Context()))
			s.writeJSON(w, http.StatusUnauthorized, ErrorResponse{
				Error:     "UNAUTHORIZED",
				Message:   "Invalid API key",
				RequestID: requestIDFrom(r.Context()),
			})
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// apiKeyFrom reads X-API-Key, falling back to a Bearer token
func apiKeyFrom(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
