package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	"careerai/internal/errors"

	"github.com/sony/gobreaker/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// classifyError maps a failed GenerateContent call onto the invocation
// taxonomy. Errors that are already AppErrors (tool failures) pass through.
func classifyError(flow string, err error) error {
	if _, ok := errors.AsAppError(err); ok {
		return err
	}

	var message string
	switch {
	case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
		message = "generation backend circuit breaker is open"
	case stderrors.Is(err, context.DeadlineExceeded):
		message = "generation request timed out"
	case stderrors.Is(err, context.Canceled):
		message = "generation request was cancelled"
	default:
		message = "generation request failed"
	}

	appErr := errors.NewBackendUnavailableError(message, err).
		WithContext("flow", flow).
		WithContext("retryable", isRetryableError(err))

	if code, ok := apiStatus(err); ok {
		appErr.Message = fmt.Sprintf("gemini returned HTTP %d", code)
		appErr.WithContext("status_code", code)
	}
	return appErr
}

// apiStatus extracts the HTTP status of an API failure. genai reports
// APIError by value; googleapi errors come from the transport layer.
func apiStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if stderrors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	var gErr *googleapi.Error
	if stderrors.As(err, &gErr) {
		return gErr.Code, true
	}
	return 0, false
}

// isRetryableError reports whether a caller retry has a chance of
// succeeding. The backend itself never retries.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) ||
		stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	if code, ok := apiStatus(err); ok {
		switch code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
