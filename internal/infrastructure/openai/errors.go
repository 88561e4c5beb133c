package openai

import (
	"encoding/json"
	"net/http"

	"github.com/pricescout/backend/internal/domain"
)

const noDetails = "No additional details"

// upstreamError is the error envelope of the chat-completions API
type upstreamError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// TranslateStatus converts a non-2xx upstream response into the error the
// proxy returns to the browser. The HTTP status is passed through unchanged.
func TranslateStatus(status int, body []byte) *domain.GatewayError {
	gwErr := &domain.GatewayError{
		Status:   status,
		Upstream: status,
		Details:  extractDetails(body),
	}

	switch status {
	case http.StatusUnauthorized:
		gwErr.Code = domain.CodeInvalidAPIKey
		gwErr.Message = "Invalid OpenAI API key or no access"
	case http.StatusTooManyRequests:
		gwErr.Code = domain.CodeRateLimitExceeded
		gwErr.Message = "OpenAI rate limit exceeded or insufficient funds"
	case http.StatusBadRequest:
		gwErr.Code = domain.CodeBadRequest
		gwErr.Message = "Malformed request to OpenAI API"
	case http.StatusServiceUnavailable:
		gwErr.Code = domain.CodeServiceUnavailable
		gwErr.Message = "OpenAI service is temporarily unavailable"
	default:
		gwErr.Code = domain.CodeUnknownOpenAI
		gwErr.Message = "Unknown OpenAI API error"
	}

	return gwErr
}

// extractDetails pulls error.message out of an upstream body
func extractDetails(body []byte) string {
	var e upstreamError
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Message == "" {
		return noDetails
	}
	return e.Error.Message
}

// isRetryableStatus reports whether an upstream status is worth another attempt.
// 429 is not retried: OpenAI also uses it for exhausted quota.
func isRetryableStatus(status int) bool {
	return status >= http.StatusInternalServerError
}
