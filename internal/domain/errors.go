package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when a product id is not in the store
	ErrProductNotFound = errors.New("product not found")

	// ErrProductNameMissing is returned when no product name can be extracted from a command
	ErrProductNameMissing = errors.New("could not determine product name from command")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidSearchKind is returned for search kinds other than competitor and avito
	ErrInvalidSearchKind = errors.New("invalid search kind")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrLLMNotConfigured is returned when no OpenAI API key is available
	ErrLLMNotConfigured = errors.New("OpenAI API key is not configured")

	// ErrLLMAPIFailure is returned when the chat completion request cannot be completed
	ErrLLMAPIFailure = errors.New("OpenAI API request failed")

	// ErrLLMTimeout is returned when the chat completion request exceeds its deadline
	ErrLLMTimeout = errors.New("OpenAI API request timed out")

	// ErrEmptyCompletion is returned when the upstream answer has no choices
	ErrEmptyCompletion = errors.New("OpenAI API returned no choices")

	// ErrSearchAPIFailure is returned when the web search provider fails
	ErrSearchAPIFailure = errors.New("search API request failed")
)

// Gateway error codes sent to the browser
const (
	CodeMissingAPIKey       = "MISSING_API_KEY"
	CodeInvalidAPIKeyFormat = "INVALID_API_KEY_FORMAT"
	CodeMissingMessages     = "MISSING_MESSAGES"
	CodeJSONParse           = "JSON_PARSE_ERROR"
	CodeInvalidSearchType   = "INVALID_SEARCH_TYPE"
	CodeInvalidAPIKey       = "INVALID_API_KEY"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeBadRequest          = "BAD_REQUEST"
	CodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	CodeUnknownOpenAI       = "UNKNOWN_OPENAI_ERROR"
	CodeNetwork             = "NETWORK_ERROR"
	CodeTimeout             = "TIMEOUT_ERROR"
	CodeUnknown             = "UNKNOWN_ERROR"
)

// GatewayError is a failure that maps directly to an HTTP response of the proxy.
// Validation failures and translated upstream statuses both use it.
type GatewayError struct {
	Status   int
	Code     string
	Message  string
	Details  string
	Upstream int // upstream HTTP status, 0 for local validation failures
}

func (e *GatewayError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s (%s): %s", e.Message, e.Code, e.Details)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// NewValidationError builds a 400 GatewayError for a rejected proxy request
func NewValidationError(code, message string) *GatewayError {
	return &GatewayError{Status: 400, Code: code, Message: message}
}
