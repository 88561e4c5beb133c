package openai

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pricescout/backend/internal/domain"
)

func TestTranslateStatus(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantDetails string
	}{
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			body:        `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			wantCode:    domain.CodeInvalidAPIKey,
			wantDetails: "Incorrect API key provided",
		},
		{
			name:        "rate limited",
			status:      http.StatusTooManyRequests,
			body:        `{"error":{"message":"You exceeded your current quota","code":"insufficient_quota"}}`,
			wantCode:    domain.CodeRateLimitExceeded,
			wantDetails: "You exceeded your current quota",
		},
		{
			name:        "bad request",
			status:      http.StatusBadRequest,
			body:        `{"error":{"message":"max_tokens is too large"}}`,
			wantCode:    domain.CodeBadRequest,
			wantDetails: "max_tokens is too large",
		},
		{
			name:        "service unavailable without body",
			status:      http.StatusServiceUnavailable,
			wantCode:    domain.CodeServiceUnavailable,
			wantDetails: noDetails,
		},
		{
			name:        "unknown status with non-json body",
			status:      http.StatusInternalServerError,
			body:        "<html>oops</html>",
			wantCode:    domain.CodeUnknownOpenAI,
			wantDetails: noDetails,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateStatus(tt.status, []byte(tt.body))

			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.status, got.Upstream)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantDetails, got.Details)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	assert.True(t, isRetryableStatus(http.StatusInternalServerError))
	assert.True(t, isRetryableStatus(http.StatusServiceUnavailable))
	assert.False(t, isRetryableStatus(http.StatusTooManyRequests))
	assert.False(t, isRetryableStatus(http.StatusBadRequest))
}
