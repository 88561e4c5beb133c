package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricescout/backend/internal/domain"
)

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(Config{
		BaseURL:           baseURL,
		Timeout:           2 * time.Second,
		MaxRetries:        maxRetries,
		RequestsPerSecond: 1000,
		Burst:             100,
		InitialBackoff:    time.Millisecond,
	}, zap.NewNop())
}

func testRequest() *domain.CompletionRequest {
	return &domain.CompletionRequest{
		Model: "gpt-4o",
		Messages: []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "Найди минимальную цену."},
			{Role: domain.RoleUser, Content: "iPhone 15"},
		},
		MaxTokens:   2000,
		Temperature: 0.1,
	}
}

func writeCompletion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(domain.CompletionResponse{
		ID:    "chatcmpl-1",
		Model: "gpt-4o",
		Choices: []domain.CompletionChoice{
			{Message: domain.ChatMessage{Role: domain.RoleAssistant, Content: content}},
		},
		Usage: &domain.CompletionUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	})
}

func TestNewClient(t *testing.T) {
	client := NewClient(Config{BaseURL: "https://api.example.com/v1/"}, zap.NewNop())

	assert.NotNil(t, client)
	assert.Equal(t, "https://api.example.com/v1", client.baseURL)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := newTestClient("https://api.example.com", 0)

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestComplete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.Equal(t, float64(2000), body["max_tokens"])
		assert.Equal(t, false, body["stream"])

		writeCompletion(w, "Минимальная цена: 84 990 ₽")
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)
	client.SetDebug(true)

	resp, err := client.Complete(context.Background(), "sk-test", testRequest())

	require.NoError(t, err)
	assert.Equal(t, "Минимальная цена: 84 990 ₽", resp.Content())
	assert.Equal(t, 15, resp.Usage.TotalTokens)
}

func TestComplete_TranslatesClientErrors(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
	}{
		{http.StatusUnauthorized, domain.CodeInvalidAPIKey},
		{http.StatusTooManyRequests, domain.CodeRateLimitExceeded},
		{http.StatusBadRequest, domain.CodeBadRequest},
		{http.StatusForbidden, domain.CodeUnknownOpenAI},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"upstream said no"}}`))
			}))
			defer server.Close()

			client := newTestClient(server.URL, 2)

			resp, err := client.Complete(context.Background(), "sk-test", testRequest())

			assert.Nil(t, resp)
			var gwErr *domain.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, tt.status, gwErr.Status)
			assert.Equal(t, tt.wantCode, gwErr.Code)
			assert.Equal(t, "upstream said no", gwErr.Details)
			assert.Equal(t, int32(1), attempts.Load()) // 4xx is not retried
		})
	}
}

func TestComplete_ServerError_Retries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeCompletion(w, "ok")
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	resp, err := client.Complete(context.Background(), "sk-test", testRequest())

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content())
	assert.Equal(t, int32(3), attempts.Load())
}

func TestComplete_AllRetriesFail(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	resp, err := client.Complete(context.Background(), "sk-test", testRequest())

	assert.Nil(t, resp)
	var gwErr *domain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, domain.CodeServiceUnavailable, gwErr.Code)
	assert.Equal(t, noDetails, gwErr.Details)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestComplete_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	resp, err := client.Complete(context.Background(), "sk-test", testRequest())

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestComplete_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	resp, err := client.Complete(ctx, "sk-test", testRequest())

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrLLMTimeout)
}

func TestComplete_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := newTestClient(baseURL, 1)

	resp, err := client.Complete(context.Background(), "sk-test", testRequest())

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrLLMAPIFailure)
}

func TestComplete_RequestCreationError(t *testing.T) {
	client := newTestClient("://invalid-url", 2)

	resp, err := client.Complete(context.Background(), "sk-test", testRequest())

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create request")
}

func TestReadLimitedBody(t *testing.T) {
	t.Run("reads within limit", func(t *testing.T) {
		body, err := readLimitedBody(strings.NewReader("short content"), 1000)
		require.NoError(t, err)
		assert.Equal(t, "short content", string(body))
	})

	t.Run("truncates beyond limit", func(t *testing.T) {
		body, err := readLimitedBody(strings.NewReader(strings.Repeat("0123456789", 100)), 100)
		require.NoError(t, err)
		assert.Len(t, body, 100)
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "abc", preview("abc", 5))
	assert.Equal(t, "Цен...", preview("Цена товара", 3))
}
