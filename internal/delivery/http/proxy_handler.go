package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pricescout/backend/internal/domain"
)

// maxProxyBodyBytes bounds the proxied request body
const maxProxyBodyBytes = 1 << 20

// OpenAIProxy forwards a chat completion on behalf of the browser
func (h *Handler) OpenAIProxy(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":    "Only POST method allowed",
			"received": c.Request.Method,
		})
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxProxyBodyBytes)

	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Info("rejected proxy request", zap.String("code", domain.CodeJSONParse), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to parse JSON request body",
			"code":  domain.CodeJSONParse,
		})
		return
	}

	resp, err := h.gateway.Chat(c.Request.Context(), &req)
	if err != nil {
		h.respondProxyError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// respondProxyError keeps the error envelope the browser client expects
func (h *Handler) respondProxyError(c *gin.Context, err error) {
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) {
		if gwErr.Upstream == 0 {
			h.logger.Info("rejected proxy request", zap.String("code", gwErr.Code))
			c.JSON(gwErr.Status, gin.H{"error": gwErr.Message, "code": gwErr.Code})
			return
		}
		c.JSON(gwErr.Status, gin.H{
			"error":        gwErr.Message,
			"code":         gwErr.Code,
			"details":      gwErr.Details,
			"openaiStatus": gwErr.Upstream,
		})
		return
	}

	status := http.StatusInternalServerError
	code := domain.CodeUnknown
	message := "Internal server error"
	switch {
	case errors.Is(err, domain.ErrLLMTimeout):
		status, code, message = http.StatusGatewayTimeout, domain.CodeTimeout, "Timed out waiting for OpenAI"
	case errors.Is(err, domain.ErrLLMAPIFailure):
		status, code, message = http.StatusBadGateway, domain.CodeNetwork, "Network error: cannot reach OpenAI"
	}

	h.logger.Error("proxy request failed",
		zap.String("code", code),
		zap.String("request_id", requestID(c)),
		zap.Error(err),
	)
	c.JSON(status, gin.H{
		"error":     message,
		"code":      code,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"requestId": requestID(c),
	})
}
