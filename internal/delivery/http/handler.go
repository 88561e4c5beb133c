package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pricescout/backend/internal/domain"
	"github.com/pricescout/backend/internal/usecase"
)

const (
	serviceName    = "pricescout-backend"
	serviceVersion = "2.0.0"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	gateway  *usecase.GatewayService
	products *usecase.ProductService
	analyzer *usecase.AnalyzerService
	store    string
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. store names the storage backend
// reported by the health check.
func NewHandler(
	gateway *usecase.GatewayService,
	products *usecase.ProductService,
	analyzer *usecase.AnalyzerService,
	store string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		gateway:  gateway,
		products: products,
		analyzer: analyzer,
		store:    store,
		logger:   logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       serviceName,
		"version":       serviceVersion,
		"store":         h.store,
		"llmConfigured": h.gateway != nil && h.gateway.Configured(),
	})
}

// respondError maps service errors to HTTP responses
func (h *Handler) respondError(c *gin.Context, err error) {
	if details, ok := usecase.ValidationDetails(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"validation_errors": details})
		return
	}

	var gwErr *domain.GatewayError
	switch {
	case errors.As(err, &gwErr):
		body := gin.H{"error": gwErr.Message, "code": gwErr.Code}
		if gwErr.Upstream != 0 {
			body["details"] = gwErr.Details
			body["openaiStatus"] = gwErr.Upstream
		}
		c.JSON(gwErr.Status, body)
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNameMissing),
		errors.Is(err, domain.ErrInvalidSearchKind),
		errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrLLMNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrLLMTimeout):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error(), "code": domain.CodeTimeout})
	case errors.Is(err, domain.ErrLLMAPIFailure), errors.Is(err, domain.ErrSearchAPIFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "code": domain.CodeNetwork})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "internal server error",
			"code":      domain.CodeUnknown,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"requestId": requestID(c),
		})
	}
}
