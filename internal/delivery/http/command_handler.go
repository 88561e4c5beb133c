package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// commandRequest is the body of POST /api/v1/commands
type commandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ProcessCommand runs a natural-language command
func (h *Handler) ProcessCommand(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "command is required"})
		return
	}

	res, err := h.analyzer.ProcessCommand(c.Request.Context(), req.Command)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// History returns recent searches, newest first. ?limit=N bounds the list.
func (h *Handler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := h.analyzer.History(c.Request.Context(), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records, "count": len(records)})
}

// TestConnection checks that the server-side LLM key works
func (h *Handler) TestConnection(c *gin.Context) {
	status, err := h.analyzer.TestConnection(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
