package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skainet/concentration-map/internal/models"
	"github.com/skainet/concentration-map/internal/repository"
	"github.com/skainet/concentration-map/internal/service"
	"github.com/skainet/concentration-map/pkg/response"
)

// MessageHandler handles HTTP requests for the message store
type MessageHandler struct {
	messageService *service.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// Ingest handles POST /api/v1/messages
func (h *MessageHandler) Ingest(c *gin.Context) {
	var req models.MessageBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.messageService.Ingest(c.Request.Context(), req.Logs)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBatch) {
			response.BadRequest(c, "No logs provided")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, resp)
}

// List handles GET /api/v1/messages
func (h *MessageHandler) List(c *gin.Context) {
	list, err := h.messageService.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, list)
}

// Clear handles POST /api/v1/messages/clear
func (h *MessageHandler) Clear(c *gin.Context) {
	n, err := h.messageService.Clear(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, gin.H{"status": "cleared", "removed": n})
}

// MarkRescued handles POST /api/v1/messages/rescued
func (h *MessageHandler) MarkRescued(c *gin.Context) {
	var req models.RescueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	id, err := h.messageService.MarkRescued(c.Request.Context(), req.LogID)
	switch {
	case errors.Is(err, service.ErrMissingLogID):
		response.BadRequest(c, "Missing log_id")
	case errors.Is(err, repository.ErrNotFound):
		response.NotFound(c, "Log not found")
	case err != nil:
		response.InternalError(c, err.Error())
	default:
		response.Success(c, gin.H{"status": "marked", "log_id": id})
	}
}

// Health handles GET /api/health
func (h *MessageHandler) Health(c *gin.Context) {
	health, err := h.messageService.Health(c.Request.Context())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, health)
}

// The legacy handlers below serve the unwrapped payloads expected by the
// serial uplink and by older map clients.

// LegacyIngest handles POST /api/GetMessages
func (h *MessageHandler) LegacyIngest(c *gin.Context) {
	var req models.MessageBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	resp, err := h.messageService.Ingest(c.Request.Context(), req.Logs)
	if err != nil {
		if errors.Is(err, service.ErrEmptyBatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No logs provided"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LegacyList handles GET /api/messages
func (h *MessageHandler) LegacyList(c *gin.Context) {
	list, err := h.messageService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// LegacyClear handles POST /api/clearMessages
func (h *MessageHandler) LegacyClear(c *gin.Context) {
	if _, err := h.messageService.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

// LegacyMarkRescued handles POST /api/markRescued
func (h *MessageHandler) LegacyMarkRescued(c *gin.Context) {
	var req models.RescueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing log_id"})
		return
	}

	_, err := h.messageService.MarkRescued(c.Request.Context(), req.LogID)
	switch {
	case errors.Is(err, service.ErrMissingLogID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing log_id"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Log not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"status": "marked", "log_id": req.LogID})
	}
}
