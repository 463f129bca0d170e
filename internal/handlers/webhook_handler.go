package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/services"
)

type WebhookHandler struct {
	service services.WebhookServiceInterface
}

func NewWebhookHandler(service services.WebhookServiceInterface) *WebhookHandler {
	return &WebhookHandler{service: service}
}

func (h *WebhookHandler) HandleContentWebhook(c *gin.Context) {
	var payload models.ContentWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}

	invalidated, err := h.service.HandleContentChange(c.Request.Context(), &payload)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ContentWebhookResponse{Success: true, Invalidated: invalidated})
}
