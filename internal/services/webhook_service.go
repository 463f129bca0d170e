package services

import (
	"context"

	"github.com/stemacademy/site-api/internal/models"
	apperrors "github.com/stemacademy/site-api/pkg/errors"
	"github.com/stemacademy/site-api/pkg/logger"
	"go.uber.org/zap"
)

// WebhookService reacts to CMS change notifications
type WebhookService struct {
	registry *Registry
}

// NewWebhookService creates a new webhook service instance
func NewWebhookService(registry *Registry) *WebhookService {
	return &WebhookService{registry: registry}
}

// HandleContentChange drops the cached reads of the section that changed.
// An empty section invalidates the whole service.
func (s *WebhookService) HandleContentChange(ctx context.Context, payload *models.ContentWebhookPayload) (int, error) {
	endpoint, ok := s.registry.Lookup(payload.Service)
	if !ok {
		return 0, apperrors.InvalidInputError("service", "unknown content service "+payload.Service)
	}
	if payload.Section != "" && !endpoint.HasSection(payload.Section) {
		return 0, apperrors.InvalidInputError("section", "unknown section "+payload.Section)
	}

	invalidated := endpoint.Invalidate(payload.Section)

	logger.Info("Received content webhook",
		zap.String("service", payload.Service),
		zap.String("section", payload.Section),
		zap.String("action", payload.Action),
		zap.String("record_id", payload.RecordID),
		zap.Int("invalidated", invalidated))

	return invalidated, nil
}
