package services

import (
	"context"

	"github.com/stemacademy/site-api/internal/models"
	apperrors "github.com/stemacademy/site-api/pkg/errors"
)

// About page endpoint and its sections
const (
	AboutEndpoint = "/api/about-content"

	AboutSectionBackground = "background"
	AboutSectionObjectives = "objectives"
	AboutSectionImpact     = "impact"
)

// AboutService reads the about page blocks
type AboutService struct {
	endpoint *Endpoint
	sections *ContentService[models.AboutSection]
}

// NewAboutService creates a new about service instance
func NewAboutService(deps ContentDeps) *AboutService {
	endpoint := NewEndpoint(deps, "about", AboutEndpoint,
		AboutSectionBackground, AboutSectionObjectives, AboutSectionImpact)
	return &AboutService{
		endpoint: endpoint,
		sections: NewContentService(endpoint, publishedRecord[models.AboutSection]),
	}
}

// Endpoint exposes the CMS endpoint for mutations and invalidation
func (s *AboutService) Endpoint() *Endpoint {
	return s.endpoint
}

// GetSection returns one about block by name
func (s *AboutService) GetSection(ctx context.Context, section string) Result[models.AboutSection] {
	if !s.endpoint.HasSection(section) {
		return Result[models.AboutSection]{Error: apperrors.InvalidInputError("section", "unknown about section "+section).Error()}
	}
	return s.sections.GetSectionContent(ctx, section, nil)
}
