package services

import (
	"context"

	"github.com/stemacademy/site-api/internal/models"
)

// Home page endpoint and its sections
const (
	HomeEndpoint = "/api/home-content"

	HomeSectionHero       = "hero"
	HomeSectionActivities = "activities"
	HomeSectionOutcomes   = "outcomes"
)

// HomeService reads the home page sections
type HomeService struct {
	endpoint   *Endpoint
	hero       *ContentService[models.HeroSection]
	activities *ContentService[[]models.Activity]
	outcomes   *ContentService[[]models.Outcome]
}

// NewHomeService creates a new home service instance
func NewHomeService(deps ContentDeps) *HomeService {
	endpoint := NewEndpoint(deps, "home", HomeEndpoint,
		HomeSectionHero, HomeSectionActivities, HomeSectionOutcomes)
	return &HomeService{
		endpoint:   endpoint,
		hero:       NewContentService(endpoint, publishedRecord[models.HeroSection]),
		activities: NewContentService(endpoint, publishedList[models.Activity]),
		outcomes:   NewContentService(endpoint, publishedList[models.Outcome]),
	}
}

// Endpoint exposes the CMS endpoint for mutations and invalidation
func (s *HomeService) Endpoint() *Endpoint {
	return s.endpoint
}

// GetHero returns the home banner
func (s *HomeService) GetHero(ctx context.Context) Result[models.HeroSection] {
	return s.hero.GetSectionContent(ctx, HomeSectionHero, nil)
}

// GetActivities returns the published activity cards in display order
func (s *HomeService) GetActivities(ctx context.Context) Result[[]models.Activity] {
	return s.activities.GetSectionContent(ctx, HomeSectionActivities, nil)
}

// GetOutcomes returns the published outcome cards in display order
func (s *HomeService) GetOutcomes(ctx context.Context) Result[[]models.Outcome] {
	return s.outcomes.GetSectionContent(ctx, HomeSectionOutcomes, nil)
}
