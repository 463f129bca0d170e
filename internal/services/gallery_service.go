package services

import (
	"context"
	"net/url"
	"strings"

	"github.com/stemacademy/site-api/internal/models"
)

// Gallery endpoint and its only section
const (
	GalleryEndpoint     = "/api/gallery-content"
	GallerySectionItems = "items"
)

// GalleryService reads gallery photos, optionally filtered by category
type GalleryService struct {
	endpoint *Endpoint
	items    *ContentService[[]models.GalleryItem]
}

// NewGalleryService creates a new gallery service instance
func NewGalleryService(deps ContentDeps) *GalleryService {
	endpoint := NewEndpoint(deps, "gallery", GalleryEndpoint, GallerySectionItems)
	return &GalleryService{
		endpoint: endpoint,
		items:    NewContentService(endpoint, publishedList[models.GalleryItem]),
	}
}

// Endpoint exposes the CMS endpoint for mutations and invalidation
func (s *GalleryService) Endpoint() *Endpoint {
	return s.endpoint
}

// GetItems returns published items, filtered server-side when category is set
func (s *GalleryService) GetItems(ctx context.Context, category string) Result[[]models.GalleryItem] {
	var params url.Values
	if category = strings.ToLower(strings.TrimSpace(category)); category != "" {
		params = url.Values{"category": {category}}
	}
	return s.items.GetSectionContent(ctx, GallerySectionItems, params)
}
