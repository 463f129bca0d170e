package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stemacademy/site-api/internal/cache"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/services"
	apperrors "github.com/stemacademy/site-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookFixture() (*cache.Store, *services.WebhookService) {
	store := cache.NewStore(cache.NewMemoryStorage(0))
	deps := newDeps("http://cms", store)
	registry := services.NewRegistry(
		services.NewAboutService(deps).Endpoint(),
		services.NewHomeService(deps).Endpoint(),
	)

	store.Set("/api/about-content/background", 1, time.Minute)
	store.Set("/api/about-content/impact", 1, time.Minute)
	store.Set("/api/home-content/hero", 1, time.Minute)

	return store, services.NewWebhookService(registry)
}

func TestWebhookService_InvalidatesSection(t *testing.T) {
	store, svc := newWebhookFixture()

	n, err := svc.HandleContentChange(context.Background(), &models.ContentWebhookPayload{
		Service: "about", Section: "impact", Action: "updated",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"/api/about-content/background", "/api/home-content/hero"}, store.Keys())
}

func TestWebhookService_EmptySectionInvalidatesService(t *testing.T) {
	store, svc := newWebhookFixture()

	n, err := svc.HandleContentChange(context.Background(), &models.ContentWebhookPayload{Service: "about"})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"/api/home-content/hero"}, store.Keys())
}

func TestWebhookService_RejectsUnknownNames(t *testing.T) {
	store, svc := newWebhookFixture()

	_, err := svc.HandleContentChange(context.Background(), &models.ContentWebhookPayload{Service: "shop"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.HandleContentChange(context.Background(), &models.ContentWebhookPayload{Service: "home", Section: "footer"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	assert.Len(t, store.Keys(), 3)
}
