package services

import (
	"context"
	"time"

	"github.com/stemacademy/site-api/internal/models"
	apperrors "github.com/stemacademy/site-api/pkg/errors"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/mediastore"
	"github.com/stemacademy/site-api/pkg/metrics"
	"github.com/stemacademy/site-api/pkg/slug"
	"go.uber.org/zap"
)

// MediaService uploads gallery images and registers them in the CMS
type MediaService struct {
	uploader ImageUploader
	gallery  *GalleryService
	now      func() time.Time
}

// NewMediaService creates a new media service instance. uploader may be nil
// when no bucket is configured; uploads then fail with ErrUnavailable.
func NewMediaService(uploader ImageUploader, gallery *GalleryService) *MediaService {
	return &MediaService{
		uploader: uploader,
		gallery:  gallery,
		now:      time.Now,
	}
}

// UploadGalleryImage validates and stores the image, then creates the gallery
// item pointing at it. Invalid input and a missing bucket are returned as errors;
// a CMS failure after a successful upload is reported in the result.
func (s *MediaService) UploadGalleryImage(ctx context.Context, form *models.GalleryUploadForm, data []byte, contentType string) (models.MutationResult, error) {
	if s.uploader == nil {
		metrics.GalleryUploads.WithLabelValues("disabled").Inc()
		return models.MutationResult{}, apperrors.UnavailableError("media storage", nil)
	}
	if err := mediastore.ValidateImageType(contentType); err != nil {
		metrics.GalleryUploads.WithLabelValues("invalid").Inc()
		return models.MutationResult{}, apperrors.InvalidInputError("image", err.Error())
	}
	if err := mediastore.ValidateImageSize(int64(len(data))); err != nil {
		metrics.GalleryUploads.WithLabelValues("invalid").Inc()
		return models.MutationResult{}, apperrors.InvalidInputError("image", err.Error())
	}

	folder := slug.Generate(form.Category)
	if folder == "" {
		folder = "general"
	}
	name := slug.Generate(form.Title)
	if name == "" {
		name = "image"
	}
	key := mediastore.ObjectKey(folder, name, contentType, s.now())

	imageURL, err := s.uploader.UploadImage(ctx, data, key, contentType)
	if err != nil {
		metrics.GalleryUploads.WithLabelValues("error").Inc()
		logger.Error("Failed to upload gallery image", zap.String("key", key), zap.Error(err))
		return models.MutationResult{}, apperrors.UnavailableError("media storage", err)
	}

	item := map[string]any{
		"title":        form.Title,
		"description":  form.Description,
		"category":     form.Category,
		"image_url":    imageURL,
		"order":        form.Order,
		"is_published": form.Publish,
	}

	result := s.gallery.Endpoint().Create(ctx, GallerySectionItems, item)
	if !result.Success {
		metrics.GalleryUploads.WithLabelValues("cms_error").Inc()
		logger.Warn("Image uploaded but gallery item was not created",
			zap.String("image_url", imageURL),
			zap.String("error", result.Error))
		return result, nil
	}

	metrics.GalleryUploads.WithLabelValues("success").Inc()
	return result, nil
}
