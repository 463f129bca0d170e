package services

import (
	"context"

	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/pkg/httpclient"
)

// CMSClient is the subset of httpclient.CMSClient the services use
type CMSClient interface {
	Get(ctx context.Context, endpoint string) (*httpclient.Response, error)
	Post(ctx context.Context, endpoint string, body any) (*httpclient.Response, error)
	Put(ctx context.Context, endpoint string, body any) (*httpclient.Response, error)
	Delete(ctx context.Context, endpoint string) (*httpclient.Response, error)
}

// CaptchaVerifier checks a reCAPTCHA token
type CaptchaVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, token string) error
}

// ImageUploader stores an image and returns its public URL
type ImageUploader interface {
	UploadImage(ctx context.Context, data []byte, key, contentType string) (string, error)
}

// AboutServiceInterface defines the about page content operations
type AboutServiceInterface interface {
	GetSection(ctx context.Context, section string) Result[models.AboutSection]
}

// HomeServiceInterface defines the home page content operations
type HomeServiceInterface interface {
	GetHero(ctx context.Context) Result[models.HeroSection]
	GetActivities(ctx context.Context) Result[[]models.Activity]
	GetOutcomes(ctx context.Context) Result[[]models.Outcome]
}

// TeamServiceInterface defines the team roster operations
type TeamServiceInterface interface {
	GetMembers(ctx context.Context) Result[[]models.TeamMember]
}

// GalleryServiceInterface defines the gallery operations
type GalleryServiceInterface interface {
	GetItems(ctx context.Context, category string) Result[[]models.GalleryItem]
}

// BlogServiceInterface defines the blog operations
type BlogServiceInterface interface {
	GetPosts(ctx context.Context, page int, tag string) Result[[]models.BlogPost]
	GetPostBySlug(ctx context.Context, slug string) Result[models.BlogPost]
}

// ContactServiceInterface defines the interface for contact service operations
type ContactServiceInterface interface {
	SubmitContactForm(ctx context.Context, req *models.ContactRequest) (*models.ContactResponse, error)
}

// MediaServiceInterface defines gallery uploads
type MediaServiceInterface interface {
	UploadGalleryImage(ctx context.Context, form *models.GalleryUploadForm, data []byte, contentType string) (models.MutationResult, error)
}

// WebhookServiceInterface defines CMS change notifications
type WebhookServiceInterface interface {
	HandleContentChange(ctx context.Context, payload *models.ContentWebhookPayload) (int, error)
}

// Ensure services implement their interfaces
var _ CMSClient = (*httpclient.CMSClient)(nil)
var _ AboutServiceInterface = (*AboutService)(nil)
var _ HomeServiceInterface = (*HomeService)(nil)
var _ TeamServiceInterface = (*TeamService)(nil)
var _ GalleryServiceInterface = (*GalleryService)(nil)
var _ BlogServiceInterface = (*BlogService)(nil)
var _ ContactServiceInterface = (*ContactService)(nil)
var _ MediaServiceInterface = (*MediaService)(nil)
var _ WebhookServiceInterface = (*WebhookService)(nil)
