package services

import (
	"context"

	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/metrics"
	"go.uber.org/zap"
)

// ContactSubmissionsEndpoint receives contact form entries
const ContactSubmissionsEndpoint = "/api/contact-submissions"

// ContactService handles contact form submissions
type ContactService struct {
	client   CMSClient
	verifier CaptchaVerifier
}

// NewContactService creates a new contact service instance
func NewContactService(client CMSClient, verifier CaptchaVerifier) *ContactService {
	return &ContactService{
		client:   client,
		verifier: verifier,
	}
}

// SubmitContactForm verifies the captcha and forwards the message to the CMS.
// Failures are reported in the response; the error return is reserved for
// cancellation.
func (s *ContactService) SubmitContactForm(ctx context.Context, req *models.ContactRequest) (*models.ContactResponse, error) {
	if s.verifier != nil && s.verifier.Enabled() {
		if err := s.verifier.Verify(ctx, req.RecaptchaToken); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.ContactFormSubmissions.WithLabelValues("captcha_failed").Inc()
			logger.Warn("ReCAPTCHA verification failed", zap.Error(err))
			return &models.ContactResponse{
				Success: false,
				Error:   "Captcha verification failed",
			}, nil
		}
	}

	submission := models.ContactSubmission{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Message: req.Message,
	}

	resp, err := s.client.Post(ctx, ContactSubmissionsEndpoint, submission)
	if err == nil {
		_, err = unwrapEnvelope(resp)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.ContactFormSubmissions.WithLabelValues("error").Inc()
		logger.Error("Failed to forward contact submission", zap.Error(err))
		return &models.ContactResponse{
			Success: false,
			Error:   "Failed to send message",
		}, nil
	}

	metrics.ContactFormSubmissions.WithLabelValues("success").Inc()
	return &models.ContactResponse{Success: true}, nil
}
