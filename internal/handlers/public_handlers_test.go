package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemacademy/site-api/internal/cache"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/services"
	"github.com/stemacademy/site-api/pkg/httpclient"
	"github.com/stemacademy/site-api/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) SubmitContactForm(ctx context.Context, req *models.ContactRequest) (*models.ContactResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContactResponse), args.Error(1)
}

const validContact = `{"name":"Sam","email":"sam@example.org","subject":"Volunteering","message":"I would like to help with robotics.","recaptchaToken":"tok"}`

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestContactHandler_SubmitContact(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		resp       *models.ContactResponse
		err        error
		wantStatus int
		wantCall   bool
	}{
		{name: "success", body: validContact, resp: &models.ContactResponse{Success: true}, wantStatus: http.StatusOK, wantCall: true},
		{name: "captcha failed", body: validContact, resp: &models.ContactResponse{Error: "Captcha verification failed"}, wantStatus: http.StatusBadRequest, wantCall: true},
		{name: "canceled", body: validContact, err: context.Canceled, wantStatus: http.StatusOK, wantCall: true},
		{name: "invalid email", body: strings.Replace(validContact, "sam@example.org", "not-an-email", 1), wantStatus: http.StatusBadRequest},
		{name: "short message", body: strings.Replace(validContact, "I would like to help with robotics.", "hi", 1), wantStatus: http.StatusBadRequest},
		{name: "malformed json", body: `{"name":`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockContactService)
			if tt.wantCall {
				service.On("SubmitContactForm", mock.Anything, mock.AnythingOfType("*models.ContactRequest")).Return(tt.resp, tt.err)
			}

			router := gin.New()
			router.POST("/contact", NewContactHandler(service).SubmitContact)

			w := postJSON(router, "/contact", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if !tt.wantCall {
				service.AssertNotCalled(t, "SubmitContactForm", mock.Anything, mock.Anything)
			}
			service.AssertExpectations(t)
		})
	}
}

func TestContactHandler_ValidationDetails(t *testing.T) {
	router := gin.New()
	router.POST("/contact", NewContactHandler(new(MockContactService)).SubmitContact)

	w := postJSON(router, "/contact", `{"email":"sam@example.org"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"Validation failed"`)
	assert.Contains(t, w.Body.String(), "Name is required")
}

func TestWebhookHandler_HandleContentWebhook(t *testing.T) {
	store := cache.NewStore(cache.NewMemoryStorage(0))
	deps := services.NewContentDeps(httpclient.NewCMSClient("http://cms.invalid", nil), store, retry.NoRetry(), time.Minute)
	about := services.NewAboutService(deps)
	home := services.NewHomeService(deps)
	registry := services.NewRegistry(about.Endpoint(), home.Endpoint())

	router := gin.New()
	router.POST("/webhooks/content", NewWebhookHandler(services.NewWebhookService(registry)).HandleContentWebhook)

	seed := func() {
		store.Set("/api/about-content/background", map[string]string{"id": "1"}, time.Minute)
		store.Set("/api/about-content/impact", map[string]string{"id": "2"}, time.Minute)
		store.Set("/api/home-content/hero", map[string]string{"id": "3"}, time.Minute)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
		wantKeys   []string
	}{
		{
			name:       "one section",
			body:       `{"service":"about","section":"background","action":"updated"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"invalidated":1}`,
			wantKeys:   []string{"/api/about-content/impact", "/api/home-content/hero"},
		},
		{
			name:       "whole service",
			body:       `{"service":"about","action":"published"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"success":true,"invalidated":2}`,
			wantKeys:   []string{"/api/home-content/hero"},
		},
		{
			name:       "unknown service",
			body:       `{"service":"shop"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown section",
			body:       `{"service":"about","section":"history"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad action",
			body:       `{"service":"about","action":"exploded"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.ClearAll()
			seed()

			w := postJSON(router, "/webhooks/content", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			if tt.wantKeys != nil {
				assert.ElementsMatch(t, tt.wantKeys, store.Keys())
			} else {
				assert.Len(t, store.Keys(), 3)
			}
		})
	}
}

func TestLogsHandler_ReceiveSiteLogs(t *testing.T) {
	var out bytes.Buffer
	handler := NewLogsHandler("", &out)
	router := gin.New()
	router.POST("/logs", handler.ReceiveSiteLogs)

	w := postJSON(router, "/logs", `{"logs":[
		{"timestamp":"2026-10-17T10:00:00Z","level":"warn","message":"section rendered from fallback","page":"about","context":{"section":"about/background"}},
		{"timestamp":"2026-10-17T10:00:01Z","message":"page viewed"}
	]}`)
	handler.Sync()

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"received":2}`, w.Body.String())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"warn"`)
	assert.Contains(t, lines[0], `"page":"about"`)
	assert.Contains(t, lines[0], `"service":"site"`)
	assert.Contains(t, lines[1], `"level":"info"`)
}

func TestLogsHandler_RejectsInvalidBatches(t *testing.T) {
	handler := NewLogsHandler("", &bytes.Buffer{})
	router := gin.New()
	router.POST("/logs", handler.ReceiveSiteLogs)

	for _, body := range []string{
		`{"logs":[]}`,
		`{"logs":[{"message":"x","level":"fatal"}]}`,
		`{"logs":[{"level":"info"}]}`,
		`not json`,
	} {
		w := postJSON(router, "/logs", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}
