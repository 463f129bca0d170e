package services_test

import (
	"context"

	"github.com/stemacademy/site-api/pkg/httpclient"
	"github.com/stretchr/testify/mock"
)

// MockCMSClient is a mock implementation of services.CMSClient
type MockCMSClient struct {
	mock.Mock
}

func (m *MockCMSClient) Get(ctx context.Context, endpoint string) (*httpclient.Response, error) {
	args := m.Called(ctx, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*httpclient.Response), args.Error(1)
}

func (m *MockCMSClient) Post(ctx context.Context, endpoint string, body any) (*httpclient.Response, error) {
	args := m.Called(ctx, endpoint, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*httpclient.Response), args.Error(1)
}

func (m *MockCMSClient) Put(ctx context.Context, endpoint string, body any) (*httpclient.Response, error) {
	args := m.Called(ctx, endpoint, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*httpclient.Response), args.Error(1)
}

func (m *MockCMSClient) Delete(ctx context.Context, endpoint string) (*httpclient.Response, error) {
	args := m.Called(ctx, endpoint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*httpclient.Response), args.Error(1)
}

// MockCaptchaVerifier is a mock implementation of services.CaptchaVerifier
type MockCaptchaVerifier struct {
	mock.Mock
}

func (m *MockCaptchaVerifier) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// MockImageUploader is a mock implementation of services.ImageUploader
type MockImageUploader struct {
	mock.Mock
}

func (m *MockImageUploader) UploadImage(ctx context.Context, data []byte, key, contentType string) (string, error) {
	args := m.Called(ctx, data, key, contentType)
	return args.String(0), args.Error(1)
}

func okResponse(body string) *httpclient.Response {
	return &httpclient.Response{StatusCode: 200, Body: []byte(body)}
}
