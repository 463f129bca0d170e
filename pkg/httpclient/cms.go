package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/metrics"
	"github.com/stemacademy/site-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxErrorBodyBytes = 2048

// StatusError is returned for any non-2xx CMS response
type StatusError struct {
	StatusCode int
	Method     string
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// Temporary reports whether the status is worth retrying
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Response is a fully read CMS response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the response body into dst
func (r *Response) Decode(dst any) error {
	if err := json.Unmarshal(r.Body, dst); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// CMSClient issues JSON requests against the content-management backend.
// It performs no retries; callers own that policy.
type CMSClient struct {
	baseURL string
	client  Client
}

// NewCMSClient creates a CMS client rooted at baseURL
func NewCMSClient(baseURL string, client Client) *CMSClient {
	if client == nil {
		client = NewContextClient(nil)
	}
	return &CMSClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// BaseURL returns the configured CMS root
func (c *CMSClient) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request
func (c *CMSClient) Get(ctx context.Context, endpoint string) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil)
}

// Post issues a POST request with a JSON body
func (c *CMSClient) Post(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, endpoint, body)
}

// Put issues a PUT request with a JSON body
func (c *CMSClient) Put(ctx context.Context, endpoint string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, endpoint, body)
}

// Delete issues a DELETE request
func (c *CMSClient) Delete(ctx context.Context, endpoint string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil)
}

func (c *CMSClient) do(ctx context.Context, method, endpoint string, body any) (*Response, error) {
	url := c.baseURL + endpoint
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "cms."+strings.ToLower(method),
		attribute.String("http.request.method", method),
		attribute.String("url.full", url),
	)
	defer span.End()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			tracing.RecordError(span, err)
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.record(ctx, method, endpoint, "error", start, zap.Error(err))
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, method, endpoint, "error", start, zap.Error(err))
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		statusErr := &StatusError{
			StatusCode: resp.StatusCode,
			Method:     method,
			URL:        url,
			Body:       truncate(string(data), maxErrorBodyBytes),
		}
		c.record(ctx, method, endpoint, strconv.Itoa(resp.StatusCode), start, zap.Int("status_code", resp.StatusCode))
		tracing.RecordError(span, statusErr)
		return nil, statusErr
	}

	c.record(ctx, method, endpoint, "success", start)

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (c *CMSClient) record(ctx context.Context, method, endpoint, status string, start time.Time, fields ...zap.Field) {
	duration := metrics.MeasureDuration(start)
	metricStatus := status
	if status != "success" {
		metricStatus = "error"
	}
	metrics.CMSRequestDuration.WithLabelValues(method, metricStatus).Observe(duration)
	metrics.CMSRequestTotal.WithLabelValues(method, metricStatus).Inc()
	logger.LogAPICall(ctx, "cms", method+" "+endpoint, metricStatus, duration, fields...)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
