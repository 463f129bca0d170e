package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stemacademy/site-api/internal/cache"
	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/pkg/circuitbreaker"
	apperrors "github.com/stemacademy/site-api/pkg/errors"
	"github.com/stemacademy/site-api/pkg/httpclient"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/metrics"
	"github.com/stemacademy/site-api/pkg/retry"
	"go.uber.org/zap"
)

// ContentDeps is what every content endpoint shares: one CMS client, one
// cache, one retry policy and one breaker guarding the CMS.
type ContentDeps struct {
	Client  CMSClient
	Cache   *cache.Store
	Retry   retry.Config
	Breaker *gobreaker.CircuitBreaker
	TTL     time.Duration
}

// NewContentDeps wires the defaults for anything left empty
func NewContentDeps(client CMSClient, store *cache.Store, retryCfg retry.Config, ttl time.Duration) ContentDeps {
	if store == nil {
		store = cache.NewStore(nil)
	}
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}

	// An open breaker already means "stop calling"; retrying it only burns the backoff
	base := retryCfg.RetryableErrors
	if base == nil {
		base = retry.IsRetryable
	}
	retryCfg.RetryableErrors = func(err error) bool {
		return !circuitbreaker.IsOpen(err) && base(err)
	}

	cbConfig := circuitbreaker.DefaultConfig("cms")
	// The CMS answering 4xx or success:false is healthy; only outages trip the breaker
	cbConfig.IsOutage = retry.IsRetryable

	return ContentDeps{
		Client:  client,
		Cache:   store,
		Retry:   retryCfg,
		Breaker: circuitbreaker.NewCircuitBreaker(cbConfig),
		TTL:     ttl,
	}
}

// Result is the uniform outcome of a section fetch. It never carries a Go
// error: callers branch on Success and use Error for reporting.
type Result[T any] struct {
	Success   bool
	Data      T
	Error     string
	FromCache bool
}

// Endpoint is one CMS collection such as /api/about-content. It owns the
// cache keys under its path and performs the mutations.
type Endpoint struct {
	deps     ContentDeps
	name     string
	path     string
	sections []string

	// generations counts invalidations per section; "" is the whole endpoint.
	// A read only caches what it fetched if no invalidation happened meanwhile.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewEndpoint creates an endpoint named name at path serving sections
func NewEndpoint(deps ContentDeps, name, path string, sections ...string) *Endpoint {
	return &Endpoint{
		deps:        deps,
		name:        name,
		path:        strings.TrimRight(path, "/"),
		sections:    sections,
		generations: make(map[string]uint64),
	}
}

// Sections lists the section names this endpoint accepts
func (e *Endpoint) Sections() []string {
	return append([]string(nil), e.sections...)
}

// HasSection reports whether section is one of this endpoint's sections
func (e *Endpoint) HasSection(section string) bool {
	for _, s := range e.sections {
		if s == section {
			return true
		}
	}
	return false
}

// Name returns the service name used on the admin API
func (e *Endpoint) Name() string {
	return e.name
}

// Path returns the CMS path
func (e *Endpoint) Path() string {
	return e.path
}

// CacheKey builds the key for a section read: path, section and the query
// params in sorted order, so equal queries share one entry.
func (e *Endpoint) CacheKey(section string, params url.Values) string {
	key := e.sectionPath(section)
	if encoded := params.Encode(); encoded != "" {
		key += "?" + encoded
	}
	return key
}

func (e *Endpoint) sectionPath(section string) string {
	if section == "" {
		return e.path
	}
	return e.path + "/" + url.PathEscape(section)
}

// fetch performs one guarded, retried GET and returns the envelope data
func (e *Endpoint) fetch(ctx context.Context, section string, params url.Values) (json.RawMessage, error) {
	target := e.CacheKey(section, params)
	operation := "cms." + e.name + "." + section

	return retry.DoWithResult(ctx, e.deps.Retry, operation, func() (json.RawMessage, error) {
		return circuitbreaker.Execute(e.deps.Breaker, func() (json.RawMessage, error) {
			resp, err := e.deps.Client.Get(ctx, target)
			if err != nil {
				return nil, err
			}
			return unwrapEnvelope(resp)
		})
	})
}

// Create posts a new record to section and invalidates the section
func (e *Endpoint) Create(ctx context.Context, section string, payload any) models.MutationResult {
	return e.mutate(ctx, section, "create", func() (*httpclient.Response, error) {
		return e.deps.Client.Post(ctx, e.sectionPath(section), payload)
	})
}

// Update replaces record id in section and invalidates the section
func (e *Endpoint) Update(ctx context.Context, section, id string, payload any) models.MutationResult {
	return e.mutate(ctx, section, "update", func() (*httpclient.Response, error) {
		return e.deps.Client.Put(ctx, e.sectionPath(section)+"/"+url.PathEscape(id), payload)
	})
}

// Delete removes record id from section and invalidates the section
func (e *Endpoint) Delete(ctx context.Context, section, id string) models.MutationResult {
	return e.mutate(ctx, section, "delete", func() (*httpclient.Response, error) {
		return e.deps.Client.Delete(ctx, e.sectionPath(section)+"/"+url.PathEscape(id))
	})
}

func (e *Endpoint) mutate(ctx context.Context, section, operation string, call func() (*httpclient.Response, error)) models.MutationResult {
	label := e.name + "/" + section

	// Mutations are not idempotent, so they go through the breaker but are never retried
	data, err := circuitbreaker.Execute(e.deps.Breaker, func() (json.RawMessage, error) {
		resp, err := call()
		if err != nil {
			return nil, err
		}
		return unwrapEnvelope(resp)
	})

	// Invalidate even on failure: the CMS may have applied the write before erroring
	invalidated := e.Invalidate(section)

	if err != nil {
		metrics.ContentMutations.WithLabelValues(label, operation, "error").Inc()
		logger.Error("Content mutation failed",
			zap.String("section", label),
			zap.String("operation", operation),
			zap.Error(err))
		result := models.MutationResult{
			Success:     false,
			Error:       describeError(err),
			Invalidated: invalidated,
		}
		var statusErr *httpclient.StatusError
		switch {
		case apperrors.As(err, &statusErr):
			result.UpstreamStatus = statusErr.StatusCode
		case apperrors.Is(err, apperrors.ErrApplication) && !apperrors.Is(err, errMalformedResponse):
			result.Rejected = true
		}
		return result
	}

	metrics.ContentMutations.WithLabelValues(label, operation, "success").Inc()
	logger.Info("Content mutated",
		zap.String("section", label),
		zap.String("operation", operation),
		zap.Int("invalidated", invalidated))

	return models.MutationResult{
		Success:     true,
		Data:        data,
		Invalidated: invalidated,
	}
}

// Invalidate drops every cached read of section, whatever its query params.
// Other sections keep their entries. Reads already in flight for section will
// not write their result back.
func (e *Endpoint) Invalidate(section string) int {
	if section == "" {
		return e.InvalidateAll()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.generations[section]++

	base := e.sectionPath(section)
	// Exact key plus its query variants; a bare prefix would also hit sibling
	// sections sharing a name prefix ("team" vs "team-leads").
	return e.deps.Cache.RemovePrefixFunc(base, func(key string) bool {
		return key == base || strings.HasPrefix(key, base+"?")
	})
}

// InvalidateAll drops every cached read under this endpoint
func (e *Endpoint) InvalidateAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generations[""]++

	return e.deps.Cache.RemovePrefix(e.path + "/")
}

// cacheStamp is what a read saw before fetching
type cacheStamp struct {
	gen   uint64
	epoch uint64
}

// stamp snapshots the invalidation count covering section and the store's
// clear epoch
func (e *Endpoint) stamp(section string) cacheStamp {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cacheStamp{
		gen:   e.generations[""] + e.generations[section],
		epoch: e.deps.Cache.Epoch(),
	}
}

// cacheIfCurrent stores data under key unless section was invalidated, or the
// whole cache cleared, after st was taken. Holding e.mu orders the write
// against Invalidate.
func (e *Endpoint) cacheIfCurrent(section string, st cacheStamp, key string, data any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.generations[""]+e.generations[section] != st.gen {
		return false
	}
	return e.deps.Cache.SetIfEpoch(key, data, e.deps.TTL, st.epoch)
}

// ContentService fetches one section shape from an endpoint
type ContentService[T any] struct {
	endpoint  *Endpoint
	normalize func(T) T
}

// NewContentService creates a typed reader over endpoint. normalize may be nil.
func NewContentService[T any](endpoint *Endpoint, normalize func(T) T) *ContentService[T] {
	return &ContentService[T]{
		endpoint:  endpoint,
		normalize: normalize,
	}
}

// Endpoint returns the underlying endpoint
func (s *ContentService[T]) Endpoint() *Endpoint {
	return s.endpoint
}

// GetSectionContent returns the section from cache or the CMS. Any failure
// becomes Result{Success: false}; an empty payload is a success with zero Data
// and is not cached.
func (s *ContentService[T]) GetSectionContent(ctx context.Context, section string, params url.Values) Result[T] {
	e := s.endpoint
	key := e.CacheKey(section, params)

	var cached T
	if e.deps.Cache.Load(key, &cached) {
		return Result[T]{Success: true, Data: cached, FromCache: true}
	}

	st := e.stamp(section)
	raw, err := e.fetch(ctx, section, params)
	if err != nil {
		logger.Warn("Section fetch failed",
			zap.String("service", e.name),
			zap.String("section", section),
			zap.Error(err))
		return Result[T]{Error: describeError(err)}
	}

	var data T
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &data); err != nil {
			logger.Warn("Section payload has unexpected shape",
				zap.String("service", e.name),
				zap.String("section", section),
				zap.Error(err))
			return Result[T]{Error: "malformed section payload"}
		}
	}

	if s.normalize != nil {
		data = s.normalize(data)
	}

	if models.IsEmptySection(data) {
		return Result[T]{Success: true, Data: data}
	}

	if err := models.ValidateSection(data); err != nil {
		logger.Warn("Section payload failed validation",
			zap.String("service", e.name),
			zap.String("section", section),
			zap.Error(err))
		return Result[T]{Error: "invalid section payload: " + err.Error()}
	}

	if !e.cacheIfCurrent(section, st, key, data) {
		logger.Debug("Section changed during fetch, result not cached",
			zap.String("service", e.name),
			zap.String("section", section))
	}
	return Result[T]{Success: true, Data: data}
}

var errMalformedResponse = errors.New("malformed CMS response")

func unwrapEnvelope(resp *httpclient.Response) (json.RawMessage, error) {
	var envelope models.Envelope
	if err := resp.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedResponse, apperrors.ApplicationError(err.Error()))
	}
	if !envelope.Success {
		return nil, apperrors.ApplicationError(envelope.Error)
	}
	return envelope.Data, nil
}

// describeError renders an error for Result.Error without leaking CMS bodies
func describeError(err error) string {
	var statusErr *httpclient.StatusError
	switch {
	case apperrors.As(err, &statusErr):
		return fmt.Sprintf("content service responded with status %d", statusErr.StatusCode)
	case circuitbreaker.IsOpen(err):
		return "content service temporarily unavailable"
	case apperrors.Is(err, context.DeadlineExceeded):
		return "content service timed out"
	case apperrors.Is(err, context.Canceled):
		return "request canceled"
	default:
		return err.Error()
	}
}

// publishedList is the normalize func for list sections
func publishedList[T models.Record](items []T) []T {
	return models.PublishedSorted(items)
}

// publishedRecord blanks a single record the CMS marked unpublished
func publishedRecord[T models.Record](item T) T {
	if !item.Published() {
		var zero T
		return zero
	}
	return item
}
