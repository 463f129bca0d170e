package pages

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/services"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/metrics"
	"github.com/stemacademy/site-api/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrLoadCanceled is returned when the caller went away before every section settled
var ErrLoadCanceled = errors.New("page load canceled")

const (
	noticePartial  = "Some sections could not be loaded and are showing default content."
	noticeDegraded = "Content is temporarily unavailable. Showing default content."
)

// Slot is one section of a page: a fetch plus the fallback used when it fails
type Slot struct {
	Key     string
	resolve func(ctx context.Context) (source string, errMsg string)
}

// Bind builds a slot that writes the live, cached or fallback value into dst.
// Each slot must own its dst; slots run concurrently.
func Bind[T any](key string, dst *T, fetch func(ctx context.Context) services.Result[T], fallback func() T) Slot {
	return Slot{
		Key: key,
		resolve: func(ctx context.Context) (source string, errMsg string) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("Section fetch panicked",
						zap.String("section", key),
						zap.Any("panic", r))
					*dst = fallback()
					source, errMsg = models.SourceFallback, fmt.Sprintf("panic: %v", r)
				}
			}()

			res := fetch(ctx)
			if res.Success && !models.IsEmptySection(res.Data) {
				*dst = res.Data
				if res.FromCache {
					return models.SourceCache, ""
				}
				return models.SourceLive, ""
			}

			*dst = fallback()
			if res.Success {
				return models.SourceFallback, "section is empty"
			}
			return models.SourceFallback, res.Error
		},
	}
}

// Loader runs page slots with a settle-all join
type Loader struct {
	sectionTimeout time.Duration
}

// NewLoader creates a loader. A positive sectionTimeout bounds each slot;
// zero leaves slots bounded only by the request context.
func NewLoader(sectionTimeout time.Duration) *Loader {
	return &Loader{sectionTimeout: sectionTimeout}
}

// Result is a settled page load
type Result struct {
	Page      string
	Lifecycle *Lifecycle
	Sections  []models.SectionReport
	Duration  time.Duration
}

// Load runs a fresh load of page
func (l *Loader) Load(ctx context.Context, page string, slots ...Slot) (*Result, error) {
	lifecycle := NewLifecycle(page)
	if err := lifecycle.Transition(StateLoading); err != nil {
		return nil, err
	}
	return l.run(ctx, lifecycle, slots)
}

// Retry reruns a finished load from loading
func (l *Loader) Retry(ctx context.Context, previous *Result, slots ...Slot) (*Result, error) {
	if err := previous.Lifecycle.Retry(); err != nil {
		return nil, err
	}
	return l.run(ctx, previous.Lifecycle, slots)
}

func (l *Loader) run(ctx context.Context, lifecycle *Lifecycle, slots []Slot) (*Result, error) {
	page := lifecycle.page
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "page.load", attribute.String("page", page))
	defer span.End()

	reports := make([]models.SectionReport, len(slots))

	// Goroutines never return an error, so Wait is a settle-all join
	var g errgroup.Group
	for i, slot := range slots {
		g.Go(func() error {
			sctx := ctx
			if l.sectionTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(ctx, l.sectionTimeout)
				defer cancel()
			}
			source, errMsg := slot.resolve(sctx)
			reports[i] = models.SectionReport{Key: slot.Key, Source: source, Error: errMsg}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		metrics.PageLoads.WithLabelValues(page, "canceled").Inc()
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("%w: %w", ErrLoadCanceled, err)
	}

	state := settle(reports)
	if err := lifecycle.Transition(state); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	for _, r := range reports {
		metrics.SectionResolutions.WithLabelValues(page, r.Key, r.Source).Inc()
	}
	metrics.PageLoads.WithLabelValues(page, string(state)).Inc()
	metrics.PageLoadDuration.WithLabelValues(page).Observe(duration.Seconds())
	span.SetAttributes(attribute.String("page.state", string(state)))

	if state != StateFullSuccess {
		logger.Warn("Page served with fallback content",
			zap.String("page", page),
			zap.String("state", string(state)),
			zap.Any("sections", reports))
	}

	return &Result{
		Page:      page,
		Lifecycle: lifecycle,
		Sections:  reports,
		Duration:  duration,
	}, nil
}

// Document renders the result into the response body and marks the load rendered
func (r *Result) Document(content any) (models.PageDocument, error) {
	state := r.Lifecycle.Outcome()
	if err := r.Lifecycle.Transition(StateRendered); err != nil {
		return models.PageDocument{}, err
	}

	doc := models.PageDocument{
		Page:     r.Page,
		State:    string(state),
		Sections: r.Sections,
		Content:  content,
	}
	switch state {
	case StatePartialSuccess:
		doc.Notice = noticePartial
	case StateDegradedFallback:
		doc.Notice = noticeDegraded
	}
	return doc, nil
}

func settle(reports []models.SectionReport) LoadState {
	fallbacks := 0
	for _, r := range reports {
		if r.Source == models.SourceFallback {
			fallbacks++
		}
	}
	switch {
	case fallbacks == 0:
		return StateFullSuccess
	case fallbacks == len(reports):
		return StateDegradedFallback
	default:
		return StatePartialSuccess
	}
}
