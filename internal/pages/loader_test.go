package pages_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stemacademy/site-api/internal/models"
	"github.com/stemacademy/site-api/internal/pages"
	"github.com/stemacademy/site-api/internal/services"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func ok[T any](data T) func(context.Context) services.Result[T] {
	return func(context.Context) services.Result[T] {
		return services.Result[T]{Success: true, Data: data}
	}
}

func failing[T any](msg string) func(context.Context) services.Result[T] {
	return func(context.Context) services.Result[T] {
		return services.Result[T]{Error: msg}
	}
}

func fb(value string) func() string {
	return func() string { return value }
}

func TestLoader_AllSectionsLive(t *testing.T) {
	var a, b string
	result, err := pages.NewLoader(0).Load(context.Background(), "test",
		pages.Bind("a", &a, ok("live-a"), fb("fallback-a")),
		pages.Bind("b", &b, ok("live-b"), fb("fallback-b")),
	)
	require.NoError(t, err)

	assert.Equal(t, "live-a", a)
	assert.Equal(t, "live-b", b)
	assert.Equal(t, pages.StateFullSuccess, result.Lifecycle.State())
	assert.Equal(t, []models.SectionReport{
		{Key: "a", Source: models.SourceLive},
		{Key: "b", Source: models.SourceLive},
	}, result.Sections)
}

func TestLoader_CachedSectionReportsCacheSource(t *testing.T) {
	var a string
	result, err := pages.NewLoader(0).Load(context.Background(), "test",
		pages.Bind("a", &a, func(context.Context) services.Result[string] {
			return services.Result[string]{Success: true, Data: "cached", FromCache: true}
		}, fb("fallback")),
	)
	require.NoError(t, err)
	assert.Equal(t, "cached", a)
	assert.Equal(t, models.SourceCache, result.Sections[0].Source)
	assert.Equal(t, pages.StateFullSuccess, result.Lifecycle.State())
}

func TestLoader_EveryFailedSectionGetsItsFallback(t *testing.T) {
	var a string
	var b []models.Activity
	result, err := pages.NewLoader(0).Load(context.Background(), "test",
		pages.Bind("a", &a, failing[string]("boom"), fb("fallback-a")),
		pages.Bind("b", &b, failing[[]models.Activity]("boom"), func() []models.Activity {
			return []models.Activity{{ID: "fb", Title: "Fallback"}}
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "fallback-a", a)
	require.Len(t, b, 1)
	assert.Equal(t, "fb", b[0].ID)
	assert.Equal(t, pages.StateDegradedFallback, result.Lifecycle.State())
	for _, s := range result.Sections {
		assert.Equal(t, models.SourceFallback, s.Source)
		assert.Equal(t, "boom", s.Error)
	}
}

func TestLoader_EmptySectionFallsBack(t *testing.T) {
	var items []models.Activity
	result, err := pages.NewLoader(0).Load(context.Background(), "test",
		pages.Bind("items", &items, ok([]models.Activity{}), func() []models.Activity {
			return []models.Activity{{ID: "fb"}}
		}),
	)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.SourceFallback, result.Sections[0].Source)
	assert.Equal(t, "section is empty", result.Sections[0].Error)
}

func TestLoader_FailuresAreIsolated(t *testing.T) {
	dst := make([]string, 5)
	slots := make([]pages.Slot, 5)
	for i := range slots {
		key := fmt.Sprintf("s%d", i)
		fetch := ok("live-" + key)
		if i == 1 || i == 3 {
			fetch = failing[string]("down")
		}
		slots[i] = pages.Bind(key, &dst[i], fetch, fb("fallback-"+key))
	}

	result, err := pages.NewLoader(0).Load(context.Background(), "test", slots...)
	require.NoError(t, err)

	assert.Equal(t, []string{"live-s0", "fallback-s1", "live-s2", "fallback-s3", "live-s4"}, dst)
	assert.Equal(t, pages.StatePartialSuccess, result.Lifecycle.State())
	for i, s := range result.Sections {
		assert.Equal(t, fmt.Sprintf("s%d", i), s.Key, "reports keep slot order")
	}
}

func TestLoader_JoinWaitsForSlowestSection(t *testing.T) {
	var slow, fast string
	start := time.Now()

	result, err := pages.NewLoader(0).Load(context.Background(), "test",
		pages.Bind("slow", &slow, func(context.Context) services.Result[string] {
			time.Sleep(50 * time.Millisecond)
			return services.Result[string]{Success: true, Data: "live"}
		}, fb("fallback-slow")),
		pages.Bind("fast", &fast, func(context.Context) services.Result[string] {
			time.Sleep(10 * time.Millisecond)
			return services.Result[string]{Error: "failed fast"}
		}, fb("fallback-fast")),
	)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, "live", slow)
	assert.Equal(t, "fallback-fast", fast)
	assert.Equal(t, pages.StatePartialSuccess, result.Lifecycle.State())
}

func TestLoader_SectionsRunConcurrently(t *testing.T) {
	var running, peak atomic.Int32
	fetch := func(context.Context) services.Result[string] {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return services.Result[string]{Success: true, Data: "x"}
	}

	var a, b, c string
	_, err := pages.NewLoader(0).Load(context.Background(), "test",
		pages.Bind("a", &a, fetch, fb("")),
		pages.Bind("b", &b, fetch, fb("")),
		pages.Bind("c", &c, fetch, fb("")),
	)
	require.NoError(t, err)
	assert.Equal(t, int32(3), peak.Load())
}

func TestLoader_PanicIsTreatedAsFailure(t *testing.T) {
	var a, b string
	result, err := pages.NewLoader(0).Load(context.Background(), "test",
		pages.Bind("a", &a, func(context.Context) services.Result[string] {
			panic("nil map")
		}, fb("fallback-a")),
		pages.Bind("b", &b, ok("live-b"), fb("fallback-b")),
	)
	require.NoError(t, err)

	assert.Equal(t, "fallback-a", a)
	assert.Equal(t, "live-b", b)
	assert.Contains(t, result.Sections[0].Error, "nil map")
	assert.Equal(t, pages.StatePartialSuccess, result.Lifecycle.State())
}

func TestLoader_SectionTimeout(t *testing.T) {
	var a string
	result, err := pages.NewLoader(20*time.Millisecond).Load(context.Background(), "test",
		pages.Bind("a", &a, func(ctx context.Context) services.Result[string] {
			select {
			case <-ctx.Done():
				return services.Result[string]{Error: "content service timed out"}
			case <-time.After(time.Second):
				return services.Result[string]{Success: true, Data: "late"}
			}
		}, fb("fallback-a")),
	)
	require.NoError(t, err)
	assert.Equal(t, "fallback-a", a)
	assert.Equal(t, pages.StateDegradedFallback, result.Lifecycle.State())
}

func TestLoader_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var a string
	_, err := pages.NewLoader(0).Load(ctx, "test",
		pages.Bind("a", &a, func(ctx context.Context) services.Result[string] {
			cancel()
			<-ctx.Done()
			return services.Result[string]{Error: "request canceled"}
		}, fb("fallback-a")),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, pages.ErrLoadCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoader_RetryReloads(t *testing.T) {
	var calls atomic.Int32
	var a string
	slot := pages.Bind("a", &a, func(context.Context) services.Result[string] {
		if calls.Add(1) == 1 {
			return services.Result[string]{Error: "down"}
		}
		return services.Result[string]{Success: true, Data: "live"}
	}, fb("fallback"))

	loader := pages.NewLoader(0)
	first, err := loader.Load(context.Background(), "test", slot)
	require.NoError(t, err)
	assert.Equal(t, pages.StateDegradedFallback, first.Lifecycle.State())
	assert.Equal(t, "fallback", a)

	_, err = first.Document(nil)
	require.NoError(t, err)

	second, err := loader.Retry(context.Background(), first, slot)
	require.NoError(t, err)
	assert.Equal(t, "live", a)
	assert.Equal(t, pages.StateFullSuccess, second.Lifecycle.State())
	assert.Equal(t, 2, second.Lifecycle.Attempt())
}

func TestResult_Document(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		wantState  pages.LoadState
		wantNotice bool
	}{
		{name: "full", failures: 0, wantState: pages.StateFullSuccess},
		{name: "partial", failures: 1, wantState: pages.StatePartialSuccess, wantNotice: true},
		{name: "degraded", failures: 2, wantState: pages.StateDegradedFallback, wantNotice: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a, b string
			fetchA, fetchB := ok("a"), ok("b")
			if tt.failures > 0 {
				fetchA = failing[string]("x")
			}
			if tt.failures > 1 {
				fetchB = failing[string]("x")
			}

			result, err := pages.NewLoader(0).Load(context.Background(), "test",
				pages.Bind("a", &a, fetchA, fb("fa")),
				pages.Bind("b", &b, fetchB, fb("fb")),
			)
			require.NoError(t, err)

			doc, err := result.Document(map[string]string{"a": a, "b": b})
			require.NoError(t, err)
			assert.Equal(t, "test", doc.Page)
			assert.Equal(t, string(tt.wantState), doc.State)
			assert.Equal(t, tt.wantNotice, doc.Notice != "")
			assert.Len(t, doc.Sections, 2)
			assert.Equal(t, pages.StateRendered, result.Lifecycle.State())

			_, err = result.Document(nil)
			assert.Error(t, err, "a rendered load cannot render again")
		})
	}
}

func TestLoader_RealServiceAgainstUnreachableCMS(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	about := services.NewAboutService(newDeps(baseURL))
	var background models.AboutSection

	result, err := pages.NewLoader(0).Load(context.Background(), "about",
		pages.Bind("about/background", &background, func(ctx context.Context) services.Result[models.AboutSection] {
			return about.GetSection(ctx, services.AboutSectionBackground)
		}, func() models.AboutSection {
			return models.AboutSection{ID: "fb", Title: "Background Information"}
		}),
	)
	require.NoError(t, err)
	assert.Equal(t, "Background Information", background.Title)
	assert.Equal(t, models.SourceFallback, result.Sections[0].Source)
	assert.NotEmpty(t, result.Sections[0].Error)
}
