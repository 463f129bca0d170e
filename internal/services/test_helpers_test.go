package services_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stemacademy/site-api/internal/cache"
	"github.com/stemacademy/site-api/internal/services"
	"github.com/stemacademy/site-api/pkg/httpclient"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/retry"
)

func init() {
	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

// fakeCMS is an httptest CMS that serves canned envelopes per path
type fakeCMS struct {
	*httptest.Server
	mu       sync.Mutex
	routes   map[string]func(w http.ResponseWriter, r *http.Request)
	hits     map[string]*atomic.Int32
	requests []*http.Request
}

func newFakeCMS(t *testing.T) *fakeCMS {
	t.Helper()
	cms := &fakeCMS{
		routes: map[string]func(w http.ResponseWriter, r *http.Request){},
		hits:   map[string]*atomic.Int32{},
	}
	cms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		cms.mu.Lock()
		handler, ok := cms.routes[key]
		counter := cms.hits[key]
		cms.requests = append(cms.requests, r)
		cms.mu.Unlock()
		if counter != nil {
			counter.Add(1)
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(cms.Close)
	return cms
}

func (c *fakeCMS) handle(method, path string, handler func(w http.ResponseWriter, r *http.Request)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := method + " " + path
	c.routes[key] = handler
	if c.hits[key] == nil {
		c.hits[key] = &atomic.Int32{}
	}
}

func (c *fakeCMS) respond(method, path string, status int, body any) {
	c.handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

func (c *fakeCMS) hitCount(method, path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if counter := c.hits[method+" "+path]; counter != nil {
		return int(counter.Load())
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func envelope(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

// newDeps builds content deps against baseURL with a memory cache and fast retries
func newDeps(baseURL string, store *cache.Store) services.ContentDeps {
	if store == nil {
		store = cache.NewStore(cache.NewMemoryStorage(0))
	}
	retryCfg := retry.ContentConfig(2, time.Millisecond, 5*time.Millisecond)
	retryCfg.Jitter = false
	return services.NewContentDeps(httpclient.NewCMSClient(baseURL, nil), store, retryCfg, time.Minute)
}
