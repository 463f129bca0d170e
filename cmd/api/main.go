package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"

	"github.com/stemacademy/site-api/config"
	"github.com/stemacademy/site-api/internal/cache"
	"github.com/stemacademy/site-api/internal/handlers"
	"github.com/stemacademy/site-api/internal/middleware"
	"github.com/stemacademy/site-api/internal/pages"
	"github.com/stemacademy/site-api/internal/services"
	"github.com/stemacademy/site-api/pkg/circuitbreaker"
	"github.com/stemacademy/site-api/pkg/httpclient"
	"github.com/stemacademy/site-api/pkg/jwt"
	"github.com/stemacademy/site-api/pkg/logger"
	"github.com/stemacademy/site-api/pkg/mediastore"
	"github.com/stemacademy/site-api/pkg/metrics"
	"github.com/stemacademy/site-api/pkg/profiling"
	"github.com/stemacademy/site-api/pkg/recaptcha"
	"github.com/stemacademy/site-api/pkg/retry"
	"github.com/stemacademy/site-api/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// pageCacheControl lets browsers and CDNs reuse a page document briefly
const pageCacheControl = "public, max-age=60"

// registerPublicRoutes registers the routes the site itself calls
func registerPublicRoutes(
	group *gin.RouterGroup,
	generalRateLimiter, contactRateLimiter *middleware.RateLimiter,
	pagesHandler *handlers.PagesHandler,
	contactHandler *handlers.ContactHandler,
	logsHandler *handlers.LogsHandler,
) {
	pagesGroup := group.Group("/pages", generalRateLimiter.Middleware(), middleware.CacheControlMiddleware(pageCacheControl))
	pagesGroup.GET("/home", pagesHandler.Home)
	pagesGroup.GET("/about", pagesHandler.About)
	pagesGroup.GET("/team", pagesHandler.Team)
	pagesGroup.GET("/gallery", pagesHandler.Gallery)
	pagesGroup.GET("/blog", pagesHandler.Blog)
	pagesGroup.GET("/blog/:slug", pagesHandler.BlogPost)

	group.POST("/contact", contactRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(100*1024), middleware.CacheControlMiddleware(middleware.NoStore), contactHandler.SubmitContact)
	group.POST("/logs", generalRateLimiter.Middleware(), middleware.BodySizeLimitMiddleware(middleware.DefaultBodyLimit), logsHandler.ReceiveSiteLogs)
}

// registerAdminRoutes registers content editing and cache housekeeping
func registerAdminRoutes(
	group *gin.RouterGroup,
	tokenManager *jwt.TokenManager,
	adminRateLimiter *middleware.RateLimiter,
	contentHandler *handlers.AdminContentHandler,
	mediaHandler *handlers.MediaHandler,
	cacheHandler *handlers.CacheHandler,
) {
	if tokenManager == nil {
		logger.Warn("Admin routes disabled: JWT_SECRET not configured")
	}

	admin := group.Group("/admin",
		adminRateLimiter.Middleware(),
		middleware.CacheControlMiddleware(middleware.NoStore),
		middleware.AdminAuthMiddleware(tokenManager),
	)

	admin.GET("/content", contentHandler.ListServices)
	admin.POST("/content/:service/:section", middleware.BodySizeLimitMiddleware(middleware.DefaultBodyLimit), contentHandler.Create)
	admin.PUT("/content/:service/:section/:id", middleware.BodySizeLimitMiddleware(middleware.DefaultBodyLimit), contentHandler.Update)
	admin.DELETE("/content/:service/:section/:id", contentHandler.Delete)
	admin.POST("/invalidate/:service", contentHandler.Invalidate)
	admin.POST("/invalidate/:service/:section", contentHandler.Invalidate)
	admin.POST("/gallery/upload", middleware.BodySizeLimitMiddleware(middleware.UploadBodyLimit), mediaHandler.UploadGalleryImage)

	// Whole-cache operations are admin only; editors manage content
	admin.GET("/cache", cacheHandler.Status)
	admin.DELETE("/cache", middleware.RequireRole(jwt.RoleAdmin), cacheHandler.Clear)
	admin.POST("/cache/purge-expired", middleware.RequireRole(jwt.RoleAdmin), cacheHandler.PurgeExpired)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting STEM site API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(tracing.Options{
		ServiceName:       cfg.Observability.ServiceName,
		ServiceNamespace:  cfg.Observability.ServiceNamespace,
		ServiceVersion:    cfg.Observability.ServiceVersion,
		ServiceInstanceID: cfg.Observability.ServiceInstanceID,
		Environment:       cfg.Server.AppEnv,
		Endpoint:          cfg.Observability.ExporterEndpoint,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize continuous profiling
	stopProfiler, err := profiling.InitProfiler(cfg.Profiling, profiling.Service{
		Name:        cfg.Observability.ServiceName,
		Namespace:   cfg.Observability.ServiceNamespace,
		Version:     cfg.Observability.ServiceVersion,
		InstanceID:  cfg.Observability.ServiceInstanceID,
		Environment: cfg.Server.AppEnv,
	})
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer stopProfiler()

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Background work stops with the process
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Content cache
	var storage cache.Storage
	if cfg.Cache.Enabled {
		storage = cache.OpenStorage(cache.StorageOptions{
			Backend:    cfg.Cache.Backend,
			Path:       cfg.Cache.Path,
			MaxBytes:   cfg.Cache.MaxBytes,
			MaxEntries: cfg.Cache.MaxEntries,
		})
	}
	store := cache.NewStore(storage, cache.WithPrefix(cfg.Cache.KeyPrefix), cache.WithName("content"))
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("Failed to close content cache", zap.Error(closeErr))
		}
	}()
	go purgeExpired(appCtx, store, 5*time.Minute)

	// CMS client and shared content plumbing
	cmsClient := httpclient.NewCMSClient(cfg.CMS.BaseURL, httpclient.NewContextClient(nil))
	logger.Info("Content service configured", zap.String("base_url", cmsClient.BaseURL()))
	retryCfg := retry.ContentConfig(
		cfg.Retry.MaxRetries,
		time.Duration(cfg.Retry.InitialDelayMs)*time.Millisecond,
		time.Duration(cfg.Retry.MaxDelayMs)*time.Millisecond,
	)
	deps := services.NewContentDeps(cmsClient, store, retryCfg, cfg.CacheTTL())

	// Media storage for gallery uploads
	var uploader services.ImageUploader
	if cfg.MediaStorageEnabled() {
		mediaClient, mediaErr := mediastore.NewStorageClient(mediastore.Options{
			AccessKeyID:     cfg.MediaStorage.AccessKeyID,
			SecretAccessKey: cfg.MediaStorage.SecretAccessKey,
			BucketName:      cfg.MediaStorage.BucketName,
			Endpoint:        cfg.MediaStorage.Endpoint,
			Region:          cfg.MediaStorage.Region,
			PublicBaseURL:   cfg.MediaStorage.PublicBaseURL,
		})
		if mediaErr != nil {
			logger.Fatal("Failed to initialize media storage client", zap.Error(mediaErr))
		}
		uploader = mediaClient
	} else {
		logger.Warn("Gallery uploads disabled: media storage not configured")
	}

	// Admin tokens
	var tokenManager *jwt.TokenManager
	if cfg.AdminAuthEnabled() {
		tokenManager = jwt.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.TokenTTLHours)
	}

	// Initialize services
	homeService := services.NewHomeService(deps)
	aboutService := services.NewAboutService(deps)
	teamService := services.NewTeamService(deps)
	galleryService := services.NewGalleryService(deps)
	blogService := services.NewBlogService(deps)
	registry := services.NewRegistry(
		homeService.Endpoint(),
		aboutService.Endpoint(),
		teamService.Endpoint(),
		galleryService.Endpoint(),
		blogService.Endpoint(),
	)
	verifier := recaptcha.NewVerifier(cfg.ReCAPTCHA.SecretKey, httpclient.NewStandardClient())
	if !verifier.Enabled() {
		logger.Warn("ReCAPTCHA verification disabled: RECAPTCHA_SECRET_KEY not set")
	}
	contactService := services.NewContactService(cmsClient, verifier)
	mediaService := services.NewMediaService(uploader, galleryService)
	webhookService := services.NewWebhookService(registry)

	pageController := pages.NewController(
		pages.NewLoader(cfg.CMS.SectionTimeout),
		homeService,
		aboutService,
		teamService,
		galleryService,
		blogService,
	)

	// Initialize handlers
	pagesHandler := handlers.NewPagesHandler(pageController)
	contactHandler := handlers.NewContactHandler(contactService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	adminContentHandler := handlers.NewAdminContentHandler(registry)
	mediaHandler := handlers.NewMediaHandler(mediaService)
	cacheHandler := handlers.NewCacheHandler(store)
	logsHandler := handlers.NewLogsHandler(cfg.Logging.Dir, os.Stdout)
	defer logsHandler.Sync()
	healthHandler := handlers.NewHealthHandler(
		cacheCheck(store),
		breakerCheck(deps.Breaker),
	)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS configuration: only the site's own origins
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader, "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Rate limiters per endpoint type
	generalRateLimiter := middleware.NewRateLimiter(appCtx, 50, 100) // 50 req/sec, burst of 100
	contactRateLimiter := middleware.NewRateLimiter(appCtx, 0.05, 3) // 3 req/min, burst of 3 (prevent spam)
	adminRateLimiter := middleware.NewRateLimiter(appCtx, 10, 20)    // 10 req/sec, burst of 20
	webhookRateLimiter := middleware.NewRateLimiter(appCtx, 20, 40)  // 20 req/sec, burst of 40

	// Utility endpoints (not versioned - operational endpoints)
	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	registerPublicRoutes(v1, generalRateLimiter, contactRateLimiter, pagesHandler, contactHandler, logsHandler)
	v1.POST("/webhooks/content",
		webhookRateLimiter.Middleware(),
		middleware.BodySizeLimitMiddleware(64*1024),
		middleware.WebhookSecretMiddleware(cfg.Auth.WebhookSecret),
		webhookHandler.HandleContentWebhook,
	)
	registerAdminRoutes(v1, tokenManager, adminRateLimiter, adminContentHandler, mediaHandler, cacheHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopApp()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// purgeExpired drops stale cache entries periodically until ctx is done
func purgeExpired(ctx context.Context, store *cache.Store, every time.Duration) {
	if !store.Enabled() {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := store.ClearExpired(); removed > 0 {
				logger.Debug("Purged expired cache entries", zap.Int("removed", removed))
			}
		}
	}
}

func cacheCheck(store *cache.Store) handlers.HealthCheck {
	return func() (string, string, bool) {
		if !store.Enabled() {
			return "cache", "disabled", true
		}
		return "cache", "enabled", true
	}
}

// breakerCheck reports the CMS breaker; an open breaker means pages are
// being served from cache and fallback content
func breakerCheck(cb *gobreaker.CircuitBreaker) handlers.HealthCheck {
	return func() (string, string, bool) {
		state := circuitbreaker.GetState(cb)
		return "cms", state, cb.State() != gobreaker.StateOpen
	}
}
