package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	CMS           CMSConfig
	Cache         CacheConfig
	Retry         RetryConfig
	MediaStorage  MediaStorageConfig
	Auth          AuthConfig
	ReCAPTCHA     ReCAPTCHAConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	BaseURL        string
	AllowedOrigins []string
}

// CMSConfig describes the external content-management backend
type CMSConfig struct {
	BaseURL string
	// SectionTimeout bounds a single section fetch inside a page load (0 disables)
	SectionTimeout time.Duration
}

type CacheConfig struct {
	Enabled    bool
	Backend    string // "bolt", "memory" or "none"
	Path       string
	KeyPrefix  string
	TTLMinutes int
	MaxBytes   int64
	MaxEntries int
}

type RetryConfig struct {
	MaxRetries     int
	InitialDelayMs int
	MaxDelayMs     int
}

type MediaStorageConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
	PublicBaseURL   string
}

type AuthConfig struct {
	JWTSecret     string
	JWTIssuer     string
	TokenTTLHours int
	WebhookSecret string
}

type ReCAPTCHAConfig struct {
	SecretKey string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8081")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "http://localhost:8081")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("CMS_SECTION_TIMEOUT_MS", 8000)
	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_BACKEND", "bolt")
	v.SetDefault("CACHE_PATH", "data/content-cache.db")
	v.SetDefault("CACHE_KEY_PREFIX", "stem_cache_")
	v.SetDefault("CACHE_TTL_MINUTES", 30)
	v.SetDefault("CACHE_MAX_BYTES", 5*1024*1024) // roughly what a browser grants localStorage
	v.SetDefault("CACHE_MAX_ENTRIES", 500)
	v.SetDefault("RETRY_MAX_RETRIES", 2)
	v.SetDefault("RETRY_INITIAL_DELAY_MS", 200)
	v.SetDefault("RETRY_MAX_DELAY_MS", 2000)
	v.SetDefault("MEDIA_STORAGE_REGION", "us-east-1")
	v.SetDefault("JWT_ISSUER", "stem-site-api")
	v.SetDefault("ADMIN_TOKEN_TTL_HOURS", 12)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_SERVICE_NAME", "stem-site-api")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "stem-site")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "stem-site-api")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,goroutines")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			BaseURL:        v.GetString("BASE_URL"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		CMS: CMSConfig{
			BaseURL:        v.GetString("CMS_API_BASE_URL"),
			SectionTimeout: time.Duration(v.GetInt("CMS_SECTION_TIMEOUT_MS")) * time.Millisecond,
		},
		Cache: CacheConfig{
			Enabled:    v.GetBool("CACHE_ENABLED"),
			Backend:    strings.ToLower(v.GetString("CACHE_BACKEND")),
			Path:       v.GetString("CACHE_PATH"),
			KeyPrefix:  v.GetString("CACHE_KEY_PREFIX"),
			TTLMinutes: v.GetInt("CACHE_TTL_MINUTES"),
			MaxBytes:   v.GetInt64("CACHE_MAX_BYTES"),
			MaxEntries: v.GetInt("CACHE_MAX_ENTRIES"),
		},
		Retry: RetryConfig{
			MaxRetries:     v.GetInt("RETRY_MAX_RETRIES"),
			InitialDelayMs: v.GetInt("RETRY_INITIAL_DELAY_MS"),
			MaxDelayMs:     v.GetInt("RETRY_MAX_DELAY_MS"),
		},
		MediaStorage: MediaStorageConfig{
			AccessKeyID:     v.GetString("MEDIA_STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("MEDIA_STORAGE_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("MEDIA_STORAGE_BUCKET_NAME"),
			Endpoint:        v.GetString("MEDIA_STORAGE_ENDPOINT"),
			Region:          v.GetString("MEDIA_STORAGE_REGION"),
			PublicBaseURL:   v.GetString("MEDIA_STORAGE_PUBLIC_BASE_URL"),
		},
		Auth: AuthConfig{
			JWTSecret:     v.GetString("JWT_SECRET"),
			JWTIssuer:     v.GetString("JWT_ISSUER"),
			TokenTTLHours: v.GetInt("ADMIN_TOKEN_TTL_HOURS"),
			WebhookSecret: v.GetString("CMS_WEBHOOK_SECRET"),
		},
		ReCAPTCHA: ReCAPTCHAConfig{
			SecretKey: v.GetString("RECAPTCHA_SECRET_KEY"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Absent CMS URL means the CMS is served from the same origin as the site
	if cfg.CMS.BaseURL == "" {
		cfg.CMS.BaseURL = cfg.Server.BaseURL
	}
	cfg.CMS.BaseURL = strings.TrimRight(cfg.CMS.BaseURL, "/")

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("BASE_URL is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	if c.CMS.BaseURL == "" {
		return fmt.Errorf("CMS_API_BASE_URL or BASE_URL is required")
	}

	switch c.Cache.Backend {
	case "bolt":
		if c.Cache.Enabled && c.Cache.Path == "" {
			return fmt.Errorf("CACHE_PATH is required for the bolt cache backend")
		}
	case "memory", "none":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("CACHE_TTL_MINUTES must be positive")
	}

	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("RETRY_MAX_RETRIES must not be negative")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// CacheTTL returns the default cache lifetime for section content
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// AdminAuthEnabled reports whether admin routes can verify bearer tokens
func (c *Config) AdminAuthEnabled() bool {
	return c.Auth.JWTSecret != ""
}

// MediaStorageEnabled reports whether gallery uploads have somewhere to go
func (c *Config) MediaStorageEnabled() bool {
	return c.MediaStorage.AccessKeyID != "" && c.MediaStorage.SecretAccessKey != "" && c.MediaStorage.BucketName != ""
}

// splitList parses a comma-separated list, dropping blanks
func splitList(raw string) []string {
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
