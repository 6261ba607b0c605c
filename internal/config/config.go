// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the REST API listens on (e.g. :3001).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address of the gRPC health endpoint (e.g. :9090). Empty disables it.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// JWTPrivateKey is the PEM-encoded private key (RSA or ECDSA) or path to file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded public key or path to file; used with JWT_PRIVATE_KEY.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	JWTIssuer    string `mapstructure:"JWT_ISSUER"`
	JWTAudience  string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// Env is the application environment ("development", "production").
	Env      string `mapstructure:"APP_ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// AdminEmails is a comma-separated list of emails promoted to admin on register.
	AdminEmails string `mapstructure:"ADMIN_EMAILS"`
	// BaseDomain is the apex domain tenants are served under as subdomains.
	BaseDomain string `mapstructure:"BASE_DOMAIN"`
	// CORSOrigins is a comma-separated list of allowed origins; "*" allows any.
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
	// UploadDir is where review avatars are written.
	UploadDir      string `mapstructure:"UPLOAD_DIR"`
	MaxUploadBytes int64  `mapstructure:"MAX_UPLOAD_BYTES"`

	// Sitemap cache. When RedisAddr is set the cache is shared through Redis.
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int    `mapstructure:"REDIS_DB"`
	SitemapLiveTTL    string `mapstructure:"SITEMAP_LIVE_TTL"`
	SitemapPreviewTTL string `mapstructure:"SITEMAP_PREVIEW_TTL"`

	// Rate limits: N requests per window, per client IP.
	AuthRateLimit        int    `mapstructure:"AUTH_RATE_LIMIT"`
	AuthRateWindow       string `mapstructure:"AUTH_RATE_WINDOW"`
	SensitiveRateLimit   int    `mapstructure:"SENSITIVE_RATE_LIMIT"`
	SensitiveRateWindow  string `mapstructure:"SENSITIVE_RATE_WINDOW"`
	ShutdownTimeoutValue string `mapstructure:"SHUTDOWN_TIMEOUT"`

	// OpenTelemetry (optional). Empty endpoint yields no-op providers.
	OTLPEndpoint    string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure    bool   `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	OTelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Telemetry (optional). When Kafka brokers are set, request events are emitted to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	TelemetryKafkaTopic   string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3001")
	v.SetDefault("GRPC_ADDR", ":9090")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("JWT_PRIVATE_KEY", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "thatsmartsite-auth")
	v.SetDefault("JWT_AUDIENCE", "thatsmartsite-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("BASE_DOMAIN", "thatsmartsite.com")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("UPLOAD_DIR", "./uploads/avatars")
	v.SetDefault("MAX_UPLOAD_BYTES", 5*1024*1024)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SITEMAP_LIVE_TTL", "24h")
	v.SetDefault("SITEMAP_PREVIEW_TTL", "1h")
	v.SetDefault("AUTH_RATE_LIMIT", 20)
	v.SetDefault("AUTH_RATE_WINDOW", "15m")
	v.SetDefault("SENSITIVE_RATE_LIMIT", 3)
	v.SetDefault("SENSITIVE_RATE_WINDOW", "5m")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "thatsmartsite-backend")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "site-telemetry")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "site-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	if cfg.IsProduction() && (cfg.JWTPrivateKey == "" || cfg.JWTPublicKey == "") {
		return nil, errors.New("config: JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set when APP_ENV=production")
	}

	if cfg.AuthRateLimit < 0 || cfg.SensitiveRateLimit < 0 {
		return nil, errors.New("config: rate limits must not be negative")
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 5 * 1024 * 1024
	}

	return &cfg, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 15*time.Minute)
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWTRefreshTTL, 168*time.Hour)
}

// SitemapTTLs returns the live and preview sitemap cache lifetimes.
func (c *Config) SitemapTTLs() (live, preview time.Duration) {
	return parseDuration(c.SitemapLiveTTL, 24*time.Hour), parseDuration(c.SitemapPreviewTTL, time.Hour)
}

// AuthRateWindowDuration returns the window for AuthRateLimit. Returns 15m if unset or invalid.
func (c *Config) AuthRateWindowDuration() time.Duration {
	return parseDuration(c.AuthRateWindow, 15*time.Minute)
}

// SensitiveRateWindowDuration returns the window for SensitiveRateLimit. Returns 5m if unset or invalid.
func (c *Config) SensitiveRateWindowDuration() time.Duration {
	return parseDuration(c.SensitiveRateWindow, 5*time.Minute)
}

// ShutdownTimeout returns the graceful shutdown budget. Returns 15s if unset or invalid.
func (c *Config) ShutdownTimeout() time.Duration {
	return parseDuration(c.ShutdownTimeoutValue, 15*time.Second)
}

// AdminEmailList returns the lower-cased admin emails.
func (c *Config) AdminEmailList() []string {
	list := splitList(c.AdminEmails)
	for i := range list {
		list[i] = strings.ToLower(list[i])
	}
	return list
}

// CORSOriginList returns the allowed CORS origins.
func (c *Config) CORSOriginList() []string {
	return splitList(c.CORSOrigins)
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil {
		return nil
	}
	return splitList(c.TelemetryKafkaBrokers)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
