package constants

import "time"

// Environment variable constants
const (
	EnvHost              = "TIOGA_HEALTH_HOST"
	EnvPort              = "TIOGA_HEALTH_PORT"
	EnvMetricsPort       = "TIOGA_HEALTH_METRICS_PORT"
	EnvReadTimeout       = "TIOGA_HEALTH_READ_TIMEOUT"
	EnvWriteTimeout      = "TIOGA_HEALTH_WRITE_TIMEOUT"
	EnvIdleTimeout       = "TIOGA_HEALTH_IDLE_TIMEOUT"
	EnvMaxRequestSize    = "TIOGA_HEALTH_MAX_REQUEST_SIZE"
	EnvShutdownTimeout   = "TIOGA_HEALTH_SHUTDOWN_TIMEOUT"
	EnvStoreDriver       = "TIOGA_HEALTH_STORE_DRIVER"
	EnvStoreDSN          = "TIOGA_HEALTH_STORE_DSN"
	EnvStorePath         = "TIOGA_HEALTH_STORE_PATH"
	EnvStoreQueryTimeout = "TIOGA_HEALTH_STORE_QUERY_TIMEOUT"
	EnvLogLevel          = "TIOGA_HEALTH_LOG_LEVEL"
	EnvLogFormat         = "TIOGA_HEALTH_LOG_FORMAT"
	EnvHotReload         = "TIOGA_HEALTH_HOT_RELOAD"
	EnvHotReloadDebounce = "TIOGA_HEALTH_HOT_RELOAD_DEBOUNCE"
	EnvRateLimitEnabled  = "TIOGA_HEALTH_RATE_LIMIT_ENABLED"
	EnvRateLimitRPS      = "TIOGA_HEALTH_RATE_LIMIT_RPS"
	EnvTrustedProxies    = "TIOGA_HEALTH_TRUSTED_PROXIES"
	EnvTLSEnabled        = "TIOGA_HEALTH_TLS_ENABLED"
	EnvTLSCertFile       = "TIOGA_HEALTH_TLS_CERT_FILE"
	EnvTLSKeyFile        = "TIOGA_HEALTH_TLS_KEY_FILE"
	EnvMailRegion        = "AWS_REGION_NAME"
	EnvAWSAccessKeyID    = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey      = "AWS_SECRET_ACCESS_KEY"
)

// Store driver constants
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
	StoreDriverFile     = "file"
)

// HTTP header constants
const (
	HeaderContentType   = "Content-Type"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderXRealIP       = "X-Real-IP"
	HeaderRetryAfter    = "Retry-After"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Rate limiting headers
const (
	HeaderXRateLimitLimit     = "X-RateLimit-Limit"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
)

// Rate limiter internal constants
const (
	// RateLimitCleanupInterval is the interval for cleaning up rate limit cache
	RateLimitCleanupInterval = 5 * time.Minute
	// RateLimitMaxCacheSize is the maximum size of the rate limit cache
	RateLimitMaxCacheSize = 10000
)

// Error code constants
const (
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrorCodeRequestTooLarge   = "REQUEST_TOO_LARGE"
)

// Path constants
const (
	PathPage        = "/"
	PathHealthPage  = "/health-check"
	PathLiveness    = "/healthz"
	PathReady       = "/ready"
	PathMetrics     = "/metrics"
	PathFavicon     = "/favicon.ico"
	DefaultFileName = "tioga-health.yaml"

	// EndpointOther labels request metrics for unrouted paths
	EndpointOther = "other"
)

// Mail constants
const (
	// MailRatePerSecond is one below the SES sending limit of 14/s
	MailRatePerSecond = 13
	MailCharset       = "UTF-8"
)

// Version is reported on the liveness endpoint and in traces
const Version = "1.0.0"
