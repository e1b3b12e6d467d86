package config

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/env"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/password"
)

var (
	// SessionSecretEnvValue keeps the raw SESSION_SECRET input so other packages can warn about placeholder values.
	SessionSecretEnvValue = strings.TrimSpace(env.String("SESSION_SECRET", ""))
	// SessionSecret stores the effective session secret. When the provided secret is absent or has an unsupported length it is replaced or hashed to a 32-byte base64 token in init().
	SessionSecret = SessionSecretEnvValue

	// CookieMaxAgeHours controls how long admin session cookies stay valid. The value is interpreted in hours by the session store.
	CookieMaxAgeHours = env.Int("COOKIE_MAXAGE_HOURS", 168)
	// EnableCookieSecure forces the browser to send session cookies only over HTTPS when set to true.
	EnableCookieSecure = env.Bool("ENABLE_COOKIE_SECURE", false)

	// AdminUsername is the credential accepted by POST /admin/login.
	AdminUsername = strings.TrimSpace(env.String("ADMIN_USERNAME", "admin"))
	// AdminPassword is the plaintext counterpart of AdminPasswordHash; it is bcrypt-hashed in init() and then cleared.
	AdminPassword = env.String("ADMIN_PASSWORD", "")
	// AdminPasswordHash holds the bcrypt hash the admin middleware compares against.
	AdminPasswordHash = ""
	// AdminTokenExpiryHours bounds the lifetime of admin bearer tokens issued by /admin/login.
	AdminTokenExpiryHours = env.Int("ADMIN_TOKEN_EXPIRY_HOURS", 24)

	// ServerPort overrides the --port flag when running inside container or PaaS environments.
	ServerPort = strings.TrimSpace(env.String("PORT", ""))
	// GinMode allows forcing Gin into release mode (or other modes) without recompiling.
	GinMode = strings.TrimSpace(env.String("GIN_MODE", ""))

	// DebugEnabled toggles verbose structured logging when DEBUG=true.
	DebugEnabled = env.Bool("DEBUG", false)
	// DebugSQLEnabled toggles per-query SQL logging when DEBUG_SQL=true.
	DebugSQLEnabled = env.Bool("DEBUG_SQL", false)

	// MemoryCacheEnabled forces the in-process principal cache to stay enabled even without Redis.
	MemoryCacheEnabled = env.Bool("MEMORY_CACHE_ENABLED", true)
	// SyncFrequency controls how long cached api-key lookups stay valid (seconds).
	SyncFrequency = env.Int("SYNC_FREQUENCY", 10*60)

	// RelayTimeout bounds upstream HTTP requests (seconds); 0 keeps the transport default.
	RelayTimeout = env.Int("RELAY_TIMEOUT", 0)
	// ConnectTimeout bounds the TCP/TLS handshake to upstream providers (seconds).
	ConnectTimeout = env.Int("CONNECT_TIMEOUT", 5)
	// RelayProxy provides an HTTP proxy for outbound relay requests to upstream providers.
	RelayProxy = env.String("RELAY_PROXY", "")

	// ShutdownTimeoutSec specifies the graceful shutdown timeout (seconds) for the HTTP server and model workers.
	ShutdownTimeoutSec = env.Int("SHUTDOWN_TIMEOUT", 360)

	// DefaultMaxQueueSize is applied to models whose max_queue_size is unset; 0 means unbounded.
	DefaultMaxQueueSize = env.Int("DEFAULT_MAX_QUEUE_SIZE", 0)

	// EnablePrometheusMetrics exposes the /metrics endpoint for Prometheus scrapers when true.
	EnablePrometheusMetrics = env.Bool("ENABLE_PROMETHEUS_METRICS", true)

	// RedisConnString defines the Redis connection string; leaving it empty disables Redis features.
	RedisConnString = strings.TrimSpace(env.String("REDIS_CONN_STRING", ""))
	// RedisMasterName enables Redis sentinel/cluster discovery when provided.
	RedisMasterName = strings.TrimSpace(env.String("REDIS_MASTER_NAME", ""))
	// RedisPassword supplies the Redis authentication password when required.
	RedisPassword = env.String("REDIS_PASSWORD", "")

	// SQLDSN provides the primary database DSN; empty indicates that SQLite should be used.
	SQLDSN = strings.TrimSpace(env.String("SQL_DSN", ""))

	// SQLitePath specifies the SQLite database file when SQL_DSN is absent. The version-1
	// segment scopes the store layout so future migrations can coexist with old state.
	SQLitePath = env.String("SQLITE_PATH", "./data/version-1/proxy.db")
	// SQLiteBusyTimeout configures SQLite busy timeout in milliseconds to mitigate locking errors.
	SQLiteBusyTimeout = env.Int("SQLITE_BUSY_TIMEOUT", 3000)

	// SQLMaxIdleConns controls the primary database pool's idle connection count.
	SQLMaxIdleConns = env.Int("SQL_MAX_IDLE_CONNS", 100)
	// SQLMaxOpenConns controls the primary database pool's maximum open connections.
	SQLMaxOpenConns = env.Int("SQL_MAX_OPEN_CONNS", 1000)
	// SQLMaxLifetimeSeconds sets how long database connections live before being recycled (seconds).
	SQLMaxLifetimeSeconds = env.Int("SQL_MAX_LIFETIME", 60)

	// GlobalApiRateLimitEnabled switches the coarse per-IP limiter on the data path on or off.
	// It sits in front of, and is independent from, the per-quota admission engine.
	GlobalApiRateLimitEnabled = env.Bool("GLOBAL_API_RATE_LIMIT_ENABLED", false)
	// GlobalApiRateLimitNum bounds the number of data-path requests per IP within the window.
	GlobalApiRateLimitNum = env.Int("GLOBAL_API_RATE_LIMIT", 480)
	// GlobalApiRateLimitDuration sets the duration (seconds) of the per-IP rate limit window.
	GlobalApiRateLimitDuration int64 = 3 * 60

	// CriticalRateLimitNum defines the burst control for the admin login endpoint.
	CriticalRateLimitNum = env.Int("CRITICAL_RATE_LIMIT", 20)
	// CriticalRateLimitDuration sets the window (seconds) for critical rate limiting.
	CriticalRateLimitDuration int64 = 20 * 60

	// SmokeTestAPIBase configures the base URL used by the cmd/test smoke tester.
	SmokeTestAPIBase = strings.TrimSpace(env.String("API_BASE", ""))
	// SmokeTestToken configures the API key consumed by the cmd/test smoke tester.
	SmokeTestToken = strings.TrimSpace(env.String("API_TOKEN", ""))
	// SmokeTestModels lists comma-separated model labels exercised by the cmd/test smoke tester.
	SmokeTestModels = strings.TrimSpace(env.String("TEST_MODELS", ""))
)

// RateLimitKeyExpirationDuration controls how long Redis keys for rate limiting remain valid.
var RateLimitKeyExpirationDuration = 20 * time.Minute

func init() {
	if SessionSecretEnvValue == "" {
		fmt.Println("SESSION_SECRET not set, using random secret")
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic(fmt.Sprintf("failed to generate random secret: %v", err))
		}

		SessionSecret = base64.StdEncoding.EncodeToString(key)
	} else if !slices.Contains([]int{16, 24, 32}, len(SessionSecretEnvValue)) {
		hashed := sha256.Sum256([]byte(SessionSecretEnvValue))
		SessionSecret = base64.StdEncoding.EncodeToString(hashed[:32])
	}

	if AdminPassword != "" {
		hashed, err := password.Hash(AdminPassword)
		if err != nil {
			panic(fmt.Sprintf("failed to hash ADMIN_PASSWORD: %v", err))
		}
		AdminPasswordHash = hashed
		AdminPassword = ""
	}
}
