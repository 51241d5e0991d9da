// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	validation "github.com/jellydator/validation"
	"github.com/joho/godotenv"
)

// Supported credential store drivers.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMySQL    = "mysql"
	StoreMongo    = "mongo"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the API server will bind to.
	ServerHost string
	// ServerPort is the port number the API server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// BackendRegion is the region component of the signing scope.
	BackendRegion string
	// BackendService is the service component of the signing scope.
	BackendService string
	// BackendScheme is the URL scheme used to reach the endpoint host.
	BackendScheme string
	// BackendTimeout bounds a single backend call.
	BackendTimeout time.Duration

	// ProxyOutboundBuffer is the capacity of the proxy delivery channel.
	ProxyOutboundBuffer int

	// StoreDriver selects where the encrypted credential bundle is persisted.
	StoreDriver string
	// StorePath is the directory used by the file store and the default sqlite database.
	StorePath string
	// StoreKMSKeyURI, when set, wraps the stored blob with a KMS keeper (gocloud.dev/secrets URI).
	StoreKMSKeyURI string

	// DBConnectionString is the connection string for the sql stores.
	DBConnectionString string
	// DBMaxOpenConnections is the maximum number of open connections to the database.
	DBMaxOpenConnections int
	// DBMaxIdleConnections is the maximum number of idle connections in the database pool.
	DBMaxIdleConnections int
	// DBConnMaxLifetime is the maximum amount of time a connection may be reused.
	DBConnMaxLifetime time.Duration

	// MongoURI is the connection URI for the mongo store.
	MongoURI string
	// MongoDatabase is the database holding the blob collection.
	MongoDatabase string
	// MongoCollection is the collection holding credential blobs.
	MongoCollection string

	// APITokenHash is a go-pwdhash hash of the bearer token guarding /v1. Empty disables auth.
	APITokenHash string

	// RateLimitEnabled indicates whether per-IP rate limiting for /v1 is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per IP.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for /v1 rate limiting.
	RateLimitBurst int

	// RateLimitUnlockEnabled indicates whether the unlock endpoint has its own stricter limit.
	RateLimitUnlockEnabled bool
	// RateLimitUnlockRequestsPerSec is the number of unlock attempts allowed per second per IP.
	RateLimitUnlockRequestsPerSec float64
	// RateLimitUnlockBurst is the burst size for unlock attempts.
	RateLimitUnlockBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Backend
		BackendRegion:  env.GetString("BACKEND_REGION", "eu-west-1"),
		BackendService: env.GetString("BACKEND_SERVICE", "lambda"),
		BackendScheme:  env.GetString("BACKEND_SCHEME", "https"),
		BackendTimeout: env.GetDuration("BACKEND_TIMEOUT_SECONDS", 30, time.Second),

		// Proxy
		ProxyOutboundBuffer: env.GetInt("PROXY_OUTBOUND_BUFFER", 64),

		// Credential store
		StoreDriver:    env.GetString("STORE_DRIVER", StoreFile),
		StorePath:      env.GetString("STORE_PATH", "./data"),
		StoreKMSKeyURI: env.GetString("STORE_KMS_KEY_URI", ""),

		// Database configuration
		DBConnectionString:   env.GetString("DB_CONNECTION_STRING", ""),
		DBMaxOpenConnections: env.GetInt("DB_MAX_OPEN_CONNECTIONS", 5),
		DBMaxIdleConnections: env.GetInt("DB_MAX_IDLE_CONNECTIONS", 2),
		DBConnMaxLifetime:    env.GetDuration("DB_CONN_MAX_LIFETIME", 5, time.Minute),

		// Mongo
		MongoURI:        env.GetString("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   env.GetString("MONGO_DATABASE", "credproxy"),
		MongoCollection: env.GetString("MONGO_COLLECTION", "credential_blobs"),

		// API auth
		APITokenHash: env.GetString("API_TOKEN_HASH", ""),

		// Rate Limiting (all /v1 endpoints, IP-based)
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// Rate Limiting for the unlock endpoint
		RateLimitUnlockEnabled:        env.GetBool("RATE_LIMIT_UNLOCK_ENABLED", true),
		RateLimitUnlockRequestsPerSec: env.GetFloat64("RATE_LIMIT_UNLOCK_REQUESTS_PER_SEC", 0.2),
		RateLimitUnlockBurst:          env.GetInt("RATE_LIMIT_UNLOCK_BURST", 3),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "credproxy"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// Validate checks the values that would otherwise fail late, at first use.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ServerPort, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.BackendScheme, validation.Required, validation.In("http", "https")),
		validation.Field(&c.BackendTimeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.ProxyOutboundBuffer, validation.Min(0)),
		validation.Field(&c.StoreDriver,
			validation.Required,
			validation.In(StoreMemory, StoreFile, StoreSQLite, StorePostgres, StoreMySQL, StoreMongo),
		),
		validation.Field(&c.StorePath,
			validation.When(c.StoreDriver == StoreFile, validation.Required),
		),
		validation.Field(&c.DBConnectionString,
			validation.When(c.StoreDriver == StorePostgres || c.StoreDriver == StoreMySQL, validation.Required),
		),
		validation.Field(&c.MongoURI, validation.When(c.StoreDriver == StoreMongo, validation.Required)),
		validation.Field(&c.RateLimitRequestsPerSec, validation.When(c.RateLimitEnabled, validation.Required)),
		validation.Field(&c.RateLimitUnlockRequestsPerSec,
			validation.When(c.RateLimitUnlockEnabled, validation.Required),
		),
		validation.Field(&c.MetricsPort, validation.When(c.MetricsEnabled, validation.Min(1), validation.Max(65535))),
	)
}

// SQLiteConnectionString returns the sqlite DSN, defaulting to a file under StorePath.
func (c *Config) SQLiteConnectionString() string {
	if c.DBConnectionString != "" {
		return c.DBConnectionString
	}
	return filepath.Join(c.StorePath, "credproxy.db")
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
}
