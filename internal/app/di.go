// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	authService "github.com/allisson/credproxy/internal/auth/service"
	"github.com/allisson/credproxy/internal/config"
	credentialsRepository "github.com/allisson/credproxy/internal/credentials/repository"
	credentialsUsecase "github.com/allisson/credproxy/internal/credentials/usecase"
	cryptoService "github.com/allisson/credproxy/internal/crypto/service"
	"github.com/allisson/credproxy/internal/database"
	"github.com/allisson/credproxy/internal/http"
	"github.com/allisson/credproxy/internal/metrics"
	"github.com/allisson/credproxy/internal/proxy"
	proxyHTTP "github.com/allisson/credproxy/internal/proxy/http"
	"github.com/allisson/credproxy/internal/signer"
	"github.com/allisson/credproxy/internal/transport"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Storage
	kmsService      cryptoService.KMSService
	keeper          cryptoService.Keeper
	mongoStore      *credentialsRepository.MongoBlobStore
	blobStore       credentialsUsecase.BlobStore
	credentialStore credentialsUsecase.CredentialStore

	// Proxy
	vault       cryptoService.Vault
	signer      *signer.Signer
	sender      transport.Sender
	proxy       *proxy.Proxy
	proxyClient *proxy.Client

	// HTTP
	apiTokenService authService.APITokenService
	proxyHandler    *proxyHTTP.ProxyHandler
	httpServer      *http.Server
	metricsServer   *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	dbInit              sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	kmsServiceInit      sync.Once
	blobStoreInit       sync.Once
	credentialStoreInit sync.Once
	vaultInit           sync.Once
	signerInit          sync.Once
	senderInit          sync.Once
	proxyInit           sync.Once
	proxyClientInit     sync.Once
	apiTokenServiceInit sync.Once
	proxyHandlerInit    sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection used by the sqlite, postgres and mysql stores.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
		}
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. It is a no-op
// implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// KMSService returns the service used to open KMS keepers.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// BlobStore returns the blob store selected by STORE_DRIVER, wrapped with a
// KMS keeper when STORE_KMS_KEY_URI is set.
func (c *Container) BlobStore() (credentialsUsecase.BlobStore, error) {
	var err error
	c.blobStoreInit.Do(func() {
		c.blobStore, err = c.initBlobStore()
		if err != nil {
			c.initErrors["blobStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["blobStore"]; exists {
		return nil, storedErr
	}
	return c.blobStore, nil
}

// CredentialStore returns the store for the encrypted credential bundle.
func (c *Container) CredentialStore() (credentialsUsecase.CredentialStore, error) {
	var err error
	c.credentialStoreInit.Do(func() {
		c.credentialStore, err = c.initCredentialStore()
		if err != nil {
			c.initErrors["credentialStore"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["credentialStore"]; exists {
		return nil, storedErr
	}
	return c.credentialStore, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.keeper != nil {
		if err := c.keeper.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("kms keeper close: %w", err))
		}
	}

	if c.mongoStore != nil {
		if err := c.mongoStore.Close(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("mongo close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB connects to the sql database backing the store. SQLite schemas are
// migrated on connect; postgres and mysql are migrated with the migrate command.
func (c *Container) initDB() (*sql.DB, error) {
	connectionString := c.config.DBConnectionString

	switch c.config.StoreDriver {
	case config.StoreSQLite:
		if err := os.MkdirAll(c.config.StorePath, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create store path: %w", err)
		}
		connectionString = c.config.SQLiteConnectionString()
	case config.StorePostgres, config.StoreMySQL:
	default:
		return nil, fmt.Errorf("store driver %q does not use a database", c.config.StoreDriver)
	}

	db, err := database.Connect(database.Config{
		Driver:             c.config.StoreDriver,
		ConnectionString:   connectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if c.config.StoreDriver == config.StoreSQLite {
		if err := database.Migrate(db, database.DriverSQLite); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
	}
	return db, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initBlobStore selects the blob store implementation from the store driver.
func (c *Container) initBlobStore() (credentialsUsecase.BlobStore, error) {
	var store credentialsUsecase.BlobStore

	switch c.config.StoreDriver {
	case config.StoreMemory:
		store = credentialsRepository.NewMemoryBlobStore()
	case config.StoreFile:
		fileStore, err := credentialsRepository.NewFileBlobStore(c.config.StorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create file store: %w", err)
		}
		store = fileStore
	case config.StoreSQLite, config.StorePostgres, config.StoreMySQL:
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for blob store: %w", err)
		}
		switch c.config.StoreDriver {
		case config.StoreSQLite:
			store = credentialsRepository.NewSQLiteBlobStore(db)
		case config.StorePostgres:
			store = credentialsRepository.NewPostgreSQLBlobStore(db)
		default:
			store = credentialsRepository.NewMySQLBlobStore(db)
		}
	case config.StoreMongo:
		mongoStore, err := credentialsRepository.NewMongoBlobStore(
			context.Background(),
			c.config.MongoURI,
			c.config.MongoDatabase,
			c.config.MongoCollection,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create mongo store: %w", err)
		}
		c.mongoStore = mongoStore
		store = mongoStore
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", c.config.StoreDriver)
	}

	if c.config.StoreKMSKeyURI == "" {
		return store, nil
	}

	keeper, err := c.KMSService().OpenKeeper(context.Background(), c.config.StoreKMSKeyURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open kms keeper for blob store: %w", err)
	}
	c.keeper = keeper
	return credentialsRepository.NewKeeperBlobStore(store, keeper), nil
}

// initCredentialStore creates the credential store with metrics when enabled.
func (c *Container) initCredentialStore() (credentialsUsecase.CredentialStore, error) {
	blobStore, err := c.BlobStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get blob store for credential store: %w", err)
	}

	baseStore := credentialsUsecase.NewCredentialStore(blobStore, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for credential store: %w", err)
		}
		return credentialsUsecase.NewCredentialStoreWithMetrics(baseStore, businessMetrics), nil
	}

	return baseStore, nil
}
