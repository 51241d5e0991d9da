// Package database opens the SQL connections behind the postgres, mysql and
// sqlite credential stores and applies their schema.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported SQL drivers. The names double as database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// DefaultPingTimeout bounds the reachability check in Connect when
// Config.PingTimeout is zero.
const DefaultPingTimeout = 5 * time.Second

// Config holds the pool settings for one store connection.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	PingTimeout        time.Duration
}

// IsSupported reports whether driver names one of the SQL stores.
func IsSupported(driver string) bool {
	switch driver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
		return true
	}
	return false
}

// Connect opens and pings a pool for cfg. A sqlite pool is pinned to a
// single connection since the file accepts one writer at a time.
func Connect(cfg Config) (*sql.DB, error) {
	if !IsSupported(cfg.Driver) {
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	maxOpen, maxIdle := cfg.MaxOpenConnections, cfg.MaxIdleConnections
	if cfg.Driver == DriverSQLite {
		maxOpen, maxIdle = 1, 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = DefaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", cfg.Driver, err)
	}

	return db, nil
}
