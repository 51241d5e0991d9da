package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/allisson/credproxy/internal/database"
)

// RunMigrations applies the embedded schema for driver (postgres, mysql or
// sqlite) to the database at connectionString. It is a no-op when the schema
// is already current.
func RunMigrations(logger *slog.Logger, driver, connectionString string) error {
	logger.Info("running database migrations", slog.String("driver", driver))

	if !database.IsSupported(driver) {
		return fmt.Errorf("unsupported migration driver: %s", driver)
	}

	db, err := database.Connect(database.Config{
		Driver:             driver,
		ConnectionString:   connectionString,
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		ConnMaxLifetime:    time.Minute,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	if err := database.Migrate(db, driver); err != nil {
		return err
	}

	logger.Info("migrations completed successfully")
	return nil
}
