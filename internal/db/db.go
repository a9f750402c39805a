package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bistro-pos/internal/config"
	"bistro-pos/internal/logger"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	connMaxLifetime = 30 * time.Minute
	pingTimeout     = 5 * time.Second
)

// InitDB opens the postgres pool and exits the process when it is unreachable.
func InitDB(cfg *config.Config) *sql.DB {
	database, err := NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("database unavailable",
			zap.String("host", cfg.DBHost),
			zap.String("name", cfg.DBName),
			zap.Error(err),
		)
	}

	logger.L().Info("database connection established",
		zap.String("host", cfg.DBHost),
		zap.String("name", cfg.DBName),
		zap.Int("max_open_conns", maxOpen(cfg)),
	)
	return database
}

func NewDatabase(cfg *config.Config) (*sql.DB, error) {
	return newDatabaseWithDriver(cfg, "postgres")
}

func newDatabaseWithDriver(cfg *config.Config, driver string) (*sql.DB, error) {
	database, err := sql.Open(driver, buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	open := maxOpen(cfg)
	database.SetMaxOpenConns(open)
	database.SetMaxIdleConns(max(1, open/5))
	database.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err = database.PingContext(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	return database, nil
}

func maxOpen(cfg *config.Config) int {
	if cfg.DBMaxOpenConns > 0 {
		return cfg.DBMaxOpenConns
	}
	return 25
}

// buildDSN pins the session to UTC; report days and receipt timestamps are
// computed in UTC.
func buildDSN(cfg *config.Config) string {
	sslmode := cfg.DBSSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s timezone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, sslmode,
	)
}
