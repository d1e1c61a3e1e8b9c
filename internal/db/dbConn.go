package db

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Gkemhcs/slidebox/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know; it takes '?' placeholders.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DSN builds the connection string for the configured driver.
func DSN(cfg *config.Config) string {
	if cfg.DBDSN != "" {
		return cfg.DBDSN
	}
	if cfg.DBDriver == DriverSQLite {
		return fmt.Sprintf("file:%s.db?_pragma=busy_timeout(5000)", cfg.DBName)
	}
	// URL-encode the password to handle special characters
	encodedPassword := url.QueryEscape(cfg.DBPassword)
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, encodedPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// InitDB opens the durable store, configures pooling and verifies the connection.
func InitDB(logger *logrus.Logger, cfg *config.Config) (*sqlx.DB, error) {
	driver := cfg.DBDriver
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	conn, err := sqlx.Open(driver, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("cannot open DB: %w", err)
	}

	configureConnectionPool(conn, cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("cannot ping DB: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"driver":         driver,
		"max_open_conns": cfg.DBMaxOpenConns,
		"max_idle_conns": cfg.DBMaxIdleConns,
	}).Info("Database connection pool configured")

	return conn, nil
}

// configureConnectionPool sets up the connection pool with settings for the environment
func configureConnectionPool(db *sqlx.DB, cfg *config.Config, logger *logrus.Logger) {
	maxOpen := cfg.DBMaxOpenConns
	if cfg.DBDriver == DriverSQLite {
		// a single writer avoids SQLITE_BUSY under concurrent logins
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Minute)
	db.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Minute)

	logger.WithFields(logrus.Fields{
		"environment":        cfg.Env,
		"max_open_conns":     maxOpen,
		"max_idle_conns":     cfg.DBMaxIdleConns,
		"conn_max_lifetime":  fmt.Sprintf("%dm", cfg.DBConnMaxLifetime),
		"conn_max_idle_time": fmt.Sprintf("%dm", cfg.DBConnMaxIdleTime),
	}).Debug("Database connection pool settings applied")
}

// GetConnectionStats returns current connection pool statistics for monitoring
func GetConnectionStats(db *sqlx.DB) map[string]interface{} {
	stats := db.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
	}
}
