package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"carboncue-backend/config"
	"carboncue-backend/internal/model"
)

// Dialector picks the driver from the DSN. postgres:// URLs and key=value
// strings go to Postgres; anything else is treated as a SQLite path, with an
// optional "sqlite://" prefix.
func Dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn)
	case strings.Contains(dsn, "host=") && strings.Contains(dsn, "dbname="):
		return postgres.Open(dsn)
	default:
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	}
}

// Init opens the database, retrying with exponential backoff until the
// connect timeout elapses, applies pool settings and runs migrations.
func Init(ctx context.Context, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector := Dialector(cfg.DSN)
	timeout := time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	var db *gorm.DB
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = timeout
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		var err error
		db, err = gorm.Open(dialector, &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Warn),
			TranslateError: true,
		})
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("driver", dialector.Name()).Msg("database not reachable yet")
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to get sql.DB: %w", err))
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Str("driver", dialector.Name()).Msg("database ping failed")
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	log.Info().Str("driver", dialector.Name()).Msg("running database migrations")
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info().Msg("database initialization complete")
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.ActivityLog{},
		&model.PushSubscription{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}
