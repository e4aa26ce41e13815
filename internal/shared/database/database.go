package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"busline/internal/shared/config"
	applog "busline/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB bundles the stores. Redis is nil when it could not be reached at startup.
type DB struct {
	PostgreSQL *gorm.DB
	Redis      *redis.Client
}

// InitDB connects to PostgreSQL, runs migrations and tries Redis.
// The cache and rate limiter fall back to in-process variants without Redis.
func InitDB(cfg *config.Config) (*DB, error) {
	log := applog.GetDefault().WithComponent("database")

	pg, err := openPostgres(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	if err := Migrate(pg); err != nil {
		closeGorm(pg)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("PostgreSQL ready", "host", cfg.Database.Host, "database", cfg.Database.Name)

	rdb, err := openRedis(cfg.Redis)
	if err != nil {
		log.Warn("Redis unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err.Error())
		return &DB{PostgreSQL: pg}, nil
	}
	log.Info("Redis ready", "addr", cfg.Redis.Addr)
	return &DB{PostgreSQL: pg, Redis: rdb}, nil
}

func openPostgres(cfg config.DatabaseConfig, verbose bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:  newGormLogger(cfg.SlowQueryThreshold, verbose),
		NowFunc: func() time.Time { return time.Now().UTC() },
		// constraints the booking engine relies on are created by MigrateConstraints
		DisableForeignKeyConstraintWhenMigrating: true,
		PrepareStmt:                              true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return db, nil
}

func openRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.PoolSize / 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func closeGorm(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Close() error {
	var errs []error
	if db.PostgreSQL != nil {
		if err := closeGorm(db.PostgreSQL); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if db.Redis != nil {
		if err := db.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Status reports each configured store as "up" or the ping error. Redis reads
// "disabled" when the server started without it.
func (db *DB) Status(ctx context.Context) map[string]string {
	status := map[string]string{"postgres": "up", "redis": "disabled"}

	if sqlDB, err := db.PostgreSQL.DB(); err != nil {
		status["postgres"] = err.Error()
	} else if err := sqlDB.PingContext(ctx); err != nil {
		status["postgres"] = err.Error()
	}

	if db.Redis != nil {
		status["redis"] = "up"
		if err := db.Redis.Ping(ctx).Err(); err != nil {
			status["redis"] = err.Error()
		}
	}
	return status
}
