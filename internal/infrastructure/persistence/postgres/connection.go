// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/mealplan/internal/infrastructure/config"
	gormrepo "github.com/alchemorsel/mealplan/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/mealplan/internal/infrastructure/persistence/migrations"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// Open connects to PostgreSQL, configures pooling and read replicas, and
// brings the schema up to date when auto migration is enabled
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	dbCfg := cfg.Database

	db, err := gorm.Open(postgres.Open(cfg.GetDSN(dbCfg.Host)), &gorm.Config{
		Logger:                 gormrepo.NewLogger(log, dbCfg.LogLevel, dbCfg.SlowQueryThreshold),
		TranslateError:         true,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(dbCfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(dbCfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(dbCfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dbCfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := registerReplicas(db, cfg, log); err != nil {
		log.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	if dbCfg.AutoMigrate {
		migrator, err := migrations.New(sqlDB, dbCfg.Database, log)
		if err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		if err := migrator.Up(); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	log.Info("Database connection initialized",
		zap.String("driver", "postgres"),
		zap.String("host", dbCfg.Host),
		zap.Int("max_open_conns", dbCfg.MaxOpenConns),
		zap.Int("read_replicas", len(dbCfg.ReadReplicas)),
		zap.Duration("slow_query_threshold", dbCfg.SlowQueryThreshold),
	)

	return db, nil
}

// registerReplicas routes reads to replicas. Queries inside a transaction
// stay on the primary.
func registerReplicas(db *gorm.DB, cfg *config.Config, log *zap.Logger) error {
	if len(cfg.Database.ReadReplicas) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, len(cfg.Database.ReadReplicas))
	for i, host := range cfg.Database.ReadReplicas {
		replicas[i] = postgres.Open(cfg.GetDSN(host))
	}

	err := db.Use(dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(cfg.Database.MaxOpenConns).
		SetMaxIdleConns(cfg.Database.MaxIdleConns).
		SetConnMaxLifetime(cfg.Database.ConnMaxLifetime).
		SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime))
	if err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	log.Info("Read replicas configured", zap.Int("replica_count", len(replicas)))
	return nil
}
