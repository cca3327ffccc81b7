// Package sqlite provides SQLite database setup and configuration
package sqlite

import (
	"fmt"
	"strings"
	"time"

	gormrepo "github.com/alchemorsel/mealplan/internal/infrastructure/persistence/gorm"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// partialIndexes mirror the migration indexes that gorm tags cannot express
var partialIndexes = []string{
	"CREATE UNIQUE INDEX IF NOT EXISTS idx_meal_plans_one_active ON meal_plans (owner_id) WHERE is_active",
}

// SetupDatabase creates and configures the SQLite database. An empty path
// opens a private in-memory database.
func SetupDatabase(dbPath string, logLevel string, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger:         gormrepo.NewLogger(log, logLevel, 200*time.Millisecond),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// SQLite serializes writers; a single connection also keeps an
	// in-memory database alive and shared.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(gormrepo.AllModels()...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	}

	log.Info("Database connection initialized",
		zap.String("driver", "sqlite"),
		zap.String("path", dbPath),
	)
	return db, nil
}

func dsn(path string) string {
	if path == "" {
		path = ":memory:"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}
