// Package testutils provides common testing utilities and infrastructure setup
package testutils

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/alchemorsel/mealplan/internal/infrastructure/config"
	gormrepo "github.com/alchemorsel/mealplan/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/mealplan/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/mealplan/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// PostgresEnv enables the container-backed tests when set to a non-empty value
const PostgresEnv = "MEALPLAN_TEST_POSTGRES"

// Repositories bundles every GORM-backed adapter over one connection
type Repositories struct {
	DB            *gorm.DB
	Recipes       outbound.RecipeRepository
	MealPlans     outbound.MealPlanRepository
	Favorites     outbound.FavoriteRepository
	Collections   outbound.CollectionRepository
	Relationships outbound.RelationshipRepository
	Tx            outbound.Transactor
}

// NewRepositories wires the adapters over db
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:            db,
		Recipes:       gormrepo.NewRecipeRepository(db),
		MealPlans:     gormrepo.NewMealPlanRepository(db),
		Favorites:     gormrepo.NewFavoriteRepository(db),
		Collections:   gormrepo.NewCollectionRepository(db),
		Relationships: gormrepo.NewRelationshipRepository(db),
		Tx:            gormrepo.NewTransactor(db),
	}
}

// NewSQLiteDB opens a private in-memory SQLite database with the schema applied
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := sqlite.SetupDatabase("", "silent", zaptest.NewLogger(t))
	require.NoError(t, err, "Failed to open SQLite test database")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// TestDatabase is a PostgreSQL container with the migrated schema
type TestDatabase struct {
	Container testcontainers.Container
	GormDB    *gorm.DB
	PgxPool   *pgxpool.Pool
	Config    *config.Config
}

// DatabaseConfig holds test database configuration
type DatabaseConfig struct {
	Image    string
	Database string
	Username string
	Password string
}

// DefaultDatabaseConfig returns the default test database configuration
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Image:    "postgres:15-alpine",
		Database: "mealplan_test",
		Username: "test_user",
		Password: "test_password",
	}
}

// SetupTestDatabase starts PostgreSQL in a container and migrates it. The
// test is skipped unless PostgresEnv is set.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	if os.Getenv(PostgresEnv) == "" {
		t.Skipf("set %s to run PostgreSQL integration tests", PostgresEnv)
	}
	return SetupTestDatabaseWithConfig(t, DefaultDatabaseConfig())
}

// SetupTestDatabaseWithConfig creates a test database with custom configuration
func SetupTestDatabaseWithConfig(t *testing.T, cfg DatabaseConfig) *TestDatabase {
	t.Helper()
	ctx := context.Background()
	const port = nat.Port("5432/tcp")

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.Image,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"POSTGRES_DB":       cfg.Database,
				"POSTGRES_USER":     cfg.Username,
				"POSTGRES_PASSWORD": cfg.Password,
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
			Tmpfs: map[string]string{
				"/var/lib/postgresql/data": "rw,noexec,nosuid,size=512m",
			},
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	mappedPort, err := strconv.Atoi(mapped.Port())
	require.NoError(t, err)

	appCfg := &config.Config{
		App: config.AppConfig{Name: "mealplan-test", Environment: "test"},
		Database: config.DatabaseConfig{
			Driver:             "postgres",
			Host:               host,
			Port:               mappedPort,
			Database:           cfg.Database,
			Username:           cfg.Username,
			Password:           cfg.Password,
			SSLMode:            "disable",
			MaxOpenConns:       10,
			MaxIdleConns:       2,
			ConnMaxLifetime:    time.Hour,
			ConnMaxIdleTime:    10 * time.Minute,
			LogLevel:           "silent",
			SlowQueryThreshold: time.Second,
			AutoMigrate:        true,
		},
	}

	gormDB, err := postgres.Open(ctx, appCfg, zaptest.NewLogger(t))
	require.NoError(t, err, "Failed to open and migrate test database")
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	pgxConfig, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Username, cfg.Password, host, mappedPort, cfg.Database))
	require.NoError(t, err, "Failed to parse pgx config")
	pgxConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(ctx, pgxConfig)
	require.NoError(t, err, "Failed to create pgx pool")
	t.Cleanup(pool.Close)

	return &TestDatabase{
		Container: container,
		GormDB:    gormDB,
		PgxPool:   pool,
		Config:    appCfg,
	}
}

// TruncateAllTables removes all rows while keeping the schema
func (td *TestDatabase) TruncateAllTables(t *testing.T) {
	t.Helper()
	_, err := td.PgxPool.Exec(context.Background(),
		`TRUNCATE collection_recipes, collections, favorites, meal_plan_items, meal_plans, recipes CASCADE`)
	require.NoError(t, err, "Failed to truncate tables")
}

// CountRows counts the rows of table
func (td *TestDatabase) CountRows(t *testing.T, table string) int64 {
	t.Helper()
	var n int64
	err := td.PgxPool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&n)
	require.NoError(t, err)
	return n
}
