// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"

	appai "github.com/alchemorsel/mealplan/internal/application/ai"
	"github.com/alchemorsel/mealplan/internal/application/collection"
	"github.com/alchemorsel/mealplan/internal/application/consistency"
	"github.com/alchemorsel/mealplan/internal/application/favorite"
	"github.com/alchemorsel/mealplan/internal/application/mealplan"
	"github.com/alchemorsel/mealplan/internal/application/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/alchemorsel/mealplan/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/mealplan/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/mealplan/internal/infrastructure/config"
	"github.com/alchemorsel/mealplan/internal/infrastructure/events"
	"github.com/alchemorsel/mealplan/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/mealplan/internal/infrastructure/monitoring"
	gormrepo "github.com/alchemorsel/mealplan/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/mealplan/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/mealplan/internal/infrastructure/persistence/postgres"
	redisrepo "github.com/alchemorsel/mealplan/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/mealplan/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/healthcheck"
	"github.com/alchemorsel/mealplan/pkg/logger"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module provides all dependency injection modules
func Module(configPath string) fx.Option {
	return fx.Options(
		fx.Provide(func() (*config.Config, error) {
			return config.Load(configPath)
		}),
		LoggerModule,
		ObservabilityModule,
		DatabaseModule,
		CacheModule,
		RepositoryModule,
		EventModule,
		ServiceModule,
		HTTPModule,
		LifecycleModule,
	)
}

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// ObservabilityModule provides metrics and tracing
var ObservabilityModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(c *monitoring.MetricsCollector) outbound.MetricsRecorder { return c },
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), cfg.App, cfg.Tracing, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
)

// DatabaseModule provides the GORM connection for the configured driver
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		var (
			db  *gorm.DB
			err error
		)
		switch cfg.Database.Driver {
		case "postgres":
			db, err = postgres.Open(context.Background(), cfg, log)
		case "sqlite", "":
			db, err = sqlite.SetupDatabase(cfg.Database.Path, cfg.Database.LogLevel, log)
		default:
			err = fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
		}
		if err != nil {
			return nil, err
		}

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		})
		return db, nil
	},
)

// CacheModule provides the recipe cache: Redis when enabled, otherwise in-process.
// The Redis client is nil when Redis is disabled.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (goredis.UniversalClient, error) {
		if !cfg.Redis.Enabled {
			return nil, nil
		}
		client, err := redisrepo.NewClient(context.Background(), cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return client, nil
	},
	func(lc fx.Lifecycle, cfg *config.Config, client goredis.UniversalClient, log *zap.Logger) outbound.CacheRepository {
		if client != nil {
			log.Info("Using Redis recipe cache", zap.String("addr", cfg.Redis.Addr()))
			return redisrepo.NewCacheRepository(client, "mealplan:", log)
		}
		log.Info("Using in-memory recipe cache")
		cache := memory.NewCacheRepository(cfg.Cache.CleanupInterval)
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return cache.Close() }})
		return cache
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormrepo.NewRecipeRepository,
	gormrepo.NewMealPlanRepository,
	gormrepo.NewFavoriteRepository,
	gormrepo.NewCollectionRepository,
	gormrepo.NewRelationshipRepository,
	gormrepo.NewTransactor,
)

// EventModule provides the in-process event dispatcher
var EventModule = fx.Options(
	fx.Provide(
		events.NewDispatcher,
		func(d *events.Dispatcher) shared.EventDispatcher { return d },
		recipe.NewCacheInvalidator,
	),
	fx.Invoke(func(inv *recipe.CacheInvalidator, d shared.EventDispatcher) {
		inv.Register(d)
	}),
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(
		repo outbound.RecipeRepository,
		tx outbound.Transactor,
		cache outbound.CacheRepository,
		cfg *config.Config,
		dispatcher shared.EventDispatcher,
		log *zap.Logger,
	) inbound.RecipeService {
		return recipe.NewRecipeService(repo, tx, cache, cfg.Cache.RecipeTTL, dispatcher, log)
	},
	fx.Annotate(mealplan.NewMealPlanService, fx.As(new(inbound.MealPlanService))),
	fx.Annotate(favorite.NewFavoriteService, fx.As(new(inbound.FavoriteService))),
	fx.Annotate(collection.NewCollectionService, fx.As(new(inbound.CollectionService))),

	consistency.NewLedger,
	func(l *consistency.Ledger) inbound.RelationshipLedger { return l },
	fx.Annotate(consistency.NewEngine, fx.As(new(inbound.ConsistencyEngine))),

	newRecipeGenerator,
	func(
		cfg *config.Config,
		generator checkedGenerator,
		recipes inbound.RecipeService,
		metrics outbound.MetricsRecorder,
		log *zap.Logger,
	) inbound.RecipeIntakeService {
		return appai.NewIntakePipeline(generator, recipes, appai.PipelineConfig{
			Policy:      appai.DefaultRetryPolicy(cfg.Intake.MaxRetries, cfg.Intake.BackoffBase, cfg.Intake.MaxRestrictions),
			BatchLimit:  cfg.Intake.BatchLimit,
			Concurrency: cfg.Intake.Concurrency,
			Limiter:     appai.NewGeneratorLimiter(cfg.AI.RequestsPerMinute, cfg.AI.Burst),
		}, metrics, log)
	},
)

// HTTPModule provides the health checks and the API server
var HTTPModule = fx.Provide(
	func(cfg *config.Config, db *gorm.DB, client goredis.UniversalClient, generator checkedGenerator, log *zap.Logger) (*healthcheck.HealthCheck, error) {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		hc := healthcheck.New(cfg.App.Version, log)
		hc.Register("database", healthcheck.NewDatabaseChecker(sqlDB), true)
		if client != nil {
			hc.Register("redis", healthcheck.NewRedisChecker(client), false)
		}
		hc.Register("recipe_generator", healthcheck.FuncChecker(generator.HealthCheck), false)
		return hc, nil
	},
	func(p struct {
		fx.In
		Config      *config.Config
		Logger      *zap.Logger
		Metrics     *monitoring.MetricsCollector
		Health      *healthcheck.HealthCheck
		Recipes     inbound.RecipeService
		MealPlans   inbound.MealPlanService
		Favorites   inbound.FavoriteService
		Collections inbound.CollectionService
		Ledger      inbound.RelationshipLedger
		Consistency inbound.ConsistencyEngine
		Intake      inbound.RecipeIntakeService
	}) *apiserver.APIServer {
		return apiserver.NewAPIServer(p.Config, p.Logger, apiserver.Services{
			Recipes:     p.Recipes,
			MealPlans:   p.MealPlans,
			Favorites:   p.Favorites,
			Collections: p.Collections,
			Ledger:      p.Ledger,
			Consistency: p.Consistency,
			Intake:      p.Intake,
		}, p.Metrics, p.Health)
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(RegisterLifecycleHooks)

// RegisterLifecycleHooks starts and stops the API server
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	server *apiserver.APIServer,
	_ *monitoring.TracingProvider,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting meal planning service",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
			)
			go func() {
				if err := server.Start(); err != nil {
					log.Error("API server stopped", zap.Error(err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown API server", zap.Error(err))
			}
			_ = log.Sync()
			return nil
		},
	})
}

// checkedGenerator is a recipe generator that can report its own health
type checkedGenerator interface {
	outbound.RecipeGenerator
	HealthCheck(ctx context.Context) error
}

func newRecipeGenerator(cfg *config.Config, log *zap.Logger) checkedGenerator {
	if cfg.AI.Provider == "openai" {
		return openai.NewClient(cfg.AI, log)
	}
	return ollama.NewClient(cfg.AI, log)
}
