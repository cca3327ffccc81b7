// Package apiserver provides the JSON API HTTP server
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/alchemorsel/mealplan/internal/infrastructure/config"
	"github.com/alchemorsel/mealplan/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/mealplan/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/mealplan/internal/infrastructure/monitoring"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/healthcheck"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Services bundles the inbound ports the API exposes
type Services struct {
	Recipes     inbound.RecipeService
	MealPlans   inbound.MealPlanService
	Favorites   inbound.FavoriteService
	Collections inbound.CollectionService
	Ledger      inbound.RelationshipLedger
	Consistency inbound.ConsistencyEngine
	Intake      inbound.RecipeIntakeService
}

// APIServer is the JSON API HTTP server
type APIServer struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	router   *chi.Mux
	services Services
	metrics  *monitoring.MetricsCollector
	health   *healthcheck.HealthCheck
}

// NewAPIServer creates a new API server instance
func NewAPIServer(
	cfg *config.Config,
	log *zap.Logger,
	services Services,
	metrics *monitoring.MetricsCollector,
	health *healthcheck.HealthCheck,
) *APIServer {
	s := &APIServer{
		config:   cfg,
		logger:   log.Named("api-server"),
		services: services,
		metrics:  metrics,
		health:   health,
	}

	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, fmt.Sprintf("%d", cfg.Server.Port)),
		Handler:      otelhttp.NewHandler(s.router, cfg.App.Name),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// setupRoutes configures the router
func (s *APIServer) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimiddleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.metrics.HTTPMiddleware)
	}
	r.Use(middleware.Security())
	if s.config.Server.EnableCORS {
		r.Use(middleware.CORS(s.config.Server.AllowedOrigins))
	}

	if s.health != nil {
		r.Get("/health", s.health.Handler())
		r.Get("/health/live", s.health.LivenessHandler())
		r.Get("/health/ready", s.health.ReadinessHandler())
	}
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(s.requestTimeout()))
		r.Use(chimiddleware.Compress(5))
		r.Use(middleware.JSONOnly())
		r.Use(middleware.Identify())
		s.setupAPIV1Routes(r)
	})

	return r
}

// setupAPIV1Routes configures API v1 endpoints
func (s *APIServer) setupAPIV1Routes(r chi.Router) {
	recipes := handlers.NewRecipeHandlers(s.services.Recipes, s.services.Ledger, s.services.Consistency, s.logger)
	plans := handlers.NewMealPlanHandlers(s.services.MealPlans, s.logger)
	library := handlers.NewLibraryHandlers(s.services.Favorites, s.services.Collections, s.services.Consistency, s.logger)
	intake := handlers.NewIntakeHandlers(s.services.Intake, s.logger)

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", recipes.Search)
		r.Post("/", recipes.Create)
		r.Get("/popular", recipes.Popular)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", recipes.Get)
			r.Patch("/", recipes.Update)
			r.Delete("/", recipes.Delete)
			r.Get("/usage", recipes.Usage)
			r.Get("/relationships", recipes.Relationships)
			r.Post("/share", recipes.Share)
			r.Put("/rating", recipes.Rate)
			r.Delete("/rating", recipes.Unrate)
			r.Post("/rating/recalculate", recipes.RecalculateRating)
		})
	})

	r.Route("/meal-plans", func(r chi.Router) {
		r.Get("/", plans.List)
		r.Post("/", plans.Create)
		r.Get("/active", plans.Active)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", plans.Get)
			r.Patch("/", plans.Update)
			r.Delete("/", plans.Delete)
			r.Post("/activate", plans.Activate)
			r.Put("/items", plans.AssignRecipe)
			r.Delete("/items", plans.Clear)
			r.Delete("/items/{day}/{mealType}", plans.RemoveRecipe)
		})
	})

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", library.ListFavorites)
		r.Get("/{recipeID}", library.GetFavorite)
		r.Put("/{recipeID}", library.AddFavorite)
		r.Patch("/{recipeID}", library.UpdateNotes)
		r.Delete("/{recipeID}", library.RemoveFavorite)
	})

	r.Route("/collections", func(r chi.Router) {
		r.Get("/", library.ListCollections)
		r.Post("/", library.CreateCollection)
		r.Get("/{id}", library.GetCollection)
		r.Delete("/{id}", library.DeleteCollection)
		r.Put("/{id}/recipes/{recipeID}", library.AddToCollection)
		r.Delete("/{id}/recipes/{recipeID}", library.RemoveFromCollection)
	})

	r.Route("/ai", func(r chi.Router) {
		r.Post("/recipes", intake.Generate)
		r.Post("/recipes/batch", intake.GenerateBatch)
	})
}

// requestTimeout must cover a generation request's retries and backoff
func (s *APIServer) requestTimeout() time.Duration {
	if s.config.Server.RequestTimeout > 0 {
		return s.config.Server.RequestTimeout
	}
	return 2 * time.Minute
}

// Start starts the HTTP server and blocks until it stops
func (s *APIServer) Start() error {
	s.logger.Info("Starting API server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *APIServer) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.server.Shutdown(ctx)
}

// Handler exposes the instrumented root handler
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}
