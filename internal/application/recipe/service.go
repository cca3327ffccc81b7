// Package recipe provides the application layer for recipe management
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/pkg/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipeRepo outbound.RecipeRepository
	tx         outbound.Transactor
	cache      outbound.CacheRepository
	cacheTTL   time.Duration
	events     shared.EventDispatcher
	validator  *validation.Validator
	logger     *zap.Logger
}

// NewRecipeService creates a new recipe service. cache may be nil.
func NewRecipeService(
	recipeRepo outbound.RecipeRepository,
	tx outbound.Transactor,
	cache outbound.CacheRepository,
	cacheTTL time.Duration,
	events shared.EventDispatcher,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		tx:         tx,
		cache:      cache,
		cacheTTL:   cacheTTL,
		events:     events,
		validator:  validation.New(),
		logger:     logger.Named("recipe-service"),
	}
}

var _ inbound.RecipeService = (*RecipeService)(nil)

// Create validates and persists a new recipe
func (s *RecipeService) Create(ctx context.Context, cmd inbound.CreateRecipeCommand) (*recipe.Recipe, error) {
	s.logger.Info("Creating new recipe",
		zap.String("name", cmd.Name),
		zap.Bool("ai_generated", cmd.AIGenerated),
	)

	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	difficulty, err := recipe.ParseDifficulty(cmd.Difficulty)
	if err != nil {
		return nil, errors.Wrap(err, "invalid difficulty")
	}

	entity, err := recipe.NewRecipe(recipe.Recipe{
		Name:         cmd.Name,
		Description:  cmd.Description,
		Ingredients:  cmd.Ingredients,
		Instructions: cmd.Instructions,
		Nutrition:    cmd.Nutrition,
		Cuisine:      cmd.Cuisine,
		Difficulty:   difficulty,
		PrepTime:     cmd.PrepTime,
		CookTime:     cmd.CookTime,
		Servings:     cmd.Servings,
		ImageURL:     cmd.ImageURL,
		Tags:         cmd.Tags,
		CreatedBy:    cmd.CreatedBy,
		AIGenerated:  cmd.AIGenerated,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create recipe entity")
	}

	if err := s.recipeRepo.Create(ctx, entity); err != nil {
		return nil, err
	}

	s.publish(ctx, recipe.RecipeCreatedEvent{
		RecipeID:    entity.ID,
		Name:        entity.Name,
		AIGenerated: entity.AIGenerated,
		CreatedAt:   entity.CreatedAt,
	})

	s.logger.Info("Recipe created successfully", zap.String("recipe_id", entity.ID.String()))
	return entity, nil
}

// GetByID returns a recipe, reading through the cache when one is configured
func (s *RecipeService) GetByID(ctx context.Context, id uuid.UUID) (*recipe.Recipe, error) {
	if cached, ok := s.fromCache(ctx, id); ok {
		return cached, nil
	}

	entity, err := s.recipeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.toCache(ctx, entity)
	return entity, nil
}

// Update applies a field-mask patch to the authored fields of a recipe. The
// row is locked while the patch is applied so concurrent patches to
// different fields all survive.
func (s *RecipeService) Update(ctx context.Context, id uuid.UUID, patch recipe.Patch) (*recipe.Recipe, error) {
	s.logger.Info("Updating recipe", zap.String("recipe_id", id.String()))

	if patch.IsEmpty() {
		return nil, errors.Wrap(recipe.ErrNothingToUpdate, "nothing to update")
	}

	var entity *recipe.Recipe
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if entity, err = s.recipeRepo.LockForUpdate(ctx, id); err != nil {
			return err
		}
		if err := entity.Apply(patch); err != nil {
			return errors.Wrap(err, "failed to update recipe")
		}
		return s.recipeRepo.Update(ctx, entity)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, recipe.RecipeUpdatedEvent{RecipeID: entity.ID, UpdatedAt: entity.UpdatedAt})

	s.logger.Info("Recipe updated successfully", zap.String("recipe_id", id.String()))
	return entity, nil
}

// Search finds recipes matching the query; the total ignores the page window
func (s *RecipeService) Search(ctx context.Context, query inbound.SearchQuery) (*inbound.RecipeList, error) {
	page := query.Pagination.Normalize(defaultPageSize, maxPageSize)

	criteria := outbound.SearchCriteria{
		Query:       query.Text,
		Cuisine:     query.Cuisine,
		CreatedBy:   query.CreatedBy,
		Tags:        query.Tags,
		AIGenerated: query.AIGenerated,
		Offset:      page.Offset,
		Limit:       page.Limit,
	}
	if query.Difficulty != "" {
		difficulty, err := recipe.ParseDifficulty(query.Difficulty)
		if err != nil {
			return nil, errors.Wrap(err, "invalid difficulty")
		}
		criteria.Difficulty = &difficulty
	}

	recipes, total, err := s.recipeRepo.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}

	list := &inbound.RecipeList{
		Recipes: make([]inbound.RecipeDTO, 0, len(recipes)),
		Total:   total,
		Limit:   page.Limit,
		Offset:  page.Offset,
	}
	for _, r := range recipes {
		list.Recipes = append(list.Recipes, *inbound.NewRecipeDTO(r))
	}
	return list, nil
}

// CacheKey returns the cache key of a recipe
func CacheKey(id uuid.UUID) string {
	return "recipe:" + id.String()
}

func (s *RecipeService) fromCache(ctx context.Context, id uuid.UUID) (*recipe.Recipe, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, CacheKey(id))
	if err != nil {
		return nil, false
	}
	var entity recipe.Recipe
	if err := json.Unmarshal(data, &entity); err != nil {
		s.logger.Warn("Discarding undecodable cache entry", zap.String("recipe_id", id.String()), zap.Error(err))
		_ = s.cache.Delete(ctx, CacheKey(id))
		return nil, false
	}
	return &entity, true
}

func (s *RecipeService) toCache(ctx context.Context, entity *recipe.Recipe) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(entity)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, CacheKey(entity.ID), data, s.cacheTTL); err != nil {
		s.logger.Warn("Failed to cache recipe", zap.String("recipe_id", entity.ID.String()), zap.Error(err))
	}
}

func (s *RecipeService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Dispatch(ctx, event); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("event", event.EventName()),
			zap.Error(err),
		)
	}
}
