package recipe

import (
	"context"

	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CacheInvalidator drops cached recipes whenever a mutation event is raised
type CacheInvalidator struct {
	cache  outbound.CacheRepository
	logger *zap.Logger
}

// NewCacheInvalidator creates a new cache invalidator
func NewCacheInvalidator(cache outbound.CacheRepository, logger *zap.Logger) *CacheInvalidator {
	return &CacheInvalidator{cache: cache, logger: logger.Named("recipe-cache")}
}

// Register subscribes the invalidator to every recipe mutation event
func (c *CacheInvalidator) Register(dispatcher shared.EventDispatcher) {
	for _, name := range []string{
		recipe.EventRecipeUpdated,
		recipe.EventRecipeRated,
		recipe.EventRecipeDeleted,
	} {
		dispatcher.Register(name, c.Handle)
	}
}

// Handle evicts the recipe named by the event
func (c *CacheInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	var id uuid.UUID
	switch e := event.(type) {
	case recipe.RecipeUpdatedEvent:
		id = e.RecipeID
	case recipe.RecipeRatedEvent:
		id = e.RecipeID
	case recipe.RecipeDeletedEvent:
		id = e.RecipeID
	default:
		return nil
	}

	if err := c.cache.Delete(ctx, CacheKey(id)); err != nil {
		return err
	}
	c.logger.Debug("Recipe evicted from cache",
		zap.String("recipe_id", id.String()),
		zap.String("event", event.EventName()),
	)
	return nil
}
