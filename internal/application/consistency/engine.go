package consistency

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/pkg/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// MinPopularRating excludes unrated and poorly rated recipes from rankings
	MinPopularRating = 3.0

	defaultPopularLimit = 10
	maxPopularLimit     = 100
)

// Engine runs the operations that span recipes and the rows referencing
// them. Each operation is one transaction; events are published after commit.
type Engine struct {
	ledger        *Ledger
	recipes       outbound.RecipeRepository
	favorites     outbound.FavoriteRepository
	relationships outbound.RelationshipRepository
	tx            outbound.Transactor
	events        shared.EventDispatcher
	metrics       outbound.MetricsRecorder
	validator     *validation.Validator
	logger        *zap.Logger
}

// NewEngine creates a new consistency engine sharing the ledger's repositories
func NewEngine(ledger *Ledger, logger *zap.Logger) *Engine {
	return &Engine{
		ledger:        ledger,
		recipes:       ledger.recipes,
		favorites:     ledger.favorites,
		relationships: ledger.relationships,
		tx:            ledger.tx,
		events:        ledger.events,
		metrics:       ledger.metrics,
		validator:     validation.New(),
		logger:        logger.Named("consistency-engine"),
	}
}

var _ inbound.ConsistencyEngine = (*Engine)(nil)

// DeleteRecipe deletes a recipe behind the usage guard. Usage is re-read in
// the deleting transaction; a referenced recipe is only removed when cascade
// is set, after every reference has been detached.
func (e *Engine) DeleteRecipe(ctx context.Context, recipeID uuid.UUID, cascade bool) (*inbound.DeletionResult, error) {
	ctx, span := tracer.Start(ctx, "engine.DeleteRecipe", trace.WithAttributes(
		attribute.String("recipe.id", recipeID.String()),
		attribute.Bool("cascade", cascade),
	))
	defer span.End()

	result := &inbound.DeletionResult{RecipeID: recipeID}
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := e.ledger.lockRecipe(ctx, recipeID); err != nil {
			return err
		}

		counts, err := e.relationships.UsageCounts(ctx, recipeID)
		if err != nil {
			return err
		}
		if counts.Total() > 0 {
			if !cascade {
				return inUse(recipeID, counts)
			}
			if result.DetachedMealSlots, err = e.relationships.DetachFromMealPlans(ctx, recipeID); err != nil {
				return err
			}
			if result.DetachedFavorites, err = e.relationships.DetachFromFavorites(ctx, recipeID); err != nil {
				return err
			}
			if result.DetachedCollections, err = e.relationships.DetachFromCollections(ctx, recipeID); err != nil {
				return err
			}
			result.Cascaded = true
		}

		return e.recipes.Delete(ctx, recipeID)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	e.metrics.RecipeDeleted(result.Cascaded)
	e.logger.Info("Recipe deleted",
		zap.String("recipe_id", recipeID.String()),
		zap.Bool("cascaded", result.Cascaded),
		zap.Int64("detached_meal_slots", result.DetachedMealSlots),
		zap.Int64("detached_favorites", result.DetachedFavorites),
		zap.Int64("detached_collections", result.DetachedCollections),
	)
	publish(ctx, e.events, e.logger, recipe.RecipeDeletedEvent{
		RecipeID:          recipeID,
		Cascaded:          result.Cascaded,
		DetachedMealSlots: result.DetachedMealSlots,
		DeletedAt:         time.Now().UTC(),
	})
	return result, nil
}

func inUse(recipeID uuid.UUID, counts outbound.UsageCounts) *errors.AppError {
	return errors.NewConflictError("recipe_id", fmt.Sprintf(
		"recipe is used by %d meal plan slot(s), %d favorite(s) and %d collection(s)",
		counts.MealPlans, counts.Favorites, counts.Collections,
	)).
		WithMetadata("id", recipeID.String()).
		WithMetadata("can_cascade", true).
		WithMetadata("meal_plan_usage", counts.MealPlans).
		WithMetadata("favorites_count", counts.Favorites).
		WithMetadata("collections_count", counts.Collections).
		WithMetadata("total", counts.Total())
}

// AddRecipeRating upserts the user's personal rating and recomputes the
// recipe's aggregate in the same transaction
func (e *Engine) AddRecipeRating(ctx context.Context, cmd inbound.RateRecipeCommand) (*recipe.Recipe, error) {
	if err := e.validator.Struct(cmd); err != nil {
		return nil, err
	}
	if err := favorite.ValidateRating(cmd.Rating); err != nil {
		return nil, errors.Wrap(err, "invalid rating")
	}
	if err := favorite.ValidateNotes(cmd.Notes); err != nil {
		return nil, errors.Wrap(err, "invalid notes")
	}

	ctx, span := tracer.Start(ctx, "engine.AddRecipeRating",
		trace.WithAttributes(attribute.String("recipe.id", cmd.RecipeID.String())))
	defer span.End()

	var (
		rated  *recipe.Recipe
		rating recipe.RatingAggregate
	)
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := e.ledger.lockRecipe(ctx, cmd.RecipeID); err != nil {
			return err
		}

		fav, err := e.favorites.Find(ctx, cmd.UserID, cmd.RecipeID)
		switch {
		case errors.Is(err, errors.CodeNotFound):
			fav = favorite.New(cmd.UserID, cmd.RecipeID)
		case err != nil:
			return err
		}

		value := cmd.Rating
		fav.PersonalRating = &value
		if cmd.Notes != nil {
			fav.PersonalNotes = cmd.Notes
		}
		fav.UpdatedAt = time.Now().UTC()
		if err := e.favorites.Upsert(ctx, fav); err != nil {
			return err
		}

		if rating, err = e.ledger.recalculate(ctx, cmd.RecipeID); err != nil {
			return err
		}
		rated, err = e.recipes.FindByID(ctx, cmd.RecipeID)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	e.ledger.ratingChanged(ctx, cmd.RecipeID, rating)
	return rated, nil
}

// RemoveRecipeRating clears the personal rating and keeps the favorite row
func (e *Engine) RemoveRecipeRating(ctx context.Context, userID, recipeID uuid.UUID) (*recipe.Recipe, error) {
	ctx, span := tracer.Start(ctx, "engine.RemoveRecipeRating",
		trace.WithAttributes(attribute.String("recipe.id", recipeID.String())))
	defer span.End()

	var (
		rated  *recipe.Recipe
		rating recipe.RatingAggregate
	)
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := e.ledger.lockRecipe(ctx, recipeID); err != nil {
			return err
		}

		fav, err := e.favorites.Find(ctx, userID, recipeID)
		if err != nil {
			return err
		}

		fav.PersonalRating = nil
		fav.UpdatedAt = time.Now().UTC()
		if err := e.favorites.Upsert(ctx, fav); err != nil {
			return err
		}

		if rating, err = e.ledger.recalculate(ctx, recipeID); err != nil {
			return err
		}
		rated, err = e.recipes.FindByID(ctx, recipeID)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	e.ledger.ratingChanged(ctx, recipeID, rating)
	return rated, nil
}

// RemoveFavorite deletes the favorite row, dropping its rating from the
// aggregate
func (e *Engine) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	var rating recipe.RatingAggregate
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := e.ledger.lockRecipe(ctx, recipeID); err != nil {
			return err
		}
		if err := e.favorites.Delete(ctx, userID, recipeID); err != nil {
			return err
		}
		var err error
		rating, err = e.ledger.recalculate(ctx, recipeID)
		return err
	})
	if err != nil {
		return err
	}

	e.ledger.ratingChanged(ctx, recipeID, rating)
	return nil
}

// ShareRecipe forks the recipe for toUser. The original row is never modified
// and the fork starts without ratings.
func (e *Engine) ShareRecipe(ctx context.Context, recipeID, fromUser, toUser uuid.UUID) (*recipe.Recipe, error) {
	if fromUser == uuid.Nil {
		return nil, errors.NewValidationError("from_user_id", "sharing user is required")
	}
	if toUser == uuid.Nil {
		return nil, errors.NewValidationError("to_user_id", "recipient is required")
	}
	if fromUser == toUser {
		return nil, errors.NewValidationError("to_user_id", "a recipe cannot be shared with its own owner")
	}

	ctx, span := tracer.Start(ctx, "engine.ShareRecipe",
		trace.WithAttributes(attribute.String("recipe.id", recipeID.String())))
	defer span.End()

	var fork *recipe.Recipe
	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		source, err := e.recipes.FindByID(ctx, recipeID)
		if err != nil {
			return err
		}
		if source.CreatedBy != nil && *source.CreatedBy != fromUser {
			return errors.NewValidationError("from_user_id", "only the recipe's creator can share it")
		}

		fork = source.Fork(toUser)
		return e.recipes.Create(ctx, fork)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	e.logger.Info("Recipe shared",
		zap.String("recipe_id", recipeID.String()),
		zap.String("fork_id", fork.ID.String()),
		zap.String("to_user_id", toUser.String()),
	)
	publish(ctx, e.events, e.logger, recipe.RecipeSharedEvent{
		SourceID: recipeID,
		ForkID:   fork.ID,
		FromUser: fromUser,
		ToUser:   toUser,
		SharedAt: fork.CreatedAt,
	})
	return fork, nil
}

// GetPopularRecipes ranks recipes rated at least MinPopularRating by total
// usage, then by rating
func (e *Engine) GetPopularRecipes(ctx context.Context, limit int) ([]inbound.PopularRecipe, error) {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	if limit > maxPopularLimit {
		limit = maxPopularLimit
	}

	ranked, err := e.relationships.PopularRecipes(ctx, MinPopularRating, limit)
	if err != nil {
		return nil, err
	}

	popular := make([]inbound.PopularRecipe, len(ranked))
	for i, p := range ranked {
		popular[i] = inbound.PopularRecipe{
			Recipe: inbound.NewRecipeDTO(p.Recipe),
			Usage:  inbound.NewUsageStats(p.Recipe.ID, p.Usage),
		}
	}
	return popular, nil
}
