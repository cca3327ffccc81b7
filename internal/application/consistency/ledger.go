// Package consistency keeps recipes, meal plan slots, favorites and
// collections mutually consistent. Every cross-entity write runs here, inside
// a single transaction.
package consistency

import (
	"context"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/alchemorsel/mealplan/consistency")

// Ledger answers what references a recipe and owns the rating aggregate
type Ledger struct {
	relationships outbound.RelationshipRepository
	recipes       outbound.RecipeRepository
	favorites     outbound.FavoriteRepository
	tx            outbound.Transactor
	events        shared.EventDispatcher
	metrics       outbound.MetricsRecorder
	logger        *zap.Logger
}

// NewLedger creates a new relationship ledger
func NewLedger(
	relationships outbound.RelationshipRepository,
	recipes outbound.RecipeRepository,
	favorites outbound.FavoriteRepository,
	tx outbound.Transactor,
	events shared.EventDispatcher,
	metrics outbound.MetricsRecorder,
	logger *zap.Logger,
) *Ledger {
	if metrics == nil {
		metrics = outbound.NopMetrics{}
	}
	return &Ledger{
		relationships: relationships,
		recipes:       recipes,
		favorites:     favorites,
		tx:            tx,
		events:        events,
		metrics:       metrics,
		logger:        logger.Named("relationship-ledger"),
	}
}

var _ inbound.RelationshipLedger = (*Ledger)(nil)

// UsageStats counts the meal plan slots, favorites and collections that
// reference the recipe
func (l *Ledger) UsageStats(ctx context.Context, recipeID uuid.UUID) (*inbound.UsageStats, error) {
	if err := l.requireRecipe(ctx, recipeID); err != nil {
		return nil, err
	}
	counts, err := l.relationships.UsageCounts(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	return inbound.NewUsageStats(recipeID, counts), nil
}

// Relationships lists the rows referencing the recipe
func (l *Ledger) Relationships(ctx context.Context, recipeID uuid.UUID) (*inbound.Relationships, error) {
	if err := l.requireRecipe(ctx, recipeID); err != nil {
		return nil, err
	}

	plans, err := l.relationships.MealPlanReferences(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	favorites, err := l.relationships.FavoriteReferences(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	collections, err := l.relationships.CollectionReferences(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	return &inbound.Relationships{
		RecipeID:    recipeID,
		MealPlans:   plans,
		Favorites:   favorites,
		Collections: collections,
	}, nil
}

// RecalculateRating recomputes avg/count from the personal ratings of the
// recipe's favorites and writes them back in one transaction
func (l *Ledger) RecalculateRating(ctx context.Context, recipeID uuid.UUID) (recipe.RatingAggregate, error) {
	ctx, span := tracer.Start(ctx, "ledger.RecalculateRating",
		trace.WithAttributes(attribute.String("recipe.id", recipeID.String())))
	defer span.End()

	var rating recipe.RatingAggregate
	err := l.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := l.lockRecipe(ctx, recipeID); err != nil {
			return err
		}
		var err error
		rating, err = l.recalculate(ctx, recipeID)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return recipe.RatingAggregate{}, err
	}

	l.ratingChanged(ctx, recipeID, rating)
	return rating, nil
}

// recalculate must run inside a transaction that holds the recipe lock
func (l *Ledger) recalculate(ctx context.Context, recipeID uuid.UUID) (recipe.RatingAggregate, error) {
	rating, err := l.favorites.RatingStats(ctx, recipeID)
	if err != nil {
		return recipe.RatingAggregate{}, err
	}
	if err := l.recipes.UpdateRatingAggregate(ctx, recipeID, rating); err != nil {
		return recipe.RatingAggregate{}, err
	}
	return rating, nil
}

// ratingChanged runs after commit
func (l *Ledger) ratingChanged(ctx context.Context, recipeID uuid.UUID, rating recipe.RatingAggregate) {
	l.metrics.RatingRecalculated()
	l.logger.Debug("Rating recalculated",
		zap.String("recipe_id", recipeID.String()),
		zap.Float64("avg_rating", rating.Average),
		zap.Int("rating_count", rating.Count),
	)
	publish(ctx, l.events, l.logger, recipe.RecipeRatedEvent{
		RecipeID: recipeID,
		Rating:   rating,
		RatedAt:  time.Now().UTC(),
	})
}

// lockRecipe takes the recipe row lock for the rest of the transaction. Every
// write that counts or aggregates the rows referencing a recipe takes it
// first, so those writes apply one after another and each sees the rows the
// previous one committed. Inserts referencing the recipe wait on it through
// their foreign key check.
func (l *Ledger) lockRecipe(ctx context.Context, recipeID uuid.UUID) error {
	_, err := l.recipes.LockForUpdate(ctx, recipeID)
	return err
}

func (l *Ledger) requireRecipe(ctx context.Context, recipeID uuid.UUID) error {
	exists, err := l.recipes.Exists(ctx, recipeID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFoundError("Recipe", recipeID.String())
	}
	return nil
}

func publish(ctx context.Context, dispatcher shared.EventDispatcher, logger *zap.Logger, event shared.DomainEvent) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Dispatch(ctx, event); err != nil {
		logger.Error("Failed to publish event",
			zap.String("event", event.EventName()),
			zap.Error(err),
		)
	}
}
