package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDispatcher_DeliversToAllHandlers(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))

	var got []string
	d.Register(recipe.EventRecipeDeleted, func(ctx context.Context, e shared.DomainEvent) error {
		got = append(got, "first")
		return errors.New("boom")
	})
	d.Register(recipe.EventRecipeDeleted, func(ctx context.Context, e shared.DomainEvent) error {
		got = append(got, "second")
		return nil
	})

	err := d.Dispatch(context.Background(), recipe.RecipeDeletedEvent{RecipeID: uuid.New(), DeletedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestDispatcher_NoHandlers(t *testing.T) {
	d := NewDispatcher(zaptest.NewLogger(t))

	err := d.Dispatch(context.Background(), recipe.RecipeUpdatedEvent{RecipeID: uuid.New()})
	assert.NoError(t, err)
}
