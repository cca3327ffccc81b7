package collection_test

import (
	"context"
	"testing"

	appcollection "github.com/alchemorsel/mealplan/internal/application/collection"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCollectionService(t *testing.T) {
	ctx := context.Background()
	repos := testutils.NewRepositories(testutils.NewSQLiteDB(t))
	service := appcollection.NewCollectionService(repos.Collections, repos.Recipes, repos.Tx, zaptest.NewLogger(t))
	owner := uuid.New()

	weeknight, err := service.Create(ctx, inbound.CreateCollectionCommand{
		OwnerID: owner,
		Name:    "Weeknight",
		Color:   "#22c55e",
		Tags:    []string{"fast"},
	})
	require.NoError(t, err)
	assert.Empty(t, weeknight.RecipeIDs)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := service.Create(ctx, inbound.CreateCollectionCommand{OwnerID: owner, Name: "Weeknight"})
		testutils.AssertAppError(t, err, errors.CodeConflict)
	})

	t.Run("invalid color", func(t *testing.T) {
		_, err := service.Create(ctx, inbound.CreateCollectionCommand{OwnerID: owner, Name: "Colorful", Color: "green"})
		testutils.AssertFieldError(t, err, "color")
	})

	r1 := testutils.NewRecipeBuilder().Create(t, repos.Recipes)
	r2 := testutils.NewRecipeBuilder().Create(t, repos.Recipes)

	t.Run("add is idempotent", func(t *testing.T) {
		_, err := service.AddRecipe(ctx, weeknight.ID, r1.ID)
		require.NoError(t, err)
		_, err = service.AddRecipe(ctx, weeknight.ID, r2.ID)
		require.NoError(t, err)
		c, err := service.AddRecipe(ctx, weeknight.ID, r1.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{r1.ID, r2.ID}, c.RecipeIDs)
	})

	t.Run("add unknown recipe", func(t *testing.T) {
		_, err := service.AddRecipe(ctx, weeknight.ID, uuid.New())
		testutils.AssertAppError(t, err, errors.CodeNotFound)
	})

	t.Run("remove", func(t *testing.T) {
		c, err := service.RemoveRecipe(ctx, weeknight.ID, r1.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{r2.ID}, c.RecipeIDs)

		_, err = service.RemoveRecipe(ctx, weeknight.ID, r1.ID)
		testutils.AssertAppError(t, err, errors.CodeNotFound)
	})

	t.Run("list and delete keep recipes", func(t *testing.T) {
		_, err := service.Create(ctx, inbound.CreateCollectionCommand{OwnerID: owner, Name: "Baking"})
		require.NoError(t, err)

		list, err := service.ListForOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Baking", list[0].Name)

		require.NoError(t, service.Delete(ctx, weeknight.ID))
		_, err = service.GetByID(ctx, weeknight.ID)
		testutils.AssertAppError(t, err, errors.CodeNotFound)

		exists, err := repos.Recipes.Exists(ctx, r2.ID)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}
