package favorite_test

import (
	"context"
	"strings"
	"testing"

	appfavorite "github.com/alchemorsel/mealplan/internal/application/favorite"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setup(t *testing.T) (*appfavorite.FavoriteService, *testutils.Repositories) {
	repos := testutils.NewRepositories(testutils.NewSQLiteDB(t))
	return appfavorite.NewFavoriteService(repos.Favorites, repos.Recipes, repos.Tx, zaptest.NewLogger(t)), repos
}

func TestFavoriteService_Add(t *testing.T) {
	ctx := context.Background()
	service, repos := setup(t)
	user := uuid.New()
	r := testutils.NewRecipeBuilder().Create(t, repos.Recipes)

	fav, err := service.Add(ctx, user, r.ID)
	require.NoError(t, err)
	assert.False(t, fav.IsRated())

	// adding twice keeps the existing row and its rating
	require.NoError(t, repos.Favorites.Upsert(ctx, testutils.NewRatedFavorite(user, r.ID, 4)))
	again, err := service.Add(ctx, user, r.ID)
	require.NoError(t, err)
	require.NotNil(t, again.PersonalRating)
	assert.Equal(t, 4, *again.PersonalRating)

	_, err = service.Add(ctx, user, uuid.New())
	testutils.AssertAppError(t, err, errors.CodeNotFound)
}

func TestFavoriteService_UpdateNotes(t *testing.T) {
	ctx := context.Background()
	service, repos := setup(t)
	user := uuid.New()
	r := testutils.NewRecipeBuilder().Create(t, repos.Recipes)
	require.NoError(t, repos.Favorites.Upsert(ctx, testutils.NewRatedFavorite(user, r.ID, 3)))

	fav, err := service.UpdateNotes(ctx, user, r.ID, testutils.Ptr("less salt"))
	require.NoError(t, err)
	assert.Equal(t, "less salt", *fav.PersonalNotes)

	stored, err := service.Get(ctx, user, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "less salt", *stored.PersonalNotes)
	assert.Equal(t, 3, *stored.PersonalRating)

	cleared, err := service.UpdateNotes(ctx, user, r.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.PersonalNotes)

	_, err = service.UpdateNotes(ctx, user, r.ID, testutils.Ptr(strings.Repeat("x", 1001)))
	testutils.AssertFieldError(t, err, "notes")

	_, err = service.UpdateNotes(ctx, uuid.New(), r.ID, nil)
	testutils.AssertAppError(t, err, errors.CodeNotFound)
}

func TestFavoriteService_ListForUser(t *testing.T) {
	ctx := context.Background()
	service, repos := setup(t)
	user := uuid.New()

	for i := 0; i < 3; i++ {
		r := testutils.NewRecipeBuilder().Create(t, repos.Recipes)
		_, err := service.Add(ctx, user, r.ID)
		require.NoError(t, err)
	}
	other := testutils.NewRecipeBuilder().Create(t, repos.Recipes)
	_, err := service.Add(ctx, uuid.New(), other.ID)
	require.NoError(t, err)

	favs, total, err := service.ListForUser(ctx, user, inbound.PaginationParams{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, favs, 2)
	for _, f := range favs {
		assert.Equal(t, user, f.UserID)
	}
}
