package recipe_test

import (
	"context"
	"sync"
	"testing"
	"time"

	apprecipe "github.com/alchemorsel/mealplan/internal/application/recipe"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type RecipeServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	repos   *testutils.Repositories
	cache   *memory.CacheRepository
	events  *testutils.RecordingDispatcher
	service *apprecipe.RecipeService
}

func TestRecipeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceTestSuite))
}

func (s *RecipeServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	logger := zaptest.NewLogger(s.T())

	s.repos = testutils.NewRepositories(testutils.NewSQLiteDB(s.T()))
	s.cache = memory.NewCacheRepository(0)
	s.T().Cleanup(func() { _ = s.cache.Close() })

	s.events = testutils.NewRecordingDispatcher()
	apprecipe.NewCacheInvalidator(s.cache, logger).Register(s.events)

	s.service = apprecipe.NewRecipeService(s.repos.Recipes, s.repos.Tx, s.cache, time.Minute, s.events, logger)
}

func (s *RecipeServiceTestSuite) TestCreate() {
	creator := uuid.New()
	cmd := testutils.NewRecipeBuilder().WithName("  Omelette ").WithCreator(creator).WithTimes(5, 10).WithTags("Breakfast", "breakfast ", "eggs").Command()
	cmd.Difficulty = "EASY"

	created, err := s.service.Create(s.ctx, cmd)
	s.Require().NoError(err)

	s.Equal("Omelette", created.Name)
	s.Equal(recipe.DifficultyEasy, created.Difficulty)
	s.Equal(15, created.TotalTime())
	s.Equal([]string{"breakfast", "eggs"}, created.Tags)
	s.Equal(recipe.RatingAggregate{}, created.Rating)
	s.Len(s.events.Named(recipe.EventRecipeCreated), 1)

	stored, err := s.repos.Recipes.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Name, stored.Name)
	s.Equal(creator, *stored.CreatedBy)
}

func (s *RecipeServiceTestSuite) TestCreate_Rejects() {
	tests := []struct {
		name   string
		mutate func(*inbound.CreateRecipeCommand)
		field  string
	}{
		{"missing name", func(c *inbound.CreateRecipeCommand) { c.Name = "" }, "name"},
		{"no ingredients", func(c *inbound.CreateRecipeCommand) { c.Ingredients = nil }, "ingredients"},
		{"missing instructions", func(c *inbound.CreateRecipeCommand) { c.Instructions = "" }, "instructions"},
		{"bad difficulty", func(c *inbound.CreateRecipeCommand) { c.Difficulty = "extreme" }, "difficulty"},
		{"negative prep time", func(c *inbound.CreateRecipeCommand) { c.PrepTime = -1 }, "prep_time"},
		{"negative amount", func(c *inbound.CreateRecipeCommand) {
			c.Ingredients = []recipe.Ingredient{{Name: "flour", Amount: -2}}
		}, "ingredients"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			cmd := testutils.NewRecipeBuilder().Command()
			tt.mutate(&cmd)

			_, err := s.service.Create(s.ctx, cmd)
			testutils.AssertFieldError(s.T(), err, tt.field)
		})
	}
	s.Empty(s.events.Named(recipe.EventRecipeCreated))
}

func (s *RecipeServiceTestSuite) TestGetByID_ReadsThroughCache() {
	created := testutils.NewRecipeBuilder().WithName("Cached").Create(s.T(), s.repos.Recipes)

	got, err := s.service.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Cached", got.Name)

	exists, err := s.cache.Exists(s.ctx, apprecipe.CacheKey(created.ID))
	s.Require().NoError(err)
	s.True(exists)

	_, err = s.service.GetByID(s.ctx, uuid.New())
	testutils.AssertAppError(s.T(), err, errors.CodeNotFound)
}

func (s *RecipeServiceTestSuite) TestUpdate() {
	created := testutils.NewRecipeBuilder().WithTimes(10, 20).Create(s.T(), s.repos.Recipes)
	_, err := s.service.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)

	updated, err := s.service.Update(s.ctx, created.ID, recipe.Patch{
		Name:     testutils.Ptr("Renamed"),
		CookTime: testutils.Ptr(5),
	})
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Name)
	s.Equal(15, updated.TotalTime())

	// the update event evicts the cached copy
	exists, err := s.cache.Exists(s.ctx, apprecipe.CacheKey(created.ID))
	s.Require().NoError(err)
	s.False(exists)

	got, err := s.service.GetByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Renamed", got.Name)
	s.Equal(15, got.TotalTime())
}

func (s *RecipeServiceTestSuite) TestUpdate_Rejects() {
	created := testutils.NewRecipeBuilder().WithName("Stable").Create(s.T(), s.repos.Recipes)

	_, err := s.service.Update(s.ctx, created.ID, recipe.Patch{})
	testutils.AssertFieldError(s.T(), err, "fields")

	_, err = s.service.Update(s.ctx, created.ID, recipe.Patch{
		Name:     testutils.Ptr("Changed"),
		PrepTime: testutils.Ptr(-5),
	})
	testutils.AssertFieldError(s.T(), err, "prep_time")

	stored, err := s.repos.Recipes.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Stable", stored.Name)

	_, err = s.service.Update(s.ctx, uuid.New(), recipe.Patch{Name: testutils.Ptr("x")})
	testutils.AssertAppError(s.T(), err, errors.CodeNotFound)
}

func (s *RecipeServiceTestSuite) TestUpdate_ConcurrentPatchesAllApply() {
	created := testutils.NewRecipeBuilder().WithName("Omelette").WithTimes(5, 10).Create(s.T(), s.repos.Recipes)

	patches := []recipe.Patch{
		{Name: testutils.Ptr("Frittata")},
		{CookTime: testutils.Ptr(30)},
		{Description: testutils.Ptr("baked, not folded")},
	}

	start := make(chan struct{})
	errs := make(chan error, len(patches))
	var wg sync.WaitGroup
	for _, patch := range patches {
		wg.Add(1)
		go func(patch recipe.Patch) {
			defer wg.Done()
			<-start
			_, err := s.service.Update(s.ctx, created.ID, patch)
			errs <- err
		}(patch)
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		s.Require().NoError(err)
	}

	stored, err := s.repos.Recipes.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal("Frittata", stored.Name)
	s.Equal(30, stored.CookTime)
	s.Equal(35, stored.TotalTime())
	s.Equal("baked, not folded", stored.Description)
}

func (s *RecipeServiceTestSuite) TestUpdate_LeavesRatingAlone() {
	created := testutils.NewRecipeBuilder().Create(s.T(), s.repos.Recipes)
	rating := recipe.RatingAggregate{Average: 4, Count: 2}
	s.Require().NoError(s.repos.Recipes.UpdateRatingAggregate(s.ctx, created.ID, rating))

	_, err := s.service.Update(s.ctx, created.ID, recipe.Patch{Description: testutils.Ptr("now with herbs")})
	s.Require().NoError(err)

	stored, err := s.repos.Recipes.FindByID(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(rating, stored.Rating)
}

func (s *RecipeServiceTestSuite) TestSearch() {
	chef := uuid.New()
	testutils.NewRecipeBuilder().WithName("Tomato soup").WithDifficulty(recipe.DifficultyEasy).WithTags("soup").WithCreator(chef).Create(s.T(), s.repos.Recipes)
	testutils.NewRecipeBuilder().WithName("Tomato tart").WithDifficulty(recipe.DifficultyHard).WithTags("baking").Create(s.T(), s.repos.Recipes)
	testutils.NewRecipeBuilder().WithName("Green curry").WithDifficulty(recipe.DifficultyMedium).AIGenerated().Create(s.T(), s.repos.Recipes)

	tests := []struct {
		name  string
		query inbound.SearchQuery
		total int64
	}{
		{"all", inbound.SearchQuery{}, 3},
		{"text", inbound.SearchQuery{Text: "tomato"}, 2},
		{"difficulty", inbound.SearchQuery{Difficulty: "hard"}, 1},
		{"tag", inbound.SearchQuery{Tags: []string{"soup"}}, 1},
		{"creator", inbound.SearchQuery{CreatedBy: &chef}, 1},
		{"ai generated", inbound.SearchQuery{AIGenerated: testutils.Ptr(true)}, 1},
		{"no match", inbound.SearchQuery{Text: "lasagna"}, 0},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			list, err := s.service.Search(s.ctx, tt.query)
			s.Require().NoError(err)
			s.Equal(tt.total, list.Total)
			s.Len(list.Recipes, int(tt.total))
		})
	}

	s.Run("page window", func() {
		list, err := s.service.Search(s.ctx, inbound.SearchQuery{Pagination: inbound.PaginationParams{Limit: 2, Offset: 2}})
		s.Require().NoError(err)
		s.Equal(int64(3), list.Total)
		s.Len(list.Recipes, 1)
		s.Equal(2, list.Limit)
	})

	s.Run("invalid difficulty", func() {
		_, err := s.service.Search(s.ctx, inbound.SearchQuery{Difficulty: "impossible"})
		testutils.AssertFieldError(s.T(), err, "difficulty")
	})
}
