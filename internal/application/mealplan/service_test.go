package mealplan_test

import (
	"context"
	"testing"
	"time"

	appmealplan "github.com/alchemorsel/mealplan/internal/application/mealplan"
	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/test/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
)

type MealPlanServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	repos   *testutils.Repositories
	service *appmealplan.MealPlanService
	owner   uuid.UUID
}

func TestMealPlanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(MealPlanServiceTestSuite))
}

func (s *MealPlanServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repos = testutils.NewRepositories(testutils.NewSQLiteDB(s.T()))
	s.service = appmealplan.NewMealPlanService(s.repos.MealPlans, s.repos.Recipes, s.repos.Tx, zaptest.NewLogger(s.T()))
	s.owner = uuid.New()
}

func (s *MealPlanServiceTestSuite) create(name string) *mealplan.MealPlan {
	plan, err := s.service.Create(s.ctx, inbound.CreateMealPlanCommand{
		OwnerID:   s.owner,
		Name:      name,
		WeekStart: testutils.ThisMonday(),
	})
	s.Require().NoError(err)
	return plan
}

func (s *MealPlanServiceTestSuite) activeCount() int64 {
	list, err := s.service.ListForOwner(s.ctx, inbound.MealPlanQuery{OwnerID: s.owner, ActiveOnly: true})
	s.Require().NoError(err)
	return list.Total
}

func (s *MealPlanServiceTestSuite) TestCreate() {
	plan := s.create("Week A")
	s.False(plan.IsActive)
	s.Equal(time.Monday, plan.WeekStart.Weekday())

	s.Run("duplicate name for owner", func() {
		_, err := s.service.Create(s.ctx, inbound.CreateMealPlanCommand{
			OwnerID:   s.owner,
			Name:      "Week A",
			WeekStart: testutils.ThisMonday(),
		})
		testutils.AssertAppError(s.T(), err, errors.CodeConflict)
	})

	s.Run("same name for another owner", func() {
		_, err := s.service.Create(s.ctx, inbound.CreateMealPlanCommand{
			OwnerID:   uuid.New(),
			Name:      "Week A",
			WeekStart: testutils.ThisMonday(),
		})
		s.NoError(err)
	})

	s.Run("week must start on Monday", func() {
		_, err := s.service.Create(s.ctx, inbound.CreateMealPlanCommand{
			OwnerID:   s.owner,
			Name:      "Off by one",
			WeekStart: testutils.ThisMonday().AddDate(0, 0, 1),
		})
		testutils.AssertFieldError(s.T(), err, "week_start")
	})

	s.Run("name required", func() {
		_, err := s.service.Create(s.ctx, inbound.CreateMealPlanCommand{OwnerID: s.owner, WeekStart: testutils.ThisMonday()})
		testutils.AssertFieldError(s.T(), err, "name")
	})
}

func (s *MealPlanServiceTestSuite) TestSetActive_KeepsOneActivePlan() {
	first := s.create("First")
	second := s.create("Second")

	active, err := s.service.SetActive(s.ctx, s.owner, first.ID)
	s.Require().NoError(err)
	s.True(active.IsActive)

	active, err = s.service.SetActive(s.ctx, s.owner, second.ID)
	s.Require().NoError(err)
	s.Equal(second.ID, active.ID)
	s.Equal(int64(1), s.activeCount())

	// idempotent
	_, err = s.service.SetActive(s.ctx, s.owner, second.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), s.activeCount())

	current, err := s.service.GetActive(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(second.ID, current.ID)
}

func (s *MealPlanServiceTestSuite) TestSetActive_RollsBackOnMissingPlan() {
	plan := s.create("Current")
	_, err := s.service.SetActive(s.ctx, s.owner, plan.ID)
	s.Require().NoError(err)

	_, err = s.service.SetActive(s.ctx, s.owner, uuid.New())
	testutils.AssertAppError(s.T(), err, errors.CodeNotFound)

	current, err := s.service.GetActive(s.ctx, s.owner)
	s.Require().NoError(err)
	s.Equal(plan.ID, current.ID)
}

func (s *MealPlanServiceTestSuite) TestSetActive_OtherOwnersPlan() {
	foreign, err := s.service.Create(s.ctx, inbound.CreateMealPlanCommand{
		OwnerID:   uuid.New(),
		Name:      "Not mine",
		WeekStart: testutils.ThisMonday(),
	})
	s.Require().NoError(err)

	_, err = s.service.SetActive(s.ctx, s.owner, foreign.ID)
	testutils.AssertAppError(s.T(), err, errors.CodeNotFound)
}

func (s *MealPlanServiceTestSuite) TestAssignRecipe_LastAssignmentWins() {
	plan := s.create("Week B")
	r1 := testutils.NewRecipeBuilder().Create(s.T(), s.repos.Recipes)
	r2 := testutils.NewRecipeBuilder().Create(s.T(), s.repos.Recipes)

	cmd := inbound.AssignRecipeCommand{
		MealPlanID: plan.ID,
		RecipeID:   r1.ID,
		Day:        mealplan.Wednesday,
		MealType:   mealplan.MealTypeDinner,
		Servings:   2,
	}
	_, err := s.service.AssignRecipe(s.ctx, cmd)
	s.Require().NoError(err)

	cmd.RecipeID = r2.ID
	updated, err := s.service.AssignRecipe(s.ctx, cmd)
	s.Require().NoError(err)

	s.Require().Len(updated.Items, 1)
	item, ok := updated.ItemAt(mealplan.Slot{Day: mealplan.Wednesday, MealType: mealplan.MealTypeDinner})
	s.Require().True(ok)
	s.Equal(r2.ID, item.RecipeID)
}

func (s *MealPlanServiceTestSuite) TestAssignRecipe_Rejects() {
	plan := s.create("Week C")
	r := testutils.NewRecipeBuilder().Create(s.T(), s.repos.Recipes)

	tests := []struct {
		name  string
		cmd   inbound.AssignRecipeCommand
		code  errors.ErrorCode
		field string
	}{
		{
			name:  "day out of range",
			cmd:   inbound.AssignRecipeCommand{MealPlanID: plan.ID, RecipeID: r.ID, Day: 7, MealType: mealplan.MealTypeLunch},
			code:  errors.CodeValidationFailed,
			field: "day_of_week",
		},
		{
			name:  "unknown meal type",
			cmd:   inbound.AssignRecipeCommand{MealPlanID: plan.ID, RecipeID: r.ID, Day: mealplan.Monday, MealType: "brunch"},
			code:  errors.CodeValidationFailed,
			field: "meal_type",
		},
		{
			name: "unknown recipe",
			cmd:  inbound.AssignRecipeCommand{MealPlanID: plan.ID, RecipeID: uuid.New(), Day: mealplan.Monday, MealType: mealplan.MealTypeLunch},
			code: errors.CodeNotFound,
		},
		{
			name: "unknown plan",
			cmd:  inbound.AssignRecipeCommand{MealPlanID: uuid.New(), RecipeID: r.ID, Day: mealplan.Monday, MealType: mealplan.MealTypeLunch},
			code: errors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.AssignRecipe(s.ctx, tt.cmd)
			appErr := testutils.AssertAppError(s.T(), err, tt.code)
			if tt.field != "" {
				testutils.AssertFieldError(s.T(), appErr, tt.field)
			}
		})
	}
}

func (s *MealPlanServiceTestSuite) TestRemoveRecipeAndClear() {
	plan := s.create("Week D")
	r := testutils.NewRecipeBuilder().Create(s.T(), s.repos.Recipes)
	for _, day := range []mealplan.DayOfWeek{mealplan.Monday, mealplan.Tuesday, mealplan.Saturday} {
		_, err := s.service.AssignRecipe(s.ctx, inbound.AssignRecipeCommand{
			MealPlanID: plan.ID, RecipeID: r.ID, Day: day, MealType: mealplan.MealTypeBreakfast,
		})
		s.Require().NoError(err)
	}

	updated, err := s.service.RemoveRecipe(s.ctx, plan.ID, mealplan.Slot{Day: mealplan.Tuesday, MealType: mealplan.MealTypeBreakfast})
	s.Require().NoError(err)
	s.Len(updated.Items, 2)

	_, err = s.service.RemoveRecipe(s.ctx, plan.ID, mealplan.Slot{Day: mealplan.Tuesday, MealType: mealplan.MealTypeBreakfast})
	testutils.AssertAppError(s.T(), err, errors.CodeNotFound)

	cleared, err := s.service.Clear(s.ctx, plan.ID)
	s.Require().NoError(err)
	s.Empty(cleared.Items)

	reloaded, err := s.service.GetByID(s.ctx, plan.ID)
	s.Require().NoError(err)
	s.Empty(reloaded.Items)

	exists, err := s.repos.Recipes.Exists(s.ctx, r.ID)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *MealPlanServiceTestSuite) TestUpdateAndDelete() {
	plan := s.create("Draft")
	name := "Final"

	updated, err := s.service.Update(s.ctx, plan.ID, mealplan.Patch{Name: &name})
	s.Require().NoError(err)
	s.Equal("Final", updated.Name)

	_, err = s.service.Update(s.ctx, plan.ID, mealplan.Patch{})
	testutils.AssertFieldError(s.T(), err, "fields")

	r := testutils.NewRecipeBuilder().Create(s.T(), s.repos.Recipes)
	_, err = s.service.AssignRecipe(s.ctx, inbound.AssignRecipeCommand{
		MealPlanID: plan.ID, RecipeID: r.ID, Day: mealplan.Sunday, MealType: mealplan.MealTypeSnack,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Delete(s.ctx, plan.ID))
	_, err = s.service.GetByID(s.ctx, plan.ID)
	testutils.AssertAppError(s.T(), err, errors.CodeNotFound)

	err = s.service.Delete(s.ctx, plan.ID)
	testutils.AssertAppError(s.T(), err, errors.CodeNotFound)
}

func (s *MealPlanServiceTestSuite) TestListForOwner() {
	s.create("Spring cleanup")
	s.create("Summer grill")
	s.create("Spring greens")

	list, err := s.service.ListForOwner(s.ctx, inbound.MealPlanQuery{OwnerID: s.owner, NameContains: "spring"})
	s.Require().NoError(err)
	s.Equal(int64(2), list.Total)

	page, err := s.service.ListForOwner(s.ctx, inbound.MealPlanQuery{
		OwnerID:    s.owner,
		Pagination: inbound.PaginationParams{Limit: 1},
	})
	s.Require().NoError(err)
	s.Equal(int64(3), page.Total)
	s.Len(page.MealPlans, 1)
}
