package recipe

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeTestSuite provides a test suite for Recipe entity
type RecipeTestSuite struct {
	suite.Suite
}

func validRecipe() Recipe {
	return Recipe{
		Name:         "Omelette",
		Description:  "Fluffy three-egg omelette",
		Ingredients:  []Ingredient{{Name: "eggs", Amount: 3, Unit: "piece"}},
		Instructions: "Whisk the eggs and cook gently.",
		Difficulty:   DifficultyEasy,
		PrepTime:     5,
		CookTime:     10,
		Servings:     1,
		Tags:         []string{"Breakfast", "breakfast ", "quick"},
	}
}

// TestRecipeCreation tests recipe creation scenarios
func (suite *RecipeTestSuite) TestRecipeCreation() {
	suite.Run("ValidRecipe_ShouldCreateSuccessfully", func() {
		input := validRecipe()
		input.Rating = RatingAggregate{Average: 5, Count: 10}

		r, err := NewRecipe(input)

		require.NoError(suite.T(), err)
		assert.NotEqual(suite.T(), uuid.Nil, r.ID)
		assert.Equal(suite.T(), 15, r.TotalTime())
		assert.Equal(suite.T(), RatingAggregate{}, r.Rating, "caller-supplied rating must be discarded")
		assert.Equal(suite.T(), []string{"breakfast", "quick"}, r.Tags)
		assert.False(suite.T(), r.CreatedAt.IsZero())
	})

	cases := []struct {
		name   string
		mutate func(*Recipe)
		want   error
	}{
		{"EmptyName", func(r *Recipe) { r.Name = "  " }, ErrNameRequired},
		{"NameTooLong", func(r *Recipe) { r.Name = strings.Repeat("a", 201) }, ErrNameTooLong},
		{"NoIngredients", func(r *Recipe) { r.Ingredients = nil }, ErrNoIngredients},
		{"NegativeAmount", func(r *Recipe) { r.Ingredients[0].Amount = -1 }, ErrNegativeAmount},
		{"EmptyInstructions", func(r *Recipe) { r.Instructions = "" }, ErrNoInstructions},
		{"InvalidDifficulty", func(r *Recipe) { r.Difficulty = "expert" }, ErrInvalidDifficulty},
		{"NegativePrepTime", func(r *Recipe) { r.PrepTime = -1 }, ErrNegativePrepTime},
		{"NegativeCookTime", func(r *Recipe) { r.CookTime = -5 }, ErrNegativeCookTime},
	}
	for _, tc := range cases {
		suite.Run(tc.name+"_ShouldReturnError", func() {
			input := validRecipe()
			tc.mutate(&input)

			r, err := NewRecipe(input)

			assert.Nil(suite.T(), r)
			assert.ErrorIs(suite.T(), err, tc.want)
		})
	}
}

// TestRecipePatch tests partial updates
func (suite *RecipeTestSuite) TestRecipePatch() {
	suite.Run("EmptyPatch_ShouldReturnNothingToUpdate", func() {
		r, _ := NewRecipe(validRecipe())
		err := r.Apply(Patch{})
		assert.ErrorIs(suite.T(), err, ErrNothingToUpdate)
	})

	suite.Run("TimingPatch_ShouldKeepTotalDerived", func() {
		r, _ := NewRecipe(validRecipe())
		cook := 25
		require.NoError(suite.T(), r.Apply(Patch{CookTime: &cook}))
		assert.Equal(suite.T(), 30, r.TotalTime())
	})

	suite.Run("InvalidPatch_ShouldLeaveRecipeUnchanged", func() {
		r, _ := NewRecipe(validRecipe())
		empty := ""
		err := r.Apply(Patch{Name: &empty})
		assert.ErrorIs(suite.T(), err, ErrNameRequired)
		assert.Equal(suite.T(), "Omelette", r.Name)
	})
}

// TestRecipeFork tests sharing semantics
func (suite *RecipeTestSuite) TestRecipeFork() {
	original, _ := NewRecipe(validRecipe())
	original.Rating = RatingAggregate{Average: 4.5, Count: 2}
	owner := uuid.New()

	fork := original.Fork(owner)

	assert.NotEqual(suite.T(), original.ID, fork.ID)
	assert.Equal(suite.T(), "Omelette (Shared)", fork.Name)
	assert.Equal(suite.T(), owner, *fork.CreatedBy)
	assert.Equal(suite.T(), RatingAggregate{}, fork.Rating)

	fork.Ingredients[0].Name = "duck eggs"
	assert.Equal(suite.T(), "eggs", original.Ingredients[0].Name, "fork must not alias the source")
}

// TestRecipeNameLengthCountsCharacters tests names outside ASCII
func (suite *RecipeTestSuite) TestRecipeNameLengthCountsCharacters() {
	suite.Run("MultiByteName_ShouldCountRunes", func() {
		input := validRecipe()
		input.Name = strings.Repeat("é", 150)

		_, err := NewRecipe(input)
		assert.NoError(suite.T(), err)

		input.Name = strings.Repeat("é", 201)
		_, err = NewRecipe(input)
		assert.ErrorIs(suite.T(), err, ErrNameTooLong)
	})

	suite.Run("LongMultiByteName_ShouldForkOnRuneBoundary", func() {
		input := validRecipe()
		input.Name = strings.Repeat("é", 200)
		original, err := NewRecipe(input)
		require.NoError(suite.T(), err)

		fork := original.Fork(uuid.New())

		assert.True(suite.T(), utf8.ValidString(fork.Name))
		assert.Equal(suite.T(), 200, utf8.RuneCountInString(fork.Name))
		assert.True(suite.T(), strings.HasSuffix(fork.Name, ShareSuffix))
		_, err = NewRecipe(*fork)
		assert.NoError(suite.T(), err, "a fork must itself be a valid recipe")
	})
}

func TestRatingAggregate(t *testing.T) {
	assert.Equal(t, RatingAggregate{}, NewRatingAggregate(nil))
	assert.Equal(t, RatingAggregate{Average: 3.0, Count: 2}, NewRatingAggregate([]int{4, 2}))
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty(" Hard ")
	require.NoError(t, err)
	assert.Equal(t, DifficultyHard, d)

	_, err = ParseDifficulty("impossible")
	assert.ErrorIs(t, err, ErrInvalidDifficulty)
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}
