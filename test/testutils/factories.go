package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/domain/collection"
	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Faker is seeded so generated data is reproducible across runs
var Faker = gofakeit.New(42)

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	r recipe.Recipe
}

// NewRecipeBuilder creates a builder with valid random values
func NewRecipeBuilder() *RecipeBuilder {
	return &RecipeBuilder{r: recipe.Recipe{
		Name:         Faker.Dessert() + " " + Faker.Noun(),
		Description:  "Serves the whole table",
		Ingredients:  RandomIngredients(3),
		Instructions: Faker.Paragraph(1, 3, 8, "\n"),
		Cuisine:      "italian",
		Difficulty:   recipe.DifficultyMedium,
		PrepTime:     15,
		CookTime:     30,
		Servings:     4,
		Tags:         []string{"test"},
	}}
}

// WithName sets the recipe name
func (b *RecipeBuilder) WithName(name string) *RecipeBuilder {
	b.r.Name = name
	return b
}

// WithCreator sets the creating user
func (b *RecipeBuilder) WithCreator(id uuid.UUID) *RecipeBuilder {
	b.r.CreatedBy = &id
	return b
}

// WithDifficulty sets the difficulty
func (b *RecipeBuilder) WithDifficulty(d recipe.DifficultyLevel) *RecipeBuilder {
	b.r.Difficulty = d
	return b
}

// WithTimes sets prep and cook time in minutes
func (b *RecipeBuilder) WithTimes(prep, cook int) *RecipeBuilder {
	b.r.PrepTime = prep
	b.r.CookTime = cook
	return b
}

// WithTags sets the tags
func (b *RecipeBuilder) WithTags(tags ...string) *RecipeBuilder {
	b.r.Tags = tags
	return b
}

// AIGenerated marks the recipe as generated
func (b *RecipeBuilder) AIGenerated() *RecipeBuilder {
	b.r.AIGenerated = true
	return b
}

// Build returns a validated recipe entity
func (b *RecipeBuilder) Build(t *testing.T) *recipe.Recipe {
	t.Helper()
	r, err := recipe.NewRecipe(b.r)
	require.NoError(t, err)
	return r
}

// Create persists the recipe through repo
func (b *RecipeBuilder) Create(t *testing.T, repo interface {
	Create(ctx context.Context, r *recipe.Recipe) error
}) *recipe.Recipe {
	t.Helper()
	r := b.Build(t)
	require.NoError(t, repo.Create(context.Background(), r))
	return r
}

// Command returns the equivalent create command
func (b *RecipeBuilder) Command() inbound.CreateRecipeCommand {
	return inbound.CreateRecipeCommand{
		Name:         b.r.Name,
		Description:  b.r.Description,
		Ingredients:  b.r.Ingredients,
		Instructions: b.r.Instructions,
		Cuisine:      b.r.Cuisine,
		Difficulty:   string(b.r.Difficulty),
		PrepTime:     b.r.PrepTime,
		CookTime:     b.r.CookTime,
		Servings:     b.r.Servings,
		Tags:         b.r.Tags,
		CreatedBy:    b.r.CreatedBy,
	}
}

// RandomIngredients returns n valid ingredient lines
func RandomIngredients(n int) []recipe.Ingredient {
	units := []string{"g", "ml", "cups", "tbsp", "tsp", "pieces"}
	out := make([]recipe.Ingredient, n)
	for i := range out {
		out[i] = recipe.Ingredient{
			Name:   Faker.Vegetable(),
			Amount: float64(Faker.Number(1, 500)),
			Unit:   units[Faker.Number(0, len(units)-1)],
		}
	}
	return out
}

// NewMealPlan builds a valid plan for owner starting this week
func NewMealPlan(t *testing.T, owner uuid.UUID) *mealplan.MealPlan {
	t.Helper()
	plan, err := mealplan.NewMealPlan(owner, "Week of "+Faker.Word(), Faker.Sentence(5), ThisMonday())
	require.NoError(t, err)
	return plan
}

// ThisMonday returns midnight UTC of the current week's Monday
func ThisMonday() time.Time {
	now := time.Now().UTC()
	offset := (int(now.Weekday()) + 6) % 7
	return time.Date(now.Year(), now.Month(), now.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// NewRatedFavorite builds a favorite carrying rating
func NewRatedFavorite(userID, recipeID uuid.UUID, rating int) *favorite.Favorite {
	f := favorite.New(userID, recipeID)
	f.PersonalRating = &rating
	return f
}

// NewCollection builds a valid collection for owner
func NewCollection(t *testing.T, owner uuid.UUID) *collection.Collection {
	t.Helper()
	c, err := collection.New(collection.Collection{
		OwnerID: owner,
		Name:    Faker.BeerStyle() + " favourites",
		Color:   Faker.HexColor(),
	})
	require.NoError(t, err)
	return c
}

// ValidPayload returns a generator payload that passes sanitization for input
func ValidPayload(input ai.GenerationInput) *ai.RecipePayload {
	return &ai.RecipePayload{
		Name:         input.Name,
		Description:  Faker.Sentence(8),
		Instructions: "Prepare the ingredients.\nCook until done.",
		Ingredients: []ai.PayloadIngredient{
			{Name: "eggs", Amount: 3.0, Unit: "pieces"},
			{Name: "butter", Amount: "15", Unit: "g"},
		},
		Cuisine:    input.Cuisine,
		Difficulty: "easy",
		PrepTime:   5,
		CookTime:   10,
		TotalTime:  15,
		Servings:   input.Servings,
		Tags:       []string{"breakfast", "quick"},
	}
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
