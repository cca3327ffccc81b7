package ai

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() *ai.RecipePayload {
	return &ai.RecipePayload{
		Name:         "<b>Shakshuka</b>",
		Description:  `Eggs in sauce <img src=x onerror="alert(1)">`,
		Instructions: "<p>Simmer the sauce.</p>\n<p>Crack in the eggs.</p>",
		Ingredients: []ai.PayloadIngredient{
			{Name: "eggs", Amount: 4.0, Unit: "pieces"},
			{Name: "tomatoes", Amount: "400", Unit: "g"},
			{Name: "cumin", Amount: json.Number("1.5"), Unit: "tsp"},
		},
		Difficulty: "Medium",
		PrepTime:   10,
		CookTime:   20,
		TotalTime:  30,
		Tags:       []string{"Brunch", "brunch", " ", "<i>eggs</i>"},
	}
}

func TestSanitize(t *testing.T) {
	input := ai.GenerationInput{Name: "Shakshuka", Cuisine: "levantine", Servings: 3}

	cmd, err := Sanitize(samplePayload(), input)
	require.NoError(t, err)

	assert.Equal(t, "Shakshuka", cmd.Name)
	assert.Equal(t, "Eggs in sauce", cmd.Description)
	assert.Equal(t, "Simmer the sauce.\nCrack in the eggs.", cmd.Instructions)
	assert.Equal(t, "medium", cmd.Difficulty)
	assert.Equal(t, []string{"Brunch", "eggs"}, cmd.Tags)
	assert.Equal(t, 400.0, cmd.Ingredients[1].Amount)
	assert.Equal(t, 1.5, cmd.Ingredients[2].Amount)
	assert.True(t, cmd.AIGenerated)

	// falls back to the request where the generator left gaps
	assert.Equal(t, 3, cmd.Servings)
	assert.Equal(t, "levantine", cmd.Cuisine)
}

func TestSanitize_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ai.RecipePayload)
		code   errors.ErrorCode
		field  string
	}{
		{"markup only name", func(p *ai.RecipePayload) { p.Name = "<script>x</script>" }, errors.CodeValidationFailed, "name"},
		{"no ingredients", func(p *ai.RecipePayload) { p.Ingredients = nil }, errors.CodeValidationFailed, "ingredients"},
		{"no instructions", func(p *ai.RecipePayload) { p.Instructions = "  " }, errors.CodeValidationFailed, "instructions"},
		{"unknown difficulty", func(p *ai.RecipePayload) { p.Difficulty = "chef" }, errors.CodeValidationFailed, "difficulty"},
		{"negative cook time", func(p *ai.RecipePayload) { p.CookTime, p.TotalTime = -5, 5 }, errors.CodeValidationFailed, "cook_time"},
		{"total time mismatch", func(p *ai.RecipePayload) { p.TotalTime = 45 }, errors.CodeIntegrityViolation, "total_time"},
		{"non numeric amount", func(p *ai.RecipePayload) { p.Ingredients[1].Amount = "a handful" }, errors.CodeValidationFailed, "ingredients[1].amount"},
		{"negative amount", func(p *ai.RecipePayload) { p.Ingredients[0].Amount = -1.0 }, errors.CodeValidationFailed, "ingredients[0].amount"},
		{"missing amount", func(p *ai.RecipePayload) { p.Ingredients[2].Amount = nil }, errors.CodeValidationFailed, "ingredients[2].amount"},
		{"nameless ingredient", func(p *ai.RecipePayload) { p.Ingredients[0].Name = "<br>" }, errors.CodeValidationFailed, "ingredients[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := samplePayload()
			tt.mutate(p)

			_, err := Sanitize(p, ai.GenerationInput{Name: "x", Servings: 1})
			require.Error(t, err)
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
			assert.True(t, errors.IsValidation(err))
		})
	}

	t.Run("nil payload", func(t *testing.T) {
		_, err := Sanitize(nil, ai.GenerationInput{})
		assert.True(t, errors.IsValidation(err))
	})
}

func TestSanitize_CapsTags(t *testing.T) {
	p := samplePayload()
	p.Tags = nil
	for i := 0; i < MaxTags+5; i++ {
		p.Tags = append(p.Tags, fmt.Sprintf("tag-%d", i))
	}

	cmd, err := Sanitize(p, ai.GenerationInput{Name: "x", Servings: 1})
	require.NoError(t, err)
	assert.Len(t, cmd.Tags, MaxTags)
	assert.Equal(t, "tag-0", cmd.Tags[0])
}

func TestExponentialBackoff(t *testing.T) {
	backoff := ExponentialBackoff(time.Second)

	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
	assert.Equal(t, time.Second, backoff(0))
	assert.Equal(t, time.Second, backoff(-3))
}

func TestSimplifyInput(t *testing.T) {
	in := ai.GenerationInput{
		Name:                "Curry",
		Cuisine:             "thai",
		DietaryRestrictions: []string{"a", "b", "c", "d"},
		Servings:            2,
	}

	out := SimplifyInput(3)(in)
	assert.Empty(t, out.Cuisine)
	assert.Equal(t, []string{"a", "b", "c"}, out.DietaryRestrictions)
	assert.Equal(t, "Curry", out.Name)
	assert.Equal(t, 2, out.Servings)

	// the original request is not modified
	assert.Equal(t, "thai", in.Cuisine)
	assert.Len(t, in.DietaryRestrictions, 4)

	short := SimplifyInput(3)(ai.GenerationInput{Name: "Soup", DietaryRestrictions: []string{"vegan"}})
	assert.Equal(t, []string{"vegan"}, short.DietaryRestrictions)
}

func TestRetryPolicy_Defaults(t *testing.T) {
	var empty RetryPolicy
	assert.Zero(t, empty.backoff(3))

	in := ai.GenerationInput{Name: "Soup", Cuisine: "french"}
	assert.Equal(t, in, empty.simplify(in))

	policy := DefaultRetryPolicy(2, 10*time.Millisecond, 3)
	assert.Equal(t, 2, policy.MaxRetries)
	assert.Equal(t, 20*time.Millisecond, policy.backoff(1))
}
