// Package llm holds the prompt and reply format shared by the chat-model
// recipe generators
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/pkg/errors"
)

// SystemPrompt asks the model for a single recipe as a JSON object
const SystemPrompt = `You are an expert chef and recipe developer. Create detailed, practical recipes that are easy to follow.

Respond with ONLY a valid JSON object in this exact format:
{
  "name": "Recipe Name",
  "description": "Brief description of the dish",
  "cuisine": "cuisine_type",
  "difficulty": "easy|medium|hard",
  "prep_time": 15,
  "cook_time": 25,
  "total_time": 40,
  "servings": 4,
  "ingredients": [{"name": "ingredient name", "amount": 1.5, "unit": "cups"}],
  "instructions": ["Step 1", "Step 2"],
  "tags": ["tag1", "tag2"],
  "nutrition": {"calories": 350, "protein": 25.0, "carbohydrates": 30.0, "fat": 15.0}
}

Times are whole minutes and total_time must equal prep_time plus cook_time.`

// UserPrompt renders the generation input as the user turn
func UserPrompt(input ai.GenerationInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a recipe for: %s", input.Name)
	if input.Cuisine != "" {
		fmt.Fprintf(&b, "\nCuisine style: %s", input.Cuisine)
	}
	if len(input.DietaryRestrictions) > 0 {
		fmt.Fprintf(&b, "\nDietary restrictions: %s", strings.Join(input.DietaryRestrictions, ", "))
	}
	fmt.Fprintf(&b, "\nNumber of servings: %d", input.Servings)
	return b.String()
}

// generatedRecipe is the JSON shape the model is asked for. Instructions may
// come back as one string or a list of steps.
type generatedRecipe struct {
	Name         string                 `json:"name"`
	Description  string                 `json:"description"`
	Cuisine      string                 `json:"cuisine"`
	Difficulty   string                 `json:"difficulty"`
	PrepTime     int                    `json:"prep_time"`
	CookTime     int                    `json:"cook_time"`
	TotalTime    int                    `json:"total_time"`
	Servings     int                    `json:"servings"`
	Ingredients  []ai.PayloadIngredient `json:"ingredients"`
	Instructions json.RawMessage        `json:"instructions"`
	Tags         []string               `json:"tags"`
	Nutrition    recipe.NutritionInfo   `json:"nutrition"`
}

// ParsePayload extracts the JSON object from the model's reply. A reply that
// holds no recipe object is a validation failure.
func ParsePayload(content string) (*ai.RecipePayload, error) {
	content = strings.TrimSpace(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return nil, errors.NewValidationError("payload", "generator reply contains no JSON object")
	}

	var gen generatedRecipe
	if err := json.Unmarshal([]byte(content[start:end+1]), &gen); err != nil {
		return nil, errors.NewValidationError("payload", "generator reply is not a valid recipe").WithCause(err)
	}

	instructions, err := joinInstructions(gen.Instructions)
	if err != nil {
		return nil, errors.NewValidationError("instructions", "generator instructions are neither text nor a list of steps").WithCause(err)
	}

	return &ai.RecipePayload{
		Name:         gen.Name,
		Description:  gen.Description,
		Ingredients:  gen.Ingredients,
		Instructions: instructions,
		Nutrition:    gen.Nutrition,
		Cuisine:      gen.Cuisine,
		Difficulty:   gen.Difficulty,
		PrepTime:     gen.PrepTime,
		CookTime:     gen.CookTime,
		TotalTime:    gen.TotalTime,
		Servings:     gen.Servings,
		Tags:         gen.Tags,
	}, nil
}

func joinInstructions(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var steps []string
	if err := json.Unmarshal(raw, &steps); err != nil {
		return "", err
	}
	return strings.Join(steps, "\n"), nil
}

// Truncate cuts s to at most n bytes for log and error messages
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
