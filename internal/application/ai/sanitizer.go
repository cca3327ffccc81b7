package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alchemorsel/mealplan/internal/domain/ai"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/pkg/validation"
)

// MaxTags caps the tag list of a generated recipe
const MaxTags = 20

// Sanitize checks a generator payload and turns it into a creation command.
// Markup is stripped from every text field before the checks run. A
// totalTime that disagrees with prep+cook is reported as an integrity
// violation and never corrected.
func Sanitize(payload *ai.RecipePayload, input ai.GenerationInput) (inbound.CreateRecipeCommand, error) {
	if payload == nil {
		return inbound.CreateRecipeCommand{}, errors.NewValidationError("payload", "generator returned no recipe")
	}

	cmd := inbound.CreateRecipeCommand{
		Name:         validation.StripMarkup(payload.Name),
		Description:  validation.StripMarkup(payload.Description),
		Instructions: validation.StripMarkup(payload.Instructions),
		Nutrition:    payload.Nutrition,
		Cuisine:      validation.StripMarkup(payload.Cuisine),
		PrepTime:     payload.PrepTime,
		CookTime:     payload.CookTime,
		Servings:     payload.Servings,
		Tags:         dedupeTags(payload.Tags),
		AIGenerated:  true,
	}

	if cmd.Name == "" {
		return cmd, errors.NewValidationError("name", "generated recipe has no name")
	}
	if cmd.Instructions == "" {
		return cmd, errors.NewValidationError("instructions", "generated recipe has no instructions")
	}
	if len(payload.Ingredients) == 0 {
		return cmd, errors.NewValidationError("ingredients", "generated recipe has no ingredients")
	}

	cmd.Ingredients = make([]recipe.Ingredient, 0, len(payload.Ingredients))
	for i, line := range payload.Ingredients {
		ingredient, err := sanitizeIngredient(i, line)
		if err != nil {
			return cmd, err
		}
		cmd.Ingredients = append(cmd.Ingredients, ingredient)
	}

	difficulty, err := recipe.ParseDifficulty(payload.Difficulty)
	if err != nil {
		return cmd, errors.NewValidationError("difficulty",
			fmt.Sprintf("generated difficulty %q is not one of easy, medium, hard", payload.Difficulty))
	}
	cmd.Difficulty = string(difficulty)

	if payload.PrepTime < 0 {
		return cmd, errors.NewValidationError("prep_time", "generated prep time is negative")
	}
	if payload.CookTime < 0 {
		return cmd, errors.NewValidationError("cook_time", "generated cook time is negative")
	}
	if payload.TotalTime != payload.PrepTime+payload.CookTime {
		return cmd, errors.NewIntegrityViolation("total_time", fmt.Sprintf(
			"generated total time %d does not equal prep time %d plus cook time %d",
			payload.TotalTime, payload.PrepTime, payload.CookTime,
		))
	}

	if cmd.Servings <= 0 {
		cmd.Servings = input.Servings
	}
	if cmd.Cuisine == "" {
		cmd.Cuisine = input.Cuisine
	}
	return cmd, nil
}

func sanitizeIngredient(i int, line ai.PayloadIngredient) (recipe.Ingredient, error) {
	field := fmt.Sprintf("ingredients[%d]", i)

	name := validation.StripMarkup(line.Name)
	if name == "" {
		return recipe.Ingredient{}, errors.NewValidationError(field+".name", "generated ingredient has no name")
	}

	amount, ok := parseAmount(line.Amount)
	if !ok {
		return recipe.Ingredient{}, errors.NewValidationError(field+".amount",
			fmt.Sprintf("amount of %q is not a number", name))
	}
	if amount < 0 {
		return recipe.Ingredient{}, errors.NewValidationError(field+".amount",
			fmt.Sprintf("amount of %q is negative", name))
	}

	return recipe.Ingredient{
		Name:   name,
		Amount: amount,
		Unit:   validation.StripMarkup(line.Unit),
		Notes:  validation.StripMarkup(line.Notes),
	}, nil
}

// parseAmount accepts JSON numbers and numeric strings
func parseAmount(v any) (float64, bool) {
	var f float64
	switch amount := v.(type) {
	case float64:
		f = amount
	case float32:
		f = float64(amount)
	case int:
		f = float64(amount)
	case int64:
		f = float64(amount)
	case json.Number:
		parsed, err := amount.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// dedupeTags strips markup, drops blanks and case-insensitive duplicates and
// keeps the first MaxTags
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = validation.StripMarkup(tag)
		key := strings.ToLower(tag)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}
