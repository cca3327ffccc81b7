// Package gorm provides mapping between domain entities and GORM models
package gorm

import (
	"encoding/json"
	"fmt"

	"github.com/alchemorsel/mealplan/internal/domain/collection"
	"github.com/alchemorsel/mealplan/internal/domain/favorite"
	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/alchemorsel/mealplan/internal/domain/recipe"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// RecipeToModel converts a domain recipe to a GORM model
func RecipeToModel(r *recipe.Recipe) (*RecipeModel, error) {
	ingredients, err := toJSON(r.Ingredients, "[]")
	if err != nil {
		return nil, fmt.Errorf("encode ingredients: %w", err)
	}
	tags, err := toJSON(r.Tags, "[]")
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	return &RecipeModel{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		Ingredients:  ingredients,
		Instructions: r.Instructions,
		Nutrition:    NutritionModel(r.Nutrition),
		Cuisine:      r.Cuisine,
		Difficulty:   string(r.Difficulty),
		Tags:         tags,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Servings:     r.Servings,
		AvgRating:    r.Rating.Average,
		RatingCount:  r.Rating.Count,
		ImageURL:     r.ImageURL,
		CreatedBy:    r.CreatedBy,
		AIGenerated:  r.AIGenerated,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

// ModelToRecipe converts a GORM model to a domain recipe
func ModelToRecipe(m *RecipeModel) (*recipe.Recipe, error) {
	var ingredients []recipe.Ingredient
	if err := fromJSON(m.Ingredients, &ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients of recipe %s: %w", m.ID, err)
	}
	var tags []string
	if err := fromJSON(m.Tags, &tags); err != nil {
		return nil, fmt.Errorf("decode tags of recipe %s: %w", m.ID, err)
	}

	return &recipe.Recipe{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Ingredients:  ingredients,
		Instructions: m.Instructions,
		Nutrition:    recipe.NutritionInfo(m.Nutrition),
		Cuisine:      m.Cuisine,
		Difficulty:   recipe.DifficultyLevel(m.Difficulty),
		PrepTime:     m.PrepTime,
		CookTime:     m.CookTime,
		Servings:     m.Servings,
		Rating:       recipe.RatingAggregate{Average: m.AvgRating, Count: m.RatingCount},
		ImageURL:     m.ImageURL,
		Tags:         tags,
		CreatedBy:    m.CreatedBy,
		AIGenerated:  m.AIGenerated,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// MealPlanToModel converts a domain meal plan to a GORM model without its items
func MealPlanToModel(p *mealplan.MealPlan) *MealPlanModel {
	return &MealPlanModel{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		WeekStart:   p.WeekStart,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ModelToMealPlan converts a GORM model, with any preloaded items, to a domain meal plan
func ModelToMealPlan(m *MealPlanModel) *mealplan.MealPlan {
	items := make([]mealplan.Item, 0, len(m.Items))
	for i := range m.Items {
		items = append(items, ModelToMealPlanItem(&m.Items[i]))
	}
	return &mealplan.MealPlan{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		WeekStart:   m.WeekStart.UTC(),
		IsActive:    m.IsActive,
		Items:       items,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// MealPlanItemToModel converts a domain item to a GORM model
func MealPlanItemToModel(item *mealplan.Item) *MealPlanItemModel {
	return &MealPlanItemModel{
		MealPlanID: item.MealPlanID,
		DayOfWeek:  int(item.Slot.Day),
		MealType:   string(item.Slot.MealType),
		RecipeID:   item.RecipeID,
		Servings:   item.Servings,
		Notes:      item.Notes,
		CreatedAt:  item.CreatedAt,
		UpdatedAt:  item.UpdatedAt,
	}
}

// ModelToMealPlanItem converts a GORM model to a domain item
func ModelToMealPlanItem(m *MealPlanItemModel) mealplan.Item {
	return mealplan.Item{
		MealPlanID: m.MealPlanID,
		Slot: mealplan.Slot{
			Day:      mealplan.DayOfWeek(m.DayOfWeek),
			MealType: mealplan.MealType(m.MealType),
		},
		RecipeID:  m.RecipeID,
		Servings:  m.Servings,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FavoriteToModel converts a domain favorite to a GORM model
func FavoriteToModel(f *favorite.Favorite) *FavoriteModel {
	return &FavoriteModel{
		UserID:         f.UserID,
		RecipeID:       f.RecipeID,
		PersonalRating: f.PersonalRating,
		PersonalNotes:  f.PersonalNotes,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// ModelToFavorite converts a GORM model to a domain favorite
func ModelToFavorite(m *FavoriteModel) *favorite.Favorite {
	return &favorite.Favorite{
		UserID:         m.UserID,
		RecipeID:       m.RecipeID,
		PersonalRating: m.PersonalRating,
		PersonalNotes:  m.PersonalNotes,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// CollectionToModel converts a domain collection to a GORM model without memberships
func CollectionToModel(c *collection.Collection) (*CollectionModel, error) {
	tags, err := toJSON(c.Tags, "[]")
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return &CollectionModel{
		ID:          c.ID,
		OwnerID:     c.OwnerID,
		Name:        c.Name,
		Description: c.Description,
		Color:       c.Color,
		Icon:        c.Icon,
		IsPublic:    c.IsPublic,
		Tags:        tags,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}, nil
}

// ModelToCollection converts a GORM model, with any preloaded members, to a domain collection
func ModelToCollection(m *CollectionModel) (*collection.Collection, error) {
	var tags []string
	if err := fromJSON(m.Tags, &tags); err != nil {
		return nil, fmt.Errorf("decode tags of collection %s: %w", m.ID, err)
	}
	recipeIDs := make([]uuid.UUID, 0, len(m.Members))
	for _, member := range m.Members {
		recipeIDs = append(recipeIDs, member.RecipeID)
	}
	return &collection.Collection{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Description: m.Description,
		Color:       m.Color,
		Icon:        m.Icon,
		IsPublic:    m.IsPublic,
		Tags:        tags,
		RecipeIDs:   recipeIDs,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

func toJSON(v any, empty string) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		b = []byte(empty)
	}
	return datatypes.JSON(b), nil
}

func fromJSON(raw datatypes.JSON, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
