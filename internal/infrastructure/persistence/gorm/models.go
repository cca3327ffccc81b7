// Package gorm provides GORM model definitions and repository implementations
package gorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RecipeModel represents the GORM model for recipes. Total time is derived
// from prep and cook time and has no column.
type RecipeModel struct {
	ID           uuid.UUID      `gorm:"type:char(36);primaryKey"`
	Name         string         `gorm:"type:varchar(200);not null;index"`
	Description  string         `gorm:"type:text"`
	Ingredients  datatypes.JSON `gorm:"type:json;not null"`
	Instructions string         `gorm:"type:text;not null"`
	Nutrition    NutritionModel `gorm:"embedded;embeddedPrefix:nutrition_"`

	// Categorization
	Cuisine    string         `gorm:"type:varchar(50);index"`
	Difficulty string         `gorm:"type:varchar(20);not null;index"`
	Tags       datatypes.JSON `gorm:"type:json"`

	// Timing (stored in minutes)
	PrepTime int `gorm:"column:prep_time;not null;default:0"`
	CookTime int `gorm:"column:cook_time;not null;default:0"`
	Servings int `gorm:"not null;default:0"`

	// Derived from favorites.personal_rating
	AvgRating   float64 `gorm:"column:avg_rating;not null;default:0;index"`
	RatingCount int     `gorm:"column:rating_count;not null;default:0"`

	ImageURL    string     `gorm:"type:text"`
	CreatedBy   *uuid.UUID `gorm:"type:char(36);index"`
	AIGenerated bool       `gorm:"not null;default:false"`
	CreatedAt   time.Time  `gorm:"index"`
	UpdatedAt   time.Time
}

// NutritionModel represents embedded nutrition facts
type NutritionModel struct {
	Calories      *float64
	Protein       *float64
	Carbohydrates *float64
	Fat           *float64
	Fiber         *float64
	Sugar         *float64
	Sodium        *float64
}

// MealPlanModel represents the GORM model for meal plans
type MealPlanModel struct {
	ID          uuid.UUID `gorm:"type:char(36);primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:char(36);not null;uniqueIndex:idx_meal_plans_owner_name,priority:1;index"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_meal_plans_owner_name,priority:2"`
	Description string    `gorm:"type:text"`
	WeekStart   time.Time `gorm:"not null"`
	IsActive    bool      `gorm:"not null;default:false;index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relationships
	Items []MealPlanItemModel `gorm:"foreignKey:MealPlanID;constraint:OnDelete:CASCADE"`
}

// MealPlanItemModel is one slot of a plan; the slot triple is the primary key
type MealPlanItemModel struct {
	MealPlanID uuid.UUID `gorm:"type:char(36);primaryKey"`
	DayOfWeek  int       `gorm:"primaryKey;autoIncrement:false;check:chk_meal_plan_items_day,day_of_week >= 0 AND day_of_week <= 6"`
	MealType   string    `gorm:"type:varchar(20);primaryKey"`
	RecipeID   uuid.UUID `gorm:"type:char(36);not null;index"`
	Servings   int       `gorm:"not null;default:0"`
	Notes      string    `gorm:"type:text"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Relationships
	Recipe *RecipeModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:RESTRICT"`
}

// FavoriteModel represents a user's favorite and optional personal rating
type FavoriteModel struct {
	UserID         uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID       uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	PersonalRating *int      `gorm:"check:chk_favorites_rating,personal_rating IS NULL OR (personal_rating >= 1 AND personal_rating <= 5)"`
	PersonalNotes  *string   `gorm:"type:text"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Relationships
	Recipe *RecipeModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// CollectionModel represents the GORM model for collections
type CollectionModel struct {
	ID          uuid.UUID      `gorm:"type:char(36);primaryKey"`
	OwnerID     uuid.UUID      `gorm:"type:char(36);not null;uniqueIndex:idx_collections_owner_name,priority:1;index"`
	Name        string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_collections_owner_name,priority:2"`
	Description string         `gorm:"type:text"`
	Color       string         `gorm:"type:varchar(20)"`
	Icon        string         `gorm:"type:varchar(50)"`
	IsPublic    bool           `gorm:"not null;default:false"`
	Tags        datatypes.JSON `gorm:"type:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Relationships
	Members []CollectionRecipeModel `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE"`
}

// CollectionRecipeModel is a collection membership row
type CollectionRecipeModel struct {
	CollectionID uuid.UUID `gorm:"type:char(36);primaryKey"`
	RecipeID     uuid.UUID `gorm:"type:char(36);primaryKey;index"`
	AddedAt      time.Time `gorm:"not null"`

	// Relationships
	Recipe *RecipeModel `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// AllModels lists every model in dependency order for schema creation
func AllModels() []interface{} {
	return []interface{}{
		&RecipeModel{},
		&MealPlanModel{},
		&MealPlanItemModel{},
		&FavoriteModel{},
		&CollectionModel{},
		&CollectionRecipeModel{},
	}
}

// BeforeCreate hook for RecipeModel
func (r *RecipeModel) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for MealPlanModel
func (m *MealPlanModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook for CollectionModel
func (c *CollectionModel) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName methods for custom table names
func (RecipeModel) TableName() string {
	return "recipes"
}

func (MealPlanModel) TableName() string {
	return "meal_plans"
}

func (MealPlanItemModel) TableName() string {
	return "meal_plan_items"
}

func (FavoriteModel) TableName() string {
	return "favorites"
}

func (CollectionModel) TableName() string {
	return "collections"
}

func (CollectionRecipeModel) TableName() string {
	return "collection_recipes"
}
