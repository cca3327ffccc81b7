package gorm

import (
	"context"
	"strings"
	"time"

	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	apperrors "github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MealPlanRepository implements the meal plan repository interface using GORM
type MealPlanRepository struct {
	db *gorm.DB
}

// NewMealPlanRepository creates a new meal plan repository
func NewMealPlanRepository(db *gorm.DB) outbound.MealPlanRepository {
	return &MealPlanRepository{db: db}
}

// Create creates a new meal plan. Items are written separately via UpsertItem.
func (r *MealPlanRepository) Create(ctx context.Context, plan *mealplan.MealPlan) error {
	model := MealPlanToModel(plan)
	if err := conn(ctx, r.db).Omit(clause.Associations).Create(model).Error; err != nil {
		return translate(err, mealPlanEntity, plan.ID.String(), "create meal plan")
	}
	return nil
}

// Update writes name, description and week start
func (r *MealPlanRepository) Update(ctx context.Context, plan *mealplan.MealPlan) error {
	result := conn(ctx, r.db).
		Model(&MealPlanModel{}).
		Where("id = ?", plan.ID).
		Updates(map[string]interface{}{
			"name":        plan.Name,
			"description": plan.Description,
			"week_start":  plan.WeekStart,
			"updated_at":  plan.UpdatedAt,
		})
	if result.Error != nil {
		return translate(result.Error, mealPlanEntity, plan.ID.String(), "update meal plan")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Meal plan", plan.ID.String())
	}
	return nil
}

// Delete deletes a meal plan by ID
func (r *MealPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&MealPlanModel{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error, mealPlanEntity, id.String(), "delete meal plan")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Meal plan", id.String())
	}
	return nil
}

// FindByID finds a meal plan with its items ordered by day and meal type
func (r *MealPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error) {
	var model MealPlanModel
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC").Order(mealTypeOrder)
		}).
		First(&model, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, mealPlanEntity, id.String(), "find meal plan")
	}
	return ModelToMealPlan(&model), nil
}

// List lists the plans of an owner, newest week first
func (r *MealPlanRepository) List(ctx context.Context, filter outbound.MealPlanFilter) ([]*mealplan.MealPlan, int64, error) {
	query := conn(ctx, r.db).Model(&MealPlanModel{}).Where("owner_id = ?", filter.OwnerID)
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.NameContains != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.NameContains)+"%")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, mealPlanEntity, "", "count meal plans")
	}

	var models []MealPlanModel
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC").Order(mealTypeOrder)
		}).
		Order("week_start DESC").
		Order("created_at DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&models).Error
	if err != nil {
		return nil, 0, translate(err, mealPlanEntity, "", "list meal plans")
	}

	plans := make([]*mealplan.MealPlan, len(models))
	for i := range models {
		plans[i] = ModelToMealPlan(&models[i])
	}
	return plans, total, nil
}

// FindActive finds the active plan of an owner
func (r *MealPlanRepository) FindActive(ctx context.Context, ownerID uuid.UUID) (*mealplan.MealPlan, error) {
	var model MealPlanModel
	err := conn(ctx, r.db).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week ASC").Order(mealTypeOrder)
		}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		First(&model).Error
	if err != nil {
		return nil, translate(err, activePlanEntity, ownerID.String(), "find active meal plan")
	}
	return ModelToMealPlan(&model), nil
}

// DeactivateAllForOwner clears the active flag on every plan of the owner
func (r *MealPlanRepository) DeactivateAllForOwner(ctx context.Context, ownerID uuid.UUID) error {
	err := conn(ctx, r.db).
		Model(&MealPlanModel{}).
		Where("owner_id = ? AND is_active = ?", ownerID, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return translate(err, mealPlanEntity, "", "deactivate meal plans")
	}
	return nil
}

// Activate marks the plan active when it belongs to ownerID
func (r *MealPlanRepository) Activate(ctx context.Context, id, ownerID uuid.UUID) error {
	result := conn(ctx, r.db).
		Model(&MealPlanModel{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]interface{}{"is_active": true, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return translate(result.Error, activePlanEntity, id.String(), "activate meal plan")
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("Meal plan", id.String())
	}
	return nil
}

// UpsertItem inserts the item or replaces the recipe at its slot
func (r *MealPlanRepository) UpsertItem(ctx context.Context, item *mealplan.Item) error {
	model := MealPlanItemToModel(item)
	err := conn(ctx, r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "meal_plan_id"}, {Name: "day_of_week"}, {Name: "meal_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"recipe_id", "servings", "notes", "updated_at",
			}),
		}).
		Create(model).Error
	if err != nil {
		return translate(err, mealPlanItemEntity, item.MealPlanID.String(), "assign recipe")
	}
	return nil
}

// DeleteItem removes the item at slot and reports whether one existed
func (r *MealPlanRepository) DeleteItem(ctx context.Context, planID uuid.UUID, slot mealplan.Slot) (bool, error) {
	result := conn(ctx, r.db).
		Where("meal_plan_id = ? AND day_of_week = ? AND meal_type = ?", planID, int(slot.Day), string(slot.MealType)).
		Delete(&MealPlanItemModel{})
	if result.Error != nil {
		return false, translate(result.Error, mealPlanItemEntity, planID.String(), "remove recipe")
	}
	return result.RowsAffected > 0, nil
}

// DeleteItems removes every item of a plan
func (r *MealPlanRepository) DeleteItems(ctx context.Context, planID uuid.UUID) (int64, error) {
	result := conn(ctx, r.db).Where("meal_plan_id = ?", planID).Delete(&MealPlanItemModel{})
	if result.Error != nil {
		return 0, translate(result.Error, mealPlanItemEntity, planID.String(), "clear meal plan")
	}
	return result.RowsAffected, nil
}

const mealTypeOrder = "CASE meal_type WHEN 'breakfast' THEN 0 WHEN 'lunch' THEN 1 WHEN 'dinner' THEN 2 ELSE 3 END"
