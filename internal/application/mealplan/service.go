// Package mealplan provides the application layer for weekly meal plans
package mealplan

import (
	"context"

	"github.com/alchemorsel/mealplan/internal/domain/mealplan"
	"github.com/alchemorsel/mealplan/internal/ports/inbound"
	"github.com/alchemorsel/mealplan/internal/ports/outbound"
	"github.com/alchemorsel/mealplan/pkg/errors"
	"github.com/alchemorsel/mealplan/pkg/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// MealPlanService implements the meal plan use cases
type MealPlanService struct {
	plans     outbound.MealPlanRepository
	recipes   outbound.RecipeRepository
	tx        outbound.Transactor
	validator *validation.Validator
	logger    *zap.Logger
}

// NewMealPlanService creates a new meal plan service
func NewMealPlanService(
	plans outbound.MealPlanRepository,
	recipes outbound.RecipeRepository,
	tx outbound.Transactor,
	logger *zap.Logger,
) *MealPlanService {
	return &MealPlanService{
		plans:     plans,
		recipes:   recipes,
		tx:        tx,
		validator: validation.New(),
		logger:    logger.Named("mealplan-service"),
	}
}

var _ inbound.MealPlanService = (*MealPlanService)(nil)

// Create creates an inactive plan; the name must be unique for the owner
func (s *MealPlanService) Create(ctx context.Context, cmd inbound.CreateMealPlanCommand) (*mealplan.MealPlan, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	plan, err := mealplan.NewMealPlan(cmd.OwnerID, cmd.Name, cmd.Description, cmd.WeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create meal plan")
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		if errors.Is(err, errors.CodeConflict) {
			return nil, errors.NewConflictError("name", "a meal plan with this name already exists").
				WithMetadata("name", plan.Name).
				WithCause(err)
		}
		return nil, err
	}

	s.logger.Info("Meal plan created",
		zap.String("meal_plan_id", plan.ID.String()),
		zap.String("owner_id", plan.OwnerID.String()),
	)
	return plan, nil
}

// GetByID returns a plan with its items
func (s *MealPlanService) GetByID(ctx context.Context, id uuid.UUID) (*mealplan.MealPlan, error) {
	return s.plans.FindByID(ctx, id)
}

// ListForOwner lists an owner's plans
func (s *MealPlanService) ListForOwner(ctx context.Context, query inbound.MealPlanQuery) (*inbound.MealPlanList, error) {
	page := query.Pagination.Normalize(defaultPageSize, maxPageSize)

	plans, total, err := s.plans.List(ctx, outbound.MealPlanFilter{
		OwnerID:      query.OwnerID,
		ActiveOnly:   query.ActiveOnly,
		NameContains: query.NameContains,
		Offset:       page.Offset,
		Limit:        page.Limit,
	})
	if err != nil {
		return nil, err
	}

	return &inbound.MealPlanList{
		MealPlans: plans,
		Total:     total,
		Limit:     page.Limit,
		Offset:    page.Offset,
	}, nil
}

// GetActive returns the owner's active plan
func (s *MealPlanService) GetActive(ctx context.Context, ownerID uuid.UUID) (*mealplan.MealPlan, error) {
	return s.plans.FindActive(ctx, ownerID)
}

// Update applies a field-mask patch to the plan
func (s *MealPlanService) Update(ctx context.Context, id uuid.UUID, patch mealplan.Patch) (*mealplan.MealPlan, error) {
	if patch.IsEmpty() {
		return nil, errors.Wrap(mealplan.ErrNothingToUpdate, "nothing to update")
	}

	var plan *mealplan.MealPlan
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if plan, err = s.plans.FindByID(ctx, id); err != nil {
			return err
		}
		if err := plan.Apply(patch); err != nil {
			return errors.Wrap(err, "failed to update meal plan")
		}
		return s.plans.Update(ctx, plan)
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Delete removes the plan's items and then the plan
func (s *MealPlanService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.plans.FindByID(ctx, id); err != nil {
			return err
		}
		if _, err := s.plans.DeleteItems(ctx, id); err != nil {
			return err
		}
		return s.plans.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Meal plan deleted", zap.String("meal_plan_id", id.String()))
	return nil
}

// SetActive deactivates every plan of the owner and activates planID in one
// transaction. A plan that is missing or belongs to someone else leaves the
// previous active plan in place.
func (s *MealPlanService) SetActive(ctx context.Context, ownerID, planID uuid.UUID) (*mealplan.MealPlan, error) {
	var plan *mealplan.MealPlan
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.plans.DeactivateAllForOwner(ctx, ownerID); err != nil {
			return err
		}
		if err := s.plans.Activate(ctx, planID, ownerID); err != nil {
			return err
		}
		var err error
		plan, err = s.plans.FindByID(ctx, planID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Meal plan activated",
		zap.String("meal_plan_id", planID.String()),
		zap.String("owner_id", ownerID.String()),
	)
	return plan, nil
}

// AssignRecipe places a recipe in a slot; the last assignment wins
func (s *MealPlanService) AssignRecipe(ctx context.Context, cmd inbound.AssignRecipeCommand) (*mealplan.MealPlan, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}
	slot := mealplan.Slot{Day: cmd.Day, MealType: cmd.MealType}
	if err := slot.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid slot")
	}

	var plan *mealplan.MealPlan
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.plans.FindByID(ctx, cmd.MealPlanID); err != nil {
			return err
		}
		exists, err := s.recipes.Exists(ctx, cmd.RecipeID)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NewNotFoundError("Recipe", cmd.RecipeID.String())
		}

		item := &mealplan.Item{
			MealPlanID: cmd.MealPlanID,
			Slot:       slot,
			RecipeID:   cmd.RecipeID,
			Servings:   cmd.Servings,
			Notes:      cmd.Notes,
		}
		if err := s.plans.UpsertItem(ctx, item); err != nil {
			return err
		}

		plan, err = s.plans.FindByID(ctx, cmd.MealPlanID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Recipe assigned to meal plan",
		zap.String("meal_plan_id", cmd.MealPlanID.String()),
		zap.String("recipe_id", cmd.RecipeID.String()),
		zap.Int("day_of_week", int(slot.Day)),
		zap.String("meal_type", string(slot.MealType)),
	)
	return plan, nil
}

// RemoveRecipe empties one slot
func (s *MealPlanService) RemoveRecipe(ctx context.Context, planID uuid.UUID, slot mealplan.Slot) (*mealplan.MealPlan, error) {
	if err := slot.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid slot")
	}

	var plan *mealplan.MealPlan
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		removed, err := s.plans.DeleteItem(ctx, planID, slot)
		if err != nil {
			return err
		}
		if !removed {
			if _, err := s.plans.FindByID(ctx, planID); err != nil {
				return err
			}
			return errors.NewNotFoundError("Meal plan item", "").
				WithMetadata("day_of_week", int(slot.Day)).
				WithMetadata("meal_type", string(slot.MealType))
		}
		plan, err = s.plans.FindByID(ctx, planID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Clear removes every item of the plan and keeps the plan
func (s *MealPlanService) Clear(ctx context.Context, planID uuid.UUID) (*mealplan.MealPlan, error) {
	var plan *mealplan.MealPlan
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		if plan, err = s.plans.FindByID(ctx, planID); err != nil {
			return err
		}
		removed, err := s.plans.DeleteItems(ctx, planID)
		if err != nil {
			return err
		}
		s.logger.Debug("Meal plan cleared",
			zap.String("meal_plan_id", planID.String()),
			zap.Int64("items_removed", removed),
		)
		plan.Items = []mealplan.Item{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}
